package model

import (
	"context"
	"database/sql"
	"strings"

	"github.com/username/spendlens/src/models"
)

const subscriptionColumns = `s.id, s.name, s.category_id, s.estimated_amount_cents, s.billing_cycle,
	s.first_seen_date, s.last_seen_date, s.is_active, s.review_date, s.notes, s.created_at, s.updated_at`

func scanSubscription(row rowScanner, extra ...any) (*models.Subscription, error) {
	var s models.Subscription
	var categoryID, amount sql.NullInt64
	var firstSeen, lastSeen, reviewDate, notes sql.NullString
	dest := []any{&s.ID, &s.Name, &categoryID, &amount, &s.BillingCycle,
		&firstSeen, &lastSeen, &s.IsActive, &reviewDate, &notes, &s.CreatedAt, &s.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	s.CategoryID = int64Ptr(categoryID)
	s.EstimatedAmountCents = int64Ptr(amount)
	s.FirstSeenDate = stringPtr(firstSeen)
	s.LastSeenDate = stringPtr(lastSeen)
	s.ReviewDate = stringPtr(reviewDate)
	s.Notes = stringPtr(notes)
	return &s, nil
}

// GetSubscriptionByName returns sql.ErrNoRows when no subscription has that exact name.
func GetSubscriptionByName(ctx context.Context, db DBTX, name string) (*models.Subscription, error) {
	return scanSubscription(db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions s WHERE s.name = ?`, name))
}

func GetSubscriptionByID(ctx context.Context, db DBTX, id int64) (*models.Subscription, error) {
	return scanSubscription(db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions s WHERE s.id = ?`, id))
}

// CreateSubscription inserts s and returns its id.
func CreateSubscription(ctx context.Context, db DBTX, s *models.Subscription) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO subscriptions (name, category_id, estimated_amount_cents, billing_cycle, first_seen_date, last_seen_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		s.Name, nullable(s.CategoryID), nullable(s.EstimatedAmountCents), s.BillingCycle,
		nullable(s.FirstSeenDate), nullable(s.LastSeenDate))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RefreshDetectedSubscription stores freshly detected figures and reactivates the row.
func RefreshDetectedSubscription(ctx context.Context, db DBTX, id int64, amountCents int64, cycle models.BillingCycle, firstSeen, lastSeen string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE subscriptions
		SET estimated_amount_cents = ?, billing_cycle = ?, first_seen_date = ?, last_seen_date = ?, is_active = 1, updated_at = datetime('now')
		WHERE id = ?`,
		amountCents, cycle, firstSeen, lastSeen, id)
	return err
}

// LinkSubscriptionTransaction is a no-op when the link already exists.
func LinkSubscriptionTransaction(ctx context.Context, db DBTX, subscriptionID, transactionID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscription_transactions (subscription_id, transaction_id) VALUES (?, ?)`,
		subscriptionID, transactionID)
	return err
}

func ListSubscriptionLinks(ctx context.Context, db DBTX) ([]models.SubscriptionLink, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT subscription_id, transaction_id FROM subscription_transactions ORDER BY subscription_id, transaction_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.SubscriptionLink
	for rows.Next() {
		var l models.SubscriptionLink
		if err := rows.Scan(&l.SubscriptionID, &l.TransactionID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListSubscriptions returns subscriptions with their category name and number
// of linked transactions, active ones first.
func ListSubscriptions(ctx context.Context, db DBTX, includeArchived bool) ([]models.SubscriptionWithCost, error) {
	query := `
		SELECT ` + subscriptionColumns + `, c.name,
		       (SELECT COUNT(*) FROM subscription_transactions st WHERE st.subscription_id = s.id)
		FROM subscriptions s
		LEFT JOIN categories c ON c.id = s.category_id`
	if !includeArchived {
		query += ` WHERE s.is_active = 1`
	}
	query += ` ORDER BY s.is_active DESC, s.name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.SubscriptionWithCost{}
	for rows.Next() {
		var categoryName sql.NullString
		var count int
		s, err := scanSubscription(rows, &categoryName, &count)
		if err != nil {
			return nil, err
		}
		subs = append(subs, models.SubscriptionWithCost{
			Subscription:     *s,
			CategoryName:     stringPtr(categoryName),
			TransactionCount: count,
		})
	}
	return subs, rows.Err()
}

// UpdateSubscription applies the non-nil fields of in. It reports false when no
// subscription has that id.
func UpdateSubscription(ctx context.Context, db DBTX, in models.SubscriptionUpdate) (bool, error) {
	var sets []string
	var args []any
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *in.CategoryID)
	}
	if in.ReviewDate != nil {
		sets = append(sets, "review_date = ?")
		args = append(args, *in.ReviewDate)
	}
	if in.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *in.Notes)
	}
	if in.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *in.IsActive)
	}
	sets = append(sets, "updated_at = datetime('now')")
	args = append(args, in.ID)

	res, err := db.ExecContext(ctx, `UPDATE subscriptions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
