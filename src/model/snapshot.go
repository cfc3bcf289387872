package model

import (
	"context"
	"database/sql"
	"strings"

	"github.com/username/spendlens/src/models"
)

// AccountMonths returns every YYYY-MM that has at least one transaction on the account.
func AccountMonths(ctx context.Context, db DBTX, accountID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT substr(transaction_date, 1, 7) AS month
		FROM transactions
		WHERE account_id = ?
		ORDER BY month`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// SnapshotTotals aggregates one month. A nil accountID aggregates every
// account. Transactions whose type is in excludedTypes are left out.
func SnapshotTotals(ctx context.Context, db DBTX, month string, accountID *int64, excludedTypes []string) (models.MonthlySnapshot, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
		       COUNT(*)
		FROM transactions
		WHERE substr(transaction_date, 1, 7) = ?`
	args := []any{month}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	if len(excludedTypes) > 0 {
		query += ` AND lower(type) NOT IN (?` + strings.Repeat(",?", len(excludedTypes)-1) + `)`
		for _, t := range excludedTypes {
			args = append(args, strings.ToLower(t))
		}
	}

	snap := models.MonthlySnapshot{Month: month, AccountID: accountID}
	err := db.QueryRowContext(ctx, query, args...).Scan(&snap.TotalSpendCents, &snap.TotalCreditsCents, &snap.TransactionCount)
	snap.NetSpendCents = snap.TotalSpendCents - snap.TotalCreditsCents
	return snap, err
}

// UpsertSnapshot replaces the stored figures for (month, account). The
// cross-account row has a NULL account_id, hence the IS comparison.
func UpsertSnapshot(ctx context.Context, db DBTX, snap models.MonthlySnapshot) error {
	accountArg := nullable(snap.AccountID)
	res, err := db.ExecContext(ctx, `
		UPDATE monthly_snapshots
		SET total_spend_cents = ?, total_credits_cents = ?, net_spend_cents = ?, transaction_count = ?, updated_at = datetime('now')
		WHERE month = ? AND account_id IS ?`,
		snap.TotalSpendCents, snap.TotalCreditsCents, snap.NetSpendCents, snap.TransactionCount, snap.Month, accountArg)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO monthly_snapshots (month, account_id, total_spend_cents, total_credits_cents, net_spend_cents, transaction_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Month, accountArg, snap.TotalSpendCents, snap.TotalCreditsCents, snap.NetSpendCents, snap.TransactionCount)
	return err
}

// ListSnapshots returns snapshots by month. A nil accountID selects the
// cross-account totals.
func ListSnapshots(ctx context.Context, db DBTX, accountID *int64) ([]models.MonthlySnapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, month, account_id, total_spend_cents, total_credits_cents, net_spend_cents, transaction_count, created_at, updated_at
		FROM monthly_snapshots
		WHERE account_id IS ?
		ORDER BY month`, nullable(accountID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := []models.MonthlySnapshot{}
	for rows.Next() {
		var s models.MonthlySnapshot
		var acct sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Month, &acct, &s.TotalSpendCents, &s.TotalCreditsCents, &s.NetSpendCents,
			&s.TransactionCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.AccountID = int64Ptr(acct)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
