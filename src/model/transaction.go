package model

import (
	"context"
	"database/sql"
	"strings"

	"github.com/username/spendlens/src/models"
)

// InsertTransaction writes tx unless its dedup hash is already stored.
// inserted is false on a dedup conflict, in which case id is the existing row.
func InsertTransaction(ctx context.Context, db DBTX, tx *models.Transaction) (id int64, inserted bool, err error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO transactions (
			account_id, import_id, transaction_date, posted_date, description,
			original_category, type, amount_cents, memo, display_name, category_id,
			is_return, dedup_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_hash) DO NOTHING`,
		tx.AccountID, tx.ImportID, tx.TransactionDate, tx.PostedDate, tx.Description,
		tx.OriginalCategory, tx.Type, tx.AmountCents, nullable(tx.Memo), nullable(tx.DisplayName),
		nullable(tx.CategoryID), tx.IsReturn, tx.DedupHash)
	if err != nil {
		return 0, false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		id, err = GetTransactionIDByHash(ctx, db, tx.DedupHash)
		return id, false, err
	}

	id, err = res.LastInsertId()
	return id, err == nil, err
}

func GetTransactionIDByHash(ctx context.Context, db DBTX, hash string) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM transactions WHERE dedup_hash = ?`, hash).Scan(&id)
	return id, err
}

// ListTransactionsByAccount returns an account's ledger in date order.
func ListTransactionsByAccount(ctx context.Context, db DBTX, accountID int64) ([]models.Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, account_id, import_id, transaction_date, posted_date, description,
		       original_category, type, amount_cents, memo, display_name, category_id,
		       notes, is_return, dedup_hash, created_at, updated_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY transaction_date, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var memo, displayName, notes sql.NullString
		var categoryID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.ImportID, &t.TransactionDate, &t.PostedDate, &t.Description,
			&t.OriginalCategory, &t.Type, &t.AmountCents, &memo, &displayName, &categoryID,
			&notes, &t.IsReturn, &t.DedupHash, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Memo = stringPtr(memo)
		t.DisplayName = stringPtr(displayName)
		t.CategoryID = int64Ptr(categoryID)
		t.Notes = stringPtr(notes)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// RecurringCandidate is the slice of a transaction that recurring-charge
// detection looks at.
type RecurringCandidate struct {
	ID              int64
	TransactionDate string
	Description     string
	AmountCents     int64
	CategoryID      *int64
}

// ListRecurringCandidates returns every non-return transaction whose type is not
// one of excludedTypes (compared case-insensitively), ordered by date then id.
func ListRecurringCandidates(ctx context.Context, db DBTX, excludedTypes []string) ([]RecurringCandidate, error) {
	query := `
		SELECT id, transaction_date, description, amount_cents, category_id
		FROM transactions
		WHERE is_return = 0`
	var args []any
	if len(excludedTypes) > 0 {
		query += ` AND lower(type) NOT IN (?` + strings.Repeat(",?", len(excludedTypes)-1) + `)`
		for _, t := range excludedTypes {
			args = append(args, strings.ToLower(t))
		}
	}
	query += ` ORDER BY transaction_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []RecurringCandidate
	for rows.Next() {
		var c RecurringCandidate
		var categoryID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.TransactionDate, &c.Description, &c.AmountCents, &categoryID); err != nil {
			return nil, err
		}
		c.CategoryID = int64Ptr(categoryID)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
