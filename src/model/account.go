package model

import (
	"context"
	"database/sql"

	"github.com/username/spendlens/src/models"
)

const accountColumns = `id, name, owner, issuer, account_type, last_four, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var lastFour sql.NullString
	if err := row.Scan(&a.ID, &a.Name, &a.Owner, &a.Issuer, &a.AccountType, &lastFour, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.LastFour = stringPtr(lastFour)
	return &a, nil
}

// GetAccountByID returns sql.ErrNoRows when the account does not exist.
func GetAccountByID(ctx context.Context, db DBTX, id int64) (*models.Account, error) {
	row := db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func ListAccounts(ctx context.Context, db DBTX, includeArchived bool) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeArchived {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func CreateAccount(ctx context.Context, db DBTX, in models.AccountCreate) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO accounts (name, owner, issuer, account_type, last_four) VALUES (?, ?, ?, ?, ?)`,
		in.Name, in.Owner, in.Issuer, in.AccountType, nullable(in.LastFour))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ArchiveAccount hides the account from listings; its history is kept.
func ArchiveAccount(ctx context.Context, db DBTX, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE accounts SET is_active = 0, updated_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
