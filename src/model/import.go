package model

import (
	"context"

	"github.com/username/spendlens/src/models"
)

// CreateImport records a new batch before any of its rows are written.
func CreateImport(ctx context.Context, db DBTX, accountID int64, filename, fileHash string, rowCount int) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO imports (account_id, filename, file_hash, row_count) VALUES (?, ?, ?, ?)`,
		accountID, filename, fileHash, rowCount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func UpdateImportCounts(ctx context.Context, db DBTX, importID int64, imported, skipped int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE imports SET imported_count = ?, skipped_count = ? WHERE id = ?`,
		imported, skipped, importID)
	return err
}

// ListImports returns batches newest first, optionally limited to one account.
func ListImports(ctx context.Context, db DBTX, accountID *int64) ([]models.ImportBatch, error) {
	query := `
		SELECT i.id, i.account_id, a.name, i.filename, i.file_hash, i.row_count,
		       i.imported_count, i.skipped_count, i.imported_at
		FROM imports i
		JOIN accounts a ON a.id = i.account_id`
	var args []any
	if accountID != nil {
		query += ` WHERE i.account_id = ?`
		args = append(args, *accountID)
	}
	query += ` ORDER BY i.imported_at DESC, i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []models.ImportBatch{}
	for rows.Next() {
		var b models.ImportBatch
		if err := rows.Scan(&b.ID, &b.AccountID, &b.AccountName, &b.Filename, &b.FileHash, &b.RowCount,
			&b.ImportedCount, &b.SkippedCount, &b.ImportedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
