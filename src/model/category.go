package model

import (
	"context"
	"database/sql"

	"github.com/username/spendlens/src/models"
)

func ListCategories(ctx context.Context, db DBTX) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, source, color, icon, is_active, created_at FROM categories WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		var color, icon sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Source, &color, &icon, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Color = stringPtr(color)
		c.Icon = stringPtr(icon)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func CategoryExists(ctx context.Context, db DBTX, id int64) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// CreateCategory inserts a user-defined category.
func CreateCategory(ctx context.Context, db DBTX, in models.CategoryCreate) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, source, color, icon) VALUES (?, 'user', ?, ?)`,
		in.Name, nullable(in.Color), nullable(in.Icon))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
