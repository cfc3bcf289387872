package model

import (
	"context"
	"database/sql"
	"strings"

	"github.com/username/spendlens/src/models"
)

const ruleColumns = `id, rule_type, match_field, match_pattern, match_mode, target_category_id, display_name, priority, is_active, created_at, updated_at`

func scanRule(row rowScanner) (*models.Rule, error) {
	var r models.Rule
	var target sql.NullInt64
	var displayName sql.NullString
	if err := row.Scan(&r.ID, &r.RuleType, &r.MatchField, &r.MatchPattern, &r.MatchMode, &target, &displayName, &r.Priority, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.TargetCategoryID = int64Ptr(target)
	r.DisplayName = stringPtr(displayName)
	return &r, nil
}

func queryRules(ctx context.Context, db DBTX, query string, args ...any) ([]models.Rule, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []models.Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

// ListRules returns every rule in evaluation order.
func ListRules(ctx context.Context, db DBTX) ([]models.Rule, error) {
	return queryRules(ctx, db, `SELECT `+ruleColumns+` FROM rules ORDER BY priority, id`)
}

// ListActiveRules returns the rules the engine evaluates, in evaluation order.
func ListActiveRules(ctx context.Context, db DBTX) ([]models.Rule, error) {
	return queryRules(ctx, db, `SELECT `+ruleColumns+` FROM rules WHERE is_active = 1 ORDER BY priority, id`)
}

func GetRuleByID(ctx context.Context, db DBTX, id int64) (*models.Rule, error) {
	return scanRule(db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id))
}

// CreateRule expects defaults (match field, mode, priority) to be resolved by the caller.
func CreateRule(ctx context.Context, db DBTX, in models.RuleCreate) (int64, error) {
	priority := 100
	if in.Priority != nil {
		priority = *in.Priority
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO rules (rule_type, match_field, match_pattern, match_mode, target_category_id, display_name, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.RuleType, in.MatchField, in.MatchPattern, in.MatchMode,
		nullable(in.TargetCategoryID), nullable(in.DisplayName), priority)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateRule applies the non-nil fields of in. It reports false when no rule has that id.
func UpdateRule(ctx context.Context, db DBTX, in models.RuleUpdate) (bool, error) {
	var sets []string
	var args []any
	if in.MatchPattern != nil {
		sets = append(sets, "match_pattern = ?")
		args = append(args, *in.MatchPattern)
	}
	if in.MatchMode != nil {
		sets = append(sets, "match_mode = ?")
		args = append(args, *in.MatchMode)
	}
	if in.TargetCategoryID != nil {
		sets = append(sets, "target_category_id = ?")
		args = append(args, *in.TargetCategoryID)
	}
	if in.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *in.DisplayName)
	}
	if in.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *in.Priority)
	}
	if in.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *in.IsActive)
	}
	sets = append(sets, "updated_at = datetime('now')")
	args = append(args, in.ID)

	res, err := db.ExecContext(ctx, `UPDATE rules SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func DeleteRule(ctx context.Context, db DBTX, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
