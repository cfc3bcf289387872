// src/services/rule_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/rules"
	"github.com/username/spendlens/src/security/validation"
)

const defaultRulePriority = 100

type ruleServiceImpl struct {
	db     *sql.DB
	engine *rules.Engine
}

func NewRuleService(db *sql.DB, engine *rules.Engine) RuleService {
	return &ruleServiceImpl{db: db, engine: engine}
}

func (s *ruleServiceImpl) ListRules(ctx context.Context, activeOnly bool) ([]models.Rule, error) {
	var list []models.Rule
	var err error
	if activeOnly {
		list, err = model.ListActiveRules(ctx, s.db)
	} else {
		list, err = model.ListRules(ctx, s.db)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return list, nil
}

func (s *ruleServiceImpl) GetRule(ctx context.Context, id int64) (*models.Rule, error) {
	r, err := model.GetRuleByID(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: rule %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rule %d: %w", id, err)
	}
	return r, nil
}

func (s *ruleServiceImpl) CreateRule(ctx context.Context, in models.RuleCreate) (*models.Rule, error) {
	if in.MatchField == "" {
		in.MatchField = "description"
	}
	if in.MatchMode == "" {
		in.MatchMode = models.MatchContains
	}
	if in.Priority == nil {
		p := defaultRulePriority
		in.Priority = &p
	}
	if !in.RuleType.Valid() {
		return nil, fmt.Errorf("%w: unknown rule type %q", ErrValidation, in.RuleType)
	}
	if in.MatchField != "description" {
		return nil, fmt.Errorf("%w: rules can only match on description", ErrValidation)
	}
	pattern, err := s.validateCommon(ctx, in.MatchPattern, in.MatchMode, in.TargetCategoryID)
	if err != nil {
		return nil, err
	}
	in.MatchPattern = pattern
	if in.DisplayName != nil {
		name, err := cleanDisplayName(*in.DisplayName)
		if err != nil {
			return nil, err
		}
		in.DisplayName = &name
	}

	id, err := model.CreateRule(ctx, s.db, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	s.engine.Invalidate()
	logger.FromContext(ctx).Info("Rule created", "ruleID", id, "type", in.RuleType, "mode", in.MatchMode)
	return s.GetRule(ctx, id)
}

func (s *ruleServiceImpl) UpdateRule(ctx context.Context, in models.RuleUpdate) (*models.Rule, error) {
	current, err := s.GetRule(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	pattern, mode := current.MatchPattern, current.MatchMode
	if in.MatchPattern != nil {
		pattern = *in.MatchPattern
	}
	if in.MatchMode != nil {
		mode = *in.MatchMode
	}
	cleaned, err := s.validateCommon(ctx, pattern, mode, in.TargetCategoryID)
	if err != nil {
		return nil, err
	}
	if in.MatchPattern != nil {
		in.MatchPattern = &cleaned
	}
	if in.DisplayName != nil {
		name, err := cleanDisplayName(*in.DisplayName)
		if err != nil {
			return nil, err
		}
		in.DisplayName = &name
	}

	found, err := model.UpdateRule(ctx, s.db, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update rule %d: %w", in.ID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: rule %d", ErrNotFound, in.ID)
	}
	s.engine.Invalidate()
	return s.GetRule(ctx, in.ID)
}

func (s *ruleServiceImpl) DeleteRule(ctx context.Context, id int64) error {
	found, err := model.DeleteRule(ctx, s.db, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: rule %d", ErrNotFound, id)
	}
	s.engine.Invalidate()
	return nil
}

// validateCommon checks the fields shared by create and update and returns
// the cleaned pattern. Regex patterns are stored verbatim.
func (s *ruleServiceImpl) validateCommon(ctx context.Context, pattern string, mode models.MatchMode, categoryID *int64) (string, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("%w: unknown match mode %q", ErrValidation, mode)
	}
	if mode != models.MatchRegex {
		pattern = strings.TrimSpace(validation.StripUnprintable(pattern))
	}
	if err := validation.ValidateStringNotEmpty(pattern, "matchPattern"); err != nil {
		return "", err
	}
	if err := validation.ValidateStringMaxLength(pattern, validation.MaxPatternLength, "matchPattern"); err != nil {
		return "", err
	}
	if categoryID != nil {
		ok, err := model.CategoryExists(ctx, s.db, *categoryID)
		if err != nil {
			return "", fmt.Errorf("failed to check category: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("%w: category %d does not exist", ErrValidation, *categoryID)
		}
	}
	return pattern, nil
}

func cleanDisplayName(s string) (string, error) {
	name := validation.CleanUserText(s)
	if err := validation.ValidateStringNotEmpty(name, "displayName"); err != nil {
		return "", err
	}
	if err := validation.ValidateStringMaxLength(name, validation.DefaultMaxStringLength, "displayName"); err != nil {
		return "", err
	}
	return name, nil
}
