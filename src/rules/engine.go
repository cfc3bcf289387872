// src/rules/engine.go
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/models"
)

const (
	ckActiveRuleSet      = "active_rule_set"
	DefaultCacheTTL      = 5 * time.Minute
	CacheCleanupInterval = 10 * time.Minute
)

// RuleSource loads the rules the engine compiles.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]models.Rule, error)
}

// RuleSourceFunc adapts a plain function to RuleSource.
type RuleSourceFunc func(ctx context.Context) ([]models.Rule, error)

func (f RuleSourceFunc) ActiveRules(ctx context.Context) ([]models.Rule, error) { return f(ctx) }

// Engine serves the compiled active rule set, reloading it from its source
// when the cached copy expires or is invalidated.
type Engine struct {
	source RuleSource
	cache  *cache.Cache
	ttl    time.Duration
}

func NewEngine(source RuleSource, ruleCache *cache.Cache, ttl time.Duration) *Engine {
	if ruleCache == nil {
		ruleCache = cache.New(DefaultCacheTTL, CacheCleanupInterval)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{source: source, cache: ruleCache, ttl: ttl}
}

// Snapshot returns the current compiled rule set.
func (e *Engine) Snapshot(ctx context.Context) (*RuleSet, error) {
	if cached, found := e.cache.Get(ckActiveRuleSet); found {
		return cached.(*RuleSet), nil
	}

	rules, err := e.source.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	set := Compile(rules)
	e.cache.Set(ckActiveRuleSet, set, e.ttl)
	logger.FromContext(ctx).Debug("Compiled rule set", "activeRules", set.Len())
	return set, nil
}

// ApplyRules evaluates the active rules against one description.
func (e *Engine) ApplyRules(ctx context.Context, description string) (models.RuleOverrides, error) {
	set, err := e.Snapshot(ctx)
	if err != nil {
		return models.RuleOverrides{}, err
	}
	return set.Apply(description), nil
}

// Invalidate drops the cached rule set; the next call recompiles it.
func (e *Engine) Invalidate() {
	e.cache.Delete(ckActiveRuleSet)
}
