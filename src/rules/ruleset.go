// src/rules/ruleset.go
package rules

import (
	"regexp"
	"sort"
	"strings"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/models"
)

type compiledRule struct {
	rule    models.Rule
	pattern string         // lower-cased, for the plain-text modes
	re      *regexp.Regexp // nil for plain-text modes and for invalid regexes
}

// RuleSet is an immutable, evaluation-ordered view of the active rules.
type RuleSet struct {
	rules []compiledRule
}

// Compile orders rules by priority then id and drops inactive ones. Regex
// patterns are compiled case-insensitively; a pattern that fails to compile
// is kept but never matches.
func Compile(rules []models.Rule) *RuleSet {
	active := make([]models.Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	set := &RuleSet{rules: make([]compiledRule, 0, len(active))}
	for _, r := range active {
		cr := compiledRule{rule: r, pattern: strings.ToLower(r.MatchPattern)}
		if r.MatchMode == models.MatchRegex {
			re, err := regexp.Compile("(?i)" + r.MatchPattern)
			if err != nil {
				logger.L.Warn("Rule has an invalid regex pattern and will never match", "ruleID", r.ID, "pattern", r.MatchPattern, "error", err)
			}
			cr.re = re
		}
		set.rules = append(set.rules, cr)
	}
	return set
}

// Len returns the number of active rules in the set.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Apply evaluates the set against a description. The first matching
// categorize rule with a target category decides the category; the first
// matching merchant_cleanup rule with a display name decides the display
// name. The two are independent.
func (s *RuleSet) Apply(description string) models.RuleOverrides {
	var out models.RuleOverrides
	if s == nil {
		return out
	}
	lowered := strings.ToLower(description)

	for _, cr := range s.rules {
		if out.CategoryID != nil && out.DisplayName != nil {
			break
		}
		switch cr.rule.RuleType {
		case models.RuleCategorize:
			if out.CategoryID != nil || cr.rule.TargetCategoryID == nil {
				continue
			}
		case models.RuleMerchantCleanup:
			if out.DisplayName != nil || cr.rule.DisplayName == nil {
				continue
			}
		default:
			continue
		}
		if !cr.matches(description, lowered) {
			continue
		}
		if cr.rule.RuleType == models.RuleCategorize {
			id := *cr.rule.TargetCategoryID
			out.CategoryID = &id
		} else {
			name := *cr.rule.DisplayName
			out.DisplayName = &name
		}
	}
	return out
}

func (cr compiledRule) matches(description, lowered string) bool {
	switch cr.rule.MatchMode {
	case models.MatchContains:
		return strings.Contains(lowered, cr.pattern)
	case models.MatchStartsWith:
		return strings.HasPrefix(lowered, cr.pattern)
	case models.MatchExact:
		return lowered == cr.pattern
	case models.MatchRegex:
		return cr.re != nil && cr.re.MatchString(description)
	}
	return false
}
