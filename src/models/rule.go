package models

// RuleType selects what a matching rule overrides.
type RuleType string

const (
	RuleCategorize      RuleType = "categorize"
	RuleMerchantCleanup RuleType = "merchant_cleanup"
)

// MatchMode selects how a rule's pattern is compared with the description.
type MatchMode string

const (
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "starts_with"
	MatchExact      MatchMode = "exact"
	MatchRegex      MatchMode = "regex"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	return t == RuleCategorize || t == RuleMerchantCleanup
}

// Valid reports whether m is a known match mode.
func (m MatchMode) Valid() bool {
	switch m {
	case MatchContains, MatchStartsWith, MatchExact, MatchRegex:
		return true
	}
	return false
}

// Rule is a user-defined enrichment rule. Lower Priority values win.
type Rule struct {
	ID               int64     `json:"id"`
	RuleType         RuleType  `json:"ruleType"`
	MatchField       string    `json:"matchField"`
	MatchPattern     string    `json:"matchPattern"`
	MatchMode        MatchMode `json:"matchMode"`
	TargetCategoryID *int64    `json:"targetCategoryId"`
	DisplayName      *string   `json:"displayName"`
	Priority         int       `json:"priority"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        string    `json:"createdAt"`
	UpdatedAt        string    `json:"updatedAt"`
}

type RuleCreate struct {
	RuleType         RuleType  `json:"ruleType"`
	MatchField       string    `json:"matchField,omitempty"`
	MatchPattern     string    `json:"matchPattern"`
	MatchMode        MatchMode `json:"matchMode,omitempty"`
	TargetCategoryID *int64    `json:"targetCategoryId,omitempty"`
	DisplayName      *string   `json:"displayName,omitempty"`
	Priority         *int      `json:"priority,omitempty"`
}

// RuleUpdate carries a partial update; nil fields are left unchanged.
type RuleUpdate struct {
	ID               int64      `json:"id"`
	MatchPattern     *string    `json:"matchPattern,omitempty"`
	MatchMode        *MatchMode `json:"matchMode,omitempty"`
	TargetCategoryID *int64     `json:"targetCategoryId,omitempty"`
	DisplayName      *string    `json:"displayName,omitempty"`
	Priority         *int       `json:"priority,omitempty"`
	IsActive         *bool      `json:"isActive,omitempty"`
}

// RuleOverrides is the outcome of evaluating the rule set against one description.
type RuleOverrides struct {
	CategoryID  *int64  `json:"categoryId"`
	DisplayName *string `json:"displayName"`
}
