package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/spendlens/src/models"
)

func i64(v int64) *int64   { return &v }
func str(v string) *string { return &v }

func categorize(id int64, priority int, mode models.MatchMode, pattern string, category int64) models.Rule {
	return models.Rule{ID: id, RuleType: models.RuleCategorize, MatchMode: mode, MatchPattern: pattern,
		TargetCategoryID: i64(category), Priority: priority, IsActive: true}
}

func cleanup(id int64, priority int, mode models.MatchMode, pattern, name string) models.Rule {
	return models.Rule{ID: id, RuleType: models.RuleMerchantCleanup, MatchMode: mode, MatchPattern: pattern,
		DisplayName: str(name), Priority: priority, IsActive: true}
}

func TestRuleSet_Precedence(t *testing.T) {
	set := Compile([]models.Rule{
		categorize(3, 100, models.MatchContains, "amazon", 30),
		categorize(2, 10, models.MatchContains, "amazon", 20),
		categorize(1, 10, models.MatchContains, "amzn", 10),
		cleanup(4, 500, models.MatchContains, "amazon", "Amazon"),
	})

	got := set.Apply("AMAZON MKTPLACE PMTS")
	assert.Equal(t, i64(20), got.CategoryID, "lowest priority wins, then lowest id")
	assert.Equal(t, str("Amazon"), got.DisplayName, "cleanup rule applies independently of the category")

	got = set.Apply("AMZN Mktp US AMAZON")
	assert.Equal(t, i64(10), got.CategoryID, "equal priority falls back to lower id")
}

func TestRuleSet_MatchModes(t *testing.T) {
	tests := []struct {
		name string
		rule models.Rule
		desc string
		want bool
	}{
		{"contains", categorize(1, 1, models.MatchContains, "Netflix", 1), "netflix.com 866", true},
		{"contains miss", categorize(1, 1, models.MatchContains, "hulu", 1), "netflix.com", false},
		{"starts_with", categorize(1, 1, models.MatchStartsWith, "SQ *", 1), "sq *blue bottle", true},
		{"starts_with miss", categorize(1, 1, models.MatchStartsWith, "blue", 1), "sq *blue bottle", false},
		{"exact", categorize(1, 1, models.MatchExact, "Uber Trip", 1), "UBER TRIP", true},
		{"exact miss", categorize(1, 1, models.MatchExact, "uber", 1), "uber trip", false},
		{"regex", categorize(1, 1, models.MatchRegex, `^spotify\s+#\d+`, 1), "SPOTIFY #12345 STOCKHOLM", true},
		{"regex miss", categorize(1, 1, models.MatchRegex, `^spotify$`, 1), "SPOTIFY USA", false},
		{"invalid regex never matches", categorize(1, 1, models.MatchRegex, `([`, 1), "([", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile([]models.Rule{tt.rule}).Apply(tt.desc)
			assert.Equal(t, tt.want, got.CategoryID != nil)
		})
	}
}

func TestRuleSet_SkipsInactiveAndIncompleteRules(t *testing.T) {
	inactive := categorize(1, 1, models.MatchContains, "coffee", 1)
	inactive.IsActive = false
	noTarget := models.Rule{ID: 2, RuleType: models.RuleCategorize, MatchMode: models.MatchContains, MatchPattern: "coffee", Priority: 2, IsActive: true}
	noName := models.Rule{ID: 3, RuleType: models.RuleMerchantCleanup, MatchMode: models.MatchContains, MatchPattern: "coffee", Priority: 3, IsActive: true}

	set := Compile([]models.Rule{inactive, noTarget, noName, categorize(4, 4, models.MatchContains, "coffee", 4)})

	assert.Equal(t, 3, set.Len())
	got := set.Apply("Blue Bottle Coffee")
	assert.Equal(t, i64(4), got.CategoryID)
	assert.Nil(t, got.DisplayName)
}

func TestRuleSet_NoMatch(t *testing.T) {
	got := Compile(nil).Apply("anything")
	assert.Equal(t, models.RuleOverrides{}, got)

	var nilSet *RuleSet
	assert.Equal(t, models.RuleOverrides{}, nilSet.Apply("anything"))
}
