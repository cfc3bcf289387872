// src/processors/recurring_processor.go
package processors

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/models"
)

const minGroupSize = 2

var (
	reStoreNumber = regexp.MustCompile(`#\d+`)
	reStarSuffix  = regexp.MustCompile(`\*\S+`)
	reLongDigits  = regexp.MustCompile(`\d{4,}`)
	reMultiSpace  = regexp.MustCompile(`\s+`)
)

// cadenceWindows are the inclusive median-interval ranges, in days, of each billing cycle.
var cadenceWindows = []struct {
	cycle    models.BillingCycle
	min, max int
}{
	{models.CycleWeekly, 5, 10},
	{models.CycleMonthly, 24, 45},
	{models.CycleQuarterly, 80, 105},
	{models.CycleAnnual, 330, 400},
}

// Charge is one ledger entry considered for recurring-charge detection.
type Charge struct {
	TransactionID int64
	Date          string // YYYY-MM-DD
	Description   string
	AmountCents   int64
	CategoryID    *int64
}

// RecurringCharge is a group of charges that bill at a regular cadence for a
// consistent amount.
type RecurringCharge struct {
	Key                string
	Name               string
	Cycle              models.BillingCycle
	AmountCents        int64 // modal absolute amount
	MedianIntervalDays int
	FirstSeen          string
	LastSeen           string
	CategoryID         *int64
	TransactionIDs     []int64
}

// RecurringProcessor finds recurring charges in a list of transactions.
type RecurringProcessor interface {
	Detect(charges []Charge) []RecurringCharge
}

type recurringProcessorImpl struct{}

func NewRecurringProcessor() RecurringProcessor {
	return &recurringProcessorImpl{}
}

// NormalizeDescription reduces a description to its merchant key: lower-cased,
// with store numbers, "*" suffixes and long digit runs removed.
func NormalizeDescription(description string) string {
	key := strings.ToLower(description)
	key = reStoreNumber.ReplaceAllString(key, "")
	key = reStarSuffix.ReplaceAllString(key, "")
	key = reLongDigits.ReplaceAllString(key, "")
	key = reMultiSpace.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

type datedCharge struct {
	Charge
	day time.Time
}

// Detect groups charges by merchant key and keeps groups whose median gap
// between charges falls in a known billing window and whose modal amount
// covers at least 60% of the group. Groups are returned in first-seen order.
func (p *recurringProcessorImpl) Detect(charges []Charge) []RecurringCharge {
	groups := make(map[string][]datedCharge)
	var order []string
	for _, c := range charges {
		day, err := time.Parse("2006-01-02", c.Date)
		if err != nil {
			logger.L.Warn("Recurring detection: skipping transaction with invalid date", "transactionID", c.TransactionID, "date", c.Date)
			continue
		}
		key := NormalizeDescription(c.Description)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], datedCharge{Charge: c, day: day})
	}

	var detected []RecurringCharge
	for _, key := range order {
		if rc, ok := evaluateGroup(key, groups[key]); ok {
			detected = append(detected, rc)
		}
	}
	return detected
}

func evaluateGroup(key string, members []datedCharge) (RecurringCharge, bool) {
	if len(members) < minGroupSize {
		return RecurringCharge{}, false
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].day.Before(members[j].day) })

	deltas := make([]int, 0, len(members)-1)
	for i := 1; i < len(members); i++ {
		deltas = append(deltas, int(members[i].day.Sub(members[i-1].day).Hours()/24))
	}
	median := MedianInterval(deltas)
	cycle, ok := ClassifyCadence(median)
	if !ok {
		return RecurringCharge{}, false
	}

	amount, count := modalAmount(members)
	if !meetsAmountShare(count, len(members)) {
		return RecurringCharge{}, false
	}

	rc := RecurringCharge{
		Key:                key,
		Name:               TitleCase(key),
		Cycle:              cycle,
		AmountCents:        amount,
		MedianIntervalDays: median,
		FirstSeen:          members[0].Date,
		LastSeen:           members[len(members)-1].Date,
		TransactionIDs:     make([]int64, 0, len(members)),
	}
	for _, m := range members {
		rc.TransactionIDs = append(rc.TransactionIDs, m.TransactionID)
		if m.CategoryID != nil {
			rc.CategoryID = m.CategoryID
		}
	}
	return rc, true
}

// MedianInterval returns the median of deltas; for an even count it is the
// lower of the two middle values.
func MedianInterval(deltas []int) int {
	if len(deltas) == 0 {
		return 0
	}
	sorted := append([]int(nil), deltas...)
	sort.Ints(sorted)
	return sorted[(len(sorted)-1)/2]
}

// ClassifyCadence maps a median interval in days to a billing cycle.
func ClassifyCadence(days int) (models.BillingCycle, bool) {
	for _, w := range cadenceWindows {
		if days >= w.min && days <= w.max {
			return w.cycle, true
		}
	}
	return "", false
}

// modalAmount returns the most frequent absolute amount and how often it
// occurs. Ties go to the amount seen first.
func modalAmount(members []datedCharge) (int64, int) {
	counts := make(map[int64]int)
	var order []int64
	for _, m := range members {
		a := m.AmountCents
		if a < 0 {
			a = -a
		}
		if counts[a] == 0 {
			order = append(order, a)
		}
		counts[a]++
	}
	var best int64
	bestCount := 0
	for _, a := range order {
		if counts[a] > bestCount {
			best, bestCount = a, counts[a]
		}
	}
	return best, bestCount
}

// meetsAmountShare reports count/total >= 0.6 without floating point.
func meetsAmountShare(count, total int) bool {
	return count*5 >= total*3
}

// TitleCase upper-cases the first letter of every space-separated word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
