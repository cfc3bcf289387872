package models

// BillingCycle is the cadence inferred for a recurring charge.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleAnnual    BillingCycle = "annual"
)

// PeriodsPerYear is used to annualise an estimated charge.
func (c BillingCycle) PeriodsPerYear() int64 {
	switch c {
	case CycleWeekly:
		return 52
	case CycleMonthly:
		return 12
	case CycleQuarterly:
		return 4
	case CycleAnnual:
		return 1
	}
	return 0
}

type Subscription struct {
	ID                   int64        `json:"id"`
	Name                 string       `json:"name"`
	CategoryID           *int64       `json:"categoryId"`
	EstimatedAmountCents *int64       `json:"estimatedAmountCents"`
	BillingCycle         BillingCycle `json:"billingCycle"`
	FirstSeenDate        *string      `json:"firstSeenDate"`
	LastSeenDate         *string      `json:"lastSeenDate"`
	IsActive             bool         `json:"isActive"`
	ReviewDate           *string      `json:"reviewDate"`
	Notes                *string      `json:"notes"`
	CreatedAt            string       `json:"createdAt"`
	UpdatedAt            string       `json:"updatedAt"`
}

// SubscriptionWithCost is the list view of a subscription.
type SubscriptionWithCost struct {
	Subscription
	AnnualCostCents  *int64  `json:"annualCostCents"`
	CategoryName     *string `json:"categoryName"`
	TransactionCount int     `json:"transactionCount"`
}

// SubscriptionUpdate carries a partial update; nil fields are left unchanged.
type SubscriptionUpdate struct {
	ID         int64   `json:"id"`
	Name       *string `json:"name,omitempty"`
	CategoryID *int64  `json:"categoryId,omitempty"`
	ReviewDate *string `json:"reviewDate,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

// SubscriptionLink ties a ledger entry to the subscription it was billed for.
type SubscriptionLink struct {
	SubscriptionID int64 `json:"subscriptionId"`
	TransactionID  int64 `json:"transactionId"`
}

// DetectResult is returned by a recurring-charge detection run.
type DetectResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}
