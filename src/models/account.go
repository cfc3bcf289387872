package models

// Account is a card or bank account statements are imported into. Issuer
// selects the statement parser.
type Account struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Owner       string  `json:"owner"`
	Issuer      string  `json:"issuer"`
	AccountType string  `json:"accountType"`
	LastFour    *string `json:"lastFour"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type AccountCreate struct {
	Name        string  `json:"name"`
	Owner       string  `json:"owner"`
	Issuer      string  `json:"issuer,omitempty"`
	AccountType string  `json:"accountType,omitempty"`
	LastFour    *string `json:"lastFour,omitempty"`
}

type Category struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Source    string  `json:"source"` // "issuer" or "user"
	Color     *string `json:"color"`
	Icon      *string `json:"icon"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
}

type CategoryCreate struct {
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// MonthlySnapshot holds the spend figures of one month. A nil AccountID is the
// total across all accounts.
type MonthlySnapshot struct {
	ID                int64  `json:"id"`
	Month             string `json:"month"` // YYYY-MM
	AccountID         *int64 `json:"accountId"`
	TotalSpendCents   int64  `json:"totalSpendCents"`
	TotalCreditsCents int64  `json:"totalCreditsCents"`
	NetSpendCents     int64  `json:"netSpendCents"`
	TransactionCount  int    `json:"transactionCount"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}
