package models

// Transaction is one persisted ledger entry.
type Transaction struct {
	ID               int64   `json:"id"`
	AccountID        int64   `json:"accountId"`
	ImportID         int64   `json:"importId"`
	TransactionDate  string  `json:"transactionDate"`
	PostedDate       string  `json:"postedDate"`
	Description      string  `json:"description"`
	OriginalCategory string  `json:"originalCategory"`
	Type             string  `json:"type"`
	AmountCents      int64   `json:"amountCents"`
	Memo             *string `json:"memo"`
	DisplayName      *string `json:"displayName"`
	CategoryID       *int64  `json:"categoryId"`
	Notes            *string `json:"notes"`
	IsReturn         bool    `json:"isReturn"`
	DedupHash        string  `json:"dedupHash"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// RowOutcome is the result of trying to persist one parsed row.
type RowOutcome string

const (
	RowInserted RowOutcome = "inserted"
	RowSkipped  RowOutcome = "skipped" // dedup key already present
	RowFailed   RowOutcome = "failed"
)

// RowResult records what happened to a single row of an import batch.
type RowResult struct {
	Row           int        `json:"row"`
	Outcome       RowOutcome `json:"outcome"`
	TransactionID int64      `json:"transactionId,omitempty"`
	Error         *RowError  `json:"error,omitempty"`
}
