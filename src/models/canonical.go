// src/models/canonical.go
package models

// ParsedRow is the unified, intermediate representation of one statement line.
// Each issuer parser populates it directly from the source file; the ingestion
// loop consumes it once and discards it.
type ParsedRow struct {
	TransactionDate  string `json:"transactionDate"`  // YYYY-MM-DD
	PostedDate       string `json:"postedDate"`       // YYYY-MM-DD, falls back to TransactionDate
	Description      string `json:"description"`
	OriginalCategory string `json:"originalCategory"` // Category label assigned by the issuer
	Type             string `json:"type"`             // e.g. "Sale", "Payment", "Return"
	AmountCents      int64  `json:"amountCents"`      // Negative = charge, positive = credit/return
	Memo             string `json:"memo"`
	IsReturn         bool   `json:"isReturn"`
}
