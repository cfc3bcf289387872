// src/processors/transaction_processor.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/username/spendlens/src/models"
)

// TransactionProcessor turns parsed rows into ledger entries for one import
// batch. It is not safe for concurrent use; create one per batch.
type TransactionProcessor struct {
	accountID   int64
	occurrences map[string]int
}

func NewTransactionProcessor(accountID int64) *TransactionProcessor {
	return &TransactionProcessor{accountID: accountID, occurrences: make(map[string]int)}
}

// Process maps a parsed row and its rule overrides onto a Transaction with a
// batch-unique dedup hash.
func (p *TransactionProcessor) Process(importID int64, row models.ParsedRow, overrides models.RuleOverrides) models.Transaction {
	tx := models.Transaction{
		AccountID:        p.accountID,
		ImportID:         importID,
		TransactionDate:  row.TransactionDate,
		PostedDate:       row.PostedDate,
		Description:      row.Description,
		OriginalCategory: row.OriginalCategory,
		Type:             row.Type,
		AmountCents:      row.AmountCents,
		CategoryID:       overrides.CategoryID,
		DisplayName:      overrides.DisplayName,
		IsReturn:         row.IsReturn,
		DedupHash:        p.NextDedupKey(row),
	}
	if tx.PostedDate == "" {
		tx.PostedDate = tx.TransactionDate
	}
	if row.Memo != "" {
		memo := row.Memo
		tx.Memo = &memo
	}
	return tx
}

// NextDedupKey returns the dedup key of row. The n-th identical signature seen
// by this processor (n >= 2) gets ":n" appended before hashing, so two equal
// charges on the same day in one file stay distinct while a re-import of the
// same file reproduces the same keys.
func (p *TransactionProcessor) NextDedupKey(row models.ParsedRow) string {
	signature := DedupSignature(p.accountID, row)
	p.occurrences[signature]++
	if n := p.occurrences[signature]; n > 1 {
		signature = fmt.Sprintf("%s:%d", signature, n)
	}
	return generateHash(signature)
}

// DedupSignature is the identity of a row before occurrence numbering.
func DedupSignature(accountID int64, row models.ParsedRow) string {
	return fmt.Sprintf("%d|%s|%s|%d|%s", accountID, row.TransactionDate, row.Description, row.AmountCents, row.Type)
}

func generateHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
