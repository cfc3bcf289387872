// src/parsers/chase/parser.go
package chase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/parsers"
)

const IssuerID = "chase"

const (
	colTransactionDate = "transaction date"
	colPostDate        = "post date"
	colDescription     = "description"
	colCategory        = "category"
	colType            = "type"
	colAmount          = "amount"
	colMemo            = "memo"
)

// detectionHeaders must all be present for a file to be recognised as a Chase export.
var detectionHeaders = []string{colTransactionDate, colPostDate, colDescription, colCategory, colType, colAmount}

// debitTypes are charges; an unsigned amount on one of these rows is money out.
var debitTypes = map[string]bool{
	"sale":     true,
	"purchase": true,
	"fee":      true,
	"debit":    true,
}

var hundred = decimal.NewFromInt(100)

// rawRow holds the direct string values of a single Chase CSV line.
type rawRow struct {
	TransactionDate, PostDate, Description, Category, Type, Amount, Memo string
}

// ChaseParser implements parsers.Parser for Chase credit card exports.
type ChaseParser struct{}

func NewParser() *ChaseParser {
	return &ChaseParser{}
}

var _ parsers.Parser = (*ChaseParser)(nil)

func (p *ChaseParser) Issuer() string { return IssuerID }

func (p *ChaseParser) DetectFormat(headers []string) bool {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[parsers.NormalizeHeader(h)] = true
	}
	for _, required := range detectionHeaders {
		if !present[required] {
			return false
		}
	}
	return true
}

// Parse reads a Chase CSV export. Rows without a date, description or amount,
// or whose dates or amount cannot be read, are dropped. Stray quotes inside a
// field are kept as text and invalid UTF-8 is replaced with U+FFFD.
func (p *ChaseParser) Parse(file io.Reader) ([]models.ParsedRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.ParsedRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chase parser: failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[parsers.NormalizeHeader(h)] = i
	}
	for _, required := range []string{colTransactionDate, colDescription, colAmount} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("chase parser: missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(strings.ToValidUTF8(record[i], "\uFFFD"))
	}

	rows := []models.ParsedRow{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			logger.L.Debug("Chase parser: skipping unreadable line", "line", parseErr.StartLine, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("chase parser: failed to read CSV records: %w", err)
		}

		line, _ := reader.FieldPos(0)
		raw := rawRow{
			TransactionDate: field(record, colTransactionDate),
			PostDate:        field(record, colPostDate),
			Description:     field(record, colDescription),
			Category:        field(record, colCategory),
			Type:            field(record, colType),
			Amount:          field(record, colAmount),
			Memo:            field(record, colMemo),
		}
		row, err := toParsedRow(raw)
		if err != nil {
			logger.L.Debug("Chase parser: skipping row", "line", line, "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toParsedRow(raw rawRow) (models.ParsedRow, error) {
	if raw.TransactionDate == "" || raw.Description == "" || raw.Amount == "" {
		return models.ParsedRow{}, errors.New("missing required field")
	}

	txDate, err := NormalizeDate(raw.TransactionDate)
	if err != nil {
		return models.ParsedRow{}, err
	}
	postedDate := txDate
	if raw.PostDate != "" {
		if postedDate, err = NormalizeDate(raw.PostDate); err != nil {
			return models.ParsedRow{}, fmt.Errorf("post date: %w", err)
		}
	}

	cents, err := ParseAmountCents(raw.Amount, raw.Type)
	if err != nil {
		return models.ParsedRow{}, err
	}

	return models.ParsedRow{
		TransactionDate:  txDate,
		PostedDate:       postedDate,
		Description:      raw.Description,
		OriginalCategory: raw.Category,
		Type:             raw.Type,
		AmountCents:      cents,
		Memo:             raw.Memo,
		IsReturn:         cents > 0 || strings.Contains(strings.ToLower(raw.Type), "return"),
	}, nil
}

// NormalizeDate rewrites MM/DD/YYYY (padded or not) to YYYY-MM-DD. Dates
// already in YYYY-MM-DD are accepted as-is.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"1/2/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", s)
}

// ParseAmountCents converts a display amount such as "$1,234.56" or "-87.43"
// to integer cents. An unsigned amount on a debit-type row is treated as a
// charge and negated; parenthesised amounts are negative.
func ParseAmountCents(amount, txType string) (int64, error) {
	negative := strings.HasPrefix(strings.TrimSpace(amount), "(") && strings.HasSuffix(strings.TrimSpace(amount), ")")

	var b strings.Builder
	for _, r := range amount {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	signed := strings.HasPrefix(cleaned, "-") || strings.HasPrefix(cleaned, "+")

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if negative {
		value = value.Abs().Neg()
	} else if !signed && debitTypes[strings.ToLower(strings.TrimSpace(txType))] {
		value = value.Neg()
	}
	return value.Mul(hundred).Round(0).IntPart(), nil
}
