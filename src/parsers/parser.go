// src/parsers/parser.go
package parsers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/username/spendlens/src/models"
)

// ErrParserNotFound is returned by Resolve when no parser is registered for an issuer.
var ErrParserNotFound = errors.New("no parser registered for issuer")

// Parser turns one issuer's statement export into parsed rows.
type Parser interface {
	// Issuer is the identifier the parser is registered under, e.g. "chase".
	Issuer() string
	// DetectFormat reports whether the header tokens look like this issuer's export.
	DetectFormat(headers []string) bool
	// Parse reads the whole export. Rows it cannot interpret are dropped;
	// an error means the file itself is unreadable.
	Parse(r io.Reader) ([]models.ParsedRow, error)
}

// Registry maps issuer identifiers to parsers. It is built once at startup
// and handed to the import service.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds p under issuerID, replacing any parser already registered there.
// Identifiers are case-insensitive.
func (r *Registry) Register(issuerID string, p Parser) {
	key := normalizeIssuer(issuerID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.parsers[key]; !exists {
		r.order = append(r.order, key)
	}
	r.parsers[key] = p
}

// Resolve returns the parser registered for issuerID.
func (r *Registry) Resolve(issuerID string) (Parser, error) {
	key := normalizeIssuer(issuerID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrParserNotFound, issuerID)
	}
	return p, nil
}

// AutoDetect asks every parser, in registration order, whether it recognises
// the headers. The first one that does wins.
func (r *Registry) AutoDetect(headers []string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.order {
		if p := r.parsers[key]; p.DetectFormat(headers) {
			return p, true
		}
	}
	return nil, false
}

// Issuers lists the registered identifiers in registration order.
func (r *Registry) Issuers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// HeaderTokens returns the first CSV record of content, or nil if there is none.
func HeaderTokens(content []byte) []string {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		return nil
	}
	return header
}

// NormalizeHeader lower-cases a header token and strips whitespace and a UTF-8 BOM.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

func normalizeIssuer(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
