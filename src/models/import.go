package models

// ImportBatch is the bookkeeping record of one ingestion call.
type ImportBatch struct {
	ID            int64  `json:"id"`
	AccountID     int64  `json:"accountId"`
	AccountName   string `json:"accountName,omitempty"`
	Filename      string `json:"filename"`
	FileHash      string `json:"fileHash"`
	RowCount      int    `json:"rowCount"`
	ImportedCount int    `json:"importedCount"`
	SkippedCount  int    `json:"skippedCount"`
	ImportedAt    string `json:"importedAt"`
}

// RowError describes a row that could not be persisted. Row is 1-based and
// counts the header line, so it matches the line number in the source file.
type RowError struct {
	Row        int    `json:"row"`
	Reason     string `json:"reason"`
	RawSnippet string `json:"rawSnippet"`
}

// ImportSummary is returned by every ingestion call.
type ImportSummary struct {
	Success       bool       `json:"success"`
	BatchID       int64      `json:"batchId"`
	Filename      string     `json:"filename"`
	RowCount      int        `json:"rowCount"`
	ImportedCount int        `json:"importedCount"`
	SkippedCount  int        `json:"skippedCount"`
	ErrorCount    int        `json:"errorCount"`
	Errors        []RowError `json:"errors"`
}
