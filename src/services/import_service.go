// src/services/import_service.go
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/spendlens/src/database"
	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/parsers"
	"github.com/username/spendlens/src/processors"
	"github.com/username/spendlens/src/rules"
	"github.com/username/spendlens/src/security/validation"
)

const maxSnippetLength = 120

type importServiceImpl struct {
	db        *sql.DB
	registry  *parsers.Registry
	rules     *rules.Engine
	snapshots SnapshotService
	uploadDir string
}

func NewImportService(
	db *sql.DB,
	registry *parsers.Registry,
	ruleEngine *rules.Engine,
	snapshots SnapshotService,
	uploadDir string,
) ImportService {
	return &importServiceImpl{
		db:        db,
		registry:  registry,
		rules:     ruleEngine,
		snapshots: snapshots,
		uploadDir: uploadDir,
	}
}

func (s *importServiceImpl) Ingest(ctx context.Context, filePath string, accountID int64) (*models.ImportSummary, error) {
	return s.ingestFile(ctx, filePath, filepath.Base(filePath), accountID)
}

func (s *importServiceImpl) IngestUpload(ctx context.Context, r io.Reader, filename string, accountID int64) (*models.ImportSummary, error) {
	if err := os.MkdirAll(s.uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	spoolPath := filepath.Join(s.uploadDir, uuid.NewString()+filepath.Ext(filename))
	f, err := os.OpenFile(spoolPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer os.Remove(spoolPath)

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return s.ingestFile(ctx, spoolPath, filepath.Base(filename), accountID)
}

func (s *importServiceImpl) ListImports(ctx context.Context, accountID *int64) ([]models.ImportBatch, error) {
	batches, err := model.ListImports(ctx, s.db, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return batches, nil
}

func (s *importServiceImpl) ingestFile(ctx context.Context, filePath, displayName string, accountID int64) (*models.ImportSummary, error) {
	log := logger.FromContext(ctx)
	startTime := time.Now()
	log.Info("Ingest START", "accountID", accountID, "filename", displayName)

	account, err := model.GetAccountByID(ctx, s.db, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %w: account %d does not exist", ErrValidation, ErrNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}

	content, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w: file %s does not exist", ErrValidation, ErrNotFound, displayName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read file %s: %v", ErrValidation, displayName, err)
	}
	if err := validation.ValidateTextContent(content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	parser, err := s.resolveParser(account.Issuer, content)
	if err != nil {
		return nil, err
	}
	rows, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	// Taken before the write transaction opens; the store has a single connection.
	ruleSet, err := s.rules.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(content)
	summary := &models.ImportSummary{
		Filename: displayName,
		RowCount: len(rows),
		Errors:   []models.RowError{},
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		batchID, err := model.CreateImport(ctx, tx, account.ID, displayName, hex.EncodeToString(hash[:]), len(rows))
		if err != nil {
			return fmt.Errorf("failed to record import batch: %w", err)
		}
		summary.BatchID = batchID

		processor := processors.NewTransactionProcessor(account.ID)
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := s.persistRow(ctx, tx, processor, batchID, i, row, ruleSet)
			switch result.Outcome {
			case models.RowInserted:
				summary.ImportedCount++
			case models.RowSkipped:
				summary.SkippedCount++
			case models.RowFailed:
				summary.Errors = append(summary.Errors, *result.Error)
				log.Warn("Row rejected", "batchID", batchID, "row", result.Row, "reason", result.Error.Reason)
			}
		}

		if err := model.UpdateImportCounts(ctx, tx, batchID, summary.ImportedCount, summary.SkippedCount); err != nil {
			return fmt.Errorf("failed to update import counts: %w", err)
		}
		return s.snapshots.RecomputeForAccount(ctx, tx, account.ID)
	})
	if err != nil {
		return nil, err
	}

	summary.ErrorCount = len(summary.Errors)
	summary.Success = summary.ErrorCount < summary.RowCount

	log.Info("Ingest END",
		"batchID", summary.BatchID, "parser", parser.Issuer(), "rows", summary.RowCount,
		"imported", summary.ImportedCount, "skipped", summary.SkippedCount, "errors", summary.ErrorCount,
		"duration", time.Since(startTime))
	return summary, nil
}

// resolveParser prefers the parser registered for the account's issuer and
// falls back to header detection.
func (s *importServiceImpl) resolveParser(issuer string, content []byte) (parsers.Parser, error) {
	if p, err := s.registry.Resolve(issuer); err == nil {
		return p, nil
	}
	if p, ok := s.registry.AutoDetect(parsers.HeaderTokens(content)); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no parser for issuer %q and the file headers were not recognised", ErrUnsupportedFormat, issuer)
}

// persistRow writes one row inside its own savepoint so a failure only undoes
// that row.
func (s *importServiceImpl) persistRow(
	ctx context.Context,
	tx *sql.Tx,
	processor *processors.TransactionProcessor,
	batchID int64,
	index int,
	row models.ParsedRow,
	ruleSet *rules.RuleSet,
) models.RowResult {
	lineNo := index + 2 // 1-based, after the header line
	entry := processor.Process(batchID, row, ruleSet.Apply(row.Description))

	var id int64
	var inserted bool
	err := database.Savepoint(ctx, tx, fmt.Sprintf("import_row_%d", index), func() error {
		var err error
		id, inserted, err = model.InsertTransaction(ctx, tx, &entry)
		return err
	})
	if err != nil {
		return models.RowResult{
			Row:     lineNo,
			Outcome: models.RowFailed,
			Error: &models.RowError{
				Row:        lineNo,
				Reason:     err.Error(),
				RawSnippet: rawSnippet(row),
			},
		}
	}
	if !inserted {
		logger.FromContext(ctx).Debug("Skipping duplicate transaction on import", "batchID", batchID, "row", lineNo, "existingID", id)
		return models.RowResult{Row: lineNo, Outcome: models.RowSkipped, TransactionID: id}
	}
	return models.RowResult{Row: lineNo, Outcome: models.RowInserted, TransactionID: id}
}

func rawSnippet(row models.ParsedRow) string {
	amount := decimal.New(row.AmountCents, -2).StringFixed(2)
	return validation.Truncate(fmt.Sprintf("%s | %s | %s", row.TransactionDate, row.Description, amount), maxSnippetLength)
}
