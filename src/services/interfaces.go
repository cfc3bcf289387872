// src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/security/validation"
)

// Define common service errors
var (
	ErrValidation        = validation.ErrValidationFailed
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParsingFailed     = errors.New("csv parsing failed")
)

// ImportService ingests statement exports into the ledger.
type ImportService interface {
	// Ingest parses the file at filePath and stores its rows on the account.
	Ingest(ctx context.Context, filePath string, accountID int64) (*models.ImportSummary, error)
	// IngestUpload stores an uploaded file in the upload directory and ingests it.
	IngestUpload(ctx context.Context, r io.Reader, filename string, accountID int64) (*models.ImportSummary, error)
	ListImports(ctx context.Context, accountID *int64) ([]models.ImportBatch, error)
}

// SubscriptionService detects and manages recurring charges.
type SubscriptionService interface {
	DetectRecurringCharges(ctx context.Context) (*models.DetectResult, error)
	ListSubscriptions(ctx context.Context, includeArchived bool) ([]models.SubscriptionWithCost, error)
	UpdateSubscription(ctx context.Context, in models.SubscriptionUpdate) (*models.Subscription, error)
	ArchiveSubscription(ctx context.Context, id int64) error
}

// RuleService manages enrichment rules. Every write invalidates the cached rule set.
type RuleService interface {
	ListRules(ctx context.Context, activeOnly bool) ([]models.Rule, error)
	GetRule(ctx context.Context, id int64) (*models.Rule, error)
	CreateRule(ctx context.Context, in models.RuleCreate) (*models.Rule, error)
	UpdateRule(ctx context.Context, in models.RuleUpdate) (*models.Rule, error)
	DeleteRule(ctx context.Context, id int64) error
}

type AccountService interface {
	ListAccounts(ctx context.Context, includeArchived bool) ([]models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	CreateAccount(ctx context.Context, in models.AccountCreate) (*models.Account, error)
	ArchiveAccount(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
}

type CategoryService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in models.CategoryCreate) (*models.Category, error)
}

// SnapshotService maintains the monthly spend aggregates.
type SnapshotService interface {
	// RecomputeForAccount rebuilds every month of the account's history, for
	// the account and for the cross-account total. db is usually the
	// ingestion transaction.
	RecomputeForAccount(ctx context.Context, db model.DBTX, accountID int64) error
	ListSnapshots(ctx context.Context, accountID *int64) ([]models.MonthlySnapshot, error)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
