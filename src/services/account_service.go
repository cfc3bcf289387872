// src/services/account_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/parsers"
	"github.com/username/spendlens/src/security/validation"
)

const (
	defaultIssuer      = "chase"
	defaultAccountType = "credit"
)

type accountServiceImpl struct {
	db       *sql.DB
	registry *parsers.Registry
}

// NewAccountService builds the account service. New accounts must name an
// issuer that has a registered parser.
func NewAccountService(db *sql.DB, registry *parsers.Registry) AccountService {
	return &accountServiceImpl{db: db, registry: registry}
}

func (s *accountServiceImpl) ListAccounts(ctx context.Context, includeArchived bool) ([]models.Account, error) {
	accounts, err := model.ListAccounts(ctx, s.db, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountServiceImpl) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	a, err := model.GetAccountByID(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	return a, nil
}

func (s *accountServiceImpl) CreateAccount(ctx context.Context, in models.AccountCreate) (*models.Account, error) {
	in.Name = validation.CleanUserText(in.Name)
	in.Owner = validation.CleanUserText(in.Owner)
	in.Issuer = strings.ToLower(strings.TrimSpace(in.Issuer))
	in.AccountType = strings.ToLower(strings.TrimSpace(in.AccountType))
	if in.Issuer == "" {
		in.Issuer = defaultIssuer
	}
	if in.AccountType == "" {
		in.AccountType = defaultAccountType
	}

	if err := validation.ValidateStringNotEmpty(in.Name, "name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(in.Name, validation.DefaultMaxStringLength, "name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(in.Owner, validation.DefaultMaxStringLength, "owner"); err != nil {
		return nil, err
	}
	if in.LastFour != nil {
		if err := validation.ValidateLastFour(*in.LastFour); err != nil {
			return nil, err
		}
	}
	if _, err := s.registry.Resolve(in.Issuer); err != nil {
		return nil, fmt.Errorf("%w: unsupported issuer %q (supported: %s)", ErrValidation, in.Issuer, strings.Join(s.registry.Issuers(), ", "))
	}

	id, err := model.CreateAccount(ctx, s.db, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	logger.FromContext(ctx).Info("Account created", "accountID", id, "issuer", in.Issuer)
	return s.GetAccount(ctx, id)
}

func (s *accountServiceImpl) ArchiveAccount(ctx context.Context, id int64) error {
	found, err := model.ArchiveAccount(ctx, s.db, id)
	if err != nil {
		return fmt.Errorf("failed to archive account %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: account %d", ErrNotFound, id)
	}
	return nil
}

func (s *accountServiceImpl) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	txs, err := model.ListTransactionsByAccount(ctx, s.db, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	return txs, nil
}
