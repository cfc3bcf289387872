// src/services/snapshot_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
)

type snapshotServiceImpl struct {
	db           *sql.DB
	paymentTypes []string
}

// NewSnapshotService builds the snapshot service. Transactions whose type is
// in paymentTypes settle the balance and are left out of the aggregates.
func NewSnapshotService(db *sql.DB, paymentTypes []string) SnapshotService {
	return &snapshotServiceImpl{db: db, paymentTypes: paymentTypes}
}

func (s *snapshotServiceImpl) RecomputeForAccount(ctx context.Context, db model.DBTX, accountID int64) error {
	months, err := model.AccountMonths(ctx, db, accountID)
	if err != nil {
		return fmt.Errorf("failed to list months for account %d: %w", accountID, err)
	}

	for _, month := range months {
		for _, scope := range []*int64{&accountID, nil} {
			snap, err := model.SnapshotTotals(ctx, db, month, scope, s.paymentTypes)
			if err != nil {
				return fmt.Errorf("failed to aggregate %s: %w", month, err)
			}
			if err := model.UpsertSnapshot(ctx, db, snap); err != nil {
				return fmt.Errorf("failed to store snapshot for %s: %w", month, err)
			}
		}
	}
	logger.FromContext(ctx).Debug("Monthly snapshots recomputed", "accountID", accountID, "months", len(months))
	return nil
}

func (s *snapshotServiceImpl) ListSnapshots(ctx context.Context, accountID *int64) ([]models.MonthlySnapshot, error) {
	snaps, err := model.ListSnapshots(ctx, s.db, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}
