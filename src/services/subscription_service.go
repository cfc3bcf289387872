// src/services/subscription_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/spendlens/src/database"
	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/processors"
	"github.com/username/spendlens/src/security/validation"
)

type subscriptionServiceImpl struct {
	db           *sql.DB
	detector     processors.RecurringProcessor
	paymentTypes []string
}

// NewSubscriptionService builds the subscription service. Transactions whose
// type is in paymentTypes are never considered recurring charges.
func NewSubscriptionService(db *sql.DB, detector processors.RecurringProcessor, paymentTypes []string) SubscriptionService {
	return &subscriptionServiceImpl{db: db, detector: detector, paymentTypes: paymentTypes}
}

// DetectRecurringCharges scans the whole ledger and creates or refreshes one
// subscription per detected merchant. Running it twice on the same data
// changes nothing the second time.
func (s *subscriptionServiceImpl) DetectRecurringCharges(ctx context.Context) (*models.DetectResult, error) {
	log := logger.FromContext(ctx)
	startTime := time.Now()

	candidates, err := model.ListRecurringCandidates(ctx, s.db, s.paymentTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for detection: %w", err)
	}
	charges := make([]processors.Charge, 0, len(candidates))
	for _, c := range candidates {
		charges = append(charges, processors.Charge{
			TransactionID: c.ID,
			Date:          c.TransactionDate,
			Description:   c.Description,
			AmountCents:   c.AmountCents,
			CategoryID:    c.CategoryID,
		})
	}
	detected := s.detector.Detect(charges)

	result := &models.DetectResult{}
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, rc := range detected {
			created, updated, err := s.upsertDetected(ctx, tx, rc)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else if updated {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Recurring charge detection finished",
		"transactions", len(charges), "detected", len(detected),
		"created", result.Created, "updated", result.Updated, "duration", time.Since(startTime))
	return result, nil
}

func (s *subscriptionServiceImpl) upsertDetected(ctx context.Context, tx *sql.Tx, rc processors.RecurringCharge) (created, updated bool, err error) {
	existing, err := model.GetSubscriptionByName(ctx, tx, rc.Name)
	var subID int64
	switch {
	case errors.Is(err, sql.ErrNoRows):
		amount, first, last := rc.AmountCents, rc.FirstSeen, rc.LastSeen
		subID, err = model.CreateSubscription(ctx, tx, &models.Subscription{
			Name:                 rc.Name,
			CategoryID:           rc.CategoryID,
			EstimatedAmountCents: &amount,
			BillingCycle:         rc.Cycle,
			FirstSeenDate:        &first,
			LastSeenDate:         &last,
		})
		if err != nil {
			return false, false, fmt.Errorf("failed to create subscription %q: %w", rc.Name, err)
		}
		created = true
	case err != nil:
		return false, false, fmt.Errorf("failed to look up subscription %q: %w", rc.Name, err)
	default:
		subID = existing.ID
		if detectionChanged(existing, rc) {
			if err := model.RefreshDetectedSubscription(ctx, tx, subID, rc.AmountCents, rc.Cycle, rc.FirstSeen, rc.LastSeen); err != nil {
				return false, false, fmt.Errorf("failed to update subscription %q: %w", rc.Name, err)
			}
			updated = true
		}
	}

	for _, txID := range rc.TransactionIDs {
		if err := model.LinkSubscriptionTransaction(ctx, tx, subID, txID); err != nil {
			return false, false, fmt.Errorf("failed to link transaction %d to subscription %q: %w", txID, rc.Name, err)
		}
	}
	return created, updated, nil
}

func detectionChanged(existing *models.Subscription, rc processors.RecurringCharge) bool {
	return !existing.IsActive ||
		existing.BillingCycle != rc.Cycle ||
		existing.EstimatedAmountCents == nil || *existing.EstimatedAmountCents != rc.AmountCents ||
		existing.FirstSeenDate == nil || *existing.FirstSeenDate != rc.FirstSeen ||
		existing.LastSeenDate == nil || *existing.LastSeenDate != rc.LastSeen
}

func (s *subscriptionServiceImpl) ListSubscriptions(ctx context.Context, includeArchived bool) ([]models.SubscriptionWithCost, error) {
	subs, err := model.ListSubscriptions(ctx, s.db, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	for i := range subs {
		if amount := subs[i].EstimatedAmountCents; amount != nil {
			annual := *amount * subs[i].BillingCycle.PeriodsPerYear()
			subs[i].AnnualCostCents = &annual
		}
	}
	return subs, nil
}

func (s *subscriptionServiceImpl) UpdateSubscription(ctx context.Context, in models.SubscriptionUpdate) (*models.Subscription, error) {
	if in.Name != nil {
		name := validation.CleanUserText(*in.Name)
		if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
			return nil, err
		}
		if err := validation.ValidateStringMaxLength(name, validation.DefaultMaxStringLength, "name"); err != nil {
			return nil, err
		}
		in.Name = &name
	}
	if in.Notes != nil {
		notes := validation.CleanUserText(*in.Notes)
		if err := validation.ValidateStringMaxLength(notes, validation.MaxNotesLength, "notes"); err != nil {
			return nil, err
		}
		in.Notes = &notes
	}
	if in.ReviewDate != nil {
		if _, err := validation.ValidateDateString(*in.ReviewDate, "reviewDate"); err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil {
		ok, err := model.CategoryExists(ctx, s.db, *in.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, *in.CategoryID)
		}
	}

	found, err := model.UpdateSubscription(ctx, s.db, in)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: a subscription with that name already exists", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription %d: %w", in.ID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: subscription %d", ErrNotFound, in.ID)
	}
	return model.GetSubscriptionByID(ctx, s.db, in.ID)
}

func (s *subscriptionServiceImpl) ArchiveSubscription(ctx context.Context, id int64) error {
	inactive := false
	_, err := s.UpdateSubscription(ctx, models.SubscriptionUpdate{ID: id, IsActive: &inactive})
	return err
}
