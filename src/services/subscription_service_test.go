package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
)

var recurringStatement = []string{
	"01/15/2024,01/16/2024,NETFLIX.COM,Entertainment,Sale,-15.49,",
	"02/14/2024,02/15/2024,NETFLIX.COM,Entertainment,Sale,-15.49,",
	"03/15/2024,03/16/2024,NETFLIX.COM,Entertainment,Sale,-15.49,",
	"01/05/2024,01/05/2024,SPOTIFY #12345 STOCKHOLM,Entertainment,Sale,-10.99,",
	"02/05/2024,02/05/2024,SPOTIFY #67890 STOCKHOLM,Entertainment,Sale,-10.99,",
	"03/05/2024,03/05/2024,SPOTIFY #24680 STOCKHOLM,Entertainment,Sale,-10.99,",
	"01/02/2024,01/02/2024,HELLOFRESH BOX,Groceries,Sale,-69.99,",
	"01/08/2024,01/08/2024,HELLOFRESH BOX,Groceries,Sale,-69.99,",
	"01/14/2024,01/14/2024,HELLOFRESH BOX,Groceries,Sale,-69.99,",
	"01/10/2024,01/10/2024,UBER TRIP,Travel,Sale,-12.00,",
	"02/01/2024,02/01/2024,UBER TRIP,Travel,Sale,-31.50,",
	"03/03/2024,03/03/2024,UBER TRIP,Travel,Sale,-8.25,",
	"01/20/2024,01/20/2024,BEST BUY 00123,Shopping,Sale,-499.99,",
	"01/25/2024,01/25/2024,AUTOMATIC PAYMENT - THANK,,Payment,500.00,",
	"02/25/2024,02/25/2024,AUTOMATIC PAYMENT - THANK,,Payment,500.00,",
	"03/25/2024,03/25/2024,AUTOMATIC PAYMENT - THANK,,Payment,500.00,",
	"02/10/2024,02/10/2024,AMAZON MKTPLACE,Shopping,Return,25.00,",
	"03/10/2024,03/10/2024,AMAZON MKTPLACE,Shopping,Return,25.00,",
}

func findSub(subs []models.SubscriptionWithCost, name string) *models.SubscriptionWithCost {
	for i := range subs {
		if subs[i].Name == name {
			return &subs[i]
		}
	}
	return nil
}

func TestDetectRecurringCharges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.imports.Ingest(ctx, env.writeCSV(t, "q1.csv", recurringStatement...), env.account(t, "Sapphire"))
	require.NoError(t, err)

	result, err := env.subscriptions.DetectRecurringCharges(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.DetectResult{Created: 3, Updated: 0}, result)

	subs, err := env.subscriptions.ListSubscriptions(ctx, false)
	require.NoError(t, err)
	require.Len(t, subs, 3, "irregular amounts, one-offs, payments and returns are not subscriptions")

	netflix := findSub(subs, "Netflix.com")
	require.NotNil(t, netflix)
	assert.Equal(t, models.CycleMonthly, netflix.BillingCycle)
	assert.Equal(t, int64(1549), *netflix.EstimatedAmountCents)
	assert.Equal(t, int64(1549*12), *netflix.AnnualCostCents)
	assert.Equal(t, "2024-01-15", *netflix.FirstSeenDate)
	assert.Equal(t, "2024-03-15", *netflix.LastSeenDate)
	assert.Equal(t, 3, netflix.TransactionCount)

	spotify := findSub(subs, "Spotify Stockholm")
	require.NotNil(t, spotify, "store numbers collapse into one merchant")
	assert.Equal(t, 3, spotify.TransactionCount)

	box := findSub(subs, "Hellofresh Box")
	require.NotNil(t, box)
	assert.Equal(t, models.CycleWeekly, box.BillingCycle)
	assert.Equal(t, int64(6999*52), *box.AnnualCostCents)
}

func TestDetectRecurringCharges_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.imports.Ingest(ctx, env.writeCSV(t, "q1.csv", recurringStatement...), env.account(t, "Sapphire"))
	require.NoError(t, err)

	_, err = env.subscriptions.DetectRecurringCharges(ctx)
	require.NoError(t, err)
	linksBefore, err := model.ListSubscriptionLinks(ctx, env.db)
	require.NoError(t, err)

	again, err := env.subscriptions.DetectRecurringCharges(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.DetectResult{}, again)

	linksAfter, err := model.ListSubscriptionLinks(ctx, env.db)
	require.NoError(t, err)
	assert.Equal(t, linksBefore, linksAfter)
	assert.Len(t, linksAfter, 9)
}

func TestDetectRecurringCharges_UpdatesOnNewData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountID := env.account(t, "Sapphire")
	_, err := env.imports.Ingest(ctx, env.writeCSV(t, "q1.csv", recurringStatement[:3]...), accountID)
	require.NoError(t, err)

	_, err = env.subscriptions.DetectRecurringCharges(ctx)
	require.NoError(t, err)

	subs, err := env.subscriptions.ListSubscriptions(ctx, false)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NoError(t, env.subscriptions.ArchiveSubscription(ctx, subs[0].ID))

	_, err = env.imports.Ingest(ctx, env.writeCSV(t, "apr.csv", "04/15/2024,04/16/2024,NETFLIX.COM,Entertainment,Sale,-17.99,"), accountID)
	require.NoError(t, err)

	result, err := env.subscriptions.DetectRecurringCharges(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.DetectResult{Created: 0, Updated: 1}, result)

	sub, err := model.GetSubscriptionByID(ctx, env.db, subs[0].ID)
	require.NoError(t, err)
	assert.True(t, sub.IsActive, "detection reactivates an archived subscription")
	assert.Equal(t, "2024-04-15", *sub.LastSeenDate)
	assert.Equal(t, int64(1549), *sub.EstimatedAmountCents, "3 of 4 charges still agree")
}

func TestUpdateAndArchiveSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.imports.Ingest(ctx, env.writeCSV(t, "q1.csv", recurringStatement[:6]...), env.account(t, "Sapphire"))
	require.NoError(t, err)
	_, err = env.subscriptions.DetectRecurringCharges(ctx)
	require.NoError(t, err)
	subs, err := env.subscriptions.ListSubscriptions(ctx, false)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	netflix := findSub(subs, "Netflix.com")
	require.NotNil(t, netflix)

	name := "<b>Netflix</b> Premium"
	notes := "shared with family"
	review := "2024-12-01"
	category := env.categoryID(t, "Entertainment")
	updated, err := env.subscriptions.UpdateSubscription(ctx, models.SubscriptionUpdate{
		ID: netflix.ID, Name: &name, Notes: &notes, ReviewDate: &review, CategoryID: &category,
	})
	require.NoError(t, err)
	assert.Equal(t, "Netflix Premium", updated.Name)
	assert.Equal(t, "shared with family", *updated.Notes)
	assert.Equal(t, "2024-12-01", *updated.ReviewDate)
	assert.Equal(t, category, *updated.CategoryID)

	t.Run("validation", func(t *testing.T) {
		bad := "2024-13-01"
		_, err := env.subscriptions.UpdateSubscription(ctx, models.SubscriptionUpdate{ID: netflix.ID, ReviewDate: &bad})
		assert.ErrorIs(t, err, ErrValidation)

		missing := int64(9999)
		_, err = env.subscriptions.UpdateSubscription(ctx, models.SubscriptionUpdate{ID: netflix.ID, CategoryID: &missing})
		assert.ErrorIs(t, err, ErrValidation)

		taken := "Spotify Stockholm"
		_, err = env.subscriptions.UpdateSubscription(ctx, models.SubscriptionUpdate{ID: netflix.ID, Name: &taken})
		assert.ErrorIs(t, err, ErrValidation)
	})

	require.NoError(t, env.subscriptions.ArchiveSubscription(ctx, netflix.ID))
	active, err := env.subscriptions.ListSubscriptions(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := env.subscriptions.ListSubscriptions(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, env.subscriptions.ArchiveSubscription(ctx, 9999), ErrNotFound)
}
