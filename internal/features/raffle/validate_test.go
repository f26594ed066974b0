package raffle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetstream.tv/raffle-service/internal/common"
)

func activeRaffle(now time.Time) *Raffle {
	return &Raffle{
		ID:         1,
		Title:      "Test",
		TicketCost: 10,
		StartAt:    now.Add(-time.Hour),
		Status:     StatusActive,
	}
}

func requireUserError(t *testing.T, err error, msg string) {
	t.Helper()
	require.Error(t, err)
	uerr, ok := common.AsUserError(err)
	require.True(t, ok, "ожидалась пользовательская ошибка, получено: %v", err)
	assert.Equal(t, msg, uerr.Msg)
}

func TestValidatePurchase(t *testing.T) {
	now := time.Now()

	t.Run("OK", func(t *testing.T) {
		err := validatePurchase(activeRaffle(now), &purchaseState{}, 3, now)
		assert.NoError(t, err)
	})

	t.Run("NonPositiveQuantity", func(t *testing.T) {
		requireUserError(t,
			validatePurchase(activeRaffle(now), &purchaseState{}, 0, now),
			"Quantity must be a positive number.")
		requireUserError(t,
			validatePurchase(activeRaffle(now), &purchaseState{}, -2, now),
			"Quantity must be a positive number.")
	})

	t.Run("AlreadyDrawn", func(t *testing.T) {
		r := activeRaffle(now)
		drawnAt := now.Add(-time.Minute)
		r.DrawnAt = &drawnAt
		requireUserError(t,
			validatePurchase(r, &purchaseState{}, 1, now),
			"This raffle has already been completed.")
	})

	t.Run("HiddenRaffle", func(t *testing.T) {
		r := activeRaffle(now)
		r.Hidden = true
		requireUserError(t,
			validatePurchase(r, &purchaseState{}, 1, now),
			"This raffle is not available yet.")
	})

	t.Run("HiddenUntilStart", func(t *testing.T) {
		r := activeRaffle(now)
		r.StartAt = now.Add(time.Hour)
		r.Status = StatusUpcoming
		r.HiddenUntilStart = true
		requireUserError(t,
			validatePurchase(r, &purchaseState{}, 1, now),
			"This raffle is not available yet.")
	})

	t.Run("UpcomingVisibleAcceptsPresale", func(t *testing.T) {
		r := activeRaffle(now)
		r.StartAt = now.Add(time.Hour)
		r.Status = StatusUpcoming
		assert.NoError(t, validatePurchase(r, &purchaseState{}, 1, now))
	})

	t.Run("Ended", func(t *testing.T) {
		r := activeRaffle(now)
		endAt := now.Add(-time.Minute)
		r.EndAt = &endAt
		requireUserError(t,
			validatePurchase(r, &purchaseState{}, 1, now),
			"This raffle has ended.")
	})

	t.Run("SubOnly", func(t *testing.T) {
		r := activeRaffle(now)
		r.SubOnly = true

		requireUserError(t,
			validatePurchase(r, &purchaseState{IsSubscriber: false}, 1, now),
			"This raffle is for subscribers only.")
		assert.NoError(t,
			validatePurchase(r, &purchaseState{IsSubscriber: true}, 1, now))
	})

	t.Run("PerUserLimit", func(t *testing.T) {
		r := activeRaffle(now)
		r.MaxTicketsPerUser = 5

		// 3 уже есть, просит ещё 3 — суммарно 6 > 5
		requireUserError(t,
			validatePurchase(r, &purchaseState{ExistingTickets: 3}, 3, now),
			"Maximum 5 tickets per user")

		// ровно до лимита — можно
		assert.NoError(t,
			validatePurchase(r, &purchaseState{ExistingTickets: 3}, 2, now))
	})

	t.Run("TotalCap", func(t *testing.T) {
		r := activeRaffle(now)
		r.TotalTicketsCap = 100

		requireUserError(t,
			validatePurchase(r, &purchaseState{SoldTickets: 98}, 5, now),
			"Only 2 tickets left in this raffle.")
		assert.NoError(t,
			validatePurchase(r, &purchaseState{SoldTickets: 98}, 2, now))
	})

	t.Run("NoLimitsWhenZero", func(t *testing.T) {
		// 0 в лимитах означает «без ограничений»
		r := activeRaffle(now)
		assert.NoError(t,
			validatePurchase(r, &purchaseState{ExistingTickets: 1_000_000, SoldTickets: 5_000_000}, 100, now))
	})
}

func TestValidateDraw(t *testing.T) {
	now := time.Now()

	t.Run("OK", func(t *testing.T) {
		assert.NoError(t, validateDraw(activeRaffle(now), 3))
	})

	t.Run("AlreadyDrawn", func(t *testing.T) {
		r := activeRaffle(now)
		drawnAt := now.Add(-time.Minute)
		r.DrawnAt = &drawnAt
		requireUserError(t, validateDraw(r, 3),
			"Winners have already been drawn for this raffle.")
	})

	t.Run("CompletedStatusCountsAsDrawn", func(t *testing.T) {
		r := activeRaffle(now)
		r.Status = StatusCompleted
		requireUserError(t, validateDraw(r, 3),
			"Winners have already been drawn for this raffle.")
	})

	t.Run("NoEntries", func(t *testing.T) {
		requireUserError(t, validateDraw(activeRaffle(now), 0),
			"No entries found for this raffle.")
	})
}
