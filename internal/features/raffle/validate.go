// Package raffle — validate.go проверяет предусловия покупки билетов.
// Чистые функции: вызываются из транзакции покупки с уже заблокированными
// строками, каждая отказывает с отдельной понятной причиной.
package raffle

import (
	"fmt"
	"time"

	"sweetstream.tv/raffle-service/internal/common"
)

// purchaseState — данные, прочитанные транзакцией покупки под блокировками.
type purchaseState struct {
	ExistingTickets int64 // сколько билетов у пользователя уже есть
	SoldTickets     int64 // сколько билетов продано всего по розыгрышу
	IsSubscriber    bool
}

// validatePurchase проверяет все предусловия, кроме баланса (баланс проверяет
// economy.DeductInTx под своей блокировкой). Порядок проверок фиксирован,
// чтобы пользователь всегда получал самую раннюю причину отказа.
func validatePurchase(r *Raffle, st *purchaseState, quantity int64, now time.Time) error {
	if quantity <= 0 {
		return common.NewUserError("Quantity must be a positive number.")
	}

	if r.IsDrawn() {
		return common.NewUserError("This raffle has already been completed.")
	}

	// Скрытый розыгрыш (в т.ч. скрытый до старта) недоступен для покупки
	if !r.VisibleAt(now) {
		return common.NewUserError("This raffle is not available yet.")
	}

	// Видимый upcoming-розыгрыш принимает покупки (предпродажа);
	// закрыт только completed и прочие нерабочие статусы
	if r.Status != StatusUpcoming && r.Status != StatusActive {
		return common.NewUserError("This raffle is not open for entries.")
	}

	if r.IsEnded(now) {
		return common.NewUserError("This raffle has ended.")
	}

	if r.SubOnly && !st.IsSubscriber {
		return common.NewUserError("This raffle is for subscribers only.")
	}

	if r.MaxTicketsPerUser > 0 && st.ExistingTickets+quantity > r.MaxTicketsPerUser {
		return common.NewUserError(fmt.Sprintf("Maximum %d tickets per user", r.MaxTicketsPerUser))
	}

	if r.TotalTicketsCap > 0 && st.SoldTickets+quantity > r.TotalTicketsCap {
		remaining := r.TotalTicketsCap - st.SoldTickets
		if remaining < 0 {
			remaining = 0
		}
		return common.NewUserError(fmt.Sprintf(
			"Only %d tickets left in this raffle.", remaining,
		))
	}

	return nil
}

// validateDraw проверяет предусловия розыгрыша под блокировкой строки raffles.
func validateDraw(r *Raffle, entryCount int) error {
	if r.IsDrawn() {
		return common.NewUserError("Winners have already been drawn for this raffle.")
	}
	if entryCount == 0 {
		return common.NewUserError("No entries found for this raffle.")
	}
	return nil
}
