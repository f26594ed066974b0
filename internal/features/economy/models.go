// Package economy управляет балансами Sweet Coins и журналом транзакций.
// models.go описывает структуры таблиц balances и coin_transactions.
package economy

import "time"

// Balance — счёт пользователя.
type Balance struct {
	ID          int64     `db:"id" json:"-"`
	UserID      int64     `db:"user_id" json:"userId"`
	Balance     int64     `db:"balance" json:"balance"`
	TotalEarned int64     `db:"total_earned" json:"totalEarned"`
	TotalSpent  int64     `db:"total_spent" json:"totalSpent"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

// Transaction — одна запись журнала. Журнал только дописывается,
// записи никогда не изменяются и не удаляются.
// Amount со знаком: положительная — начисление, отрицательная — списание.
type Transaction struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"userId"`
	Amount          int64     `db:"amount" json:"amount"`
	TransactionType string    `db:"transaction_type" json:"type"`
	Description     string    `db:"description" json:"description"`
	RaffleID        *int64    `db:"raffle_id" json:"raffleId,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// Типы транзакций
const (
	TxTypeRafflePurchase = "raffle_purchase"
	TxTypeAdminGrant     = "admin_grant"
)
