// Package economy — repository.go выполняет все операции с таблицами balances
// и coin_transactions. Все денежные операции выполняются в транзакциях БД
// для целостности данных.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансами и журналом.
type Repository struct {
	db       postgres.DB
	currency string // название валюты для пользовательских сообщений
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db postgres.DB, currency string) *Repository {
	return &Repository{db: db, currency: currency}
}

// Currency возвращает настроенное название валюты.
func (r *Repository) Currency() string {
	return r.currency
}

// CreateBalance создаёт начальный баланс для нового участника.
func (r *Repository) CreateBalance(ctx context.Context, userID int64, starting int64) error {
	query := `
		INSERT INTO balances (user_id, balance, total_earned, total_spent)
		VALUES ($1, $2, $2, 0)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, starting)
	if err != nil {
		return fmt.Errorf("ошибка создания баланса: %w", err)
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT balance FROM balances WHERE user_id = $1`
	var balance int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// GetStats возвращает полную запись баланса пользователя.
func (r *Repository) GetStats(ctx context.Context, userID int64) (*Balance, error) {
	query := `
		SELECT id, user_id, balance, total_earned, total_spent, created_at, updated_at
		FROM balances
		WHERE user_id = $1
	`
	var b Balance
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&b.ID, &b.UserID, &b.Balance, &b.TotalEarned, &b.TotalSpent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	return &b, nil
}

// AddBalance начисляет Sweet Coins на счёт пользователя.
// Обновление баланса и запись в журнал атомарны (одна транзакция БД).
func (r *Repository) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE balances
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка начисления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO coin_transactions (user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, amount, txType, description)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newBalance, nil
}

// DeductInTx списывает Sweet Coins внутри УЖЕ открытой транзакции вызывающего.
// Используется транзакцией покупки билетов: списание и запись участника
// должны зафиксироваться вместе или не зафиксироваться вовсе.
//
// Строка баланса читается с блокировкой FOR UPDATE ДО проверки достаточности
// средств — иначе две параллельные покупки обе пройдут проверку по устаревшему
// значению и уведут счёт в минус.
func (r *Repository) DeductInTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64, txType, description string, raffleID *int64) (int64, error) {
	var current int64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}

	if current < amount {
		return 0, common.NewUserError(fmt.Sprintf(
			"Not enough %s. You have %d, need %d.", r.currency, current, amount,
		))
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE balances
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO coin_transactions (user_id, amount, transaction_type, description, raffle_id)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, -amount, txType, description, raffleID)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return newBalance, nil
}

// GetTransactions возвращает последние N транзакций пользователя.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, amount, transaction_type, description, raffle_id, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Amount, &t.TransactionType,
			&t.Description, &t.RaffleID, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return transactions, nil
}
