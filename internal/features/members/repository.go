// Package members — repository.go отвечает за все операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

// Upsert добавляет нового участника или обновляет имя существующего.
// На конфликте по user_id обновляется только username (не трогаем флаги).
func (r *Repository) Upsert(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, m.UserID, m.Username)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

// GetByUserID возвращает участника. Если не найден — common.ErrUserNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `
		SELECT id, user_id, username, is_subscriber, is_banned, created_at, updated_at
		FROM members
		WHERE user_id = $1
	`
	var m Member
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.Username, &m.IsSubscriber, &m.IsBanned,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения участника (user_id=%d): %w", userID, err)
	}
	return &m, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM members WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

// SetSubscriber выставляет флаг подписчика.
func (r *Repository) SetSubscriber(ctx context.Context, userID int64, subscriber bool) error {
	query := `UPDATE members SET is_subscriber = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, subscriber)
	if err != nil {
		return fmt.Errorf("ошибка обновления флага подписчика: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}
