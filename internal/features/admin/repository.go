// Package admin — repository.go работает с таблицами admin_sessions
// и admin_login_attempts.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"sweetstream.tv/raffle-service/internal/common"
	"sweetstream.tv/raffle-service/internal/db/postgres"
)

// Repository хранит админ-сессии и журнал неудачных входов.
type Repository struct {
	db postgres.DB
}

// NewRepository создаёт репозиторий админки.
func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

// CreateSession сохраняет новую сессию.
func (r *Repository) CreateSession(ctx context.Context, token string, expiresAt time.Time) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		INSERT INTO admin_sessions (token, expires_at)
		VALUES ($1, $2)
		RETURNING id, token, created_at, expires_at
	`, token, expiresAt).Scan(&s.ID, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return &s, nil
}

// GetSessionByToken возвращает живую сессию по токену.
// Просроченные и неизвестные токены неразличимы для клиента.
func (r *Repository) GetSessionByToken(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		SELECT id, token, created_at, expires_at
		FROM admin_sessions
		WHERE token = $1 AND expires_at > NOW()
	`, token).Scan(&s.ID, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotAuthorized
		}
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return &s, nil
}

// DeleteSession удаляет сессию (logout).
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

// DeleteExpiredSessions чистит протухшие сессии (крон-задача).
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки сессий: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountRecentFailures считает неудачные попытки входа начиная с since.
func (r *Repository) CountRecentFailures(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM admin_login_attempts WHERE attempted_at >= $1`,
		since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта попыток входа: %w", err)
	}
	return n, nil
}

// RecordFailure записывает неудачную попытку входа.
func (r *Repository) RecordFailure(ctx context.Context, remoteAddr string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_login_attempts (remote_addr) VALUES ($1)`,
		remoteAddr,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи попытки входа: %w", err)
	}
	return nil
}

// ClearFailures очищает журнал после успешного входа.
func (r *Repository) ClearFailures(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM admin_login_attempts`)
	if err != nil {
		return fmt.Errorf("ошибка очистки попыток входа: %w", err)
	}
	return nil
}
