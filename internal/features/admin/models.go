// Package admin реализует аутентификацию администратора: вход по паролю
// (argon2id-хеш в конфигурации), bearer-сессии в PostgreSQL и защиту
// от перебора пароля.
package admin

import "time"

// Session — активная админ-сессия. Токен выдаётся при входе и передаётся
// в заголовке Authorization: Bearer <token>.
type Session struct {
	ID        int64     `db:"id" json:"-"`
	Token     string    `db:"token" json:"token"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

// Порог защиты от перебора: после maxLoginFailures неудачных попыток
// за failureWindow вход блокируется до истечения окна.
const (
	maxLoginFailures = 3
	failureWindow    = time.Hour
)
