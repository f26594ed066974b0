// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях сервиса.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отдавать клиенту понятные сообщения и корректные HTTP-статусы.
package common

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки экономики (Sweet Coins)
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("user not found")
)

// Ошибки розыгрышей
var (
	// ErrRaffleNotFound — розыгрыш не существует
	ErrRaffleNotFound = errors.New("raffle not found")
	// ErrDrawDesync — индекс билета не попал ни в один диапазон.
	// Значит, диапазоны и totalTickets разошлись — розыгрыш прерывается целиком.
	ErrDrawDesync = errors.New("ticket index outside of all entry ranges")
)

// Ошибки админки
var (
	// ErrNotAuthorized — нет валидной админ-сессии
	ErrNotAuthorized = errors.New("admin authorization required")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("too many login attempts, try again in an hour")
)

// UserError — ошибка валидации с готовым текстом для пользователя.
// Текст отдаётся в HTTP-ответе как есть ({"success": false, "error": "..."}).
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// NewUserError создаёт пользовательскую ошибку с фиксированным текстом.
func NewUserError(msg string) *UserError {
	return &UserError{Msg: msg}
}

// AsUserError возвращает *UserError, если err (или его цепочка) им является.
func AsUserError(err error) (*UserError, bool) {
	var uerr *UserError
	if errors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}

// Коды SQLSTATE, при которых клиенту имеет смысл повторить запрос:
// 55P03 — lock_not_available (не дождались блокировки строки),
// 40001 — serialization_failure, 40P01 — deadlock_detected.
var retryableSQLStates = map[string]bool{
	"55P03": true,
	"40001": true,
	"40P01": true,
}

// IsRetryable сообщает, является ли ошибка транзиентной (конфликт блокировок,
// таймаут ожидания). Такие ошибки сервис НЕ повторяет сам — иначе можно
// списать деньги дважды; клиент получает 503 и решает сам.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableSQLStates[pgErr.Code]
	}
	return false
}
