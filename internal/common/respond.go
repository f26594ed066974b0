// Package common — respond.go содержит единые помощники HTTP-ответов.
// Формат ответа фиксирован: {"success": true, ...} либо
// {"success": false, "error": "<текст>"}.
package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RespondOK отдаёт успешный ответ, вливая payload в корень объекта.
func RespondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondCreated — как RespondOK, но со статусом 201.
func RespondCreated(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusCreated, body)
}

// RespondError переводит доменную ошибку в HTTP-статус и тело ответа.
// Тексты UserError отдаются клиенту как есть; внутренние ошибки наружу
// не утекают — клиент видит только "internal error".
func RespondError(c *gin.Context, err error) {
	if uerr, ok := AsUserError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": uerr.Msg})
		return
	}

	switch {
	case errors.Is(err, ErrRaffleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Raffle not found."})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found."})
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Amount must be a positive number."})
	case errors.Is(err, ErrNotAuthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization required."})
	case errors.Is(err, ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Wrong password."})
	case errors.Is(err, ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many login attempts, try again later."})
	case IsRetryable(err):
		// Конфликт блокировок: сервис не повторяет транзакцию сам,
		// клиенту предлагается повторить запрос.
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service is busy, please retry."})
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("внутренняя ошибка запроса")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

// RespondBadRequest отдаёт 400 с фиксированным текстом (ошибки биндинга).
func RespondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
