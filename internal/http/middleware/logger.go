package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger логирует каждый запрос: метод, путь, статус, длительность, request-id.
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(RequestIDKey),
		})

		switch {
		case c.Writer.Status() >= 500:
			entry.Error("запрос завершился ошибкой сервера")
		case c.Writer.Status() >= 400:
			entry.Warn("запрос отклонён")
		default:
			entry.Debug("запрос обработан")
		}
	}
}
