package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey — ключ request-id в контексте gin и имя заголовка ответа.
const RequestIDKey = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestID присваивает каждому запросу идентификатор. Если клиент прислал
// свой X-Request-ID, он сохраняется — удобно сшивать логи через прокси.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
