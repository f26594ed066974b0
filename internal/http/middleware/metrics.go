package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sweetstream.tv/raffle-service/internal/metrics"
)

// Metrics заполняет HTTP-метрики Prometheus. Метка route использует
// шаблон маршрута (/api/raffles/:id), а не сырой путь — иначе
// кардинальность метрик растёт с каждым ID.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.RequestsInFlight.WithLabelValues(route).Inc()
		start := time.Now()

		c.Next()

		m.RequestsInFlight.WithLabelValues(route).Dec()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
