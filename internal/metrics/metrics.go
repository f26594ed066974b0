// Package metrics описывает метрики Prometheus для сервиса.
// HTTP-метрики заполняются middleware, доменные — сервисом розыгрышей.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics объединяет все метрики сервиса.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec

	TicketsSold      prometheus.Counter
	PurchasesTotal   *prometheus.CounterVec
	DrawsTotal       *prometheus.CounterVec
	DrawSpinsTotal   prometheus.Counter
	OverlayClients   prometheus.Gauge
}

// New регистрирует метрики в реестре по умолчанию.
func New(serviceName string) *Metrics {
	return &Metrics{
		RequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
			[]string{"route"},
		),
		TicketsSold: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "tickets_sold_total",
				Help:      "Total number of raffle tickets sold",
			},
		),
		PurchasesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "purchases_total",
				Help:      "Ticket purchase attempts by outcome",
			},
			[]string{"outcome"}, // ok | rejected | error
		),
		DrawsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "draws_total",
				Help:      "Raffle draws by outcome",
			},
			[]string{"outcome"},
		),
		DrawSpinsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "draw_spins_total",
				Help:      "Total RNG spins consumed by draws, including rejected duplicates",
			},
		),
		OverlayClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sweetstream",
				Subsystem: serviceName,
				Name:      "overlay_clients",
				Help:      "Connected overlay websocket clients",
			},
		),
	}
}
