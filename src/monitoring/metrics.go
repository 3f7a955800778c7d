package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tix_payment_attempts_total",
			Help: "Payment attempts by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	GatewayInits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tix_gateway_init_total",
			Help: "Gateway initialization attempts by provider and resulting state",
		},
		[]string{"provider", "status"},
	)

	WizardActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tix_wizard_actions_total",
			Help: "Wizard navigation and save actions",
		},
		[]string{"action"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tix_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
