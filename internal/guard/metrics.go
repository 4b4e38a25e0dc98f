package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic + Errors: исходы guard-пайплайна по роутам
	Decisions *prometheus.CounterVec

	// Latency: полная обработка запроса, включая хендлер
	RequestDuration *prometheus.HistogramVec

	// Saturation: заполненность буфера audit trail (backpressure)
	AuditBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — если рег не передан, используем локальный,
	// который никуда не подключен (удобно в тестах)
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Decisions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "console_guard_decisions_total",
			Help: "Guard pipeline outcomes per route scope.",
		}, []string{"scope", "outcome"}), // исходы: ok, origin, rate, identity, handler

		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_request_duration_seconds",
			Help:    "Histogram of guarded request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"scope", "outcome"}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "console_audit_buffer_utilization",
			Help: "Current number of events in the audit trail buffer.",
		}),
	}
}
