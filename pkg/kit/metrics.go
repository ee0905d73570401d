package kit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelOp     = "op"
	labelStatus = "status"
	labelRecord = "record"

	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

type Metrics struct {
	Operations *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	Skipped    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_operations_total",
				Help: "Total catalog operations",
			},
			[]string{labelOp, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "catalog_operation_duration_seconds",
				Help: "Catalog operation latency",
			},
			[]string{labelOp},
		),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_records_skipped_total",
				Help: "Data records skipped because they could not be parsed or read",
			},
			[]string{labelRecord},
		),
	}

	reg.MustRegister(m.Operations, m.Latency, m.Skipped)
	return m
}

// Observe records one finished operation. A nil receiver is a no-op.
func (m *Metrics) Observe(op, status string, start time.Time) {
	if m == nil {
		return
	}
	m.Latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.Operations.WithLabelValues(op, status).Inc()
}

func (m *Metrics) SkipRecord(record string) {
	if m == nil {
		return
	}
	m.Skipped.WithLabelValues(record).Inc()
}
