package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the page lifecycle collectors.
type Metrics struct {
	registry *prometheus.Registry

	executions *prometheus.CounterVec
	txs        *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accreq_page_executions_total",
				Help: "Total number of page executions by outcome",
			},
			[]string{"page", "route", "outcome"},
		),
		txs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accreq_transactions_total",
				Help: "Total number of request transactions by how they were closed",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accreq_page_duration_seconds",
				Help:    "Duration of page executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"page"},
		),
	}
	m.registry.MustRegister(
		m.executions,
		m.txs,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for tests and additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records lifecycle events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPageFinish: func(_ context.Context, e *domain.PageEvent) {
			m.executions.WithLabelValues(e.Page, e.Route, string(e.Outcome)).Inc()
			m.duration.WithLabelValues(e.Page).Observe(e.Duration.Seconds())
		},
		OnTxClose: func(_ context.Context, e *domain.TxEvent) {
			m.txs.WithLabelValues(string(e.Result)).Inc()
		},
	}
}
