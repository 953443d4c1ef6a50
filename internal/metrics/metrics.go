// Package metrics exposes Prometheus metrics for the ledger service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	rpcTotal            *prometheus.CounterVec
	rpcDuration         *prometheus.HistogramVec
	expensesTotal       *prometheus.CounterVec
	transfersTotal      *prometheus.CounterVec
	transferAmount      prometheus.Histogram
	circuitBreakerState prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		rpcTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitchain_rpc_total",
				Help: "Total number of RPCs handled",
			},
			[]string{"procedure", "code"},
		),
		rpcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitchain_rpc_duration_milliseconds",
				Help:    "RPC duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"procedure"},
		),
		expensesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitchain_expenses_total",
				Help: "Total number of expenses recorded",
			},
			[]string{"policy"},
		),
		transfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitchain_transfers_total",
				Help: "Total number of settlement transfers attempted",
			},
			[]string{"status"},
		),
		transferAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "splitchain_transfer_amount",
				Help:    "Settled transfer amounts in currency units",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		circuitBreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "splitchain_payment_breaker_state",
				Help: "Payment circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRPC(procedure, code string, d time.Duration) {
	m.rpcTotal.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) RecordExpense(policy string) {
	m.expensesTotal.WithLabelValues(policy).Inc()
}

// RecordTransfer counts a transfer by outcome; amount is only observed for
// settled transfers.
func (m *Metrics) RecordTransfer(status string, amount float64) {
	m.transfersTotal.WithLabelValues(status).Inc()
	if status == "settled" {
		m.transferAmount.Observe(amount)
	}
}

func (m *Metrics) SetBreakerState(state int) {
	m.circuitBreakerState.Set(float64(state))
}
