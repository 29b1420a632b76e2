// Package metrics defines the Prometheus collectors exported by chdata.
//
// Collectors are registered against an explicit prometheus.Registerer so that
// tests and embedding applications can keep them off the global registry.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//
//	factory := clickhouse.NewFactory(props, clickhouse.WithMetrics(m))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chdata"

// Ping outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the chdata collectors.
type Metrics struct {
	ClientsInitialized *prometheus.CounterVec
	Pings              *prometheus.CounterVec
	PingDuration       prometheus.Histogram
	TablesRegistered   prometheus.Counter
	TableFailures      *prometheus.CounterVec
	RowsInserted       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ClientsInitialized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_initialized_total",
			Help:      "Total number of ClickHouse clients built, by protocol",
		}, []string{"protocol"}),
		Pings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_total",
			Help:      "Total number of ClickHouse pings, by outcome",
		}, []string{"outcome"}),
		PingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ping_duration_seconds",
			Help:      "Latency of ClickHouse pings including retries",
			Buckets:   prometheus.DefBuckets,
		}),
		TablesRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_registered_total",
			Help:      "Total number of entities bound to their table schema",
		}),
		TableFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_registration_failures_total",
			Help:      "Total number of entities that failed to bind, by table",
		}, []string{"table"}),
		RowsInserted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Total number of rows sent to ClickHouse, by table",
		}, []string{"table"}),
	}
}

// ObservePing records a ping outcome and its latency.
func (m *Metrics) ObservePing(d time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}

	m.Pings.WithLabelValues(outcome).Inc()
	m.PingDuration.Observe(d.Seconds())
}

// ClientInitialized records a built client.
func (m *Metrics) ClientInitialized(protocol string) {
	if m == nil {
		return
	}

	m.ClientsInitialized.WithLabelValues(protocol).Inc()
}

// TableRegistered records the outcome of binding an entity to table.
func (m *Metrics) TableRegistered(table string, err error) {
	if m == nil {
		return
	}

	if err != nil {
		m.TableFailures.WithLabelValues(table).Inc()
		return
	}

	m.TablesRegistered.Inc()
}

// Inserted records rows sent to table.
func (m *Metrics) Inserted(table string, rows int) {
	if m == nil {
		return
	}

	m.RowsInserted.WithLabelValues(table).Add(float64(rows))
}
