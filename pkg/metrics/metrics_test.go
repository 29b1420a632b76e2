package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/pseudomuto/chdata/pkg/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ClientInitialized("http")
	m.ObservePing(10*time.Millisecond, nil)
	m.ObservePing(time.Second, errors.New("boom"))
	m.TableRegistered("analytics.page_views", nil)
	m.TableRegistered("analytics.orders", errors.New("mismatch"))
	m.Inserted("analytics.page_views", 3)

	require.InDelta(t, 1, testutil.ToFloat64(m.ClientsInitialized.WithLabelValues("http")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Pings.WithLabelValues(OutcomeSuccess)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Pings.WithLabelValues(OutcomeFailure)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.TablesRegistered), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.TableFailures.WithLabelValues("analytics.orders")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.RowsInserted.WithLabelValues("analytics.page_views")), 0)

	expected := `
# HELP chdata_tables_registered_total Total number of entities bound to their table schema
# TYPE chdata_tables_registered_total counter
chdata_tables_registered_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "chdata_tables_registered_total"))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.ClientInitialized("native")
		m.ObservePing(time.Millisecond, nil)
		m.TableRegistered("t", nil)
		m.Inserted("t", 1)
	})
}

func TestModule(t *testing.T) {
	var (
		reg *prometheus.Registry
		m   *Metrics
	)

	app := fxtest.New(t, fx.NopLogger, Module, fx.Populate(&reg, &m))
	app.RequireStart().RequireStop()

	m.ClientInitialized("native")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	require.Contains(t, names, "go_goroutines")
	require.Contains(t, names, "chdata_clients_initialized_total")
}
