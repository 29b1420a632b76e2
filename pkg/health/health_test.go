package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	status Status
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(ctx context.Context) CheckResult {
	m.calls.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return CheckResult{Status: StatusUnhealthy, Error: ctx.Err().Error()}
		}
	}

	return CheckResult{Status: m.status}
}

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)

	healthy := &mockChecker{name: "healthy", status: StatusHealthy}
	m.RegisterChecker(healthy)
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	// non-verbose never runs checks
	resp = m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)
	assert.Zero(t, healthy.calls.Load())

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, StatusHealthy, resp.Checks["healthy"].Status)
	assert.Equal(t, StatusDegraded, resp.Checks["degraded"].Status)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Status
		ready    bool
		status   Status
	}{
		{name: "no checkers", ready: true, status: StatusHealthy},
		{name: "all healthy", checkers: []Status{StatusHealthy, StatusHealthy}, ready: true, status: StatusHealthy},
		{name: "degraded", checkers: []Status{StatusHealthy, StatusDegraded}, ready: true, status: StatusDegraded},
		{name: "unhealthy", checkers: []Status{StatusDegraded, StatusUnhealthy}, ready: false, status: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1")
			for i, s := range tt.checkers {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}

			resp := m.Ready(context.Background())
			require.Equal(t, tt.ready, resp.Ready)
			require.Equal(t, tt.status, resp.Status)
			require.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestManager_ChecksRunConcurrentlyWithTimeout(t *testing.T) {
	m := NewManager("v1", WithTimeout(50*time.Millisecond))
	m.RegisterChecker(&mockChecker{name: "slow", status: StatusHealthy, delay: time.Minute})
	m.RegisterChecker(&mockChecker{name: "slow2", status: StatusHealthy, delay: time.Minute})
	m.RegisterChecker(&mockChecker{name: "fast", status: StatusHealthy})

	start := time.Now()
	resp := m.Ready(context.Background())
	require.Less(t, time.Since(start), 10*time.Second)

	require.False(t, resp.Ready)
	require.Equal(t, StatusUnhealthy, resp.Checks["slow"].Status)
	require.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow2"].Error)
	require.Equal(t, StatusHealthy, resp.Checks["fast"].Status)
}

func TestManager_ServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))

	// liveness stays 200 even when a component is down
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, StatusUnhealthy, resp.Status)
	require.Equal(t, "v1.0.0", resp.Version)
}

func TestManager_ServeReady(t *testing.T) {
	tests := []struct {
		status Status
		code   int
	}{
		{StatusHealthy, http.StatusOK},
		{StatusDegraded, http.StatusOK},
		{StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			m := NewManager("v1")
			m.RegisterChecker(&mockChecker{name: "db", status: tt.status})

			rec := httptest.NewRecorder()
			m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, tt.code, rec.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			require.Equal(t, tt.status, resp.Status)
			require.Equal(t, tt.code == http.StatusOK, resp.Ready)
		})
	}
}
