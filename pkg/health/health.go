// Package health provides liveness and readiness checks for applications
// using a ClickHouse client, suitable for Docker HEALTHCHECK and Kubernetes
// liveness and readiness checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pseudomuto/chdata/pkg/log"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single check when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status            `json:"status"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager manages health and readiness checks
type Manager struct {
	version string
	timeout time.Duration

	mu       sync.RWMutex
	checkers []Checker
}

// Option configures a Manager
type Option func(*Manager)

// WithTimeout sets the deadline of each individual check.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager creates a new health check manager
func NewManager(version string, opts ...Option) *Manager {
	m := &Manager{
		version: version,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Health performs a liveness check. The process is healthy regardless of its
// dependencies; verbose adds component checks and lets them shape the status.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: time.Now(),
	}

	if !verbose {
		return resp
	}

	resp.Checks = m.run(ctx)
	resp.Status = overall(resp.Checks)
	return resp
}

// Ready performs a readiness check. Any unhealthy component makes the
// process not ready; degraded components are still ready.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}

	resp.Checks = m.run(ctx)
	resp.Status = overall(resp.Checks)
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

// ServeHealth handles HTTP health check requests
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"
	resp := m.Health(r.Context(), verbose)

	// always 200 for liveness
	writeJSON(w, http.StatusOK, resp)

	logger := log.WithComponent("health")
	logger.Debug().
		Str("status", string(resp.Status)).
		Bool("verbose", verbose).
		Msg("Health check performed")
}

// ServeReady handles HTTP readiness check requests
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)

	logger := log.WithComponent("readiness")
	logger.Debug().
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("Readiness check performed")
}

func (m *Manager) run(ctx context.Context) map[string]CheckResult {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	if len(checkers) == 0 {
		return nil
	}

	results := make([]CheckResult, len(checkers))

	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			results[i] = c.Check(cctx)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]CheckResult, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = results[i]
	}

	return out
}

func overall(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, res := range checks {
		switch res.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}

	return status
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("health")
		logger.Error().Err(err).Msg("Failed to encode health response")
	}
}
