package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadyRequestsPerMinute caps readiness requests per client IP. Every request
// reaches ClickHouse.
const ReadyRequestsPerMinute = 120

// Router serves /healthz, /readyz and, when gatherer is not nil, /metrics.
//
//	r := health.Router(manager, registry)
//	_ = http.ListenAndServe(":8080", r)
func Router(m *Manager, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", m.ServeHealth)
	r.With(readyLimit()).Get("/readyz", m.ServeReady)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func readyLimit() func(http.Handler) http.Handler {
	window := time.Minute

	return httprate.Limit(
		ReadyRequestsPerMinute,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate_limit_exceeded"})
		}),
	)
}
