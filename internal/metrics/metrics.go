// Package metrics provides Prometheus instrumentation for the naval engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveBattles tracks the number of live battles.
	ActiveBattles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naval_active_battles",
		Help: "Number of currently live battles",
	})

	// QueueDepth tracks the number of waiting matchmaking entries.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naval_queue_depth",
		Help: "Number of participants waiting for an opponent",
	})

	// ConnectedPlayers tracks live WebSocket connections.
	ConnectedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "naval_connected_players",
		Help: "Number of connected WebSocket clients",
	})

	// MatchesTotal counts concluded battles by outcome.
	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naval_matches_total",
		Help: "Total concluded battles",
	}, []string{"outcome"})

	// AttacksTotal counts resolved attacks by result.
	AttacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naval_attacks_total",
		Help: "Total resolved attacks",
	}, []string{"result"})

	// RejectedActions counts gameplay input rejected by the state
	// machine guards.
	RejectedActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naval_rejected_actions_total",
		Help: "Gameplay actions rejected by validation",
	}, []string{"reason"})

	// SettlementsTotal counts ledger calls by kind and status.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naval_settlements_total",
		Help: "Ledger gateway calls",
	}, []string{"kind", "status"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naval_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "naval_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController, so
// the WebSocket upgrade can hijack through the wrapper.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
