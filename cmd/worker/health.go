package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
)

type statsSource interface {
	GetStats() outbox.Stats
}

type healthResponse struct {
	observability.OverallHealth
	Outbox outboxStats `json:"outbox"`
}

type outboxStats struct {
	Running         bool       `json:"running"`
	Published       uint64     `json:"published"`
	Failed          uint64     `json:"failed"`
	Dead            uint64     `json:"dead"`
	LagSeconds      float64    `json:"lag_seconds"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
}

// newHealthHandler serves the component checks and relay stats on /health.
// An unhealthy component or a stopped relay answers 503.
func newHealthHandler(health *observability.HealthRegistry, processor statsSource) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		overall := health.GetOverallHealth(checkCtx)
		stats := processor.GetStats()
		response := healthResponse{
			OverallHealth: overall,
			Outbox: outboxStats{
				Running:         stats.IsRunning,
				Published:       stats.PublishedCount,
				Failed:          stats.FailedCount,
				Dead:            stats.DeadCount,
				LagSeconds:      stats.LagSeconds,
				LastProcessedAt: stats.LastProcessedAt,
				LastErrorAt:     stats.LastErrorAt,
				LastError:       stats.LastError,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if overall.Status == observability.HealthStatusUnhealthy || !stats.IsRunning {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(response)
	})
	return mux
}
