package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats outbox.Stats

func (s fixedStats) GetStats() outbox.Stats { return outbox.Stats(s) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		running    bool
		wantCode   int
		wantStatus observability.HealthStatus
	}{
		{name: "healthy", running: true, wantCode: http.StatusOK, wantStatus: observability.HealthStatusHealthy},
		{name: "database down", dbErr: errors.New("refused"), running: true, wantCode: http.StatusServiceUnavailable, wantStatus: observability.HealthStatusUnhealthy},
		{name: "relay stopped", running: false, wantCode: http.StatusServiceUnavailable, wantStatus: observability.HealthStatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := observability.NewHealthRegistry()
			health.Register("database", observability.PingHealthChecker("database", func(context.Context) error {
				return tt.dbErr
			}))
			handler := newHealthHandler(health, fixedStats{IsRunning: tt.running, PublishedCount: 7})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body struct {
				Status observability.HealthStatus `json:"status"`
				Outbox struct {
					Running   bool   `json:"running"`
					Published uint64 `json:"published"`
				} `json:"outbox"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.running, body.Outbox.Running)
			assert.Equal(t, uint64(7), body.Outbox.Published)
		})
	}
}

func TestHealthHandler_UnknownPath(t *testing.T) {
	handler := newHealthHandler(observability.NewHealthRegistry(), fixedStats{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
