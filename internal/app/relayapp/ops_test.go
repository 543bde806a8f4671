package relayapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/metrics"
)

func TestHealthzReportsChecks(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]func(context.Context) error
		wantStatus int
		wantBody   string
	}{
		{
			name: "all ok",
			checks: map[string]func(context.Context) error{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name: "redis down",
			checks: map[string]func(context.Context) error{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewOpsRouter(zap.NewNop(), tc.checks)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rr.Code != tc.wantStatus {
				t.Fatalf("unexpected status: got %d want %d", rr.Code, tc.wantStatus)
			}
			var resp healthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != tc.wantBody {
				t.Fatalf("unexpected health status %q", resp.Status)
			}
			if len(resp.Checks) != len(tc.checks) {
				t.Fatalf("expected %d checks, got %v", len(tc.checks), resp.Checks)
			}
		})
	}
}

func TestMetricsEndpointExposesRelayCollectors(t *testing.T) {
	metrics.FanoutDeliveries.WithLabelValues("sent").Inc()

	h := NewOpsRouter(nil, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "postrelay_fanout_deliveries_total") {
		t.Fatalf("metrics output lacks fanout collector")
	}
}
