// internal/telemetry/telemetry_test.go
package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObservations(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveModel("D", "xgb", true)
	m.ObserveModel("D", "rf", false)
	m.ObserveModel("D", "rf", false)
	m.ObserveRound("D", 150*time.Millisecond, 1)
	m.StaleRound("D")
	m.ObserveRequest("GET", "/metrics", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/debug/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`gridcast_model_fetch_total{granularity="D",model="rf",outcome="excluded"} 2`,
		`gridcast_model_fetch_total{granularity="D",model="xgb",outcome="included"} 1`,
		`gridcast_round_models{granularity="D"} 1`,
		`gridcast_stale_rounds_total{granularity="D"} 1`,
		`gridcast_http_requests_total{method="GET",route="/metrics",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in exposition:\n%s", want, body)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveModel("H", "xgb", true)
	m.ObserveRound("H", time.Second, 0)
	m.StaleRound("H")
	m.ObserveRequest("GET", "", 404, time.Millisecond)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != 404 {
		t.Fatalf("expected 404 from nil handler, got %d", rec.Code)
	}
}
