// internal/forecast/schema_test.go
package forecast

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeMetrics(t *testing.T) {
	t.Parallel()

	m, err := DecodeMetrics([]byte(`{"model":"xgb","granularity":"D","horizon":7,"mae":120.5,"rmse":150.1,"smape":3.2,"mape":3.3}`))
	if err != nil {
		t.Fatalf("DecodeMetrics error: %v", err)
	}
	if m.SMAPE == nil || *m.SMAPE != 3.2 {
		t.Fatalf("unexpected smape: %v", m.SMAPE)
	}
	if m.Model != "xgb" || m.Horizon != 7 {
		t.Fatalf("unexpected metadata: %+v", m)
	}

	partial, err := DecodeMetrics([]byte(`{"mae":1.0}`))
	if err != nil {
		t.Fatalf("partial metrics should decode: %v", err)
	}
	if partial.SMAPE != nil {
		t.Fatalf("missing smape should stay nil")
	}

	if _, err := DecodeMetrics([]byte(`{}`)); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := DecodeMetrics([]byte(`{"smape":"low"}`)); err == nil || !strings.Contains(err.Error(), "invalid payload") {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if _, err := DecodeMetrics([]byte(`{`)); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestDecodeSeries(t *testing.T) {
	t.Parallel()

	s, err := DecodeSeries([]byte(`{"model":"rf","series":[{"t":"2024-01-01T00:00:00Z","actual":100,"predicted":98.5}]}`))
	if err != nil {
		t.Fatalf("DecodeSeries error: %v", err)
	}
	if len(s.Series) != 1 || s.Series[0].Predicted != 98.5 {
		t.Fatalf("unexpected series: %+v", s.Series)
	}

	if _, err := DecodeSeries([]byte(`{"series":[]}`)); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := DecodeSeries([]byte(`{"model":"rf"}`)); err == nil {
		t.Fatal("expected missing series to fail validation")
	}
	if _, err := DecodeSeries([]byte(`{"series":[{"t":"2024-01-01T00:00:00Z","actual":100}]}`)); err == nil {
		t.Fatal("expected point without predicted to fail validation")
	}
}

func TestCatalogEntries(t *testing.T) {
	t.Parallel()

	c := Catalog{
		Granularities: []Granularity{{Code: "D", Name: "daily"}},
		Available: map[string][]CatalogEntry{
			"D": {{Model: "xgb", Horizon: 7}, {Model: "", Horizon: 7}, {Model: "rf", Horizon: 0}, {Model: "rf", Horizon: 7}},
		},
	}
	entries := c.Entries("D")
	if len(entries) != 2 || entries[0].Model != "xgb" || entries[1].Model != "rf" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if len(c.Entries("H")) != 0 {
		t.Fatal("expected no hourly entries")
	}
	if !c.Has("D") || c.Has("H") {
		t.Fatal("Has returned wrong result")
	}
}
