// cli/render_test.go
package cli

import (
	"math"
	"strings"
	"testing"

	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/chat"
	"github.com/mwiater/gridcast/internal/comparison"
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/store"
)

func testStore() *store.Store {
	return store.New("D", []forecast.ModelResult{
		{
			Model: "xgb", Horizon: 7,
			Metrics: forecast.MetricsSnapshot{SMAPE: f64(3.2), MAE: f64(1500), RMSE: f64(2_500_000)},
			Series: []forecast.PredictionPoint{
				{T: "2024-01-01T00:00:00", Actual: 100, Predicted: 95},
				{T: "2024-01-02T00:00:00", Actual: 200, Predicted: 210},
			},
		},
		{
			Model: "rf", Horizon: 7,
			Metrics: forecast.MetricsSnapshot{SMAPE: f64(4.1)},
			Series:  []forecast.PredictionPoint{{T: "2024-01-01T00:00:00", Actual: 100, Predicted: 100}},
		},
	})
}

func TestRanking(t *testing.T) {
	t.Parallel()

	r := NewRenderer(appconfig.Defaults())
	out := r.Ranking(granularity.Daily, comparison.RankBySmape(testStore()))
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "XGBoost") || !strings.Contains(lines[1], "3.20%") || !strings.Contains(lines[1], "best") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[1], "1.5k") || !strings.Contains(lines[1], "2.50M") || !strings.Contains(lines[1], "7 days") {
		t.Fatalf("expected formatted metrics in %q", lines[1])
	}
	if !strings.Contains(lines[2], "Random Forest") || strings.Contains(lines[2], "best") {
		t.Fatalf("unexpected second row %q", lines[2])
	}

	if got := r.Ranking(granularity.Daily, nil); !strings.Contains(got, "No models") {
		t.Fatalf("unexpected empty ranking %q", got)
	}
}

func TestRowsTable(t *testing.T) {
	t.Parallel()

	r := NewRenderer(appconfig.Defaults())
	st := testStore()
	out := r.RowsTable(granularity.Daily, st.Models(), comparison.Rows(st), 0)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "Mon, Jan 1") || !strings.Contains(lines[1], "(-5)") || !strings.Contains(lines[1], "(+0)") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[2], "(+10)") || !strings.HasSuffix(strings.TrimRight(lines[2], " "), "-") {
		t.Fatalf("rf has no second point, expected a dash: %q", lines[2])
	}

	limited := r.RowsTable(granularity.Daily, st.Models(), comparison.Rows(st), 1)
	if strings.Count(limited, "\n") != 1 || !strings.Contains(limited, "Tue, Jan 2") {
		t.Fatalf("expected only the latest row:\n%s", limited)
	}
	if got := r.RowsTable(granularity.Daily, nil, nil, 0); !strings.Contains(got, "No prediction rows") {
		t.Fatalf("unexpected empty table %q", got)
	}
}

func TestSingle(t *testing.T) {
	t.Parallel()

	r := NewRenderer(appconfig.Config{NumberLocale: "not a locale!"})
	result, _ := testStore().Get("xgb")
	out := r.Single(granularity.Daily, result, 0)
	for _, want := range []string{"XGBoost · 7 days ahead", "SMAPE 3.20%", "MAPE -", "2 points", "95.0%", "-5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	zero := forecast.ModelResult{Model: "ebm", Horizon: 1, Series: []forecast.PredictionPoint{{T: "2024", Actual: 0, Predicted: 5}}}
	if out := r.Single(granularity.Yearly, zero, 0); !strings.Contains(out, "0.0%") || !strings.Contains(out, "1 year ahead") {
		t.Fatalf("zero actual should clamp accuracy to 0:\n%s", out)
	}
}

func TestSparkline(t *testing.T) {
	t.Parallel()

	points := []comparison.ErrorPoint{{Error: 1}, {Error: -2}, {Error: 4}, {Error: -8}}
	if got := Sparkline(points, 4); got != "▂▃▅█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline(points, 2); got != "▃█" {
		t.Fatalf("unexpected downsampled sparkline %q", got)
	}
	if got := Sparkline([]comparison.ErrorPoint{{Error: 0}, {Error: math.NaN()}}, 10); got != "▁▁" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if Sparkline(nil, 10) != "" || Sparkline(points, 0) != "" {
		t.Fatal("expected empty sparkline")
	}
}

func TestChatRender(t *testing.T) {
	t.Parallel()

	r := NewRenderer(appconfig.Defaults())
	if got := r.Chat(nil, 80); !strings.Contains(got, "Ask about") {
		t.Fatalf("unexpected empty chat %q", got)
	}
	out := r.Chat([]chat.Message{
		{Role: chat.RoleUser, Content: "which model is best?"},
		{Role: chat.RoleAssistant, Content: chat.FallbackReply, Failed: true},
	}, 80)
	if !strings.Contains(out, "You: which model is best?") || !strings.Contains(out, "Assistant: "+chat.FallbackReply) {
		t.Fatalf("unexpected chat render:\n%s", out)
	}
	if Banner("") != "" || !strings.Contains(Banner("down"), "down") {
		t.Fatal("unexpected banner")
	}
}
