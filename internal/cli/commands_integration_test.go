// internal/cli/commands_integration_test.go
package gridcast

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/gridcast/cli"
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/outputs"
	"github.com/mwiater/gridcast/internal/server"
	"github.com/mwiater/gridcast/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailySeries(offset float64) []forecast.PredictionPoint {
	return []forecast.PredictionPoint{
		{T: "2024-01-01T00:00:00", Actual: 100, Predicted: 100 + offset},
		{T: "2024-01-02T00:00:00", Actual: 120, Predicted: 118 + offset},
		{T: "2024-01-03T00:00:00", Actual: 90, Predicted: 95 + offset},
	}
}

// newOutputsAPI serves two complete daily models and one whose predictions are missing.
func newOutputsAPI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo := outputs.NewRepository(dir)
	require.NoError(t, repo.Save(granularity.Daily, "xgb", 7, map[string]any{"smape": 3.2, "mae": 4.1, "rmse": 5.0, "mape": 3.3}, dailySeries(0)))
	require.NoError(t, repo.Save(granularity.Daily, "rf", 7, map[string]any{"smape": 5.1, "mae": 6.0, "rmse": 7.2, "mape": 5.0}, dailySeries(4)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily", "metrics_linear_7.json"), []byte(`{"smape": 1.0}`), 0o644))

	srv := httptest.NewServer(server.New(server.Options{Repository: repo, Metrics: telemetry.New()}).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRankCommand(t *testing.T) {
	resetCommandState(t)
	url := newOutputsAPI(t)

	out, errOut, err := execute(t, "rank", "--apiBaseURL", url, "-g", "d")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.Equal(t, "Ranking by SMAPE, daily (2 models)", lines[0])
	assert.Contains(t, lines[1], "xgb")
	assert.Contains(t, lines[1], "XGBoost")
	assert.Contains(t, lines[1], "3.20%")
	assert.Contains(t, lines[2], "Random Forest")
	assert.Contains(t, errOut, "skipped linear (horizon 7)")
}

func TestRankCommandUnknownGranularity(t *testing.T) {
	resetCommandState(t)
	url := newOutputsAPI(t)

	_, _, err := execute(t, "rank", "--apiBaseURL", url, "-g", "Q")
	assert.ErrorIs(t, err, granularity.ErrUnknownCode)
}

func TestRankCommandCatalogUnavailable(t *testing.T) {
	resetCommandState(t)

	_, _, err := execute(t, "rank", "--apiBaseURL", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load the model catalog")
}

func TestCompareCommandExport(t *testing.T) {
	resetCommandState(t)
	url := newOutputsAPI(t)
	exportPath := filepath.Join(t.TempDir(), "nested", "compare.json")

	out, errOut, err := execute(t, "compare", "--apiBaseURL", url, "--limit", "2", "--export", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "best")
	assert.Contains(t, errOut, "Comparison written to "+exportPath)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var doc compareDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "D", doc.Granularity)
	assert.ElementsMatch(t, []string{"xgb", "rf"}, doc.Models)
	require.Len(t, doc.Ranking, 2)
	assert.Equal(t, "xgb", doc.Ranking[0].Model)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, 100.0, doc.Rows[0].Actual)
	assert.Equal(t, 4.0, doc.Rows[0].PerModel["rf"].Error)
}

func TestListGranularitiesAvailable(t *testing.T) {
	resetCommandState(t)
	url := newOutputsAPI(t)

	out, _, err := execute(t, "list", "granularities", "--available", "--apiBaseURL", url)
	require.NoError(t, err)
	assert.Contains(t, out, "xgb/7")
	assert.Contains(t, out, "rf/7")
	assert.Contains(t, out, "(none)")
}

func TestDashboardCommandWiring(t *testing.T) {
	resetCommandState(t)
	url := newOutputsAPI(t)

	orig := startDashboard
	t.Cleanup(func() { startDashboard = orig })
	var got cli.DashboardOptions
	startDashboard = func(ctx context.Context, opts cli.DashboardOptions) error {
		got = opts
		return nil
	}

	_, _, err := execute(t, "dashboard", "--apiBaseURL", url, "--alignment", "index")
	require.NoError(t, err)
	require.NotNil(t, got.Config)
	assert.Equal(t, url, got.Config.APIBaseURL)
	assert.NotNil(t, got.Catalog)
	assert.NotNil(t, got.Loader)
	assert.NotNil(t, got.Session)
	require.NotNil(t, got.State)

	catalog, err := got.Catalog.Catalog(context.Background())
	require.NoError(t, err)
	got.State.SetCatalog(catalog, nil)
	_, err = got.State.Load(context.Background(), got.Loader, "D")
	require.NoError(t, err)
	assert.Len(t, got.State.Store().Models(), 2)
	assert.Len(t, got.State.Rows(), 3)
}
