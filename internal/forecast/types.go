// internal/forecast/types.go
// Package forecast defines the payloads exchanged with the outputs API: the
// granularity catalog, per-model evaluation metrics and prediction series.
package forecast

// Granularity is one entry of the granularity catalog.
type Granularity struct {
	Code               string `json:"code"`
	Name               string `json:"name"`
	DefaultHorizon     int    `json:"default_horizon,omitempty"`
	DefaultTestPeriods int    `json:"default_test_periods,omitempty"`
}

// CatalogEntry names a trained (model, horizon) pair at some granularity.
type CatalogEntry struct {
	Model   string `json:"model"`
	Horizon int    `json:"horizon"`
	Legacy  bool   `json:"legacy,omitempty"`
}

// Catalog is the full list of granularities and the trained models available for each.
type Catalog struct {
	Granularities []Granularity             `json:"granularities"`
	Available     map[string][]CatalogEntry `json:"available"`
}

// Entries returns the catalog entries for a granularity code, dropping entries
// without a model id or with a non-positive horizon.
func (c Catalog) Entries(code string) []CatalogEntry {
	raw := c.Available[code]
	out := make([]CatalogEntry, 0, len(raw))
	for _, e := range raw {
		if e.Model == "" || e.Horizon <= 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Has reports whether the catalog lists the granularity code.
func (c Catalog) Has(code string) bool {
	for _, g := range c.Granularities {
		if g.Code == code {
			return true
		}
	}
	return false
}

// MetricsSnapshot holds a model's evaluation metrics. Metric fields are pointers
// so a metric missing from the payload stays distinguishable from zero.
type MetricsSnapshot struct {
	Model           string   `json:"model,omitempty"`
	Granularity     string   `json:"granularity,omitempty"`
	GranularityName string   `json:"granularity_name,omitempty"`
	Horizon         int      `json:"horizon,omitempty"`
	MAE             *float64 `json:"mae,omitempty"`
	RMSE            *float64 `json:"rmse,omitempty"`
	SMAPE           *float64 `json:"smape,omitempty"`
	MAPE            *float64 `json:"mape,omitempty"`
}

// Empty reports whether none of the metric values are present.
func (m MetricsSnapshot) Empty() bool {
	return m.MAE == nil && m.RMSE == nil && m.SMAPE == nil && m.MAPE == nil
}

// PredictionPoint is a single timestamped actual/predicted pair.
type PredictionPoint struct {
	T         string  `json:"t"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// PredictionSeries is the /predict payload.
type PredictionSeries struct {
	Model           string            `json:"model,omitempty"`
	Granularity     string            `json:"granularity,omitempty"`
	GranularityName string            `json:"granularity_name,omitempty"`
	Horizon         int               `json:"horizon,omitempty"`
	Series          []PredictionPoint `json:"series"`
}

// ModelResult joins a model's metrics and prediction series at one granularity.
type ModelResult struct {
	Model   string
	Horizon int
	Metrics MetricsSnapshot
	Series  []PredictionPoint
}
