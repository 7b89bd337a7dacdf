// internal/forecast/schema.go
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrNoData is returned when a payload decodes cleanly but carries nothing usable.
var ErrNoData = errors.New("payload contains no data")

var metricsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"mae":     map[string]any{"type": []string{"number", "null"}},
		"rmse":    map[string]any{"type": []string{"number", "null"}},
		"smape":   map[string]any{"type": []string{"number", "null"}},
		"mape":    map[string]any{"type": []string{"number", "null"}},
		"horizon": map[string]any{"type": "integer"},
	},
}

var seriesSchema = map[string]any{
	"type":     "object",
	"required": []string{"series"},
	"properties": map[string]any{
		"series": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"t", "actual", "predicted"},
				"properties": map[string]any{
					"t":         map[string]any{"type": "string"},
					"actual":    map[string]any{"type": "number"},
					"predicted": map[string]any{"type": "number"},
				},
			},
		},
	},
}

var (
	metricsSchemaLoader = gojsonschema.NewGoLoader(metricsSchema)
	seriesSchemaLoader  = gojsonschema.NewGoLoader(seriesSchema)
)

// validate checks data against schema and folds every violation into one error.
func validate(schema gojsonschema.JSONLoader, data []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid payload: %s", strings.Join(msgs, "; "))
}

// DecodeMetrics validates and decodes a /metrics payload. A payload without any
// metric values returns ErrNoData.
func DecodeMetrics(data []byte) (MetricsSnapshot, error) {
	if err := validate(metricsSchemaLoader, data); err != nil {
		return MetricsSnapshot{}, err
	}
	var m MetricsSnapshot
	if err := json.Unmarshal(data, &m); err != nil {
		return MetricsSnapshot{}, fmt.Errorf("decode metrics: %w", err)
	}
	if m.Empty() {
		return MetricsSnapshot{}, ErrNoData
	}
	return m, nil
}

// DecodeSeries validates and decodes a /predict payload. An empty series returns ErrNoData.
func DecodeSeries(data []byte) (PredictionSeries, error) {
	if err := validate(seriesSchemaLoader, data); err != nil {
		return PredictionSeries{}, err
	}
	var s PredictionSeries
	if err := json.Unmarshal(data, &s); err != nil {
		return PredictionSeries{}, fmt.Errorf("decode series: %w", err)
	}
	if len(s.Series) == 0 {
		return PredictionSeries{}, ErrNoData
	}
	return s, nil
}
