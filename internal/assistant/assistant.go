// internal/assistant/assistant.go
// Package assistant answers dashboard chat messages through an
// Ollama-compatible chat host.
package assistant

import (
	"context"
	"encoding/json"
	"strings"
)

// Request is a single-turn chat request.
type Request struct {
	System  string
	Message string
}

// Reply is the assistant's answer.
type Reply struct {
	Content string
	Model   string
}

// Provider produces replies for chat requests.
type Provider interface {
	Reply(ctx context.Context, req Request) (Reply, error)
}

// DefaultSystemPrompt is the preamble sent ahead of every conversation.
const DefaultSystemPrompt = `You are an AI assistant for a UK electricity demand forecasting dashboard.

You help users understand:
- Electricity demand forecasts and predictions
- Model performance metrics (MAE, RMSE, SMAPE, MAPE)
- Comparisons between XGBoost, Random Forest, and Linear Regression models
- UK National Grid demand patterns

Data source: National Grid ESO/NESO historic demand data.
Demand values are in megawatts (MW) for hourly or megawatt-hours (MWh) for aggregated periods.

Be concise and helpful. Use the context provided about the current view when relevant.`

// BuildSystemPrompt appends the dashboard context, as indented JSON, to base
// (DefaultSystemPrompt when base is empty). An empty context adds nothing.
func BuildSystemPrompt(base string, dashboard map[string]any) string {
	if strings.TrimSpace(base) == "" {
		base = DefaultSystemPrompt
	}
	if len(dashboard) == 0 {
		return base
	}
	data, err := json.MarshalIndent(dashboard, "", "  ")
	if err != nil {
		return base
	}
	return base + "\n\nCurrent dashboard context:\n" + string(data)
}
