// internal/chat/context.go
// Package chat builds the dashboard context sent with assistant messages and
// keeps the conversation log.
package chat

import (
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/store"
)

// View identifies the dashboard view the user is looking at.
type View string

const (
	ViewSingle  View = "single"
	ViewCompare View = "compare"
)

// Selection is the UI state a context is built from.
type Selection struct {
	Granularity   string
	SelectedModel string
	Store         *store.Store
	ActiveView    View
}

// Context is the snapshot handed to the assistant with each message.
type Context struct {
	Granularity   string                    `json:"granularity"`
	SelectedModel string                    `json:"selectedModel"`
	Metrics       *forecast.MetricsSnapshot `json:"metrics,omitempty"`
	ActiveView    View                      `json:"activeView"`
}

// BuildContext snapshots sel. Metrics are included only when the selected model
// is present in the store.
func BuildContext(sel Selection) Context {
	c := Context{
		Granularity:   sel.Granularity,
		SelectedModel: sel.SelectedModel,
		ActiveView:    sel.ActiveView,
	}
	if c.ActiveView == "" {
		c.ActiveView = ViewSingle
	}
	if sel.SelectedModel != "" {
		if r, ok := sel.Store.Get(sel.SelectedModel); ok {
			m := r.Metrics
			c.Metrics = &m
		}
	}
	return c
}

// Map converts the context to the loosely typed form the assistant prompt uses.
func (c Context) Map() map[string]any {
	out := map[string]any{
		"granularity":   c.Granularity,
		"selectedModel": c.SelectedModel,
		"activeView":    string(c.ActiveView),
	}
	if c.Metrics != nil {
		metrics := map[string]any{}
		for name, v := range map[string]*float64{"mae": c.Metrics.MAE, "rmse": c.Metrics.RMSE, "smape": c.Metrics.SMAPE, "mape": c.Metrics.MAPE} {
			if v != nil {
				metrics[name] = *v
			}
		}
		out["metrics"] = metrics
	}
	return out
}
