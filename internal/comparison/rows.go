// internal/comparison/rows.go
// Package comparison derives aligned comparison rows, rankings and summary
// statistics from a store of model results.
package comparison

import (
	"sort"
	"time"

	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/store"
)

// ModelPoint is one model's prediction at a row, with error = predicted - actual.
type ModelPoint struct {
	Predicted float64 `json:"predicted"`
	Error     float64 `json:"error"`
}

// Row is one aligned timestamp across every model in the store.
type Row struct {
	TimeLabel string                `json:"time_label"`
	T         string                `json:"t"`
	Actual    float64               `json:"actual"`
	PerModel  map[string]ModelPoint `json:"per_model"`
}

type rowKey struct {
	key     string
	t       string
	instant time.Time
	parsed  bool
	seen    int
}

func keyFor(ts string) (string, time.Time, bool) {
	if at, ok := granularity.ParseTimestamp(ts); ok {
		return at.UTC().Format(time.RFC3339Nano), at, true
	}
	return "raw:" + ts, time.Time{}, false
}

// Rows aligns every model's series by timestamp. The row set is the union of
// timestamps across models, in chronological order with unparseable timestamps
// last in first-seen order. The actual value comes from the first model in store
// order that has the timestamp. A model missing a timestamp is absent from that
// row's PerModel.
func Rows(st *store.Store) []Row {
	results := st.Results()
	if len(results) == 0 {
		return []Row{}
	}

	keys := make(map[string]*rowKey)
	var ordered []*rowKey
	for _, r := range results {
		for _, p := range r.Series {
			k, at, ok := keyFor(p.T)
			if _, exists := keys[k]; exists {
				continue
			}
			rk := &rowKey{key: k, t: p.T, instant: at, parsed: ok, seen: len(ordered)}
			keys[k] = rk
			ordered = append(ordered, rk)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if a.parsed && !a.instant.Equal(b.instant) {
			return a.instant.Before(b.instant)
		}
		return a.seen < b.seen
	})

	index := make(map[string]int, len(ordered))
	rows := make([]Row, len(ordered))
	for i, rk := range ordered {
		index[rk.key] = i
		rows[i] = Row{
			TimeLabel: granularity.FormatTimeLabel(rk.t, granularity.Code(st.Granularity())),
			T:         rk.t,
			PerModel:  make(map[string]ModelPoint, len(results)),
		}
	}

	hasActual := make([]bool, len(rows))
	for _, r := range results {
		for _, p := range r.Series {
			k, _, _ := keyFor(p.T)
			i := index[k]
			if !hasActual[i] {
				rows[i].Actual = p.Actual
				hasActual[i] = true
			}
			if _, dup := rows[i].PerModel[r.Model]; dup {
				continue
			}
			rows[i].PerModel[r.Model] = ModelPoint{Predicted: p.Predicted, Error: p.Predicted - rows[i].Actual}
		}
	}
	return rows
}

// PositionalRows aligns series by index: row i takes its timestamp and actual
// value from the first model's series[i], and every model with an entry at i
// contributes its prediction. Rows beyond the first model's length are not produced.
func PositionalRows(st *store.Store) []Row {
	results := st.Results()
	if len(results) == 0 {
		return []Row{}
	}
	ref := results[0].Series
	rows := make([]Row, len(ref))
	for i, p := range ref {
		row := Row{
			TimeLabel: granularity.FormatTimeLabel(p.T, granularity.Code(st.Granularity())),
			T:         p.T,
			Actual:    p.Actual,
			PerModel:  make(map[string]ModelPoint, len(results)),
		}
		for _, r := range results {
			if i >= len(r.Series) {
				continue
			}
			pred := r.Series[i].Predicted
			row.PerModel[r.Model] = ModelPoint{Predicted: pred, Error: pred - p.Actual}
		}
		rows[i] = row
	}
	return rows
}

// ErrorPoint is a single model's error at one timestamp.
type ErrorPoint struct {
	T     string  `json:"t"`
	Error float64 `json:"error"`
}

// ErrorSeries returns predicted - actual for every point of a model's own series.
func ErrorSeries(st *store.Store, model string) []ErrorPoint {
	r, ok := st.Get(model)
	if !ok {
		return nil
	}
	out := make([]ErrorPoint, len(r.Series))
	for i, p := range r.Series {
		out[i] = ErrorPoint{T: p.T, Error: p.Predicted - p.Actual}
	}
	return out
}
