// internal/comparison/rank.go
package comparison

import (
	"math"
	"sort"

	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/store"
)

// Ranked is a model with its rank position (1-based) and SMAPE.
type Ranked struct {
	Rank    int                      `json:"rank"`
	Model   string                   `json:"model"`
	Horizon int                      `json:"horizon"`
	SMAPE   float64                  `json:"smape"`
	Metrics forecast.MetricsSnapshot `json:"metrics"`
}

// RankBySmape orders models by ascending SMAPE. Models with an undefined (or NaN)
// SMAPE are left out. Ties keep store order.
func RankBySmape(st *store.Store) []Ranked {
	var out []Ranked
	for _, r := range st.Results() {
		s := r.Metrics.SMAPE
		if s == nil || math.IsNaN(*s) {
			continue
		}
		out = append(out, Ranked{Model: r.Model, Horizon: r.Horizon, SMAPE: *s, Metrics: r.Metrics})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SMAPE < out[j].SMAPE })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// BestModel returns the model with the lowest defined SMAPE, first in store order on ties.
func BestModel(st *store.Store) (string, bool) {
	ranked := RankBySmape(st)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Model, true
}
