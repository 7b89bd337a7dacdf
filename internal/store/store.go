// internal/store/store.go
// Package store holds the per-granularity model results and the loader that
// builds them by fetching every model's metrics and predictions in parallel.
package store

import "github.com/mwiater/gridcast/internal/forecast"

// Store is an immutable set of model results for one granularity, in catalog order.
// A nil *Store behaves as an empty store.
type Store struct {
	granularity string
	order       []string
	results     map[string]forecast.ModelResult
}

// New builds a Store from results in the given order. When two results share a
// model id the first one wins.
func New(granularity string, results []forecast.ModelResult) *Store {
	s := &Store{
		granularity: granularity,
		order:       make([]string, 0, len(results)),
		results:     make(map[string]forecast.ModelResult, len(results)),
	}
	for _, r := range results {
		if r.Model == "" {
			continue
		}
		if _, dup := s.results[r.Model]; dup {
			continue
		}
		s.order = append(s.order, r.Model)
		s.results[r.Model] = r
	}
	return s
}

// Granularity returns the granularity code the store was built for.
func (s *Store) Granularity() string {
	if s == nil {
		return ""
	}
	return s.granularity
}

// Len returns the number of models in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Empty reports whether the store holds no models.
func (s *Store) Empty() bool { return s.Len() == 0 }

// Models returns the model ids in store order.
func (s *Store) Models() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the result for a model id.
func (s *Store) Get(model string) (forecast.ModelResult, bool) {
	if s == nil {
		return forecast.ModelResult{}, false
	}
	r, ok := s.results[model]
	return r, ok
}

// Results returns every result in store order.
func (s *Store) Results() []forecast.ModelResult {
	if s == nil {
		return nil
	}
	out := make([]forecast.ModelResult, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.results[id])
	}
	return out
}

// ResolveSelection keeps prev when it is still present, otherwise falls back to
// the first model in store order, or "" when the store is empty.
func (s *Store) ResolveSelection(prev string) string {
	if s.Len() == 0 {
		return ""
	}
	if _, ok := s.results[prev]; ok && prev != "" {
		return prev
	}
	return s.order[0]
}
