// internal/dashboard/state.go
// Package dashboard owns the application state shared by the terminal
// dashboard and the one-shot commands: the catalog, the selected granularity,
// the current store of model results and the user's selection.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwiater/gridcast/internal/chat"
	"github.com/mwiater/gridcast/internal/comparison"
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/store"
)

// Round describes one fetch-and-join for a granularity. Its result is only
// applied while Generation is still current.
type Round struct {
	Generation  uint64
	Granularity string
	Entries     []forecast.CatalogEntry
}

// StaleObserver is told about results that arrive after a newer round started.
type StaleObserver interface {
	StaleRound(code string)
}

// Option customizes a State.
type Option func(*State)

// WithPositionalRows makes Rows align series by index instead of timestamp.
func WithPositionalRows() Option {
	return func(s *State) { s.positional = true }
}

// WithStaleObserver reports discarded rounds to o.
func WithStaleObserver(o StaleObserver) Option {
	return func(s *State) { s.staleObserver = o }
}

// State is safe for concurrent use.
type State struct {
	mu sync.Mutex

	catalog    forecast.Catalog
	catalogErr error

	generation  uint64
	granularity string
	loading     bool
	loaded      bool
	store       *store.Store

	selected string
	view     chat.View

	positional    bool
	stale         int
	staleObserver StaleObserver
}

// New returns an empty State showing the single-model view.
func New(opts ...Option) *State {
	s := &State{view: chat.ViewSingle}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCatalog records the catalog, or the error that prevented loading it.
func (s *State) SetCatalog(c forecast.Catalog, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.catalogErr = err
		return
	}
	s.catalog = c
	s.catalogErr = nil
}

// Catalog returns the current catalog.
func (s *State) Catalog() forecast.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Banner returns the persistent catalog error message, or "".
func (s *State) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalogErr == nil {
		return ""
	}
	return fmt.Sprintf("Could not load the model catalog: %v", s.catalogErr)
}

// SelectGranularity starts a new round for code. Any round already in flight
// becomes stale.
func (s *State) SelectGranularity(code string) (Round, error) {
	c, err := granularity.ParseCode(code)
	if err != nil {
		return Round{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.granularity = string(c)
	s.loading = true
	s.loaded = false
	return Round{
		Generation:  s.generation,
		Granularity: string(c),
		Entries:     s.catalog.Entries(string(c)),
	}, nil
}

// ApplyRound installs st when gen is the current generation and resolves the
// model selection against it. Stale rounds are discarded and false is returned.
func (s *State) ApplyRound(gen uint64, st *store.Store) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.stale++
		obs := s.staleObserver
		code := st.Granularity()
		s.mu.Unlock()
		if obs != nil {
			obs.StaleRound(code)
		}
		return false
	}
	defer s.mu.Unlock()
	s.store = st
	s.loading = false
	s.loaded = true
	s.selected = st.ResolveSelection(s.selected)
	return true
}

// Load runs a round synchronously with l and applies it.
func (s *State) Load(ctx context.Context, l *store.Loader, code string) ([]store.Outcome, error) {
	round, err := s.SelectGranularity(code)
	if err != nil {
		return nil, err
	}
	st, outcomes := l.Load(ctx, round.Granularity, round.Entries)
	s.ApplyRound(round.Generation, st)
	return outcomes, nil
}

// Granularity returns the selected granularity code.
func (s *State) Granularity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granularity
}

// Generation returns the current round number.
func (s *State) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Loading reports whether the current round is still in flight.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// EmptyState reports whether the current round finished with no models.
func (s *State) EmptyState() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && s.store.Empty()
}

// Store returns the current store. It is never mutated after being applied.
func (s *State) Store() *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// SelectModel selects a model present in the current store.
func (s *State) SelectModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store.Get(model); !ok {
		return fmt.Errorf("model %q is not loaded for granularity %q", model, s.granularity)
	}
	s.selected = model
	return nil
}

// SelectedModel returns the selected model id, or "".
func (s *State) SelectedModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetView switches between the single-model and comparison views.
func (s *State) SetView(v chat.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// View returns the active view.
func (s *State) View() chat.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Selection snapshots the state for building a chat context.
func (s *State) Selection() chat.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chat.Selection{
		Granularity:   s.granularity,
		SelectedModel: s.selected,
		Store:         s.store,
		ActiveView:    s.view,
	}
}

// ChatContext builds the assistant context for the current selection.
func (s *State) ChatContext() chat.Context {
	return chat.BuildContext(s.Selection())
}

// Ranked returns the models of the current store ranked by SMAPE.
func (s *State) Ranked() []comparison.Ranked {
	return comparison.RankBySmape(s.Store())
}

// Rows returns the comparison rows of the current store.
func (s *State) Rows() []comparison.Row {
	s.mu.Lock()
	st, positional := s.store, s.positional
	s.mu.Unlock()
	if positional {
		return comparison.PositionalRows(st)
	}
	return comparison.Rows(st)
}

// Stats returns summary statistics for the selected model's series.
func (s *State) Stats() (comparison.SeriesStats, bool) {
	s.mu.Lock()
	st, selected := s.store, s.selected
	s.mu.Unlock()
	r, ok := st.Get(selected)
	if !ok {
		return comparison.SeriesStats{}, false
	}
	return comparison.AggregateSeriesStats(r.Series)
}

// StaleDiscarded returns how many late rounds have been dropped.
func (s *State) StaleDiscarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}
