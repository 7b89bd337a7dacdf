// internal/store/loader.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves a model's metrics and predictions at one granularity.
type Fetcher interface {
	Metrics(ctx context.Context, code, model string, horizon int) (forecast.MetricsSnapshot, error)
	Predictions(ctx context.Context, code, model string, horizon int) ([]forecast.PredictionPoint, error)
}

// Observer receives per-model and per-round outcomes of a load.
type Observer interface {
	ObserveModel(code, model string, included bool)
	ObserveRound(code string, d time.Duration, included int)
}

// ErrDuplicateModel marks a catalog entry whose model id was already loaded
// from an earlier entry in the same round.
var ErrDuplicateModel = errors.New("duplicate model id in catalog, first entry kept")

// Outcome records what happened to one catalog entry during a load.
type Outcome struct {
	Entry      forecast.CatalogEntry
	MetricsErr error
	SeriesErr  error
}

// Included reports whether both fetches succeeded.
func (o Outcome) Included() bool { return o.MetricsErr == nil && o.SeriesErr == nil }

// Err joins the fetch errors, or returns nil when the entry was included.
func (o Outcome) Err() error { return errors.Join(o.MetricsErr, o.SeriesErr) }

// Loader runs the fan-out/fan-in fetch for a granularity.
type Loader struct {
	fetcher  Fetcher
	observer Observer
	limit    int
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithObserver reports outcomes to o.
func WithObserver(o Observer) LoaderOption {
	return func(l *Loader) { l.observer = o }
}

// WithConcurrency caps the number of in-flight fetches. n <= 0 means unlimited.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) { l.limit = n }
}

// NewLoader builds a Loader over f.
func NewLoader(f Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{fetcher: f}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches metrics and predictions for every entry in parallel and waits for
// all of them to settle. Entries whose fetches fail or return no data are left
// out of the store; their errors are reported in the outcomes, which follow
// entry order.
func (l *Loader) Load(ctx context.Context, code string, entries []forecast.CatalogEntry) (*Store, []Outcome) {
	start := time.Now()
	log := logging.WithComponent("store").WithField("granularity", code)

	metrics := make([]forecast.MetricsSnapshot, len(entries))
	series := make([][]forecast.PredictionPoint, len(entries))
	outcomes := make([]Outcome, len(entries))

	var g errgroup.Group
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	for i, entry := range entries {
		outcomes[i].Entry = entry
		g.Go(func() error {
			m, err := l.fetcher.Metrics(ctx, code, entry.Model, entry.Horizon)
			if err == nil && m.Empty() {
				err = forecast.ErrNoData
			}
			metrics[i] = m
			outcomes[i].MetricsErr = err
			return nil
		})
		g.Go(func() error {
			s, err := l.fetcher.Predictions(ctx, code, entry.Model, entry.Horizon)
			if err == nil && len(s) == 0 {
				err = forecast.ErrNoData
			}
			series[i] = s
			outcomes[i].SeriesErr = err
			return nil
		})
	}
	_ = g.Wait()

	results := make([]forecast.ModelResult, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i := range outcomes {
		if outcomes[i].Included() && seen[outcomes[i].Entry.Model] {
			outcomes[i].MetricsErr = ErrDuplicateModel
		}
		o := outcomes[i]
		included := o.Included()
		if included {
			seen[o.Entry.Model] = true
		}
		if l.observer != nil {
			l.observer.ObserveModel(code, o.Entry.Model, included)
		}
		if !included {
			log.WithField("model", o.Entry.Model).WithError(o.Err()).Warn("excluding model from comparison")
			continue
		}
		results = append(results, forecast.ModelResult{
			Model:   o.Entry.Model,
			Horizon: o.Entry.Horizon,
			Metrics: metrics[i],
			Series:  series[i],
		})
	}

	st := New(code, results)
	elapsed := time.Since(start)
	if l.observer != nil {
		l.observer.ObserveRound(code, elapsed, st.Len())
	}
	log.Debug(fmt.Sprintf("loaded %d/%d models in %s", st.Len(), len(entries), elapsed))
	return st, outcomes
}
