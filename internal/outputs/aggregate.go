// internal/outputs/aggregate.go
package outputs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/shopspring/decimal"
)

// Aggregation is how values inside a bucket are combined.
type Aggregation string

const (
	Sum  Aggregation = "sum"
	Mean Aggregation = "mean"
)

var (
	// ErrInvalidTarget is returned for an hourly or unknown target granularity.
	ErrInvalidTarget = errors.New("target granularity must be coarser than hourly (D, W, M, Y)")
	// ErrInvalidAggregation is returned for anything other than sum or mean.
	ErrInvalidAggregation = errors.New("invalid aggregation, use 'sum' or 'mean'")
)

// ParseAggregation validates an aggregation name.
func ParseAggregation(s string) (Aggregation, error) {
	switch a := Aggregation(strings.ToLower(strings.TrimSpace(s))); a {
	case Sum, Mean:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAggregation, s)
}

const bucketLayout = "2006-01-02T15:04:05Z"

// bucketStart returns the label of the bucket t falls into. Weekly buckets end
// on Monday and are labelled by that Monday: a whole Monday belongs to the
// bucket it closes.
func bucketStart(t time.Time, target granularity.Code) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch target {
	case granularity.Daily:
		return day
	case granularity.Weekly:
		ahead := (int(time.Monday) - int(day.Weekday()) + 7) % 7
		return day.AddDate(0, 0, ahead)
	case granularity.Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case granularity.Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

type bucket struct {
	at        time.Time
	n         int64
	actual    decimal.Decimal
	predicted decimal.Decimal
}

// Aggregate resamples an hourly series into target buckets, combining values
// with agg and rounding to two decimals. Only buckets containing at least one
// point are returned, in chronological order. Points with unparseable
// timestamps are skipped.
func Aggregate(series []forecast.PredictionPoint, target granularity.Code, agg Aggregation) ([]forecast.PredictionPoint, error) {
	if target == granularity.Hourly || !target.Valid() {
		return nil, ErrInvalidTarget
	}
	if agg != Sum && agg != Mean {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAggregation, agg)
	}

	buckets := map[time.Time]*bucket{}
	for _, p := range series {
		t, ok := granularity.ParseTimestamp(p.T)
		if !ok {
			continue
		}
		at := bucketStart(t, target)
		b := buckets[at]
		if b == nil {
			b = &bucket{at: at}
			buckets[at] = b
		}
		b.n++
		b.actual = b.actual.Add(decimal.NewFromFloat(p.Actual))
		b.predicted = b.predicted.Add(decimal.NewFromFloat(p.Predicted))
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].at.Before(ordered[j].at) })

	out := make([]forecast.PredictionPoint, 0, len(ordered))
	for _, b := range ordered {
		actual, predicted := b.actual, b.predicted
		if agg == Mean {
			n := decimal.NewFromInt(b.n)
			actual = actual.DivRound(n, 8)
			predicted = predicted.DivRound(n, 8)
		}
		a, _ := actual.Round(2).Float64()
		pr, _ := predicted.Round(2).Float64()
		out = append(out, forecast.PredictionPoint{T: b.at.Format(bucketLayout), Actual: a, Predicted: pr})
	}
	return out, nil
}
