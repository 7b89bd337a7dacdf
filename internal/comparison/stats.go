// internal/comparison/stats.go
package comparison

import (
	"math"

	"github.com/mwiater/gridcast/internal/forecast"
)

// runningStat accumulates mean and variance with Welford's online algorithm.
type runningStat struct {
	count int64
	mean  float64
	m2    float64
	max   float64
}

func (rs *runningStat) add(value float64) {
	rs.count++
	if rs.count == 1 || value > rs.max {
		rs.max = value
	}
	delta := value - rs.mean
	rs.mean += delta / float64(rs.count)
	delta2 := value - rs.mean
	rs.m2 += delta * delta2
}

func (rs runningStat) stddev() float64 {
	if rs.count < 2 {
		return 0
	}
	return math.Sqrt(rs.m2 / float64(rs.count-1))
}

// SeriesStats summarises a prediction series.
type SeriesStats struct {
	Count        int
	AvgActual    float64
	AvgPredicted float64
	MaxAbsError  float64
	ErrorStdDev  float64
	MeanAbsError float64
}

// AggregateSeriesStats computes summary statistics for a series. An empty series
// returns ok=false and a zero value.
func AggregateSeriesStats(series []forecast.PredictionPoint) (SeriesStats, bool) {
	if len(series) == 0 {
		return SeriesStats{}, false
	}
	var actual, predicted, absErr, errs runningStat
	for _, p := range series {
		actual.add(p.Actual)
		predicted.add(p.Predicted)
		e := p.Predicted - p.Actual
		errs.add(e)
		absErr.add(math.Abs(e))
	}
	return SeriesStats{
		Count:        len(series),
		AvgActual:    actual.mean,
		AvgPredicted: predicted.mean,
		MaxAbsError:  absErr.max,
		ErrorStdDev:  errs.stddev(),
		MeanAbsError: absErr.mean,
	}, true
}

// PointAccuracy is the relative error and accuracy of a single prediction.
type PointAccuracy struct {
	ErrorPct float64
	Accuracy float64
}

// PerPointAccuracy returns errorPct = (predicted-actual)/actual*100 and
// accuracy = 100-|errorPct|. With actual == 0 the results are ±Inf or NaN.
func PerPointAccuracy(p forecast.PredictionPoint) PointAccuracy {
	pct := (p.Predicted - p.Actual) / p.Actual * 100
	return PointAccuracy{ErrorPct: pct, Accuracy: 100 - math.Abs(pct)}
}

// ClampAccuracy bounds an accuracy value to [0, 100] for display. NaN maps to 0.
func ClampAccuracy(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
