// Package metrics reduces samples to the summary figures reported for
// batches and benchmarks.
package metrics

import (
	"errors"
	"math"
)

// ErrNoData is returned when there is nothing to summarize.
var ErrNoData = errors.New("metrics: no data")

// Summary describes a set of samples.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	// Dev is the largest distance from the mean as a fraction of it.
	Dev    float64 `json:"dev"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes the mean, max deviation ratio and population
// standard deviation of xs.
func Summarize(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, ErrNoData
	}
	s := Summary{Count: len(xs), Min: xs[0], Max: xs[0]}
	var sum float64
	for _, x := range xs {
		sum += x
		s.Min = math.Min(s.Min, x)
		s.Max = math.Max(s.Max, x)
	}
	s.Mean = sum / float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - s.Mean
		variance += d * d
	}
	s.StdDev = math.Sqrt(variance / float64(len(xs)))
	if s.Mean != 0 {
		s.Dev = math.Max(s.Max-s.Mean, s.Mean-s.Min) / math.Abs(s.Mean)
	}
	return s, nil
}
