// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchstat reduces raw benchmark timings to summary
// statistics and compares them.
//
// A Result is built once from the millisecond timings of a harness
// run and is immutable afterwards. Two Results are compared with
// three predicates of increasing strength: IsBetterThan,
// IsSignificantlyBetterThan and IsTotallyBetterThan.
package benchstat

import (
	"errors"
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"

	"github.com/Invenietis/CK-MicroBenchmark/benchunit"
)

var (
	// ErrInvalidInput is returned for timings that cannot be
	// reduced and for comparisons against a nil Result.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateInput is returned when no timing qualifies
	// for the normalized mean.
	ErrDegenerateInput = errors.New("degenerate input")
)

// MinTimings is the smallest number of timings a Result accepts.
const MinTimings = 2

// Result is the statistical reduction of a set of timings, in
// milliseconds.
type Result struct {
	timings []float64

	min, max       float64
	average        float64
	stdDev         float64
	meanAbsDev     float64
	normalizedMean float64
}

// NewResult computes a Result from timings. timings must hold at
// least MinTimings finite, non-negative values. The slice is copied.
func NewResult(timings []float64) (*Result, error) {
	if timings == nil {
		return nil, fmt.Errorf("nil timings: %w", ErrInvalidInput)
	}
	if len(timings) < MinTimings {
		return nil, fmt.Errorf("%d timings, need at least %d: %w", len(timings), MinTimings, ErrInvalidInput)
	}
	for i, t := range timings {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return nil, fmt.Errorf("timing %d is %v: %w", i, t, ErrInvalidInput)
		}
	}

	r := &Result{timings: append([]float64(nil), timings...)}

	samp := stats.Sample{Xs: r.timings}
	r.min, r.max = samp.Bounds()

	// Rounding can put the averages a hair outside the observed
	// range.
	r.average = clamp(mean(r.timings, func(t float64) float64 { return t }), r.min, r.max)

	// deviation is positive for timings below the average.
	deviation := make([]float64, len(r.timings))
	for i, t := range r.timings {
		deviation[i] = r.average - t
	}
	r.meanAbsDev = mean(deviation, math.Abs)

	// Two passes over the deviations, scaled by the largest timing
	// so squaring cannot overflow.
	if r.max > 0 {
		scale := r.max
		variance := mean(deviation, func(d float64) float64 {
			d /= scale
			return d * d
		})
		r.stdDev = scale * math.Sqrt(variance)
	}

	// Only the right tail is trimmed: timings have a hard floor
	// and scheduler interference only ever adds time.
	kept := make([]float64, 0, len(r.timings))
	for i, t := range r.timings {
		if deviation[i] > 0 || -deviation[i] <= r.meanAbsDev {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("no timing within %v of the average: %w", r.meanAbsDev, ErrDegenerateInput)
	}
	r.normalizedMean = clamp(mean(kept, func(t float64) float64 { return t }), r.min, r.max)

	return r, nil
}

// mean returns the mean of f over xs. If the plain sum overflows, the
// terms are divided by len(xs) before they are added.
func mean(xs []float64, f func(float64) float64) float64 {
	n := float64(len(xs))
	var sum float64
	for _, x := range xs {
		sum += f(x)
	}
	if !math.IsInf(sum, 0) {
		return sum / n
	}
	sum = 0
	for _, x := range xs {
		sum += f(x) / n
	}
	return sum
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// Timings returns a copy of the timings r was built from, in their
// original order.
func (r *Result) Timings() []float64 {
	return append([]float64(nil), r.timings...)
}

// Len returns the number of timings.
func (r *Result) Len() int { return len(r.timings) }

// Min returns the smallest timing.
func (r *Result) Min() float64 { return r.min }

// Max returns the largest timing.
func (r *Result) Max() float64 { return r.max }

// Average returns the arithmetic mean of the timings.
func (r *Result) Average() float64 { return r.average }

// StandardDeviation returns the population standard deviation of
// the timings.
func (r *Result) StandardDeviation() float64 { return r.stdDev }

// MeanAbsoluteDeviation returns the mean distance of the timings
// from their average.
func (r *Result) MeanAbsoluteDeviation() float64 { return r.meanAbsDev }

// NormalizedMean returns the mean of the timings that are not
// outliers. A timing is an outlier if it exceeds the average by more
// than the mean absolute deviation; timings below the average are
// always kept.
func (r *Result) NormalizedMean() float64 { return r.normalizedMean }

// IsBetterThan reports whether r's normalized mean is strictly lower
// than o's.
func (r *Result) IsBetterThan(o *Result) (bool, error) {
	if err := checkPair(r, o); err != nil {
		return false, err
	}
	return r.normalizedMean < o.normalizedMean, nil
}

// IsSignificantlyBetterThan reports whether r's normalized mean plus
// half its standard deviation is strictly lower than o's normalized
// mean minus half of o's standard deviation.
//
// This is a cheap non-overlap heuristic, not a statistical test.
func (r *Result) IsSignificantlyBetterThan(o *Result) (bool, error) {
	if err := checkPair(r, o); err != nil {
		return false, err
	}
	return r.normalizedMean+r.stdDev/2 < o.normalizedMean-o.stdDev/2, nil
}

// IsTotallyBetterThan reports whether every timing of r is strictly
// lower than every timing of o.
func (r *Result) IsTotallyBetterThan(o *Result) (bool, error) {
	if err := checkPair(r, o); err != nil {
		return false, err
	}
	return r.max < o.min, nil
}

func checkPair(r, o *Result) error {
	if r == nil {
		return fmt.Errorf("nil receiver: %w", ErrInvalidInput)
	}
	if o == nil {
		return fmt.Errorf("comparing against nil Result: %w", ErrInvalidInput)
	}
	return nil
}

// String formats r as
//
//	avg ± sd (min … max), normalized nm, n=N
//
// with all timings sharing one SI prefix.
func (r *Result) String() string {
	vals := []float64{r.average, r.stdDev, r.min, r.max, r.normalizedMean}
	benchunit.Tidy(vals, "ms")
	// The standard deviation does not take part in picking the
	// scale; it is often orders of magnitude smaller.
	s := benchunit.CommonScale([]float64{vals[0], vals[2], vals[3], vals[4]})

	return fmt.Sprintf("%s ± %s (%s … %s), normalized %s, n=%d",
		s.Format(vals[0]), s.Format(vals[1]), s.Format(vals[2]), s.Format(vals[3]), s.Format(vals[4]), len(r.timings))
}
