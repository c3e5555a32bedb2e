// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstat

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/aclements/go-moremath/stats"
)

const eps = 1e-9

func mustResult(t *testing.T, timings ...float64) *Result {
	t.Helper()
	r, err := NewResult(timings)
	if err != nil {
		t.Fatalf("NewResult(%v): %v", timings, err)
	}
	return r
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Abs(b))
}

func TestNewResultScenario(t *testing.T) {
	r := mustResult(t, 1, 2, 3, 4, 5)

	check := func(name string, got, want float64) {
		t.Helper()
		if !near(got, want) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}
	check("Average", r.Average(), 3)
	check("Min", r.Min(), 1)
	check("Max", r.Max(), 5)
	check("StandardDeviation", r.StandardDeviation(), math.Sqrt2)
	check("MeanAbsoluteDeviation", r.MeanAbsoluteDeviation(), 1.2)
	// 5 is more than 1.2 above the average; 1..4 remain.
	check("NormalizedMean", r.NormalizedMean(), 2.5)

	if got := r.Timings(); !reflect.DeepEqual(got, []float64{1, 2, 3, 4, 5}) {
		t.Errorf("Timings: got %v", got)
	}
	if r.Len() != 5 {
		t.Errorf("Len: got %d, want 5", r.Len())
	}
}

func TestNewResultInvalid(t *testing.T) {
	test := func(timings []float64) {
		t.Helper()
		r, err := NewResult(timings)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("for %v, got %v, %v, want ErrInvalidInput", timings, r, err)
		}
	}
	test(nil)
	test([]float64{})
	test([]float64{1})
	test([]float64{1, -1})
	test([]float64{1, math.NaN()})
	test([]float64{math.Inf(1), 1})
}

func TestNewResultIsolated(t *testing.T) {
	in := []float64{3, 1, 2}
	r := mustResult(t, in...)
	in[0] = 100
	if r.Max() != 3 {
		t.Errorf("Result changed with caller's slice: max %v", r.Max())
	}
	out := r.Timings()
	out[1] = 100
	if got := r.Timings(); got[1] != 1 {
		t.Errorf("Result changed with Timings copy: %v", got)
	}
}

func TestHugeTimings(t *testing.T) {
	test := func(timings []float64, avg, sd, mad, nm float64) {
		t.Helper()
		r := mustResult(t, timings...)
		check := func(name string, got, want float64) {
			t.Helper()
			if math.IsNaN(got) || math.IsInf(got, 0) || !near(got, want) {
				t.Errorf("for %v, %s: got %v, want %v", timings, name, got, want)
			}
		}
		check("Average", r.Average(), avg)
		check("StandardDeviation", r.StandardDeviation(), sd)
		check("MeanAbsoluteDeviation", r.MeanAbsoluteDeviation(), mad)
		check("NormalizedMean", r.NormalizedMean(), nm)
	}
	// Squares overflow.
	test([]float64{1e200, 2e200}, 1.5e200, 0.5e200, 0.5e200, 1.5e200)
	// The sum itself overflows.
	test([]float64{1e308, 1e308, 1e308}, 1e308, 0, 0, 1e308)
	test([]float64{0, 1.5e308, 1.5e308}, 1e308, math.Sqrt2*0.5e308, 2e308/3, 1e308)
}

func TestIdenticalTimings(t *testing.T) {
	// Equal timings have zero spread.
	r := mustResult(t, 0.25, 0.25, 0.25, 0.25)
	if r.StandardDeviation() != 0 || math.IsNaN(r.StandardDeviation()) {
		t.Errorf("StandardDeviation: got %v, want 0", r.StandardDeviation())
	}
	if r.NormalizedMean() != 0.25 {
		t.Errorf("NormalizedMean: got %v, want 0.25", r.NormalizedMean())
	}
}

func TestBelowAverageNeverTrimmed(t *testing.T) {
	// A far low outlier stays in; a far high outlier goes.
	r := mustResult(t, 0, 10, 10, 10, 10)
	if !near(r.NormalizedMean(), r.Average()) {
		t.Errorf("low outlier trimmed: normalized %v, average %v", r.NormalizedMean(), r.Average())
	}
	r = mustResult(t, 10, 10, 10, 10, 50)
	if r.NormalizedMean() != 10 {
		t.Errorf("high outlier kept: normalized %v", r.NormalizedMean())
	}
}

func TestResultProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for iter := 0; iter < 500; iter++ {
		n := 2 + rnd.Intn(20)
		xs := make([]float64, n)
		for i := range xs {
			// Mostly tight, with a long right tail.
			xs[i] = 1 + rnd.Float64()
			if rnd.Intn(5) == 0 {
				xs[i] += rnd.ExpFloat64() * 10
			}
		}
		r := mustResult(t, xs...)

		samp := stats.Sample{Xs: xs}
		min, max := samp.Bounds()
		if r.Min() != min || r.Max() != max {
			t.Fatalf("for %v, bounds got %v,%v want %v,%v", xs, r.Min(), r.Max(), min, max)
		}
		if !(r.Min() <= r.Average() && r.Average() <= r.Max()) {
			t.Fatalf("for %v, average %v outside [%v, %v]", xs, r.Average(), min, max)
		}
		if !(r.Min() <= r.NormalizedMean() && r.NormalizedMean() <= r.Max()) {
			t.Fatalf("for %v, normalized mean %v outside [%v, %v]", xs, r.NormalizedMean(), min, max)
		}
		if r.MeanAbsoluteDeviation() < 0 {
			t.Fatalf("for %v, negative MAD %v", xs, r.MeanAbsoluteDeviation())
		}

		mean := stats.Mean(xs)
		if !near(r.Average(), mean) {
			t.Fatalf("for %v, average %v, want %v", xs, r.Average(), mean)
		}
		// go-moremath's StdDev is the sample deviation;
		// rescale to the population deviation.
		popSD := stats.StdDev(xs) * math.Sqrt(float64(n-1)/float64(n))
		if math.Abs(r.StandardDeviation()-popSD) > 1e-6 {
			t.Fatalf("for %v, standard deviation %v, want %v", xs, r.StandardDeviation(), popSD)
		}

		var absDev float64
		for _, x := range xs {
			absDev += math.Abs(x - mean)
		}
		if !near(r.MeanAbsoluteDeviation(), absDev/float64(n)) {
			t.Fatalf("for %v, MAD %v, want %v", xs, r.MeanAbsoluteDeviation(), absDev/float64(n))
		}

		var keep []float64
		for _, x := range xs {
			if x-r.Average() <= r.MeanAbsoluteDeviation() {
				keep = append(keep, x)
			}
		}
		if !near(r.NormalizedMean(), stats.Mean(keep)) {
			t.Fatalf("for %v, normalized mean %v, want %v", xs, r.NormalizedMean(), stats.Mean(keep))
		}
	}
}

func TestPredicates(t *testing.T) {
	fast := mustResult(t, 1, 1.1, 1.2, 1.05, 1.15)
	slow := mustResult(t, 2, 2.1, 2.2, 2.05, 2.15)

	test := func(name string, pred func(*Result) (bool, error), o *Result, want bool) {
		t.Helper()
		got, err := pred(o)
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		} else if got != want {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}
	test("fast.IsBetterThan(slow)", fast.IsBetterThan, slow, true)
	test("fast.IsSignificantlyBetterThan(slow)", fast.IsSignificantlyBetterThan, slow, true)
	test("fast.IsTotallyBetterThan(slow)", fast.IsTotallyBetterThan, slow, true)
	test("slow.IsBetterThan(fast)", slow.IsBetterThan, fast, false)
	test("slow.IsSignificantlyBetterThan(fast)", slow.IsSignificantlyBetterThan, fast, false)
	test("slow.IsTotallyBetterThan(fast)", slow.IsTotallyBetterThan, fast, false)

	// Overlapping ranges: better, but not totally.
	a := mustResult(t, 1, 1.2, 1.4, 1.6, 3)
	b := mustResult(t, 1.5, 1.7, 1.9, 2.1, 2.3)
	test("a.IsBetterThan(b)", a.IsBetterThan, b, true)
	test("a.IsTotallyBetterThan(b)", a.IsTotallyBetterThan, b, false)

	// Wide spread on both sides defeats the significance margin.
	c := mustResult(t, 1, 2, 3, 4, 5)
	d := mustResult(t, 2, 3, 4, 5, 6)
	test("c.IsBetterThan(d)", c.IsBetterThan, d, true)
	test("c.IsSignificantlyBetterThan(d)", c.IsSignificantlyBetterThan, d, false)
}

func TestPredicatesEqual(t *testing.T) {
	a := mustResult(t, 1, 2, 3, 4, 5)
	b := mustResult(t, 1, 2, 3, 4, 5)
	for _, pair := range [][2]*Result{{a, b}, {b, a}} {
		if got, _ := pair[0].IsBetterThan(pair[1]); got {
			t.Errorf("identical Results: IsBetterThan is true")
		}
		if got, _ := pair[0].IsSignificantlyBetterThan(pair[1]); got {
			t.Errorf("identical Results: IsSignificantlyBetterThan is true")
		}
		if got, _ := pair[0].IsTotallyBetterThan(pair[1]); got {
			t.Errorf("identical Results: IsTotallyBetterThan is true")
		}
	}
}

func TestPredicatesNil(t *testing.T) {
	r := mustResult(t, 1, 2)
	preds := map[string]func(*Result) (bool, error){
		"IsBetterThan":              r.IsBetterThan,
		"IsSignificantlyBetterThan": r.IsSignificantlyBetterThan,
		"IsTotallyBetterThan":       r.IsTotallyBetterThan,
	}
	for name, pred := range preds {
		if _, err := pred(nil); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s(nil): got %v, want ErrInvalidInput", name, err)
		}
	}
	var nilResult *Result
	if _, err := nilResult.IsBetterThan(r); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil.IsBetterThan: got %v, want ErrInvalidInput", err)
	}
}

func TestStrengthOrdering(t *testing.T) {
	// For well separated, tight Results the predicates nest.
	rnd := rand.New(rand.NewSource(2))
	for iter := 0; iter < 200; iter++ {
		mk := func(base float64) *Result {
			xs := make([]float64, 5)
			for i := range xs {
				xs[i] = base + rnd.Float64()*0.1
			}
			return mustResult(t, xs...)
		}
		a, b := mk(1), mk(1+rnd.Float64()*0.3)
		totally, _ := a.IsTotallyBetterThan(b)
		significantly, _ := a.IsSignificantlyBetterThan(b)
		better, _ := a.IsBetterThan(b)
		if significantly && !better {
			t.Fatalf("significantly better but not better: %v vs %v", a, b)
		}
		if totally && !better {
			t.Fatalf("totally better but not better: %v vs %v", a, b)
		}
	}
}

func TestString(t *testing.T) {
	r := mustResult(t, 1, 2, 3, 4, 5)
	want := "3.00ms ± 1.41ms (1.00ms … 5.00ms), normalized 2.50ms, n=5"
	if got := r.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
