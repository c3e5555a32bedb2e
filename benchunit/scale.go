// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchunit formats benchmark timings.
//
// Timings are first tidied to seconds (see TidyUnit) and then printed
// with an SI prefix chosen so that every value in a group shows at
// least three significant digits.
package benchunit

import (
	"fmt"
	"math"
	"strconv"
)

// Scaler represents a scaling factor for a timing and its printed
// prefix.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Seconds in 1 Prefix (e.g., 1 m => 0.001)
	Prefix string  // SI prefix
}

// Format formats sec, a value in seconds, according to the given
// scale and appends the prefixed unit, as in "12.3ms".
func (s Scaler) Format(sec float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, sec/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	buf = append(buf, 's')
	return string(buf)
}

// NoOpScaler is a Scaler that formats seconds with the smallest
// number of digits necessary to capture the exact value, and no
// prefix.
var NoOpScaler = Scaler{-1, 1, ""}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100, 10.0, 1.00.
	t100, t10, t1 float64
}

var timeFactors = mkTimeFactors()

func mkTimeFactors() []factor {
	// The thresholds are built by parsing their printed form so
	// that switching to a coarser prefix happens exactly where
	// printing would round up to the next power of ten.
	var factors []factor
	exp := 3
	for _, p := range []string{"k", "", "m", "µ", "n"} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.95e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".9995e%d", exp), 64)
		factors = append(factors, factor{math.Pow(10, float64(exp)), p, t100, t10, t1})
		exp -= 3
	}
	return factors
}

// Scale formats sec using at least three significant digits.
func Scale(sec float64) string {
	return CommonScale([]float64{sec}).Format(sec)
}

// CommonScale returns a common Scaler to apply to all values in secs.
// This scale will show at least three significant digits for every
// value.
func CommonScale(secs []float64) Scaler {
	// The non-zero value closest to zero decides.
	var min float64
	for _, v := range secs {
		v = math.Abs(v)
		if v != 0 && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{2, 1, ""}
	}

	for i, factor := range timeFactors {
		last := i == len(timeFactors)-1
		switch {
		case min >= factor.t100:
			return Scaler{0, factor.factor, factor.prefix}
		case min >= factor.t10:
			return Scaler{1, factor.factor, factor.prefix}
		case min >= factor.t1 || last:
			return Scaler{2, factor.factor, factor.prefix}
		}
	}
	panic("not reachable")
}
