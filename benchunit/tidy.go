// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchunit

import (
	"strings"
	"sync"
)

type tidyEntry struct {
	tidied string
	factor float64
}

var tidyCache sync.Map // unit string -> *tidyEntry

// timePrefixes maps a pre-scaled time unit to its size in seconds.
var timePrefixes = map[string]float64{
	"ns":  1e-9,
	"us":  1e-6,
	"µs":  1e-6,
	"ms":  1e-3,
	"s":   1,
	"sec": 1,
}

// Tidy rewrites vals from unit to seconds in place and returns the
// tidied unit. Units that are not a time, or have a time only in the
// denominator, are left alone.
//
// Values should be tidied before they are handed to a Scaler, so the
// scaler doesn't produce nonsense like "kilomilliseconds".
func Tidy(vals []float64, unit string) string {
	tidied, factor := TidyUnit(unit)
	if factor != 1 {
		for i := range vals {
			vals[i] *= factor
		}
	}
	return tidied
}

// TidyUnit returns the tidied version of unit and the multiplicative
// factor to convert a value in unit "unit" to a value in unit
// "tidied".
func TidyUnit(unit string) (tidied string, factor float64) {
	// Fast path for the units the harness reports.
	switch unit {
	case "ms":
		return "sec", 1e-3
	case "ms/op":
		return "sec/op", 1e-3
	case "ns/op":
		return "sec/op", 1e-9
	case "sec", "sec/op":
		return unit, 1
	}

	if tc, ok := tidyCache.Load(unit); ok {
		tc := tc.(*tidyEntry)
		return tc.tidied, tc.factor
	}

	tidied, factor = tidy(unit)
	tidyCache.Store(unit, &tidyEntry{tidied, factor})
	return
}

func tidy(unit string) (tidied string, factor float64) {
	// Only the numerator is edited.
	num, denom, hasDenom := strings.Cut(unit, "/")
	f, ok := timePrefixes[strings.TrimSpace(num)]
	if !ok {
		return unit, 1
	}
	tidied = "sec"
	if hasDenom {
		tidied += "/" + denom
	}
	return tidied, f
}
