// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package harness

import (
	"math"
	"time"
)

// timerResolution estimates the monotonic clock's resolution as the
// smallest observed tick.
var timerResolution = func() (time.Duration, error) {
	best := time.Duration(math.MaxInt64)
	for i := 0; i < 16; i++ {
		t0 := time.Now()
		d := time.Since(t0)
		for d == 0 {
			d = time.Since(t0)
		}
		if d < best {
			best = d
		}
	}
	return best, nil
}
