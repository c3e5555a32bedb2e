// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package harness

import (
	"errors"
	"runtime"
	"time"
)

func processCPUTime() (time.Duration, error) {
	return 0, errors.New("process CPU time not available on " + runtime.GOOS)
}
