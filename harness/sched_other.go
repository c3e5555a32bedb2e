// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package harness

import (
	"log/slog"
	"runtime"
	"sync"
)

var schedMu sync.Mutex

// schedGuard only keeps the goroutine on one thread where thread
// affinity and priority are not available.
type schedGuard struct{}

func acquireSched(logger *slog.Logger) *schedGuard {
	schedMu.Lock()
	runtime.LockOSThread()
	logger.Debug("CPU pinning not supported", slog.String("goos", runtime.GOOS))
	return &schedGuard{}
}

func (g *schedGuard) release() error {
	runtime.UnlockOSThread()
	schedMu.Unlock()
	return nil
}
