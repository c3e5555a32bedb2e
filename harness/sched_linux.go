// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// highPriorityNice is the nice value a wall-clock run asks for.
// Lowering nice needs CAP_SYS_NICE; without it the run proceeds at
// the current priority.
const highPriorityNice = -10

// maxCPUs bounds the CPU numbers searched in an affinity mask
// (CPU_SETSIZE).
const maxCPUs = 1024

// schedMu serializes owners of the scheduling state.
var schedMu sync.Mutex

// schedGuard records the scheduling state of the locked OS thread
// before a wall-clock run pinned and prioritized it.
type schedGuard struct {
	logger *slog.Logger

	prevMask unix.CPUSet
	maskSet  bool

	prevNice int
	niceSet  bool
}

// acquireSched locks the calling goroutine to its thread, pins the
// thread to a single CPU and raises its priority. Changes that cannot
// be made are logged and skipped.
func acquireSched(logger *slog.Logger) *schedGuard {
	schedMu.Lock()
	runtime.LockOSThread()
	g := &schedGuard{logger: logger}

	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		logger.Debug("reading CPU affinity", slog.String("error", err.Error()))
	} else if cpu := lastCPU(&mask); cpu >= 0 {
		var pin unix.CPUSet
		pin.Set(cpu)
		if err := unix.SchedSetaffinity(0, &pin); err != nil {
			logger.Debug("pinning thread", slog.Int("cpu", cpu), slog.String("error", err.Error()))
		} else {
			g.prevMask, g.maskSet = mask, true
			logger.Debug("pinned thread", slog.Int("cpu", cpu))
		}
	}

	// On Linux, PRIO_PROCESS with who 0 addresses the calling
	// thread only, which is the one we locked. The raw syscall
	// returns 20-nice.
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, 0)
	if err != nil {
		logger.Debug("reading priority", slog.String("error", err.Error()))
		return g
	}
	nice := 20 - prio
	if nice <= highPriorityNice {
		return g
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, highPriorityNice); err != nil {
		logger.Debug("raising priority", slog.Int("nice", highPriorityNice), slog.String("error", err.Error()))
		return g
	}
	g.prevNice, g.niceSet = nice, true
	logger.Debug("raised priority", slog.Int("from", nice), slog.Int("to", highPriorityNice))
	return g
}

// release restores the recorded priority and affinity and unlocks the
// thread. It always unlocks, even if restoring fails.
func (g *schedGuard) release() error {
	defer schedMu.Unlock()
	defer runtime.UnlockOSThread()

	var errs []error
	if g.niceSet {
		if err := unix.Setpriority(unix.PRIO_PROCESS, 0, g.prevNice); err != nil {
			errs = append(errs, fmt.Errorf("restoring nice %d: %w", g.prevNice, err))
		}
	}
	if g.maskSet {
		if err := unix.SchedSetaffinity(0, &g.prevMask); err != nil {
			errs = append(errs, fmt.Errorf("restoring CPU affinity: %w", err))
		}
	}
	return errors.Join(errs...)
}

// lastCPU returns the highest CPU in mask, or -1 if mask is empty.
// CPU 0 tends to service the most interrupts.
func lastCPU(mask *unix.CPUSet) int {
	for cpu := maxCPUs - 1; cpu >= 0; cpu-- {
		if mask.IsSet(cpu) {
			return cpu
		}
	}
	return -1
}
