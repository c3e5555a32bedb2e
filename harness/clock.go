// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harness

import (
	"fmt"
	"log/slog"
	"time"
)

// ClockKind selects how a round is timed.
type ClockKind int

const (
	// WallClock measures real elapsed time on the monotonic
	// clock, with the measuring thread pinned to one CPU.
	WallClock ClockKind = iota
	// CPUTime measures user plus system time consumed by the
	// process.
	CPUTime
)

func (k ClockKind) String() string {
	switch k {
	case WallClock:
		return "wall-clock"
	case CPUTime:
		return "cpu-time"
	}
	return fmt.Sprintf("ClockKind(%d)", int(k))
}

// A Clock is a stopwatch over one time source. It is a scoped
// resource: Close must be called once the Clock is no longer needed,
// and restores anything acquiring it changed.
type Clock interface {
	// Reset stops the clock and zeroes the elapsed time.
	Reset()
	// Start starts or resumes timing. Starting a running clock
	// does nothing.
	Start()
	// Stop pauses timing. Stopping a stopped clock does nothing.
	Stop()
	// Elapsed returns the total time the clock has run since the
	// last Reset.
	Elapsed() time.Duration
	// Close releases the clock.
	Close() error
}

// Acquire returns a Clock of the given kind. Acquiring a WallClock
// pins the calling goroutine's thread and raises its priority until
// Close; the caller must Close the Clock from the same goroutine.
func Acquire(kind ClockKind, logger *slog.Logger) (Clock, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var c Clock
	var err error
	switch kind {
	case WallClock:
		c, err = newWallClock(logger)
	case CPUTime:
		c, err = newCPUClock()
	default:
		return nil, fmt.Errorf("unknown clock %v: %w", kind, ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// stopwatch accumulates differences of a monotonic reading.
type stopwatch struct {
	read func() time.Duration

	start   time.Duration
	elapsed time.Duration
	running bool
}

func (s *stopwatch) Reset() {
	s.elapsed = 0
	s.running = false
}

func (s *stopwatch) Start() {
	if !s.running {
		s.running = true
		s.start = s.read()
	}
}

func (s *stopwatch) Stop() {
	if s.running {
		s.elapsed += s.read() - s.start
		s.running = false
	}
}

func (s *stopwatch) Elapsed() time.Duration {
	if s.running {
		return s.elapsed + s.read() - s.start
	}
	return s.elapsed
}

// maxTimerResolution is the coarsest monotonic timer a WallClock
// accepts.
const maxTimerResolution = time.Microsecond

type wallClock struct {
	stopwatch
	sched *schedGuard
}

func newWallClock(logger *slog.Logger) (*wallClock, error) {
	res, err := timerResolution()
	if err != nil {
		return nil, fmt.Errorf("querying timer resolution: %v: %w", err, ErrUnsupportedEnvironment)
	}
	if res > maxTimerResolution {
		return nil, fmt.Errorf("timer resolution %v is coarser than %v: %w", res, maxTimerResolution, ErrUnsupportedEnvironment)
	}

	base := time.Now()
	c := &wallClock{
		stopwatch: stopwatch{read: func() time.Duration { return time.Since(base) }},
		sched:     acquireSched(logger),
	}
	return c, nil
}

func (c *wallClock) Close() error {
	if c.sched == nil {
		return nil
	}
	err := c.sched.release()
	c.sched = nil
	return err
}

type cpuClock struct {
	stopwatch
}

func newCPUClock() (*cpuClock, error) {
	if _, err := processCPUTime(); err != nil {
		return nil, fmt.Errorf("reading process CPU time: %v: %w", err, ErrUnsupportedEnvironment)
	}
	c := &cpuClock{stopwatch{read: func() time.Duration {
		// The read above succeeded; getrusage on the own
		// process does not fail after that.
		d, _ := processCPUTime()
		return d
	}}}
	return c, nil
}

func (c *cpuClock) Close() error { return nil }
