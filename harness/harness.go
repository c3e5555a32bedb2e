// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harness measures how long a unit of work takes.
//
// A measurement runs the work a few times to warm up, then times a
// number of rounds, each executing the work a fixed number of times,
// and reduces the per-round timings to a benchstat.Result:
//
//	res, err := harness.MeasureWallClock(func() error {
//		parse(input)
//		return nil
//	}, harness.WithIterations(1000))
//
// Measurement is strictly sequential on the calling goroutine. There
// is no timeout: a unit of work that never returns blocks the
// measurement forever.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Invenietis/CK-MicroBenchmark/benchstat"
)

const tracerName = "github.com/Invenietis/CK-MicroBenchmark/harness"

var (
	// ErrInvalidInput is returned for a nil unit of work and for
	// out-of-range configuration. It is benchstat.ErrInvalidInput.
	ErrInvalidInput = benchstat.ErrInvalidInput

	// ErrUnsupportedEnvironment is returned when the host cannot
	// provide the requested clock.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
)

// Config controls a measurement.
type Config struct {
	// Iterations is the number of times the unit of work runs in
	// each round. It must be at least 1.
	Iterations int
	// Samples is the number of timed rounds. It must be at least
	// benchstat.MinTimings.
	Samples int
	// Warmup is the number of untimed runs before the first round.
	// It must not be negative.
	Warmup int

	Logger         *slog.Logger
	TracerProvider trace.TracerProvider

	// Context parents the measurement's trace span. It is not
	// used for cancellation.
	Context context.Context
}

// DefaultConfig returns the configuration used when no options are
// given: 10000 iterations, 5 samples and 1 warm-up run.
func DefaultConfig() Config {
	return Config{
		Iterations:     10000,
		Samples:        5,
		Warmup:         1,
		Logger:         slog.Default(),
		TracerProvider: otel.GetTracerProvider(),
		Context:        context.Background(),
	}
}

// Validate checks c's counts.
func (c *Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations %d < 1: %w", c.Iterations, ErrInvalidInput)
	}
	if c.Samples < benchstat.MinTimings {
		return fmt.Errorf("samples %d < %d: %w", c.Samples, benchstat.MinTimings, ErrInvalidInput)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup %d < 0: %w", c.Warmup, ErrInvalidInput)
	}
	return nil
}

// An Option modifies a measurement's Config. Options are applied in
// order.
type Option func(*Config)

// WithIterations sets the number of runs per round.
func WithIterations(n int) Option {
	return func(c *Config) { c.Iterations = n }
}

// WithSamples sets the number of timed rounds.
func WithSamples(n int) Option {
	return func(c *Config) { c.Samples = n }
}

// WithWarmup sets the number of untimed runs.
func WithWarmup(n int) Option {
	return func(c *Config) { c.Warmup = n }
}

// WithLogger sets the logger for debug output. A nil logger is
// ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithTracerProvider sets the provider of the measurement's tracer.
// A nil provider is ignored.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		if tp != nil {
			c.TracerProvider = tp
		}
	}
}

// WithContext sets the parent context of the measurement's span. A
// nil context is ignored.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		if ctx != nil {
			c.Context = ctx
		}
	}
}

// MeasureWallClock measures work against the monotonic wall clock.
// For the duration of the timed rounds the calling goroutine is
// locked to its OS thread, which is pinned to one CPU and given a
// raised priority where the host allows it.
//
// Any error returned by work aborts the measurement and is returned
// wrapped.
func MeasureWallClock(work func() error, opts ...Option) (*benchstat.Result, error) {
	return Measure(WallClock, work, opts...)
}

// MeasureCPUTime measures work against the CPU time consumed by the
// process. It does not change scheduling. CPU time is accounted in
// scheduler ticks on many hosts, so it needs more iterations than
// MeasureWallClock to tell close workloads apart.
func MeasureCPUTime(work func() error, opts ...Option) (*benchstat.Result, error) {
	return Measure(CPUTime, work, opts...)
}

func spanName(kind ClockKind) string {
	switch kind {
	case WallClock:
		return "harness.MeasureWallClock"
	case CPUTime:
		return "harness.MeasureCPUTime"
	}
	return "harness.Measure"
}

// Measure measures work with the given kind of clock.
func Measure(kind ClockKind, work func() error, opts ...Option) (res *benchstat.Result, err error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tracer := cfg.TracerProvider.Tracer(tracerName)
	_, span := tracer.Start(cfg.Context, spanName(kind),
		trace.WithAttributes(
			attribute.String("harness.clock", kind.String()),
			attribute.Int("harness.iterations", cfg.Iterations),
			attribute.Int("harness.samples", cfg.Samples),
			attribute.Int("harness.warmup", cfg.Warmup),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if work == nil {
		return nil, fmt.Errorf("nil unit of work: %w", ErrInvalidInput)
	}
	if kind != WallClock && kind != CPUTime {
		return nil, fmt.Errorf("unknown clock %v: %w", kind, ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger.With(slog.String("clock", kind.String()))

	// Keep collection work out of the timed rounds.
	runtime.GC()

	for i := 0; i < cfg.Warmup; i++ {
		if err := work(); err != nil {
			return nil, fmt.Errorf("warm-up run %d: %w", i, err)
		}
	}
	logger.Debug("warm-up done", slog.Int("runs", cfg.Warmup))

	samples, err := sample(kind, work, &cfg, logger)
	if err != nil {
		return nil, err
	}

	res, err = benchstat.NewResult(samples)
	if err != nil {
		return nil, fmt.Errorf("reducing samples: %w", err)
	}

	span.SetAttributes(
		attribute.Float64("harness.result.normalized_mean_ms", res.NormalizedMean()),
		attribute.Float64("harness.result.stddev_ms", res.StandardDeviation()),
	)
	span.SetStatus(codes.Ok, "measurement completed")
	return res, nil
}

// sample runs the timed rounds and returns one timing in milliseconds
// per round.
func sample(kind ClockKind, work func() error, cfg *Config, logger *slog.Logger) ([]float64, error) {
	clock, err := Acquire(kind, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := clock.Close(); err != nil {
			logger.Warn("releasing clock", slog.String("error", err.Error()))
		}
	}()

	samples := make([]float64, cfg.Samples)
	for i := range samples {
		clock.Reset()
		clock.Start()
		for j := 0; j < cfg.Iterations; j++ {
			if err := work(); err != nil {
				clock.Stop()
				return nil, fmt.Errorf("round %d, run %d: %w", i, j, err)
			}
		}
		clock.Stop()
		samples[i] = float64(clock.Elapsed()) / float64(time.Millisecond)
		logger.Debug("sample", slog.Int("round", i), slog.Float64("ms", samples[i]))
	}
	return samples, nil
}
