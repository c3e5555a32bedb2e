// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command benchcmp measures two recursive Fibonacci workloads of
// different sizes and reports how they compare.
//
// Usage:
//
//	benchcmp [flags]
//
// For each workload it prints the timing summary of the rounds,
// followed by the three comparison predicates of the faster workload
// against the slower one:
//
//	better               - lower normalized mean
//	significantly better - normalized means differ by more than half a
//	                       standard deviation on each side
//	totally better       - slowest round of one beats fastest round of
//	                       the other
//
// It is mostly useful to check that the harness tells obviously
// different workloads apart on a given machine, and how many
// iterations the CPU-time clock needs to do so.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/Invenietis/CK-MicroBenchmark/benchstat"
	"github.com/Invenietis/CK-MicroBenchmark/harness"
)

var sink int

func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

func main() {
	log.SetPrefix("")
	log.SetFlags(0)

	defaults := harness.DefaultConfig()
	flagClock := flag.String("clock", "wall", "time rounds with `clock` (wall or cpu)")
	flagIters := flag.Int("iters", defaults.Iterations, "run each workload `n` times per round")
	flagSamples := flag.Int("samples", defaults.Samples, "time `n` rounds per workload")
	flagWarmup := flag.Int("warmup", defaults.Warmup, "run each workload `n` times before timing")
	flagFast := flag.Int("fast", 9, "size of the small workload")
	flagSlow := flag.Int("slow", 20, "size of the large workload")
	flagVerbose := flag.Bool("v", false, "log each round")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags]

benchcmp measures fib(fast) and fib(slow) and reports how the two
compare.

`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
		os.Exit(2)
	}

	kind, err := parseClock(*flagClock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsing -clock: %s\n", err)
		os.Exit(2)
	}

	if err := checkSizes(*flagFast, *flagSlow); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []harness.Option{
		harness.WithIterations(*flagIters),
		harness.WithSamples(*flagSamples),
		harness.WithWarmup(*flagWarmup),
		harness.WithLogger(logger),
	}

	var results benchstat.Collection
	for _, n := range []int{*flagFast, *flagSlow} {
		name := fmt.Sprintf("fib(%d)", n)
		res, err := harness.Measure(kind, func() error {
			sink += fib(n)
			return nil
		}, opts...)
		if err != nil {
			log.Fatalf("measuring %s: %s", name, err)
		}
		if err := results.Add(name, res); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-10s %s\n", name, res)
	}

	best, cmps, err := results.CompareBest()
	if err != nil {
		log.Fatal(err)
	}
	for _, name := range results.Rank()[1:] {
		cmp := cmps[name]
		fmt.Printf("\n%s vs %s: %s (%.2fx)\n", best, name, cmp.Verdict(), cmp.Speedup)
		fmt.Printf("\tbetter:               %v\n", cmp.Better)
		fmt.Printf("\tsignificantly better: %v\n", cmp.SignificantlyBetter)
		fmt.Printf("\ttotally better:       %v\n", cmp.TotallyBetter)
	}
}

func parseClock(s string) (harness.ClockKind, error) {
	switch s {
	case "wall":
		return harness.WallClock, nil
	case "cpu":
		return harness.CPUTime, nil
	}
	return 0, fmt.Errorf("unknown clock %q, want wall or cpu", s)
}

// checkSizes rejects workload sizes that would share one name in the
// results.
func checkSizes(fast, slow int) error {
	if fast == slow {
		return fmt.Errorf("-fast and -slow are both %d, want different sizes", fast)
	}
	return nil
}
