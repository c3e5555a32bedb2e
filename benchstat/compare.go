// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstat

import "fmt"

// Verdict is the strongest of the three comparison predicates that
// holds for a pair of Results.
type Verdict int

const (
	// NotBetter means not even the normalized means are ordered.
	NotBetter Verdict = iota
	// Better means IsBetterThan holds.
	Better
	// SignificantlyBetter means IsSignificantlyBetterThan holds.
	SignificantlyBetter
	// TotallyBetter means IsTotallyBetterThan holds.
	TotallyBetter
)

func (v Verdict) String() string {
	switch v {
	case NotBetter:
		return "not better"
	case Better:
		return "better"
	case SignificantlyBetter:
		return "significantly better"
	case TotallyBetter:
		return "totally better"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Comparison records how one Result fares against another.
type Comparison struct {
	Better              bool
	SignificantlyBetter bool
	TotallyBetter       bool

	// Speedup is the other Result's normalized mean divided by
	// this one's, or 0 if this one's is 0.
	Speedup float64
}

// Verdict returns the strongest predicate that holds.
//
// The predicates are not guaranteed to nest, so a pair can be totally
// better without being significantly better when the standard
// deviations are wide. Verdict reports the strongest one regardless.
func (c Comparison) Verdict() Verdict {
	switch {
	case c.TotallyBetter:
		return TotallyBetter
	case c.SignificantlyBetter:
		return SignificantlyBetter
	case c.Better:
		return Better
	}
	return NotBetter
}

// Compare evaluates all comparison predicates of a against b.
func Compare(a, b *Result) (Comparison, error) {
	var c Comparison
	var err error
	if c.Better, err = a.IsBetterThan(b); err != nil {
		return Comparison{}, err
	}
	// checkPair has vetted a and b; the remaining predicates
	// cannot fail.
	c.SignificantlyBetter, _ = a.IsSignificantlyBetterThan(b)
	c.TotallyBetter, _ = a.IsTotallyBetterThan(b)
	if a.normalizedMean != 0 {
		c.Speedup = b.normalizedMean / a.normalizedMean
	}
	return c, nil
}
