// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchstat

import (
	"fmt"
	"sort"
)

// A Collection is a set of named Results kept in insertion order.
//
// The zero value of Collection is an empty collection.
type Collection struct {
	// names records the observation order of each Result.
	names []string

	results map[string]*Result
}

// Add stores result under name. Adding a name a second time replaces
// its Result but keeps its original position.
func (c *Collection) Add(name string, result *Result) error {
	if result == nil {
		return fmt.Errorf("adding %q: nil Result: %w", name, ErrInvalidInput)
	}
	if c.results == nil {
		c.results = make(map[string]*Result)
	}
	if _, ok := c.results[name]; !ok {
		c.names = append(c.names, name)
	}
	c.results[name] = result
	return nil
}

// Get returns the Result stored under name, or nil.
func (c *Collection) Get(name string) *Result {
	return c.results[name]
}

// Names returns the names in the collection in insertion order.
func (c *Collection) Names() []string {
	return append([]string(nil), c.names...)
}

// Rank returns the names in the collection from best to worst by
// normalized mean. Ties keep insertion order.
func (c *Collection) Rank() []string {
	ranked := c.Names()
	sort.SliceStable(ranked, func(i, j int) bool {
		better, _ := c.results[ranked[i]].IsBetterThan(c.results[ranked[j]])
		return better
	})
	return ranked
}

// CompareBest compares the best ranked Result against every other
// Result in the collection. It returns the best name and a map from
// every other name to its Comparison.
func (c *Collection) CompareBest() (string, map[string]Comparison, error) {
	if len(c.names) < 2 {
		return "", nil, fmt.Errorf("comparison requires at least 2 results, have %d: %w", len(c.names), ErrInvalidInput)
	}
	ranked := c.Rank()
	best := c.results[ranked[0]]
	out := make(map[string]Comparison, len(ranked)-1)
	for _, name := range ranked[1:] {
		cmp, err := Compare(best, c.results[name])
		if err != nil {
			return "", nil, fmt.Errorf("comparing %s with %s: %w", ranked[0], name, err)
		}
		out[name] = cmp
	}
	return ranked[0], out, nil
}
