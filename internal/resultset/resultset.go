// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package resultset implements the capacity-checked, ordered match list
// backing the core's multi-answer lookup_all operation (spec.md §4.8).
package resultset

import (
	"errors"

	"github.com/packetforge/lpmcore/internal/nexthop"
)

// ErrZeroCapacity is returned by New when asked for a zero-capacity set
// (spec.md §4.8: "Zero capacity is rejected at construction time").
var ErrZeroCapacity = errors.New("resultset: capacity must be > 0")

// ErrCapacityExceeded is returned by Append once the set already holds
// Cap matches (spec.md §7, CapacityExceeded).
var ErrCapacityExceeded = errors.New("resultset: capacity exceeded")

// Set is an append-only, shortest-first ordered list of matches, capped
// at a fixed maximum chosen at construction time.
type Set struct {
	cap     int
	matches []nexthop.Match
}

// New returns an empty Set with room for at most cap matches. cap must
// be positive.
func New(cap int) (*Set, error) {
	if cap <= 0 {
		return nil, ErrZeroCapacity
	}
	return &Set{cap: cap, matches: make([]nexthop.Match, 0, cap)}, nil
}

// Cap returns the set's fixed capacity.
func (s *Set) Cap() int {
	return s.cap
}

// Len returns the number of matches currently held.
func (s *Set) Len() int {
	return len(s.matches)
}

// Append records one more covering match, in the order the caller
// discovers them (the walkers in trie8/wide16/dir24 already visit
// shortest-to-longest). Returns ErrCapacityExceeded without mutating the
// set if it is already full.
func (s *Set) Append(m nexthop.Match) error {
	if len(s.matches) >= s.cap {
		return ErrCapacityExceeded
	}
	s.matches = append(s.matches, m)
	return nil
}

// Matches returns the accumulated matches, shortest-first.
func (s *Set) Matches() []nexthop.Match {
	return s.matches
}

// Reset empties the set for reuse without reallocating its backing
// array, for callers that perform repeated lookup_all calls (e.g. a
// batch driver) and want to amortize allocation.
func (s *Set) Reset() {
	s.matches = s.matches[:0]
}
