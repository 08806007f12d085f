// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package ruleset keeps the authoritative, canonicalized list of
// (prefix, length, next-hop) bindings behind an index, independent of
// whichever flat trie/array structure is derived from it for lookups.
//
// It exists because the flat, single-slot-per-entry layouts spec.md
// mandates for trie8/wide16/dir24 (§4.2-§4.4) are destructive: expanding a
// longer prefix overwrites whatever a shorter, still-live prefix had
// written to the same entry. Spec's delete algorithm ("clear the valid
// bits in the same contiguous range") is correct only when nothing else
// still covers that range. To satisfy the quantified invariant in spec.md
// §8 ("Insert-then-delete of the same (P, L) restores the lookup result
// for every A to its pre-insert value") in the general case — arbitrary
// overlapping prefixes landing in the same stride node, deleted in
// arbitrary order — a delete must be able to replay every surviving rule
// back into the affected region. Keeping the canonical rule list here lets
// each algorithm package implement Delete as "remove the rule, then
// rebuild the derived structure from what remains", which is exactly
// correct by construction instead of by case analysis.
//
// Rebuilding is a control-plane operation; spec.md never states a
// complexity bound for insert/delete, only for lookup (wire speed), so
// trading O(rules) delete cost for straightforward, provably-correct
// semantics is an acceptable implementation choice documented in
// DESIGN.md.
package ruleset

import (
	"bytes"
	"sort"

	"github.com/packetforge/lpmcore/internal/bitmath"
)

// Rule is one canonicalized binding.
type Rule struct {
	Bytes   []byte // length byteLen, masked beyond Length
	Length  int
	NextHop uint32
}

// Set is the canonical, deduplicated collection of rules for one index.
// The zero value is not usable; use New.
type Set struct {
	byteLen int
	byKey   map[string]int // canonical key -> index into rules
	rules   []Rule
}

func key(b []byte, length int) string {
	return string(b) + string(rune(length))
}

// New returns an empty Set for addresses of byteLen bytes (4 or 16).
func New(byteLen int) *Set {
	return &Set{
		byteLen: byteLen,
		byKey:   make(map[string]int),
	}
}

// Canonicalize returns a copy of addr masked to its first length bits.
// Callers must validate length range and addr length before calling this;
// Canonicalize itself just masks.
func (s *Set) Canonicalize(addr []byte, length int) []byte {
	return bitmath.MaskBytes(addr, length)
}

// Upsert inserts or overwrites the rule (addr, length, nextHop). Reports
// whether this was a new rule (as opposed to overwriting an identical
// (addr, length) pair) — see spec.md §9, "overlapping identical length":
// overwrite semantics, no count increase.
func (s *Set) Upsert(addr []byte, length int, nextHop uint32) (isNew bool) {
	canon := s.Canonicalize(addr, length)
	k := key(canon, length)

	if i, ok := s.byKey[k]; ok {
		s.rules[i].NextHop = nextHop
		return false
	}

	s.byKey[k] = len(s.rules)
	s.rules = append(s.rules, Rule{Bytes: canon, Length: length, NextHop: nextHop})

	return true
}

// Remove deletes the rule for (addr, length) if present, reporting whether
// it existed.
func (s *Set) Remove(addr []byte, length int) bool {
	canon := s.Canonicalize(addr, length)
	k := key(canon, length)

	i, ok := s.byKey[k]
	if !ok {
		return false
	}

	last := len(s.rules) - 1
	s.rules[i] = s.rules[last]
	s.rules = s.rules[:last]
	delete(s.byKey, k)

	if i != last {
		moved := s.rules[i]
		s.byKey[key(moved.Bytes, moved.Length)] = i
	}

	return true
}

// Get returns the next-hop bound to the exact (addr, length), if present.
func (s *Set) Get(addr []byte, length int) (nextHop uint32, ok bool) {
	canon := s.Canonicalize(addr, length)
	i, found := s.byKey[key(canon, length)]
	if !found {
		return 0, false
	}
	return s.rules[i].NextHop, true
}

// Len reports the number of distinct rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Ascending returns all rules sorted by length ascending (ties broken by
// byte order), the replay order that makes incremental longest-match
// overwrite insertion produce a correct rebuild: shorter prefixes are
// applied first so any still-live longer prefix is written last and wins.
func (s *Set) Ascending() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Length != out[j].Length {
			return out[i].Length < out[j].Length
		}
		return bytes.Compare(out[i].Bytes, out[j].Bytes) < 0
	})

	return out
}
