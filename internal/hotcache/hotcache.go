// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package hotcache implements the optional direct-mapped lookup cache
// from spec.md §4.7: a power-of-two-sized array of (fingerprint,
// next-hop) slots, probed by address fingerprint ahead of a full trie
// walk, and bulk-invalidated on any mutation.
package hotcache

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

type slot struct {
	fingerprint uint64
	nextHop     uint32
}

// Cache is a direct-mapped cache of recently looked-up addresses. The
// zero value is not usable; use New. A nil *Cache is valid and behaves
// as "disabled" throughout (spec.md §4.7: "the cache is optional;
// implementations may omit it ... the failure semantics are unchanged"),
// so callers can hold a nil *Cache instead of branching on an enabled
// flag everywhere.
type Cache struct {
	slots []slot

	// occupied tracks which slots hold a live entry. A bitset.BitSet
	// turns Invalidate into one word-wise ClearAll instead of a
	// per-slot store, and keeps slot itself down to the fingerprint and
	// next-hop that actually vary per lookup.
	occupied *bitset.BitSet

	mask uint64
}

// New returns a Cache sized to the next power of two >= size. size == 0
// returns nil, the disabled cache.
func New(size int) *Cache {
	if size <= 0 {
		return nil
	}

	n := uint64(1)
	for n < uint64(size) {
		n <<= 1
	}

	return &Cache{
		slots:    make([]slot, n),
		occupied: bitset.New(uint(n)),
		mask:     n - 1,
	}
}

// Fingerprint hashes addr's bytes into the 64-bit key used to probe and
// populate the cache.
func Fingerprint(addr []byte) uint64 {
	return xxhash.Sum64(addr)
}

// Lookup probes the cache for fingerprint, returning the cached next-hop
// and true on a bit-exact hit. A nil Cache always misses.
func (c *Cache) Lookup(fingerprint uint64) (nextHop uint32, hit bool) {
	if c == nil {
		return 0, false
	}

	pos := uint(fingerprint & c.mask)
	if !c.occupied.Test(pos) {
		return 0, false
	}

	s := &c.slots[pos]
	if s.fingerprint == fingerprint {
		return s.nextHop, true
	}
	return 0, false
}

// Store records the result of a full lookup against fingerprint, so a
// future Lookup with the same fingerprint can skip the trie walk. A nil
// Cache silently does nothing.
func (c *Cache) Store(fingerprint uint64, nextHop uint32) {
	if c == nil {
		return
	}

	pos := uint(fingerprint & c.mask)
	c.slots[pos] = slot{fingerprint: fingerprint, nextHop: nextHop}
	c.occupied.Set(pos)
}

// Invalidate clears every slot's occupancy bit in one pass. Every
// mutating index operation (Insert, Delete) must call this — spec.md
// §4.7: "On mutation, the entire cache is zeroed in one pass." A nil
// Cache silently does nothing.
func (c *Cache) Invalidate() {
	if c == nil {
		return
	}
	c.occupied.ClearAll()
}

// Size reports the number of slots, or 0 for a nil (disabled) Cache.
func (c *Cache) Size() int {
	if c == nil {
		return 0
	}
	return len(c.slots)
}
