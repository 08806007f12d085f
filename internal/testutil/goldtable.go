// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package testutil provides a slow, obviously-correct reference table
// used as a golden oracle in randomized property tests against the fast
// indexes (trie8, wide16, dir24) and the public facade.
package testutil

import (
	"sort"

	"github.com/packetforge/lpmcore/internal/bitmath"
	"github.com/packetforge/lpmcore/internal/nexthop"
)

// Item is one entry in a GoldTable.
type Item struct {
	Bytes  []byte
	Length int
	Hop    uint32
}

// GoldTable is a slice-of-prefixes reference implementation: every
// operation is O(n), but its correctness requires no reasoning about
// arenas, stride widths, or overwrite ordering — exactly what makes it
// trustworthy as an oracle for the fast indexes' randomized tests.
type GoldTable struct {
	items []Item
}

func canon(b []byte, length int) string {
	return string(bitmath.MaskBytes(b, length))
}

// Insert adds or overwrites (addr, length) -> hop.
func (g *GoldTable) Insert(addr []byte, length int, hop uint32) {
	key := canon(addr, length)
	for i := range g.items {
		if canon(g.items[i].Bytes, g.items[i].Length) == key && g.items[i].Length == length {
			g.items[i].Hop = hop
			return
		}
	}
	g.items = append(g.items, Item{Bytes: bitmath.MaskBytes(addr, length), Length: length, Hop: hop})
}

// Delete removes (addr, length) if present, reporting whether it was.
func (g *GoldTable) Delete(addr []byte, length int) bool {
	key := canon(addr, length)
	for i := range g.items {
		if canon(g.items[i].Bytes, g.items[i].Length) == key && g.items[i].Length == length {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return true
		}
	}
	return false
}

// Lookup scans every item and returns the next-hop of the longest prefix
// that covers addr, or nexthop.Invalid if none does.
func (g *GoldTable) Lookup(addr []byte) uint32 {
	best := nexthop.Invalid
	bestLen := -1

	for _, item := range g.items {
		if covers(item, addr) && item.Length > bestLen {
			best = item.Hop
			bestLen = item.Length
		}
	}

	return best
}

// LookupAll returns every covering item's (length, hop), shortest-first.
func (g *GoldTable) LookupAll(addr []byte) []nexthop.Match {
	var out []nexthop.Match
	for _, item := range g.items {
		if covers(item, addr) {
			out = append(out, nexthop.Match{Length: item.Length, NextHop: item.Hop})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Length < out[j].Length })
	return out
}

// Len reports the number of distinct bindings.
func (g *GoldTable) Len() int {
	return len(g.items)
}

func covers(item Item, addr []byte) bool {
	masked := bitmath.MaskBytes(addr, item.Length)
	for i := range item.Bytes {
		if item.Bytes[i] != masked[i] {
			return false
		}
	}
	return true
}
