// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dir24

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packetforge/lpmcore/internal/nexthop"
)

func ip4(a, b, c, d byte) []byte { return []byte{a, b, c, d} }

func TestEmptyLookupMisses(t *testing.T) {
	idx := New(nil)
	require.Equal(t, nexthop.Invalid, idx.Lookup(ip4(10, 0, 0, 1)))
}

func TestDefaultRoute(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(0, 0, 0, 0), 0, 7))
	require.Equal(t, uint32(7), idx.Lookup(ip4(255, 255, 255, 255)))
}

func TestNextHopTooLargeRejected(t *testing.T) {
	idx := New(nil)
	err := idx.Insert(ip4(10, 0, 0, 0), 8, MaxNextHop+1)
	require.ErrorIs(t, err, ErrNextHopTooLarge)
	require.Equal(t, 0, idx.Count())
}

func TestMaxNextHopAccepted(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, MaxNextHop))
	require.Equal(t, uint32(MaxNextHop), idx.Lookup(ip4(10, 1, 2, 3)))
}

func TestPrimaryOnlyBoundaries(t *testing.T) {
	for _, length := range []int{1, 7, 8, 15, 16, 23, 24} {
		idx := New(nil)
		a := ip4(172, 16, 5, 9)
		require.NoError(t, idx.Insert(a, length, uint32(length)))
		require.Equal(t, uint32(length), idx.Lookup(a), "length=%d", length)
	}
}

func TestExtendedBoundaries(t *testing.T) {
	for _, length := range []int{25, 31, 32} {
		idx := New(nil)
		a := ip4(172, 16, 5, 9)
		require.NoError(t, idx.Insert(a, length, uint32(length)))
		require.Equal(t, uint32(length), idx.Lookup(a), "length=%d", length)
	}
}

func TestLongestPrefixWinsAcrossSplit(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, 1))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 0), 24, 2))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 128), 25, 3))

	require.Equal(t, uint32(1), idx.Lookup(ip4(10, 9, 9, 9)))
	require.Equal(t, uint32(2), idx.Lookup(ip4(10, 1, 2, 5)))
	require.Equal(t, uint32(3), idx.Lookup(ip4(10, 1, 2, 200)))
}

// TestShorterAfterLongerDoesNotShadow inserts the more specific /16 first,
// then a covering /8, both landing in the primary (non-extended) range:
// the /16's answer for its own range must survive the broader /8 insert
// that comes after it, and the rest of the /8 must still resolve to the
// /8's own value.
func TestShorterAfterLongerDoesNotShadow(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 1, 0, 0), 16, 2))
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, 1))

	require.Equal(t, uint32(2), idx.Lookup(ip4(10, 1, 5, 5)))
	require.Equal(t, uint32(1), idx.Lookup(ip4(10, 2, 5, 5)))
}

// TestShorterPrimaryAfterLongerExtendedDoesNotShadow mirrors the above at
// the primary-vs-extended boundary: a /25 creates a tbl8 group, then a
// later, broader /16 covering that same primary slot must not clobber the
// already-extended slot, while still taking effect over the rest of its
// own range.
func TestShorterPrimaryAfterLongerExtendedDoesNotShadow(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 128), 25, 3))
	require.NoError(t, idx.Insert(ip4(10, 1, 0, 0), 16, 9))

	require.Equal(t, uint32(3), idx.Lookup(ip4(10, 1, 2, 200)))
	require.Equal(t, uint32(9), idx.Lookup(ip4(10, 1, 5, 5)))
}

// TestNonExtendedOverlapOrderIndependent covers two non-extended prefixes
// of different lengths racing for the same primary range, in both insert
// orders: the narrower /16 must win over its own range regardless of
// whether it was inserted before or after the broader /8, and the rest of
// the /8 must always resolve to the /8's value. This exercises Lookup
// order-independence only, the same single-answer property
// internal/trie8's TestSameNodeOverlapPreservesLonger checks for trie8;
// it says nothing about LookupAll, which — here as in trie8/wide16 —
// keeps only the surviving (longest) record per slot once two prefixes
// of different lengths land in the same primary range, so the
// overwritten /8 record is not separately recoverable from that range.
func TestNonExtendedOverlapOrderIndependent(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, 1))
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 16, 2))

	require.Equal(t, uint32(2), idx.Lookup(ip4(10, 0, 5, 5)))
	require.Equal(t, uint32(1), idx.Lookup(ip4(10, 9, 5, 5)))

	idx2 := New(nil)
	require.NoError(t, idx2.Insert(ip4(10, 0, 0, 0), 16, 2))
	require.NoError(t, idx2.Insert(ip4(10, 0, 0, 0), 8, 1))

	require.Equal(t, uint32(2), idx2.Lookup(ip4(10, 0, 5, 5)))
	require.Equal(t, uint32(1), idx2.Lookup(ip4(10, 9, 5, 5)))
}

func TestExtensionSeedsPriorPrimaryValue(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 0), 24, 2))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 128), 25, 3))

	// Addresses outside the /25 but still inside the /24 must keep
	// resolving to the /24's value via the seeded tbl8 group.
	require.Equal(t, uint32(2), idx.Lookup(ip4(10, 1, 2, 1)))
	require.Equal(t, uint32(3), idx.Lookup(ip4(10, 1, 2, 200)))
}

func TestIdenticalLengthOverwrite(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 24, 1))
	require.Equal(t, 1, idx.Count())

	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 24, 2))
	require.Equal(t, 1, idx.Count())
	require.Equal(t, uint32(2), idx.Lookup(ip4(10, 0, 0, 5)))
}

func TestInsertThenDeleteRestoresPriorState(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, 1))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 0), 24, 2))

	probes := []([]byte){ip4(10, 1, 2, 5), ip4(10, 1, 2, 200), ip4(10, 9, 9, 9)}
	before := make(map[string]uint32)
	for _, p := range probes {
		before[string(p)] = idx.Lookup(p)
	}

	require.NoError(t, idx.Insert(ip4(10, 1, 2, 128), 25, 3))
	require.True(t, idx.Delete(ip4(10, 1, 2, 128), 25))

	for _, p := range probes {
		require.Equal(t, before[string(p)], idx.Lookup(p), "addr=%v", p)
	}
}

func TestDeleteMissingReportsFalse(t *testing.T) {
	idx := New(nil)
	require.False(t, idx.Delete(ip4(10, 0, 0, 0), 24))
}

func TestLookupAllDefaultPlusOneLevel(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(0, 0, 0, 0), 0, 100))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 0), 24, 101))

	matches := idx.LookupAll(ip4(10, 1, 2, 5), nil)
	require.Equal(t, []nexthop.Match{
		{Length: 0, NextHop: 100},
		{Length: 24, NextHop: 101},
	}, matches)
}

func TestLookupAllDefaultPlusExtendedLevel(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(0, 0, 0, 0), 0, 100))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 128), 25, 103))

	matches := idx.LookupAll(ip4(10, 1, 2, 200), nil)
	require.Equal(t, []nexthop.Match{
		{Length: 0, NextHop: 100},
		{Length: 25, NextHop: 103},
	}, matches)
}

func TestLookupWordMatchesLookup(t *testing.T) {
	idx := New(nil)
	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, 1))
	require.NoError(t, idx.Insert(ip4(10, 1, 2, 128), 25, 3))

	cases := []([]byte){ip4(10, 9, 9, 9), ip4(10, 1, 2, 200), ip4(10, 1, 2, 1), ip4(1, 2, 3, 4)}
	for _, addr := range cases {
		word := uint32(addr[0])<<24 | uint32(addr[1])<<16 | uint32(addr[2])<<8 | uint32(addr[3])
		require.Equal(t, idx.Lookup(addr), idx.LookupWord(word), "addr=%v", addr)
	}
}

func TestCountTracksDistinctBindings(t *testing.T) {
	idx := New(nil)
	require.Equal(t, 0, idx.Count())

	require.NoError(t, idx.Insert(ip4(10, 0, 0, 0), 8, 1))
	require.NoError(t, idx.Insert(ip4(10, 1, 0, 0), 16, 2))
	require.Equal(t, 2, idx.Count())

	idx.Delete(ip4(10, 0, 0, 0), 8)
	require.Equal(t, 1, idx.Count())
}
