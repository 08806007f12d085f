// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package lpmcore

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/packetforge/lpmcore/internal/testutil"
)

// fillRandom fills buf with random bytes. math/rand/v2's Rand has no Read
// method (unlike the v1 package), so bytes are drawn 8 at a time from
// Uint64 instead.
func fillRandom(prng *rand.Rand, buf []byte) {
	for i := 0; i < len(buf); {
		v := prng.Uint64()
		for shift := 0; shift < 64 && i < len(buf); shift += 8 {
			buf[i] = byte(v >> shift)
			i++
		}
	}
}

func randomPrefixIPv4(prng *rand.Rand) ([]byte, int) {
	addr := make([]byte, 4)
	fillRandom(prng, addr)
	length := prng.IntN(33)
	return addr, length
}

func randomPrefixIPv6(prng *rand.Rand) ([]byte, int) {
	addr := make([]byte, 16)
	fillRandom(prng, addr)
	length := prng.IntN(129)
	return addr, length
}

// FuzzTrie8IPv4AgainstGoldTable cross-checks the Trie8 algorithm against
// the slow, obviously-correct reference implementation over a random
// sequence of overlapping inserts and deletes — the kind of adversarial
// overlap the hand-written boundary tests can't enumerate exhaustively.
func FuzzTrie8IPv4AgainstGoldTable(f *testing.F) {
	f.Add(uint64(12345), 64, 32)
	f.Add(uint64(67890), 200, 50)
	f.Add(uint64(0), 16, 8)

	f.Fuzz(func(t *testing.T, seed uint64, nOps, nQueries int) {
		if nOps < 1 || nOps > 2000 || nQueries < 1 || nQueries > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 7))

		idx, err := Create(FamilyIPv4, AlgoTrie8)
		require.NoError(t, err)

		var gold testutil.GoldTable

		for i := 0; i < nOps; i++ {
			addr, length := randomPrefixIPv4(prng)
			hop := uint32(prng.IntN(1000))

			if prng.IntN(4) == 0 && gold.Len() > 0 {
				gold.Delete(addr, length)
				_ = idx.Delete(addr, length)
				continue
			}

			gold.Insert(addr, length, hop)
			require.NoError(t, idx.Insert(addr, length, hop))
		}

		for i := 0; i < nQueries; i++ {
			addr := make([]byte, 4)
			fillRandom(prng, addr)

			want := gold.Lookup(addr)
			got, err := idx.LookupSingle(addr)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	})
}

// FuzzDir24AgainstGoldTable is the same cross-check against DIR-24-8,
// whose overwrite rule across the primary/tbl8 split is the part most
// at risk of diverging from the gold reference under random overlap.
func FuzzDir24AgainstGoldTable(f *testing.F) {
	f.Add(uint64(54321), 64, 32)
	f.Add(uint64(2024), 300, 40)

	f.Fuzz(func(t *testing.T, seed uint64, nOps, nQueries int) {
		if nOps < 1 || nOps > 2000 || nQueries < 1 || nQueries > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 11))

		idx, err := Create(FamilyIPv4, AlgoDir24)
		require.NoError(t, err)

		var gold testutil.GoldTable

		for i := 0; i < nOps; i++ {
			addr, length := randomPrefixIPv4(prng)
			hop := uint32(prng.IntN(1000))

			if prng.IntN(4) == 0 && gold.Len() > 0 {
				gold.Delete(addr, length)
				_ = idx.Delete(addr, length)
				continue
			}

			gold.Insert(addr, length, hop)
			require.NoError(t, idx.Insert(addr, length, hop))
		}

		for i := 0; i < nQueries; i++ {
			addr := make([]byte, 4)
			fillRandom(prng, addr)

			want := gold.Lookup(addr)
			got, err := idx.LookupSingle(addr)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	})
}

// FuzzWide16AgainstGoldTable is the IPv6 counterpart, exercising the
// 16-bit-stride/8-bit-tail split the same way.
func FuzzWide16AgainstGoldTable(f *testing.F) {
	f.Add(uint64(999), 64, 32)

	f.Fuzz(func(t *testing.T, seed uint64, nOps, nQueries int) {
		if nOps < 1 || nOps > 1000 || nQueries < 1 || nQueries > 200 {
			t.Skip("bounds")
		}

		prng := rand.New(rand.NewPCG(seed, 13))

		idx, err := Create(FamilyIPv6, AlgoWide16)
		require.NoError(t, err)

		var gold testutil.GoldTable

		for i := 0; i < nOps; i++ {
			addr, length := randomPrefixIPv6(prng)
			hop := uint32(prng.IntN(1000))

			if prng.IntN(4) == 0 && gold.Len() > 0 {
				gold.Delete(addr, length)
				_ = idx.Delete(addr, length)
				continue
			}

			gold.Insert(addr, length, hop)
			require.NoError(t, idx.Insert(addr, length, hop))
		}

		for i := 0; i < nQueries; i++ {
			addr := make([]byte, 16)
			fillRandom(prng, addr)

			want := gold.Lookup(addr)
			got, err := idx.LookupSingle(addr)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	})
}

// TestLookupAllAgainstGoldTable spot-checks lookup_all's shortest-first
// contract against the gold table's own sorted covering-set computation.
func TestLookupAllAgainstGoldTable(t *testing.T) {
	prng := rand.New(rand.NewPCG(42, 42))

	idx, err := Create(FamilyIPv4, AlgoTrie8, WithResultCap(64))
	require.NoError(t, err)

	var gold testutil.GoldTable
	for i := 0; i < 100; i++ {
		addr, length := randomPrefixIPv4(prng)
		hop := uint32(prng.IntN(1000))
		gold.Insert(addr, length, hop)
		require.NoError(t, idx.Insert(addr, length, hop))
	}

	for i := 0; i < 20; i++ {
		addr := make([]byte, 4)
		fillRandom(prng, addr)

		want := gold.LookupAll(addr)
		got, err := idx.LookupAll(addr)
		require.NoError(t, err)

		if len(want) == 0 {
			require.Empty(t, got)
			continue
		}
		require.Equal(t, want, got)
	}
}
