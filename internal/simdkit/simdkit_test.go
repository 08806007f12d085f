// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package simdkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeIndex struct{}

func (fakeIndex) Lookup(addr []byte) uint32 {
	return uint32(addr[0])<<24 | uint32(addr[1])<<16 | uint32(addr[2])<<8 | uint32(addr[3])
}

func (fakeIndex) LookupWord(word uint32) uint32 {
	return word
}

func addrs(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i), byte(i >> 8), 0, 1}
	}
	return out
}

// TestAllTiersAgree exercises the SIMD-equivalence invariant directly:
// every batch variant must return exactly what N sequential
// single-lookups would, regardless of which tier the host CPU resolves
// to at init.
func TestAllTiersAgree(t *testing.T) {
	in := addrs(37) // deliberately not a multiple of any lane width
	idx := fakeIndex{}

	want := make([]uint32, len(in))
	scalarBatch(idx, in, want)

	variants := map[string]BatchFunc{
		"scalar":         scalarBatch,
		"prefetchScalar": prefetchScalarBatch,
		"wide8":          wideBatch(8),
		"wide16":         wideBatch(16),
	}

	for name, fn := range variants {
		got := make([]uint32, len(in))
		fn(idx, in, got)
		require.Equal(t, want, got, "tier=%s", name)
	}
}

func TestWordTiersAgree(t *testing.T) {
	idx := fakeIndex{}
	words := make([]uint32, 21)
	for i := range words {
		words[i] = uint32(i) * 1000
	}

	want := make([]uint32, len(words))
	scalarWordBatch(idx, words, want)

	variants := map[string]WordBatchFunc{
		"scalar":         scalarWordBatch,
		"prefetchScalar": prefetchScalarWordBatch,
		"wide8":          wideWordBatch(8),
		"wide16":         wideWordBatch(16),
	}

	for name, fn := range variants {
		got := make([]uint32, len(words))
		fn(idx, words, got)
		require.Equal(t, want, got, "tier=%s", name)
	}
}

func TestDispatchBoundAtInit(t *testing.T) {
	require.NotNil(t, Dispatch)
	require.NotNil(t, DispatchWords)
	require.NotEmpty(t, ActiveTier)
}
