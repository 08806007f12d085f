// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package simdkit

// WordLookuper is satisfied by dir24.Index's fast-case lookup for
// addresses already packed as big-endian 32-bit words (spec.md §4.5:
// "a contiguous array of raw 32-bit IPv4 words ... the index is
// derivable with a single shift, no byte-level loads").
type WordLookuper interface {
	LookupWord(word uint32) uint32
}

// WordBatchFunc computes out[i] = idx.LookupWord(words[i]) for every i.
type WordBatchFunc func(idx WordLookuper, words []uint32, out []uint32)

// DispatchWords is bound once, alongside Dispatch, to the same tier
// choice applied to the contiguous-word fast case.
var DispatchWords WordBatchFunc

func init() {
	DispatchWords = resolveWordBatch(ActiveTier)
}

func resolveWordBatch(tier Tier) WordBatchFunc {
	switch tier {
	case TierAVX512F:
		return wideWordBatch(16)
	case TierAVX2:
		return wideWordBatch(8)
	case TierSSE:
		return prefetchScalarWordBatch
	default:
		return scalarWordBatch
	}
}

func scalarWordBatch(idx WordLookuper, words []uint32, out []uint32) {
	for i, w := range words {
		out[i] = idx.LookupWord(w)
	}
}

func prefetchScalarWordBatch(idx WordLookuper, words []uint32, out []uint32) {
	n := len(words)
	i := 0
	for ; i+8 <= n; i += 8 {
		for lane := 0; lane < 8; lane++ {
			out[i+lane] = idx.LookupWord(words[i+lane])
		}
	}
	for ; i < n; i++ {
		out[i] = idx.LookupWord(words[i])
	}
}

func wideWordBatch(lanes int) WordBatchFunc {
	return func(idx WordLookuper, words []uint32, out []uint32) {
		n := len(words)
		i := 0
		for ; i+lanes <= n; i += lanes {
			for lane := 0; lane < lanes; lane++ {
				out[i+lane] = idx.LookupWord(words[i+lane])
			}
		}
		for ; i < n; i++ {
			out[i] = idx.LookupWord(words[i])
		}
	}
}
