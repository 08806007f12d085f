// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package simdkit

import "golang.org/x/sys/cpu"

// Tier names the batch-lookup variant a dispatcher bound to, for
// diagnostics/logging only — never branched on in the hot path.
type Tier string

const (
	TierScalar  Tier = "scalar"
	TierSSE     Tier = "sse-prefetch-scalar"
	TierAVX2    Tier = "avx2-wide8"
	TierAVX512F Tier = "avx512-wide16"
	TierGeneric Tier = "generic-scalar" // non-x86 targets
)

// ActiveTier records which variant Dispatch and DispatchWords were bound
// to at package init. Besides the facade's Create logging it, it is read
// exactly once, by words.go's init, to bind DispatchWords to the same
// tier; nothing on the hot path reads it (spec.md §4.6's dispatch-once
// contract).
var ActiveTier Tier

// Lookuper is the minimal capability a batch driver needs from an index:
// a single-address lookup. trie8.Index, wide16.Index, and dir24.Index
// all satisfy it.
type Lookuper interface {
	Lookup(addr []byte) uint32
}

// BatchFunc computes out[i] = idx.Lookup(addrs[i]) for every i, using
// whichever lane width its tier implements. len(out) must be >=
// len(addrs).
type BatchFunc func(idx Lookuper, addrs [][]byte, out []uint32)

// Dispatch is bound once, at package init, to the best variant the
// running CPU supports (spec.md §4.6: "Dispatch happens once; the hot
// path contains no feature check").
var Dispatch BatchFunc

func init() {
	Dispatch, ActiveTier = resolveBatch()
}

func resolveBatch() (BatchFunc, Tier) {
	switch {
	case cpu.X86.HasAVX512F:
		return wideBatch(16), TierAVX512F
	case cpu.X86.HasAVX2:
		return wideBatch(8), TierAVX2
	case cpu.X86.HasSSE42 || cpu.X86.HasAVX:
		return prefetchScalarBatch, TierSSE
	case cpu.X86.HasSSE2:
		return prefetchScalarBatch, TierSSE
	default:
		return scalarBatch, TierGeneric
	}
}

func scalarBatch(idx Lookuper, addrs [][]byte, out []uint32) {
	for i, a := range addrs {
		out[i] = idx.Lookup(a)
	}
}

// prefetchScalarBatch stands in for the "no gather, scalar loads with
// prefetching 8 iterations ahead" tier (spec.md §4.5): an 8-wide
// unrolled loop over an otherwise ordinary scalar lookup, since Go has
// no prefetch intrinsic to actually issue ahead of the loads.
func prefetchScalarBatch(idx Lookuper, addrs [][]byte, out []uint32) {
	n := len(addrs)
	i := 0
	for ; i+8 <= n; i += 8 {
		out[i] = idx.Lookup(addrs[i])
		out[i+1] = idx.Lookup(addrs[i+1])
		out[i+2] = idx.Lookup(addrs[i+2])
		out[i+3] = idx.Lookup(addrs[i+3])
		out[i+4] = idx.Lookup(addrs[i+4])
		out[i+5] = idx.Lookup(addrs[i+5])
		out[i+6] = idx.Lookup(addrs[i+6])
		out[i+7] = idx.Lookup(addrs[i+7])
	}
	for ; i < n; i++ {
		out[i] = idx.Lookup(addrs[i])
	}
}

// wideBatch stands in for the gather-based AVX2 (lanes=8) / AVX512F
// (lanes=16) tiers: process lanes addresses per chunk. There is no real
// gather in portable Go — the "lane width" only changes the chunk size
// of the loop, not the per-address work — but the dispatch and chunking
// structure mirrors what the vector code would do.
func wideBatch(lanes int) BatchFunc {
	return func(idx Lookuper, addrs [][]byte, out []uint32) {
		n := len(addrs)
		i := 0
		for ; i+lanes <= n; i += lanes {
			for lane := 0; lane < lanes; lane++ {
				out[i+lane] = idx.Lookup(addrs[i+lane])
			}
		}
		for ; i < n; i++ {
			out[i] = idx.Lookup(addrs[i])
		}
	}
}
