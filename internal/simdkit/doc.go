// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package simdkit implements the batch lookup drivers and runtime
// dispatch from spec.md §4.5/§4.6.
//
// Go's standard toolchain has no portable inline-asm or intrinsics
// surface usable without hand-written per-architecture .s files, which
// this package does not attempt to author. What follows is the
// contract implemented faithfully in portable Go: several batch-lookup
// variants are registered, the fastest one the running CPU supports is
// selected exactly once (at package init, via golang.org/x/sys/cpu
// feature flags), and the hot path never re-checks CPU features
// afterward. The variants themselves stand in for the named
// instruction-set tiers:
//
//   - scalar stands in for the no-SIMD baseline.
//   - prefetchScalar stands in for the "SSE/AVX/SSE4.2: no gather, scalar
//     loads with prefetching ahead" tier — an unrolled loop, since Go has
//     no prefetch intrinsic to issue.
//   - wide8/wide16 stand in for the AVX2 (8-lane) and AVX512F (16-lane)
//     gather-based tiers — a chunked loop over that many addresses at a
//     time, since Go cannot issue a real SIMD gather.
//
// Every variant must produce bit-identical results for the same index
// and inputs (spec.md §8's SIMD-equivalence invariant) — the tiers only
// differ in lane width and loop structure, never in the answer.
package simdkit
