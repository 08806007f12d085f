// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package lpmcore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/packetforge/lpmcore/internal/dir24"
	"github.com/packetforge/lpmcore/internal/hotcache"
	"github.com/packetforge/lpmcore/internal/nexthop"
	"github.com/packetforge/lpmcore/internal/resultset"
	"github.com/packetforge/lpmcore/internal/simdkit"
	"github.com/packetforge/lpmcore/internal/trie8"
	"github.com/packetforge/lpmcore/internal/wide16"
)

// Family selects the address family an Index serves.
type Family int

const (
	FamilyIPv4 Family = iota + 1
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// Algorithm selects the index's internal layout. Trie8 is legal for
// either family; Dir24 is IPv4-only and Wide16 is IPv6-only.
type Algorithm int

const (
	AlgoTrie8 Algorithm = iota + 1
	AlgoDir24
	AlgoWide16
)

func (a Algorithm) String() string {
	switch a {
	case AlgoTrie8:
		return "trie8"
	case AlgoDir24:
		return "dir24"
	case AlgoWide16:
		return "wide16"
	default:
		return "unknown"
	}
}

func byteLenFor(f Family) int {
	if f == FamilyIPv6 {
		return wide16.ByteLen
	}
	return dir24.ByteLen
}

func maxLenFor(f Family) int {
	return byteLenFor(f) * 8
}

func compatible(f Family, a Algorithm) bool {
	switch a {
	case AlgoTrie8:
		return f == FamilyIPv4 || f == FamilyIPv6
	case AlgoDir24:
		return f == FamilyIPv4
	case AlgoWide16:
		return f == FamilyIPv6
	default:
		return false
	}
}

// Index is a longest-prefix-match table over one address family, backed
// by exactly one of trie8, dir24, or wide16.
type Index struct {
	family    Family
	algorithm Algorithm
	byteLen   int
	maxLen    int
	resultCap int

	trie8  *trie8.Index
	dir24  *dir24.Index
	wide16 *wide16.Index

	cache *hotcache.Cache

	log *zap.Logger
}

// Create returns a new empty Index for family using algorithm. It fails
// validation if algorithm is not legal for family, or if an Option
// supplies an invalid value (e.g. a non-positive result cap).
func Create(family Family, algorithm Algorithm, opts ...Option) (*Index, error) {
	if !compatible(family, algorithm) {
		return nil, newError(ErrKindValidation, "Create", ErrIncompatibleAlgorithm)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.resultCap <= 0 {
		return nil, newError(ErrKindValidation, "Create", fmt.Errorf("result cap must be > 0, got %d", o.resultCap))
	}

	idx := &Index{
		family:    family,
		algorithm: algorithm,
		byteLen:   byteLenFor(family),
		maxLen:    maxLenFor(family),
		resultCap: o.resultCap,
		cache:     hotcache.New(o.hotCacheSize),
		log:       o.logger,
	}

	switch algorithm {
	case AlgoTrie8:
		idx.trie8 = trie8.New(idx.byteLen, o.logger)
	case AlgoDir24:
		idx.dir24 = dir24.New(o.logger)
	case AlgoWide16:
		idx.wide16 = wide16.New(o.logger)
	}

	idx.log.Debug("index created",
		zap.Stringer("family", family),
		zap.Stringer("algorithm", algorithm),
		zap.String("simd_tier", string(simdkit.ActiveTier)),
		zap.Int("result_cap", idx.resultCap),
		zap.Int("hot_cache_size", idx.cache.Size()),
	)

	return idx, nil
}

// Destroy releases the index's arenas and hot cache. Go's garbage
// collector reclaims the underlying memory once nothing references it;
// Destroy exists to make that release point explicit and immediate for
// the caller's own bookkeeping, matching spec.md §6's operation list
// without needing a finalizer (the core owns no non-Go resources).
func (idx *Index) Destroy() {
	idx.trie8 = nil
	idx.dir24 = nil
	idx.wide16 = nil
	idx.algorithm = 0
	idx.cache = nil
}

// Family reports the address family this index serves.
func (idx *Index) Family() Family { return idx.family }

// Algorithm reports this index's internal layout.
func (idx *Index) Algorithm() Algorithm { return idx.algorithm }

// Count returns the number of distinct (prefix, length) bindings,
// including the default route if one is set (SPEC_FULL.md §14, decision
// 3: duplicate-as-overwrite).
func (idx *Index) Count() int {
	switch idx.algorithm {
	case AlgoTrie8:
		return idx.trie8.Count()
	case AlgoDir24:
		return idx.dir24.Count()
	case AlgoWide16:
		return idx.wide16.Count()
	default:
		return 0
	}
}

func (idx *Index) validatePrefix(addr []byte, length int) error {
	if len(addr) != idx.byteLen {
		return newError(ErrKindValidation, "validate", fmt.Errorf("%w: want %d bytes, got %d", ErrAddressLengthMismatch, idx.byteLen, len(addr)))
	}
	if length < 0 || length > idx.maxLen {
		return newError(ErrKindValidation, "validate", fmt.Errorf("%w: %d not in [0, %d]", ErrPrefixLengthOutOfRange, length, idx.maxLen))
	}
	return nil
}

// Insert adds or overwrites the binding (addr, length) -> nextHop.
// Validation happens entirely before any state mutation (spec.md §7).
// A successful insert invalidates the hot cache.
func (idx *Index) Insert(addr []byte, length int, nextHop uint32) error {
	if err := idx.validatePrefix(addr, length); err != nil {
		return err
	}

	switch idx.algorithm {
	case AlgoTrie8:
		idx.trie8.Insert(addr, length, nextHop)
	case AlgoWide16:
		idx.wide16.Insert(addr, length, nextHop)
	case AlgoDir24:
		if err := idx.dir24.Insert(addr, length, nextHop); err != nil {
			return newError(ErrKindValidation, "Insert", err)
		}
	}

	idx.cache.Invalidate()
	return nil
}

// InsertEntry is one binding for InsertBatch.
type InsertEntry struct {
	Addr    []byte
	Length  int
	NextHop uint32
}

// InsertBatch validates every entry before applying any of them — if any
// entry fails validation, the index is left completely unmodified
// (carried over from liblpm's BatchInsert; see SPEC_FULL.md §13).
func (idx *Index) InsertBatch(entries []InsertEntry) error {
	for i, e := range entries {
		if err := idx.validatePrefix(e.Addr, e.Length); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if idx.algorithm == AlgoDir24 && e.NextHop > dir24.MaxNextHop {
			return newError(ErrKindValidation, "InsertBatch", fmt.Errorf("entry %d: %w", i, dir24.ErrNextHopTooLarge))
		}
	}

	for _, e := range entries {
		switch idx.algorithm {
		case AlgoTrie8:
			idx.trie8.Insert(e.Addr, e.Length, e.NextHop)
		case AlgoWide16:
			idx.wide16.Insert(e.Addr, e.Length, e.NextHop)
		case AlgoDir24:
			_ = idx.dir24.Insert(e.Addr, e.Length, e.NextHop) // pre-validated above
		}
	}

	if len(entries) > 0 {
		idx.cache.Invalidate()
	}
	return nil
}

// Delete removes the binding for (addr, length). It fails with
// ErrKindNotFound if the prefix was not present, and invalidates the hot
// cache otherwise.
func (idx *Index) Delete(addr []byte, length int) error {
	if err := idx.validatePrefix(addr, length); err != nil {
		return err
	}

	var existed bool
	switch idx.algorithm {
	case AlgoTrie8:
		existed = idx.trie8.Delete(addr, length)
	case AlgoWide16:
		existed = idx.wide16.Delete(addr, length)
	case AlgoDir24:
		existed = idx.dir24.Delete(addr, length)
	}

	if !existed {
		return newError(ErrKindNotFound, "Delete", ErrPrefixNotFound)
	}

	idx.cache.Invalidate()
	return nil
}

// Lookup is the longest-prefix-match next-hop for addr, probing the hot
// cache first. It satisfies simdkit.Lookuper so *Index can be passed
// directly to simdkit.Dispatch. Lookup does not validate addr's length —
// callers within this package always pass an already-validated slice;
// LookupSingle and LookupBatch are the validating public entry points.
func (idx *Index) Lookup(addr []byte) uint32 {
	fp := hotcache.Fingerprint(addr)
	if hop, hit := idx.cache.Lookup(fp); hit {
		return hop
	}

	hop := idx.lookupDirect(addr)
	idx.cache.Store(fp, hop)
	return hop
}

func (idx *Index) lookupDirect(addr []byte) uint32 {
	switch idx.algorithm {
	case AlgoTrie8:
		return idx.trie8.Lookup(addr)
	case AlgoDir24:
		return idx.dir24.Lookup(addr)
	case AlgoWide16:
		return idx.wide16.Lookup(addr)
	default:
		return nexthop.Invalid
	}
}

// LookupSingle is the validating, infallible-at-the-miss-level single
// lookup (spec.md §6): a miss returns nexthop.Invalid, never an error;
// the only error path is a malformed addr.
func (idx *Index) LookupSingle(addr []byte) (uint32, error) {
	if len(addr) != idx.byteLen {
		return nexthop.Invalid, newError(ErrKindValidation, "LookupSingle", ErrAddressLengthMismatch)
	}
	return idx.Lookup(addr), nil
}

// LookupBatch writes len(addrs) results into out (which must be at least
// that long), dispatching to whichever SIMD-equivalent tier was bound at
// init. Semantically identical to calling LookupSingle for each address
// in order (spec.md §8's batch-equivalence invariant).
func (idx *Index) LookupBatch(addrs [][]byte, out []uint32) error {
	if len(out) < len(addrs) {
		return newError(ErrKindValidation, "LookupBatch", fmt.Errorf("out has len %d, need >= %d", len(out), len(addrs)))
	}
	for i, a := range addrs {
		if len(a) != idx.byteLen {
			return newError(ErrKindValidation, "LookupBatch", fmt.Errorf("addrs[%d]: %w", i, ErrAddressLengthMismatch))
		}
	}

	simdkit.Dispatch(idx, addrs, out)
	return nil
}

// LookupWordBatch is the IPv4-only fast case from spec.md §4.5: words
// are already packed as big-endian 32-bit values, avoiding per-address
// byte-level loads. Valid only for a Dir24 index.
func (idx *Index) LookupWordBatch(words []uint32, out []uint32) error {
	if idx.algorithm != AlgoDir24 {
		return newError(ErrKindValidation, "LookupWordBatch", ErrIncompatibleAlgorithm)
	}
	if len(out) < len(words) {
		return newError(ErrKindValidation, "LookupWordBatch", fmt.Errorf("out has len %d, need >= %d", len(out), len(words)))
	}

	simdkit.DispatchWords(idx.dir24, words, out)
	return nil
}

// LookupAll returns the covering prefixes that the index's walk reaches
// for addr, shortest-first: the default route if set, then at most one
// match per node visited (Trie8, Wide16) or per table level (Dir24).
// When several covering prefixes expand into the same slot, only the
// longest of them is returned; the shorter ones are not reported. It
// fails with ErrKindCapacityExceeded if the match count exceeds the
// index's result cap (WithResultCap at Create time).
func (idx *Index) LookupAll(addr []byte) ([]nexthop.Match, error) {
	if len(addr) != idx.byteLen {
		return nil, newError(ErrKindValidation, "LookupAll", ErrAddressLengthMismatch)
	}

	var raw []nexthop.Match
	switch idx.algorithm {
	case AlgoTrie8:
		raw = idx.trie8.LookupAll(addr, nil)
	case AlgoWide16:
		raw = idx.wide16.LookupAll(addr, nil)
	case AlgoDir24:
		raw = idx.dir24.LookupAll(addr, nil)
	}

	set, err := resultset.New(idx.resultCap)
	if err != nil {
		// idx.resultCap was validated positive at Create time.
		return nil, newError(ErrKindValidation, "LookupAll", err)
	}

	for _, m := range raw {
		if err := set.Append(m); err != nil {
			return nil, newError(ErrKindCapacityExceeded, "LookupAll", err)
		}
	}

	return set.Matches(), nil
}
