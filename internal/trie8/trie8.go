// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package trie8 implements the universal-fallback index from spec.md
// §4.2: a 256-wide, 8-bit-stride trie with prefix expansion and
// running-best longest-prefix-match lookup. It is used both as a
// standalone algorithm (Trie8, legal for either address family) and, via
// the exported Pool, as the 8-bit-stride tail of the wide16 IPv6 index
// for bytes 6..15.
package trie8

import (
	"go.uber.org/zap"

	"github.com/packetforge/lpmcore/internal/nexthop"
	"github.com/packetforge/lpmcore/internal/ruleset"
)

// Index is a standalone Trie-8 index over addresses of ByteLen bytes (4
// for IPv4, 16 for IPv6).
type Index struct {
	ByteLen int

	pool *Pool
	root uint32

	rules *ruleset.Set

	defaultSet bool
	defaultHop uint32

	log *zap.Logger
}

// New returns an empty Trie-8 index for addresses of byteLen bytes.
func New(byteLen int, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		ByteLen: byteLen,
		pool:    NewPool(1),
		rules:   ruleset.New(byteLen),
		log:     log,
	}
}

// MaxLen is the maximum legal prefix length for this index, byteLen*8.
func (idx *Index) MaxLen() int {
	return idx.ByteLen * 8
}

// Count returns the number of distinct (prefix, length) bindings,
// including the default route if set.
func (idx *Index) Count() int {
	return idx.rules.Len()
}

// Insert adds or overwrites the binding (addr, length) -> nextHop.
// addr must be exactly ByteLen bytes; length must be in [0, MaxLen()].
// Range/shape validation is the public facade's responsibility.
func (idx *Index) Insert(addr []byte, length int, nextHop uint32) {
	idx.rules.Upsert(addr, length, nextHop)
	idx.insertDirect(idx.rules.Canonicalize(addr, length), length, nextHop)
}

// Delete removes the binding for (addr, length), reporting whether it was
// present. On removal the whole derived trie is rebuilt from the
// surviving rule set — see internal/ruleset's package doc for why this is
// necessary for correctness whenever two prefixes of different length
// terminate in the same stride node.
func (idx *Index) Delete(addr []byte, length int) (existed bool) {
	if !idx.rules.Remove(addr, length) {
		return false
	}

	idx.rebuild()

	return true
}

func (idx *Index) rebuild() {
	idx.pool = NewPool(idx.rules.Len())
	idx.root = 0
	idx.defaultSet = false
	idx.defaultHop = 0

	for _, r := range idx.rules.Ascending() {
		idx.insertDirect(r.Bytes, r.Length, r.NextHop)
	}

	idx.log.Debug("trie8 rebuilt", zap.Int("rules", idx.rules.Len()))
}

// insertDirect writes canon/length/nextHop into the derived trie without
// touching the rule set. canon must already be masked to length bits.
func (idx *Index) insertDirect(canon []byte, length int, nextHop uint32) {
	if length == 0 {
		idx.defaultSet = true
		idx.defaultHop = nextHop
		return
	}

	idx.root = idx.pool.InsertAt(idx.root, canon, length, nextHop)
}

// Lookup returns the longest-prefix-match next-hop for addr (exactly
// ByteLen bytes), or the default route's next-hop, or nexthop.Invalid if
// neither applies.
func (idx *Index) Lookup(addr []byte) uint32 {
	best := nexthop.Invalid
	found := false

	if idx.defaultSet {
		best = idx.defaultHop
		found = true
	}

	if hop, ok := idx.pool.LookupAt(idx.root, addr, idx.ByteLen); ok {
		best = hop
		found = true
	}

	if !found {
		return nexthop.Invalid
	}
	return best
}

// LookupAll walks the same path as Lookup but appends every valid entry
// visited, shortest (shallowest) first, for the multi-answer variant
// (spec.md §4.8). The default route, if set, is always first.
func (idx *Index) LookupAll(addr []byte, out []nexthop.Match) []nexthop.Match {
	if idx.defaultSet {
		out = append(out, nexthop.Match{Length: 0, NextHop: idx.defaultHop})
	}

	return idx.pool.LookupAllAt(idx.root, addr, idx.ByteLen, 0, out)
}
