// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package wide16 implements the IPv6-only index from spec.md §4.4: the
// first three strides index by 16 bits each (covering bytes 0..5, the
// first 48 bits, aligned with the most common IPv6 allocation boundary),
// and the remaining bits (bytes 6..15) fall through to an 8-bit-stride
// trie identical in shape to internal/trie8.
package wide16

import (
	"go.uber.org/zap"

	"github.com/packetforge/lpmcore/internal/arena"
	"github.com/packetforge/lpmcore/internal/bitmath"
	"github.com/packetforge/lpmcore/internal/nexthop"
	"github.com/packetforge/lpmcore/internal/ruleset"
	"github.com/packetforge/lpmcore/internal/trie8"
)

// ByteLen is the fixed address width wide16 serves: IPv6's 16 bytes.
const ByteLen = 16

// wordStrideBits is the bit width of each of the first three levels.
const wordStrideBits = 16

// wordLevels is the number of 16-bit-stride levels before falling
// through to the 8-bit tail (3 levels * 16 bits = 48 bits).
const wordLevels = 3

// splitBit is the prefix length at which the index switches from
// 16-bit-stride levels to the 8-bit-stride tail.
const splitBit = wordLevels * wordStrideBits

// Index is a Wide-16 index over full 16-byte IPv6 addresses.
type Index struct {
	words *arena.Arena[node]
	root  uint32

	tail *trie8.Pool

	rules *ruleset.Set

	defaultSet bool
	defaultHop uint32

	log *zap.Logger
}

// New returns an empty Wide-16 index.
func New(log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		words: arena.New[node](1),
		tail:  trie8.NewPool(1),
		rules: ruleset.New(ByteLen),
		log:   log,
	}
}

// MaxLen is the maximum legal prefix length, 128.
func (idx *Index) MaxLen() int {
	return ByteLen * 8
}

// Count returns the number of distinct (prefix, length) bindings,
// including the default route if set.
func (idx *Index) Count() int {
	return idx.rules.Len()
}

// Insert adds or overwrites the binding (addr, length) -> nextHop. addr
// must be exactly 16 bytes; length must be in [0, 128].
func (idx *Index) Insert(addr []byte, length int, nextHop uint32) {
	idx.rules.Upsert(addr, length, nextHop)
	idx.insertDirect(idx.rules.Canonicalize(addr, length), length, nextHop)
}

// Delete removes the binding for (addr, length), reporting whether it
// was present. As in trie8, removal rebuilds the whole derived structure
// from the surviving canonical rule set rather than attempting an
// in-place clear, for the same same-stride-node overlap reasons
// documented in internal/ruleset.
func (idx *Index) Delete(addr []byte, length int) (existed bool) {
	if !idx.rules.Remove(addr, length) {
		return false
	}

	idx.rebuild()

	return true
}

func (idx *Index) rebuild() {
	idx.words = arena.New[node](idx.rules.Len())
	idx.root = 0
	idx.tail = trie8.NewPool(idx.rules.Len())
	idx.defaultSet = false
	idx.defaultHop = 0

	for _, r := range idx.rules.Ascending() {
		idx.insertDirect(r.Bytes, r.Length, r.NextHop)
	}

	idx.log.Debug("wide16 rebuilt", zap.Int("rules", idx.rules.Len()))
}

func word16At(addr []byte, wordIdx int) uint16 {
	return uint16(addr[2*wordIdx])<<8 | uint16(addr[2*wordIdx+1])
}

func (idx *Index) ensureRoot() uint32 {
	if idx.root == 0 {
		idx.root = idx.words.Alloc()
	}
	return idx.root
}

// childAt walks one 16-bit-stride level from cur via word, allocating a
// fresh child node if none exists yet.
func (idx *Index) childAt(cur uint32, word uint16) uint32 {
	n := idx.words.Get(cur)
	e := n.entries[word]
	child := e.child()
	if child == 0 {
		child = idx.words.Alloc()
		// Alloc may have grown the arena's backing slice, which moves
		// every record; re-fetch n's current address before writing
		// through it.
		n = idx.words.Get(cur)
		n.entries[word] = e.withChild(child)
	}
	return child
}

// insertDirect writes canon/length/nextHop into the derived structure
// without touching the rule set. canon must already be masked to length
// bits and be exactly ByteLen bytes.
func (idx *Index) insertDirect(canon []byte, length int, nextHop uint32) {
	if length == 0 {
		idx.defaultSet = true
		idx.defaultHop = nextHop
		return
	}

	if length <= splitBit {
		idx.insertWordLevels(canon, length, nextHop)
		return
	}

	idx.insertTail(canon, length, nextHop)
}

// insertWordLevels handles lengths in (0, 48]: the byte-pair analogue of
// trie8's insert, operating on 16-bit words instead of bytes, confined to
// the first wordLevels levels.
func (idx *Index) insertWordLevels(canon []byte, length int, nextHop uint32) {
	fullWords := length / wordStrideBits
	r := length % wordStrideBits

	var walkDepth int
	if r == 0 {
		walkDepth = fullWords - 1
	} else {
		walkDepth = fullWords
	}

	cur := idx.ensureRoot()
	for d := 0; d < walkDepth; d++ {
		cur = idx.childAt(cur, word16At(canon, d))
	}

	n := idx.words.Get(cur)

	if r == 0 {
		setEntry(n, uint(word16At(canon, walkDepth)), length, nextHop)
		return
	}

	w := word16At(canon, walkDepth)
	base, count := bitmath.Base16(w, r)
	for i := 0; i < count; i++ {
		setEntry(n, uint(base)+uint(i), length, nextHop)
	}
}

// insertTail handles lengths in (48, 128]: walk the two full word levels
// to reach the third (last) word-level node, then graft/extend the
// 8-bit-stride tail rooted at that node's word2 entry.
func (idx *Index) insertTail(canon []byte, length int, nextHop uint32) {
	cur := idx.ensureRoot()
	cur = idx.childAt(cur, word16At(canon, 0))
	cur = idx.childAt(cur, word16At(canon, 1))

	n := idx.words.Get(cur)
	w2 := word16At(canon, 2)
	e := n.entries[w2]

	newRoot := idx.tail.InsertAt(e.child(), canon[6:ByteLen], length-splitBit, nextHop)
	if newRoot != e.child() {
		n.entries[w2] = e.withChild(newRoot)
	}
}

// Lookup returns the longest-prefix-match next-hop for addr (exactly 16
// bytes), or the default route's next-hop, or nexthop.Invalid if neither
// applies.
func (idx *Index) Lookup(addr []byte) uint32 {
	best := nexthop.Invalid
	found := false

	if idx.defaultSet {
		best = idx.defaultHop
		found = true
	}

	cur := idx.root
	for d := 0; d < wordLevels && cur != 0; d++ {
		n := idx.words.Get(cur)
		w := word16At(addr, d)
		e := n.entries[w]

		if e.valid() {
			best = e.nextHop()
			found = true
		}

		if d < wordLevels-1 {
			cur = e.child()
			continue
		}

		if hop, ok := idx.tail.LookupAt(e.child(), addr[6:ByteLen], ByteLen-6); ok {
			best = hop
			found = true
		}
	}

	if !found {
		return nexthop.Invalid
	}
	return best
}

// LookupAll walks the same path as Lookup but appends every valid entry
// visited, shortest-first, for the multi-answer variant. The default
// route, if set, is always first.
func (idx *Index) LookupAll(addr []byte, out []nexthop.Match) []nexthop.Match {
	if idx.defaultSet {
		out = append(out, nexthop.Match{Length: 0, NextHop: idx.defaultHop})
	}

	cur := idx.root
	for d := 0; d < wordLevels && cur != 0; d++ {
		n := idx.words.Get(cur)
		w := word16At(addr, d)
		e := n.entries[w]

		if e.valid() {
			out = append(out, nexthop.Match{Length: int(n.lens[w]), NextHop: e.nextHop()})
		}

		if d < wordLevels-1 {
			cur = e.child()
			continue
		}

		out = idx.tail.LookupAllAt(e.child(), addr[6:ByteLen], ByteLen-6, splitBit, out)
	}

	return out
}
