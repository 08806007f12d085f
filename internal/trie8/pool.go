// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie8

import (
	"github.com/packetforge/lpmcore/internal/arena"
	"github.com/packetforge/lpmcore/internal/bitmath"
	"github.com/packetforge/lpmcore/internal/nexthop"
)

// Pool is the index-addressed store of 8-bit-stride nodes underlying
// Index. It is exported separately so wide16 can graft the same
// stride-8 tail logic onto its own 16-bit-stride levels (spec.md §4.4:
// "remaining strides index by 8 bits each over bytes 6..15") without
// wide16 re-deriving the bit-expansion arithmetic from scratch.
//
// A Pool has no notion of a single top-level root or a rule set — the
// caller owns a root index per subtree it grafts the pool onto, and is
// responsible for rebuilding (via a fresh Pool) on delete.
type Pool struct {
	arena *arena.Arena[node]
}

// NewPool returns an empty Pool, pre-sizing its backing arena for
// roughly capacityHint nodes.
func NewPool(capacityHint int) *Pool {
	return &Pool{arena: arena.New[node](capacityHint)}
}

// InsertAt writes (tail, tailLength, nextHop) into the subtree rooted at
// root, allocating a fresh root if root is 0, and returns the (possibly
// new) root index the caller must retain. tail must have at least
// ceil(tailLength/8) bytes; tailLength must be >= 1 (tailLength == 0 is
// the caller's own default-route case and never reaches the pool).
func (p *Pool) InsertAt(root uint32, tail []byte, tailLength int, nextHop uint32) uint32 {
	fullBytes := tailLength / 8
	r := tailLength % 8

	var walkDepth int
	if r == 0 {
		walkDepth = fullBytes - 1
	} else {
		walkDepth = fullBytes
	}

	if root == 0 {
		root = p.arena.Alloc()
	}

	cur := root
	for d := 0; d < walkDepth; d++ {
		octet := tail[d]
		n := p.arena.Get(cur)
		e := n.entries[octet]
		child := e.child()
		if child == 0 {
			child = p.arena.Alloc()
			// Alloc may have grown the arena's backing slice, which
			// moves every record; re-fetch n's current address before
			// writing through it.
			n = p.arena.Get(cur)
			n.entries[octet] = e.withChild(child)
		}
		cur = child
	}

	n := p.arena.Get(cur)

	if r == 0 {
		setEntry(n, uint(tail[walkDepth]), tailLength, nextHop)
		return root
	}

	octet := tail[walkDepth]
	base, count := bitmath.Base8(octet, r)
	for i := 0; i < count; i++ {
		setEntry(n, uint(base)+uint(i), tailLength, nextHop)
	}

	return root
}

// LookupAt walks the subtree rooted at root for tailLen bytes of tail,
// returning the deepest (hence longest) valid entry seen, if any. root
// == 0 means "empty subtree", a clean miss.
func (p *Pool) LookupAt(root uint32, tail []byte, tailLen int) (hop uint32, found bool) {
	cur := root
	for d := 0; d < tailLen && cur != 0; d++ {
		n := p.arena.Get(cur)
		e := n.entries[tail[d]]
		if e.valid() {
			hop = e.nextHop()
			found = true
		}
		cur = e.child()
	}
	return hop, found
}

// LookupAllAt is LookupAt but appends every valid entry visited, in
// shallow-to-deep (shortest-to-longest) order, for the lookup_all
// variant. baseLength is added to every appended match's Length, since
// callers graft the pool onto a structure where the tail starts partway
// through the overall prefix length (spec.md §4.4, §4.8).
func (p *Pool) LookupAllAt(root uint32, tail []byte, tailLen, baseLength int, out []nexthop.Match) []nexthop.Match {
	cur := root
	for d := 0; d < tailLen && cur != 0; d++ {
		n := p.arena.Get(cur)
		e := n.entries[tail[d]]
		if e.valid() {
			out = append(out, nexthop.Match{Length: baseLength + int(n.lens[tail[d]]), NextHop: e.nextHop()})
		}
		cur = e.child()
	}
	return out
}
