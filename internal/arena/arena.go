// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package arena implements an index-addressed node pool.
//
// Every node graph in this module (trie8, wide16, dir24's tbl8 groups) is
// built from records that reference each other by 32-bit index into an
// Arena rather than by pointer. This is the flat-memory equivalent of the
// pointer-tree a naive trie would use: indices survive a backing-slice
// reallocation, pointers would not, and 32-bit indices are what the packed
// node-entry wire format (see the trie8/wide16 packages) has room for.
//
// Index 0 is permanently reserved to mean "no node" so a zero-valued entry
// can be read as "absent" without a separate presence flag.
package arena

import "errors"

// ErrOutOfMemory is the typed error for a failed arena growth. Neither
// Alloc nor Reserve returns it: a failed backing allocation surfaces as a
// Go runtime panic instead.
var ErrOutOfMemory = errors.New("arena: out of memory")

// Arena is a growable, index-addressed pool of fixed-size records of type T.
// The zero value is ready to use; index 0 is reserved and never handed out
// by Alloc.
type Arena[T any] struct {
	nodes []T
}

// New returns an Arena with capacity pre-reserved for n live records (plus
// the reserved index 0 slot).
func New[T any](capacityHint int) *Arena[T] {
	a := &Arena[T]{}
	a.nodes = make([]T, 1, capacityHint+1) // index 0 reserved, zero value
	return a
}

// Len reports the number of allocated records, including the reserved
// index 0 slot.
func (a *Arena[T]) Len() int {
	return len(a.nodes)
}

// Alloc reserves a new zero-valued record and returns its index.
//
// Growth, when needed, doubles capacity and copies the live prefix; it
// never mutates a previously handed-out index (arena monotonicity).
// The only failure mode is the backing allocation itself failing, which in
// Go surfaces as an out-of-memory panic from the runtime rather than a
// recoverable error; Alloc never returns ErrOutOfMemory on its own — the
// error is exported so callers doing their own pre-flight capacity
// reservation have a typed error to return if a budget check fails
// before calling Alloc.
func (a *Arena[T]) Alloc() uint32 {
	if len(a.nodes) == 0 {
		a.nodes = make([]T, 1, 2) // lazily satisfy the reserved slot
	}

	idx := uint32(len(a.nodes))
	var zero T
	a.nodes = append(a.nodes, zero)

	return idx
}

// Reserve ensures capacity for at least n additional records without
// allocating them, so the next n Alloc calls do not move the backing
// slice. It always returns nil: a failed backing allocation panics in the
// Go runtime rather than being reported here.
func (a *Arena[T]) Reserve(n int) error {
	if cap(a.nodes)-len(a.nodes) >= n {
		return nil
	}

	grown := make([]T, len(a.nodes), max(cap(a.nodes)*2, len(a.nodes)+n))
	copy(grown, a.nodes)
	a.nodes = grown

	return nil
}

// Get returns a pointer to the record at idx. idx must be a value
// previously returned by Alloc (or 0, which is always valid and always
// zero-valued); behavior is undefined for any other index.
func (a *Arena[T]) Get(idx uint32) *T {
	return &a.nodes[idx]
}
