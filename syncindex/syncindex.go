// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package syncindex layers a sync.RWMutex over an *lpmcore.Index so
// multiple goroutines can share one index safely. It is an optional
// convenience, not part of the core contract (spec.md §5: "concurrency
// safety, if offered, must be a thin adapter layered above the core, not
// baked into it") — lpmcore.Index itself assumes single-goroutine access
// so the hot lookup path never pays for a lock it doesn't need.
package syncindex

import (
	"sync"

	"github.com/packetforge/lpmcore/internal/nexthop"

	"github.com/packetforge/lpmcore"
)

// Index wraps an *lpmcore.Index behind a RWMutex: lookups take the read
// lock and may run concurrently with each other, while Insert/Delete take
// the write lock and exclude everything else, including the hot cache
// invalidation that comes with them.
type Index struct {
	mu  sync.RWMutex
	idx *lpmcore.Index
}

// New wraps idx for concurrent use. idx must not be accessed directly by
// any other goroutine afterward.
func New(idx *lpmcore.Index) *Index {
	return &Index{idx: idx}
}

// Insert adds or overwrites a binding under the write lock.
func (s *Index) Insert(addr []byte, length int, nextHop uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Insert(addr, length, nextHop)
}

// InsertBatch applies a batch of bindings under a single write lock, so
// readers never observe a partially-applied batch.
func (s *Index) InsertBatch(entries []lpmcore.InsertEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.InsertBatch(entries)
}

// Delete removes a binding under the write lock.
func (s *Index) Delete(addr []byte, length int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Delete(addr, length)
}

// LookupSingle performs a lookup under the read lock, so it may run
// concurrently with other lookups but never with a mutation.
func (s *Index) LookupSingle(addr []byte) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.LookupSingle(addr)
}

// LookupBatch performs a batch lookup under the read lock.
func (s *Index) LookupBatch(addrs [][]byte, out []uint32) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.LookupBatch(addrs, out)
}

// LookupAll performs a multi-answer lookup under the read lock.
func (s *Index) LookupAll(addr []byte) ([]nexthop.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.LookupAll(addr)
}

// Count reports the number of distinct bindings under the read lock.
func (s *Index) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Count()
}

// Destroy releases the underlying index's resources under the write
// lock.
func (s *Index) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx.Destroy()
}
