// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package dir24

// entry is a 32-bit primary or tbl8 record (spec.md §4.3): the top bit
// marks the record extended (its low bits then address a tbl8 group
// rather than a next-hop), the next bit marks it valid, and the
// remaining 30 bits hold either a next-hop or, when extended, a group
// index. tbl8 entries never set the extended bit — the fallback table is
// exactly one level deep.
type entry uint32

const (
	extendedBit = uint32(1) << 31
	validBit    = uint32(1) << 30
	payloadMask = uint32(1)<<30 - 1
)

// MaxNextHop is the largest next-hop value a DIR-24-8 index can store —
// two bits of the 32-bit primary/tbl8 record are reserved as control
// flags (spec.md §3, §4.3).
const MaxNextHop = payloadMask

func (e entry) extended() bool {
	return uint32(e)&extendedBit != 0
}

func (e entry) valid() bool {
	return uint32(e)&validBit != 0
}

// payload returns the next-hop (non-extended) or group index (extended)
// carried in the low 30 bits.
func (e entry) payload() uint32 {
	return uint32(e) & payloadMask
}

func terminalEntry(nextHop uint32) entry {
	return entry(validBit | (nextHop & payloadMask))
}

func extendedEntry(group uint32) entry {
	return entry(extendedBit | (group & payloadMask))
}

// group256 is one allocation unit of the tbl8 extension pool: 256
// records covering the final byte of a /25-/32 prefix, plus the
// per-entry prefix-length bookkeeping used to preserve a longer,
// still-live prefix across an overlapping shorter insert.
type group256 struct {
	entries [256]entry
	lens    [256]uint8
}

func setEntry(e *entry, lenSlot *uint8, length int, nextHop uint32) {
	if e.valid() && int(*lenSlot) > length {
		return
	}
	*e = terminalEntry(nextHop)
	*lenSlot = uint8(length)
}
