// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package lpmcore provides a high-performance longest-prefix-match
// engine for IPv4 and IPv6 addresses.
//
// An Index picks one of three internal layouts at creation time:
//
//   - Trie8:  a universal 8-bit-stride trie, legal for either family
//   - Dir24:  a two-level DIR-24-8 table, IPv4-only
//   - Wide16: a 16/16/16+8-bit-stride trie, IPv6-only
//
// Trie8 favors memory efficiency and works for both families; Dir24
// trades memory for single-indexed-read IPv4 lookups; Wide16 applies the
// same tradeoff to the wider IPv6 address space while keeping a trie8
// tail for the last ten octets (bytes 6..15).
//
// The core operates entirely on raw, network-byte-order address bytes —
// it never parses CIDR strings or depends on net/netip, so it has no
// opinion about how a caller obtained those bytes. See cmd/lpmtool for a
// boundary layer that does that parsing.
package lpmcore
