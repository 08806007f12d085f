// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command lpmtool is a thin example consumer of lpmcore: it parses CIDR
// strings with net/netip and drives an in-memory index from a rule file.
// It is not part of the core's tested contract — see SPEC_FULL.md §9.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/packetforge/lpmcore"
	"github.com/packetforge/lpmcore/internal/nexthop"
)

func main() {
	rulesPath := flag.String("rules", "", "path to a file of \"CIDR next-hop\" lines")
	family := flag.String("family", "ipv4", "ipv4 or ipv6")
	algorithm := flag.String("algorithm", "", "trie8, dir24, or wide16 (default: dir24 for ipv4, wide16 for ipv6)")
	query := flag.String("query", "", "an address to look up after loading rules")
	flag.Parse()

	if *rulesPath == "" || *query == "" {
		fmt.Fprintln(os.Stderr, "usage: lpmtool -rules <file> -query <addr> [-family ipv4|ipv6] [-algorithm trie8|dir24|wide16]")
		os.Exit(2)
	}

	fam, err := parseFamily(*family)
	if err != nil {
		log.Fatal(err)
	}

	algo, err := resolveAlgorithm(*algorithm, fam)
	if err != nil {
		log.Fatal(err)
	}

	idx, err := lpmcore.Create(fam, algo)
	if err != nil {
		log.Fatalf("create index: %v", err)
	}
	defer idx.Destroy()

	if err := loadRules(idx, *rulesPath); err != nil {
		log.Fatalf("load rules: %v", err)
	}

	addr, err := netip.ParseAddr(*query)
	if err != nil {
		log.Fatalf("parse query address: %v", err)
	}

	hop, err := idx.LookupSingle(addrBytes(addr))
	if err != nil {
		log.Fatalf("lookup: %v", err)
	}
	if hop == nexthop.Invalid {
		fmt.Println("no match")
		return
	}
	fmt.Printf("next-hop %d\n", hop)
}

func parseFamily(s string) (lpmcore.Family, error) {
	switch strings.ToLower(s) {
	case "ipv4":
		return lpmcore.FamilyIPv4, nil
	case "ipv6":
		return lpmcore.FamilyIPv6, nil
	default:
		return 0, fmt.Errorf("unknown family %q", s)
	}
}

func resolveAlgorithm(s string, fam lpmcore.Family) (lpmcore.Algorithm, error) {
	if s == "" {
		if fam == lpmcore.FamilyIPv6 {
			return lpmcore.AlgoWide16, nil
		}
		return lpmcore.AlgoDir24, nil
	}
	switch strings.ToLower(s) {
	case "trie8":
		return lpmcore.AlgoTrie8, nil
	case "dir24":
		return lpmcore.AlgoDir24, nil
	case "wide16":
		return lpmcore.AlgoWide16, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
}

// addrBytes extracts the raw network-byte-order bytes lpmcore expects,
// unwrapping a 4-in-6 mapped address down to its 4-byte form so an
// "ipv4" family index always sees exactly 4 bytes.
func addrBytes(addr netip.Addr) []byte {
	if addr.Is4In6() {
		a4 := addr.As4()
		return a4[:]
	}
	if addr.Is4() {
		a4 := addr.As4()
		return a4[:]
	}
	a16 := addr.As16()
	return a16[:]
}

// loadRules reads "CIDR next-hop" lines, inserting each as one binding.
// Blank lines and lines starting with # are skipped.
func loadRules(idx *lpmcore.Index, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("line %d: want \"CIDR next-hop\", got %q", lineNo, line)
		}

		prefix, err := netip.ParsePrefix(fields[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		hop, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		if err := idx.Insert(addrBytes(prefix.Addr()), prefix.Bits(), uint32(hop)); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}
