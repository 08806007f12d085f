// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package lpmcore

import "go.uber.org/zap"

// defaultResultCap is the lookup_all result cap used when Create is not
// given WithResultCap (SPEC_FULL.md §14, decision 4).
const defaultResultCap = 32

// defaultHotCacheSize is the hot cache slot count used when Create is
// not given WithHotCache (SPEC_FULL.md §14, decision 5). 0 disables it.
const defaultHotCacheSize = 4096

type options struct {
	resultCap    int
	hotCacheSize int
	logger       *zap.Logger
}

func defaultOptions() options {
	return options{
		resultCap:    defaultResultCap,
		hotCacheSize: defaultHotCacheSize,
		logger:       zap.NewNop(),
	}
}

// Option configures an Index at Create time.
type Option func(*options)

// WithResultCap sets the maximum number of matches lookup_all may return
// before failing with ErrKindCapacityExceeded. n must be positive.
func WithResultCap(n int) Option {
	return func(o *options) { o.resultCap = n }
}

// WithHotCache sets the hot cache's slot count (rounded up to the next
// power of two). size == 0 disables the cache entirely, satisfying
// spec.md §4.7's "may omit it, in which case they must omit it
// uniformly" — the cache is either present for every lookup or absent
// for all of them, never conditionally.
func WithHotCache(size int) Option {
	return func(o *options) { o.hotCacheSize = size }
}

// WithLogger injects a structured logger for diagnostics (index creation
// with the selected dispatch tier, rebuild events). The core never logs by
// default (spec.md §7: "the engine never prints, logs, or exits on its
// own") — passing a logger is an explicit opt-in.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
