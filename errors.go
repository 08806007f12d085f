// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package lpmcore

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every fallible operation's failure mode
// (spec.md §7). It is not tied to any particular Go error type — it is
// attached to the returned *Error so callers can branch on failure kind
// without string-matching.
type ErrorKind int

const (
	// ErrKindValidation: prefix length exceeds the family maximum, a byte
	// buffer is the wrong length, a next-hop exceeds 30 bits for a
	// DIR-24-8 index, or the algorithm is incompatible with the address
	// family.
	ErrKindValidation ErrorKind = iota + 1
	// ErrKindOutOfMemory: arena growth failed.
	ErrKindOutOfMemory
	// ErrKindNotFound: on delete, the prefix was not present.
	ErrKindNotFound
	// ErrKindCapacityExceeded: a multi-answer lookup would overflow its
	// result cap.
	ErrKindCapacityExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindOutOfMemory:
		return "out_of_memory"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindCapacityExceeded:
		return "capacity_exceeded"
	default:
		return "unknown"
	}
}

// Error is the error type every fallible Index operation returns. Kind
// lets a caller decide to retry, degrade, or abort without parsing the
// message; Err carries the underlying cause for %w unwrapping.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lpmcore: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel causes wrapped by *Error's Err field. Callers that need the
// specific reason (as opposed to just the Kind) can errors.Is against
// these.
var (
	ErrPrefixLengthOutOfRange = errors.New("prefix length out of range for address family")
	ErrAddressLengthMismatch  = errors.New("address byte slice does not match family width")
	ErrIncompatibleAlgorithm  = errors.New("algorithm is not valid for this address family")
	ErrPrefixNotFound         = errors.New("prefix not present")
)

// KindOf reports the ErrorKind of err if it (or something it wraps) is
// an *Error, and false otherwise — a convenience over errors.As for
// callers that only care about the kind.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
