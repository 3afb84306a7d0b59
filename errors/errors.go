// Package errors defines all exported error sentinels for the groupdata library.
//
// This is the single source of truth for error values. Both the top-level
// groupdata package and its commands import from here, ensuring errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Build errors
var (
	ErrChecksDisabled   = errors.New("groupdata: bounds checking not enabled for this builder")
	ErrNotMaterialized  = errors.New("groupdata: storage not materialized")
	ErrThreadOutOfRange = errors.New("groupdata: thread id out of range")
	ErrUnbudgetedKey    = errors.New("groupdata: key has no budgeted slots for this thread")
	ErrBudgetExceeded   = errors.New("groupdata: push count exceeds committed budget")
)

// Partition errors
var (
	ErrNoThreads       = errors.New("groupdata: thread count must be at least 1")
	ErrUnknownStrategy = errors.New("groupdata: unknown partition strategy")
)

// Snapshot errors
var (
	ErrInvalidMagic        = errors.New("groupdata: invalid magic number")
	ErrInvalidVersion      = errors.New("groupdata: unsupported version")
	ErrChecksumFailed      = errors.New("groupdata: file checksum verification failed")
	ErrTruncatedFile       = errors.New("groupdata: layout file is truncated")
	ErrCorruptedFile       = errors.New("groupdata: layout file is corrupted")
	ErrValueSizeMismatch   = errors.New("groupdata: codec value size does not match file")
	ErrOffsetsNotMonotonic = errors.New("groupdata: offsets are not non-decreasing")
)
