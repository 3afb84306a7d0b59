package groupdata

import (
	"fmt"

	grouperrors "github.com/sparsekit/groupdata/errors"
	intbits "github.com/sparsekit/groupdata/internal/bits"
)

// PartitionStrategy identifies how Partition assigns entries to threads.
type PartitionStrategy uint8

const (
	// PartitionChunks splits the input into nthread contiguous subslices of
	// near-equal length. Zero-copy: partitions alias the input slice. The
	// default, and the right choice when the input is already shuffled.
	PartitionChunks PartitionStrategy = 0

	// PartitionByKey routes every entry of a key to the same thread (murmur3
	// over the key, mapped with fastrange). Within a shared key the grouped
	// output then reflects input order exactly, since only one thread pushes
	// that key.
	PartitionByKey PartitionStrategy = 1

	// PartitionInterleave deals entries round-robin. Balances skewed inputs
	// at the cost of splitting every key across all threads.
	PartitionInterleave PartitionStrategy = 2
)

// String returns the strategy name.
func (s PartitionStrategy) String() string {
	switch s {
	case PartitionChunks:
		return "chunks"
	case PartitionByKey:
		return "bykey"
	case PartitionInterleave:
		return "interleave"
	default:
		return "unknown"
	}
}

// ParsePartitionStrategy converts a strategy name as printed by String back
// to its value. Used by the command-line tools.
func ParsePartitionStrategy(name string) (PartitionStrategy, error) {
	switch name {
	case "chunks":
		return PartitionChunks, nil
	case "bykey":
		return PartitionByKey, nil
	case "interleave":
		return PartitionInterleave, nil
	}
	return 0, fmt.Errorf("%w: %q", grouperrors.ErrUnknownStrategy, name)
}

// Partition splits entries into nthread per-thread slices according to the
// strategy, preserving input order within every partition (the builder never
// reorders within a (key, thread) pair, so partition order is final group
// order). The result always has exactly nthread partitions; some may be
// empty. PartitionChunks aliases the input, the other strategies copy.
func Partition[V any](entries []Entry[V], nthread int, strategy PartitionStrategy) ([][]Entry[V], error) {
	if nthread < 1 {
		return nil, grouperrors.ErrNoThreads
	}

	parts := make([][]Entry[V], nthread)
	switch strategy {
	case PartitionChunks:
		quo := len(entries) / nthread
		rem := len(entries) % nthread
		lo := 0
		for t := 0; t < nthread; t++ {
			hi := lo + quo
			if t < rem {
				hi++
			}
			parts[t] = entries[lo:hi]
			lo = hi
		}

	case PartitionByKey:
		for _, e := range entries {
			t := int(intbits.FastRange64(keyHash(e.Key), uint64(nthread)))
			parts[t] = append(parts[t], e)
		}

	case PartitionInterleave:
		for i, e := range entries {
			t := i % nthread
			parts[t] = append(parts[t], e)
		}

	default:
		return nil, fmt.Errorf("%w: %d", grouperrors.ErrUnknownStrategy, strategy)
	}

	return parts, nil
}
