package groupdata

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Entry is one (key, value) pair for the partitioning helpers and the
// parallel driver. Key is a dense non-negative group index; Value is opaque
// to the library.
type Entry[V any] struct {
	Key   int
	Value V
}

// keyHash hashes a key for thread assignment. Murmur3 over the key's
// little-endian bytes decorrelates the dense key space from the thread
// index, so PartitionByKey spreads adjacent keys across threads instead of
// assigning contiguous key runs to one thread.
func keyHash(key int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return murmur3.Sum64(buf[:])
}
