package groupdata

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Layout is the grouped storage a Builder materializes into: a flat values
// array and a boundary index marking where each key's group begins and ends.
//
// Offsets is monotonically non-decreasing with len(Offsets) == NumGroups()+1,
// and the values for key k occupy Values[Offsets[k]:Offsets[k+1]]. Both
// slices are exported so downstream consumers (sparse-matrix row access and
// the like) can read them directly. A Layout holding data from an earlier
// build continues an incremental build: the next materialization appends new
// groups after the existing data.
type Layout[V any] struct {
	Offsets []uint64
	Values  []V
}

// NumGroups returns the number of groups in the layout.
func (l *Layout[V]) NumGroups() int {
	if len(l.Offsets) == 0 {
		return 0
	}
	return len(l.Offsets) - 1
}

// Len returns the total number of values across all groups.
func (l *Layout[V]) Len() int { return len(l.Values) }

// Group returns the contiguous values for key. The slice aliases the
// layout's backing array and is valid until the next materialization.
func (l *Layout[V]) Group(key int) []V {
	return l.Values[l.Offsets[key]:l.Offsets[key+1]]
}

// GroupLen returns the number of values in key's group.
func (l *Layout[V]) GroupLen(key int) int {
	return int(l.Offsets[key+1] - l.Offsets[key])
}

// Checksum returns an order-sensitive xxHash64 digest over the boundary and
// a caller-supplied hash of each value. Two layouts with the same grouping
// and the same value order produce the same checksum, so it serves as a
// cheap equivalence check between independently built layouts (for example
// a parallel build against a sequential oracle).
func (l *Layout[V]) Checksum(hashValue func(V) uint64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, off := range l.Offsets {
		binary.LittleEndian.PutUint64(buf[:], off)
		hashWrite(d, buf[:])
	}
	for _, v := range l.Values {
		binary.LittleEndian.PutUint64(buf[:], hashValue(v))
		hashWrite(d, buf[:])
	}
	return d.Sum64()
}

// hashWrite folds p into the digest. xxhash's Write cannot fail; the check
// guards against a misbehaving hash.Hash substitution.
func hashWrite(d *xxhash.Digest, p []byte) {
	if _, err := d.Write(p); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}
}
