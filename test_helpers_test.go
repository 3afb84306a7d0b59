package groupdata

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"slices"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewSource(int64((testSeed1 ^ s1) ^ (testSeed2 ^ s2))))
}

// makeRandomEntries generates n entries with keys uniform in [0, numKeys).
func makeRandomEntries(rng *rand.Rand, n, numKeys int) []Entry[uint64] {
	entries := make([]Entry[uint64], n)
	for i := range entries {
		entries[i] = Entry[uint64]{
			Key:   rng.Intn(numKeys),
			Value: rng.Uint64(),
		}
	}
	return entries
}

// groupByKey is the reference grouping: values per key in input order.
func groupByKey(entries []Entry[uint64]) map[int][]uint64 {
	groups := make(map[int][]uint64)
	for _, e := range entries {
		groups[e.Key] = append(groups[e.Key], e.Value)
	}
	return groups
}

// maxEntryKey returns the largest key in entries, or -1 when empty.
func maxEntryKey(entries []Entry[uint64]) int {
	maxKey := -1
	for _, e := range entries {
		maxKey = max(maxKey, e.Key)
	}
	return maxKey
}

// checkGroups verifies layout against the reference grouping. Group
// contents are compared as multisets since thread interleaving may
// legitimately reorder values within a group.
func checkGroups(t *testing.T, layout *Layout[uint64], entries []Entry[uint64]) {
	t.Helper()

	if got, want := layout.Len(), len(entries); got != want {
		t.Fatalf("Len: got %d, want %d", got, want)
	}
	if got, want := layout.NumGroups(), maxEntryKey(entries)+1; got < want {
		t.Fatalf("NumGroups: got %d, want at least %d", got, want)
	}
	if layout.Offsets[0] != 0 {
		t.Fatalf("Offsets[0]: got %d, want 0", layout.Offsets[0])
	}
	if got, want := layout.Offsets[len(layout.Offsets)-1], uint64(len(layout.Values)); got != want {
		t.Fatalf("last offset: got %d, want %d", got, want)
	}
	for i := 0; i+1 < len(layout.Offsets); i++ {
		if layout.Offsets[i] > layout.Offsets[i+1] {
			t.Fatalf("offsets not monotonic at %d: %d > %d", i, layout.Offsets[i], layout.Offsets[i+1])
		}
	}

	want := groupByKey(entries)
	for key := 0; key < layout.NumGroups(); key++ {
		got := slices.Clone(layout.Group(key))
		exp := slices.Clone(want[key])
		slices.Sort(got)
		slices.Sort(exp)
		if !slices.Equal(got, exp) {
			t.Fatalf("group %d: got %v, want %v", key, got, exp)
		}
	}
}

// buildSingleThread runs the explicit phase API on one thread. With a
// single thread the grouped output preserves input order exactly.
func buildSingleThread(entries []Entry[uint64], opts ...Option) *Layout[uint64] {
	b := NewBuilder[uint64](nil, opts...)
	b.InitBudget(0, 1)
	for _, e := range entries {
		b.AddBudget(e.Key, 0)
	}
	b.InitStorage()
	for _, e := range entries {
		b.Push(e.Key, e.Value, 0)
	}
	return b.Layout()
}

// buildByThreadLoop runs the phase API over pre-partitioned entries with a
// plain loop standing in for the worker threads. The result is exactly
// what a parallel build would produce, but deterministic and data-race
// free for white-box assertions.
func buildByThreadLoop(parts [][]Entry[uint64], opts ...Option) *Layout[uint64] {
	b := NewBuilder[uint64](nil, opts...)
	b.InitBudget(0, len(parts))
	for thread, part := range parts {
		for _, e := range part {
			b.AddBudget(e.Key, thread)
		}
	}
	b.InitStorage()
	for thread, part := range parts {
		for _, e := range part {
			b.Push(e.Key, e.Value, thread)
		}
	}
	return b.Layout()
}
