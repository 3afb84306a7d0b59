package groupdata

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cespare/xxhash/v2"
)

// TestIntegrationMultiCycle grows one layout through several
// budget/materialize/fill cycles with varying thread counts and strategies,
// then audits the accumulated groups in one pass.
func TestIntegrationMultiCycle(t *testing.T) {
	rng := newTestRNG(t)
	ctx := context.Background()

	const (
		cycles        = 5
		keysPerCycle  = 12
		entriesPerCyc = 600
	)
	strategies := []PartitionStrategy{PartitionChunks, PartitionByKey, PartitionInterleave}

	scratch := &Scratch{}
	var layout *Layout[uint64]
	var all []Entry[uint64]

	for cycle := range cycles {
		entries := make([]Entry[uint64], entriesPerCyc)
		for i := range entries {
			entries[i] = Entry[uint64]{
				Key:   cycle*keysPerCycle + rng.IntN(keysPerCycle),
				Value: rng.Uint64(),
			}
		}
		all = append(all, entries...)

		nthread := 1 + rng.IntN(6)
		parts, err := Partition(entries, nthread, strategies[cycle%len(strategies)])
		if err != nil {
			t.Fatalf("cycle %d: Partition: %v", cycle, err)
		}
		layout, err = Build(ctx, layout, parts, WithScratch(scratch))
		if err != nil {
			t.Fatalf("cycle %d: Build: %v", cycle, err)
		}

		if got, want := layout.Len(), (cycle+1)*entriesPerCyc; got != want {
			t.Fatalf("cycle %d: Len: got %d, want %d", cycle, got, want)
		}
	}

	checkGroups(t, layout, all)
}

// TestIntegrationSnapshotOfIncrementalBuild persists a layout accumulated
// over two cycles and reloads it bit for bit.
func TestIntegrationSnapshotOfIncrementalBuild(t *testing.T) {
	rng := newTestRNG(t)
	ctx := context.Background()

	first := makeRandomEntries(rng, 2000, 30)
	layout, err := BuildEntries(ctx, first, WithThreads(3))
	if err != nil {
		t.Fatalf("first build: %v", err)
	}

	base := layout.NumGroups()
	second := make([]Entry[uint64], 2000)
	for i := range second {
		second[i] = Entry[uint64]{Key: base + rng.IntN(30), Value: rng.Uint64()}
	}
	parts, err := Partition(second, 4, PartitionByKey)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if _, err := Build(ctx, layout, parts); err != nil {
		t.Fatalf("append build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "incremental.grpd")
	if err := WriteFile(path, layout, Uint64Codec); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := ReadFile(path, Uint64Codec)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if !slices.Equal(loaded.Offsets, layout.Offsets) || !slices.Equal(loaded.Values, layout.Values) {
		t.Fatal("incremental layout does not round-trip")
	}
	checkGroups(t, loaded, slices.Concat(first, second))
}

// TestIntegrationStringValues runs the generic pipeline with a non-numeric
// value type end to end.
func TestIntegrationStringValues(t *testing.T) {
	entries := []Entry[string]{
		{Key: 0, Value: "red"},
		{Key: 2, Value: "green"},
		{Key: 0, Value: "blue"},
		{Key: 1, Value: "cyan"},
		{Key: 2, Value: "teal"},
		{Key: 0, Value: "gray"},
	}

	layout, err := BuildEntries(context.Background(), entries, WithThreads(2))
	if err != nil {
		t.Fatalf("BuildEntries: %v", err)
	}

	wantGroups := [][]string{
		{"red", "blue", "gray"},
		{"cyan"},
		{"green", "teal"},
	}
	if got := layout.NumGroups(); got != len(wantGroups) {
		t.Fatalf("NumGroups: got %d, want %d", got, len(wantGroups))
	}
	for key, want := range wantGroups {
		if got := layout.Group(key); !slices.Equal(got, want) {
			t.Errorf("Group(%d): got %v, want %v", key, got, want)
		}
	}

	sequential := NewBuilder[string](nil)
	sequential.InitBudget(0, 1)
	for _, e := range entries {
		sequential.AddBudget(e.Key, 0)
	}
	sequential.InitStorage()
	for _, e := range entries {
		sequential.Push(e.Key, e.Value, 0)
	}
	if layout.Checksum(xxhash.Sum64String) != sequential.Layout().Checksum(xxhash.Sum64String) {
		t.Fatal("parallel string build diverges from sequential build")
	}
}

// TestIntegrationLargeSkewed pushes a skewed key distribution (most
// entries on few keys) through every strategy at full width.
func TestIntegrationLargeSkewed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large randomized build in short mode")
	}

	rng := newTestRNG(t)
	entries := make([]Entry[uint64], 200_000)
	for i := range entries {
		// Half the entries on key 0, half spread over the rest.
		key := 0
		if rng.IntN(2) == 1 {
			key = rng.IntN(1000)
		}
		entries[i] = Entry[uint64]{Key: key, Value: rng.Uint64()}
	}

	ctx := context.Background()
	for _, strategy := range []PartitionStrategy{PartitionChunks, PartitionByKey, PartitionInterleave} {
		t.Run(strategy.String(), func(t *testing.T) {
			layout, err := BuildEntries(ctx, entries, WithPartitionStrategy(strategy), WithBoundsCheck())
			if err != nil {
				t.Fatalf("BuildEntries: %v", err)
			}
			checkGroups(t, layout, entries)
		})
	}
}
