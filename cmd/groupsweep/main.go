// Groupsweep measures how group construction scales across thread counts
// and partitioning strategies.
//
// For every strategy it builds the same entry set at doubling thread
// counts and reports throughput and speedup relative to one thread.
// Timings include partitioning, budgeting, materialization, and fill.
//
// Usage:
//
//	go run ./cmd/groupsweep -entries 10000000 -keys 100000
//	go run ./cmd/groupsweep -entries 50000000 -maxthreads 4
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/sparsekit/groupdata"
	intbits "github.com/sparsekit/groupdata/internal/bits"
)

// valueSeed decorrelates the synthetic values from the key stream.
const valueSeed = 0x9E3779B97F4A7C15

func main() {
	entriesFlag := flag.Int("entries", 10_000_000, "number of entries")
	keysFlag := flag.Int("keys", 100_000, "size of the group key space")
	maxThreadsFlag := flag.Int("maxthreads", runtime.GOMAXPROCS(0), "sweep ceiling for thread count")
	repeatFlag := flag.Int("repeat", 3, "runs per configuration (best is reported)")
	flag.Parse()

	numEntries := *entriesFlag
	numKeys := *keysFlag
	maxThreads := max(1, *maxThreadsFlag)
	repeat := max(1, *repeatFlag)

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Entries:      %d\n", numEntries)
	fmt.Printf("  Keys:         %d\n", numKeys)
	fmt.Printf("  Max threads:  %d\n", maxThreads)
	fmt.Printf("  Repeat:       %d (best of)\n", repeat)
	fmt.Printf("  GOMAXPROCS:   %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	ctx := context.Background()

	fmt.Println("Generating entries...")
	gen := runtime.GOMAXPROCS(0)
	entries := make([]groupdata.Entry[uint64], numEntries)
	_ = groupdata.ForEachThread(ctx, gen, func(_ context.Context, w int) error {
		// Disjoint index ranges, no coordination needed.
		lo := numEntries * w / gen
		hi := numEntries * (w + 1) / gen
		var buf [8]byte
		for i := lo; i < hi; i++ {
			binary.LittleEndian.PutUint64(buf[:], uint64(i))
			h := xxh3.Hash(buf[:])
			entries[i] = groupdata.Entry[uint64]{
				Key:   int(intbits.FastRange32(h, uint32(numKeys))),
				Value: xxh3.HashSeed(buf[:], valueSeed),
			}
		}
		return nil
	})
	fmt.Println()

	threadCounts := []int{1}
	for t := 2; t <= maxThreads; t *= 2 {
		threadCounts = append(threadCounts, t)
	}
	if last := threadCounts[len(threadCounts)-1]; last != maxThreads {
		threadCounts = append(threadCounts, maxThreads)
	}

	strategies := []groupdata.PartitionStrategy{
		groupdata.PartitionChunks,
		groupdata.PartitionByKey,
		groupdata.PartitionInterleave,
	}
	for _, strategy := range strategies {
		fmt.Printf("=== %s ===\n", strategy)
		var baseline time.Duration
		for _, t := range threadCounts {
			var best time.Duration
			for r := 0; r < repeat; r++ {
				runtime.GC()
				start := time.Now()
				_, err := groupdata.BuildEntries(ctx, entries,
					groupdata.WithThreads(t),
					groupdata.WithPartitionStrategy(strategy))
				d := time.Since(start)
				if err != nil {
					fmt.Printf("  T=%3d  ERROR: %v\n", t, err)
					return
				}
				if best == 0 || d < best {
					best = d
				}
			}
			if t == 1 {
				baseline = best
			}
			rate := float64(numEntries) / best.Seconds() / 1e6
			speedup := baseline.Seconds() / best.Seconds()
			fmt.Printf("  T=%3d  build: %6.2fs (%7.2f M entries/sec)  speedup: %5.2fx\n",
				t, best.Seconds(), rate, speedup)
		}
		fmt.Println()
	}
}
