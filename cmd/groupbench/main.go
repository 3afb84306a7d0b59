// Groupbench is a benchmarking tool for measuring parallel group
// construction throughput, per-phase timing, and memory usage.
//
// Usage:
//
//	go run ./cmd/groupbench -entries 10000000 -keys 100000 -threads 8
//
// Flags:
//
//	-entries   Number of entries to group (default: 10,000,000)
//	-keys      Size of the group key space (default: 100,000)
//	-threads   Number of builder threads (default: GOMAXPROCS)
//	-strategy  Partitioning: chunks, bykey, or interleave (default: chunks)
//	-skew      Key skew exponent, 1 = uniform (default: 1)
//	-check     Use bounds-checked pushes
//	-verify    Compare the grouped output against a single-thread build
//	-snapshot  Write the layout to disk and read it back
//	-stats     Print the builder statistics report
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"slices"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/sparsekit/groupdata"
	intbits "github.com/sparsekit/groupdata/internal/bits"
)

// valueSeed decorrelates the synthetic values from the key stream.
const valueSeed = 0x9E3779B97F4A7C15

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024 // Convert KB to bytes on Linux
	}
	return maxRSS
}

// makeEntries synthesizes numEntries entries over a key space of numKeys.
// Keys come from xxh3-hashed counters mapped through fastrange; skew > 1
// concentrates mass on low keys via a power transform.
func makeEntries(numEntries, numKeys int, skew float64) []groupdata.Entry[uint64] {
	entries := make([]groupdata.Entry[uint64], numEntries)
	var buf [8]byte
	for i := range entries {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		h := xxh3.Hash(buf[:])
		var key int
		if skew == 1 {
			key = int(intbits.FastRange32(h, uint32(numKeys)))
		} else {
			u := float64(h>>11) * 0x1p-53
			key = int(math.Pow(u, skew) * float64(numKeys))
			if key >= numKeys {
				key = numKeys - 1
			}
		}
		entries[i] = groupdata.Entry[uint64]{
			Key:   key,
			Value: xxh3.HashSeed(buf[:], valueSeed),
		}
	}
	return entries
}

func main() {
	entriesFlag := flag.Int("entries", 10_000_000, "number of entries")
	keysFlag := flag.Int("keys", 100_000, "size of the group key space")
	threadsFlag := flag.Int("threads", runtime.GOMAXPROCS(0), "number of builder threads")
	strategyFlag := flag.String("strategy", "chunks", "partitioning: chunks, bykey, or interleave")
	skewFlag := flag.Float64("skew", 1.0, "key skew exponent (1 = uniform)")
	checkFlag := flag.Bool("check", false, "use bounds-checked pushes")
	verifyFlag := flag.Bool("verify", false, "compare against a single-thread build")
	snapshotFlag := flag.Bool("snapshot", false, "write the layout to disk and read it back")
	statsFlag := flag.Bool("stats", false, "print the builder statistics report")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (build phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (build phase only)")
	flag.Parse()

	numEntries := *entriesFlag
	numKeys := *keysFlag
	threads := *threadsFlag
	if threads < 1 {
		threads = 1
	}

	strategy, err := groupdata.ParsePartitionStrategy(*strategyFlag)
	if err != nil {
		fmt.Printf("Bad -strategy: %v\n", err)
		return
	}

	fmt.Println("Generating entries...")
	entries := makeEntries(numEntries, numKeys, *skewFlag)

	fmt.Printf("Partitioning (%s)...\n", strategy)
	parts, err := groupdata.Partition(entries, threads, strategy)
	if err != nil {
		fmt.Printf("Partition failed: %v\n", err)
		return
	}

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling for peak memory (both heap and RSS).
	// Uses runtime/metrics instead of ReadMemStats to avoid stop-the-world pauses
	// that cause ~50ms overhead and distort CPU profiles.
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := peakAlloc.Load()
					if heapBytes <= old || peakAlloc.CompareAndSwap(old, heapBytes) {
						break
					}
				}
				rss := getMaxRSS()
				for {
					old := peakRSS.Load()
					if rss <= old || peakRSS.CompareAndSwap(old, rss) {
						break
					}
				}
			}
		}
	}()

	fmt.Println("Building groups...")

	// Start CPU profile for build phase
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	ctx := context.Background()
	var buildOpts []groupdata.Option
	if *checkFlag {
		buildOpts = append(buildOpts, groupdata.WithBoundsCheck())
	}
	b := groupdata.NewBuilder[uint64](nil, buildOpts...)
	b.InitBudget(numKeys, threads)

	budgetStart := time.Now()
	err = groupdata.ForEachThread(ctx, threads, func(_ context.Context, thread int) error {
		for _, e := range parts[thread] {
			b.AddBudget(e.Key, thread)
		}
		return nil
	})
	budgetDur := time.Since(budgetStart)
	if err != nil {
		fmt.Printf("Budget pass failed: %v\n", err)
		return
	}

	storageStart := time.Now()
	b.InitStorage()
	storageDur := time.Since(storageStart)

	fillStart := time.Now()
	err = groupdata.ForEachThread(ctx, threads, func(_ context.Context, thread int) error {
		for _, e := range parts[thread] {
			if *checkFlag {
				if err := b.PushChecked(e.Key, e.Value, thread); err != nil {
					return err
				}
			} else {
				b.Push(e.Key, e.Value, thread)
			}
		}
		return nil
	})
	fillDur := time.Since(fillStart)
	if err != nil {
		fmt.Printf("Fill pass failed: %v\n", err)
		return
	}

	buildDur := budgetDur + storageDur + fillDur
	layout := b.Layout()

	// Stop CPU profile after build phase
	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}

	// Write memory profile after build phase
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC() // Get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}

	close(done)

	// Final memory samples
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	if final.Alloc > peakAlloc.Load() {
		peakAlloc.Store(final.Alloc)
	}
	finalRSS := getMaxRSS()
	if finalRSS > peakRSS.Load() {
		peakRSS.Store(finalRSS)
	}

	peakHeapMem := peakAlloc.Load() - baseline.Alloc
	peakRSSMem := peakRSS.Load() - baselineRSS

	if *statsFlag {
		fmt.Println()
		fmt.Print(b.Stats(true).String())
	}

	identity := func(v uint64) uint64 { return v }

	if *verifyFlag {
		fmt.Println("Verifying grouped output...")
		oracle, err := groupdata.Build(ctx, nil, [][]groupdata.Entry[uint64]{entries})
		if err != nil {
			fmt.Printf("Oracle build failed: %v\n", err)
			return
		}
		if !slices.Equal(oracle.Offsets, layout.Offsets) {
			fmt.Println("FAIL: group boundaries differ from single-thread build")
			return
		}
		for key := 0; key < layout.NumGroups(); key++ {
			got := slices.Clone(layout.Group(key))
			want := slices.Clone(oracle.Group(key))
			slices.Sort(got)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				fmt.Printf("FAIL: group %d contents differ from single-thread build\n", key)
				return
			}
		}
		if strategy == groupdata.PartitionChunks && layout.Checksum(identity) != oracle.Checksum(identity) {
			fmt.Println("FAIL: chunks build is not order-identical to single-thread build")
			return
		}
		fmt.Printf("Verification passed (%d groups)\n", layout.NumGroups())
	}

	var snapSize int64
	var snapWriteDur, snapReadDur time.Duration
	if *snapshotFlag {
		tmpDir, err := os.MkdirTemp("", "groupbench-")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			return
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()
		snapPath := filepath.Join(tmpDir, "layout.grpd")

		fmt.Println("Writing snapshot...")
		writeStart := time.Now()
		if err := groupdata.WriteFile(snapPath, layout, groupdata.Uint64Codec); err != nil {
			fmt.Printf("WriteFile failed: %v\n", err)
			return
		}
		snapWriteDur = time.Since(writeStart)

		info, err := os.Stat(snapPath)
		if err != nil {
			fmt.Printf("Stat snapshot failed: %v\n", err)
			return
		}
		snapSize = info.Size()

		fmt.Println("Reading snapshot...")
		readStart := time.Now()
		loaded, err := groupdata.ReadFile(snapPath, groupdata.Uint64Codec)
		if err != nil {
			fmt.Printf("ReadFile failed: %v\n", err)
			return
		}
		snapReadDur = time.Since(readStart)

		if loaded.Checksum(identity) != layout.Checksum(identity) {
			fmt.Println("FAIL: snapshot round-trip changed the layout")
			return
		}
	}

	mode := "plain"
	if *checkFlag {
		mode = "checked"
	}

	fmt.Printf("\n")
	fmt.Printf("╔══════════════════════╦══════════════════════╗\n")
	fmt.Printf("║ Strategy: %-10s ║ Threads: %-11d ║\n", strategy, threads)
	fmt.Printf("╠══════════════════════╬══════════════════════╣\n")
	fmt.Printf("║ %-20s ║ %20d ║\n", "Entries", numEntries)
	fmt.Printf("║ %-20s ║ %20d ║\n", "Groups", layout.NumGroups())
	fmt.Printf("║ %-20s ║ %20s ║\n", "Push mode", mode)
	fmt.Printf("║ %-20s ║ %18.3f s ║\n", "Budget pass", budgetDur.Seconds())
	fmt.Printf("║ %-20s ║ %18.3f s ║\n", "Materialize", storageDur.Seconds())
	fmt.Printf("║ %-20s ║ %18.3f s ║\n", "Fill pass", fillDur.Seconds())
	fmt.Printf("║ %-20s ║ %18.3f s ║\n", "Total build", buildDur.Seconds())
	fmt.Printf("║ %-20s ║ %16.2f M/s ║\n", "Throughput", float64(numEntries)/buildDur.Seconds()/1_000_000)
	fmt.Printf("║ %-20s ║ %17.1f MB ║\n", "Peak heap memory", float64(peakHeapMem)/1_000_000)
	fmt.Printf("║ %-20s ║ %17.1f MB ║\n", "Peak RSS memory", float64(peakRSSMem)/1_000_000)
	if *snapshotFlag {
		fmt.Printf("║ %-20s ║ %17.1f MB ║\n", "Snapshot size", float64(snapSize)/1_000_000)
		fmt.Printf("║ %-20s ║ %15.1f MB/s ║\n", "Snapshot write", float64(snapSize)/snapWriteDur.Seconds()/1_000_000)
		fmt.Printf("║ %-20s ║ %15.1f MB/s ║\n", "Snapshot read", float64(snapSize)/snapReadDur.Seconds()/1_000_000)
	}
	fmt.Printf("╚══════════════════════╩══════════════════════╝\n")
}
