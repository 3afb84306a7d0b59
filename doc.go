// Package groupdata implements multi-threaded construction of grouped
// value storage in compressed sparse row (CSR) form.
//
// Values arrive tagged with an integer group key in arbitrary order across
// threads. The builder runs in two passes: a budgeting pass where each
// thread counts how many values it will contribute per key, and a fill pass
// where each thread writes its values into pre-computed disjoint ranges of
// one shared values array. Neither pass takes a lock.
//
// # Basic Usage
//
// Building with explicit phases (callers manage their own worker threads
// and place a barrier between phases):
//
//	b := groupdata.NewBuilder[string](nil)
//	b.InitBudget(0, numThreads)
//	// each thread t: b.AddBudget(key, t) for every value it will push
//	b.InitStorage()
//	// each thread t: b.Push(key, value, t) for the same values
//	layout := b.Layout()
//	group := layout.Group(key)
//
// Building from a flat entry list with managed workers:
//
//	entries := []groupdata.Entry[string]{{Key: 0, Value: "a"}, ...}
//	layout, err := groupdata.BuildEntries(ctx, entries,
//	    groupdata.WithThreads(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Persisting a layout:
//
//	err := groupdata.WriteFile("groups.grpd", layout, groupdata.Uint64Codec)
//	loaded, err := groupdata.ReadFile("groups.grpd", groupdata.Uint64Codec)
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: builder.go (NewBuilder, InitBudget, AddBudget, InitStorage, Push), layout.go (Layout, Group)
//   - Configuration: options.go (Option, With* functions)
//   - Guarded writes: checked.go (PushChecked, Remaining)
//   - Reusable state: scratch.go (Scratch)
//   - Parallel driver: parallel.go (ForEachThread, Build, BuildEntries), partition.go, entry.go
//   - Diagnostics: stats.go (Stats)
//   - Serialization: header.go (header, footer), codec.go (ValueCodec), file_writer.go, file.go
//   - Platform: fallocate_*.go, prefault_*.go, fadvise_*.go (OS-specific optimizations)
package groupdata
