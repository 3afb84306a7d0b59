package groupdata

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// contextCheckInterval is how often the driver's per-entry loops poll for
// context cancellation.
const contextCheckInterval = 10000

// ForEachThread runs fn once per thread id in [0, nthread), each on its own
// goroutine, and waits for all of them. This is exactly the fork/join
// barrier the Builder's phases require between budgeting, materialization,
// and fill. The context passed to fn is canceled as soon as any fn returns
// an error; the first error is returned once every goroutine has exited.
func ForEachThread(ctx context.Context, nthread int, fn func(ctx context.Context, thread int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for thread := 0; thread < nthread; thread++ {
		thread := thread
		g.Go(func() error {
			return fn(gctx, thread)
		})
	}
	return g.Wait()
}

// Build runs a complete budget → materialize → fill cycle over
// pre-partitioned entries, one goroutine per partition, and returns the
// layout. parts[t] is the work for thread t, and partition order within a
// slice is preserved in the grouped output. Keys must be non-negative. A nil
// layout builds into a fresh one; a layout with prior data is appended to,
// in which case the entries must use keys at or past its current group
// count.
//
// The per-entry loops poll ctx every contextCheckInterval entries. After a
// canceled or failed build the layout contents are unspecified, but the
// layout is safe to rebuild from scratch. With WithBoundsCheck the fill pass
// goes through PushChecked and surfaces its sentinel errors.
func Build[V any](ctx context.Context, layout *Layout[V], parts [][]Entry[V], opts ...Option) (*Layout[V], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	b := NewBuilder(layout, opts...)
	b.InitBudget(0, len(parts))

	err := ForEachThread(ctx, len(parts), func(ctx context.Context, thread int) error {
		for i, e := range parts[thread] {
			if i%contextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			b.AddBudget(e.Key, thread)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.InitStorage()

	err = ForEachThread(ctx, len(parts), func(ctx context.Context, thread int) error {
		for i, e := range parts[thread] {
			if i%contextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if cfg.boundsCheck {
				if err := b.PushChecked(e.Key, e.Value, thread); err != nil {
					return err
				}
			} else {
				b.Push(e.Key, e.Value, thread)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return b.Layout(), nil
}

// BuildEntries partitions entries per WithThreads and WithPartitionStrategy
// (defaults: GOMAXPROCS, chunks) and runs Build into a fresh layout. The
// convenience path for callers with a flat entry slice and no partitioning
// opinion.
func BuildEntries[V any](ctx context.Context, entries []Entry[V], opts ...Option) (*Layout[V], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	nthread := cfg.threads
	if nthread <= 0 {
		nthread = runtime.GOMAXPROCS(0)
	}
	parts, err := Partition(entries, nthread, cfg.strategy)
	if err != nil {
		return nil, err
	}
	return Build(ctx, nil, parts, opts...)
}
