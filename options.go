package groupdata

// Option is a functional option for configuring builders and builds.
type Option func(*config)

type config struct {
	boundsCheck bool
	scratch     *Scratch
	threads     int               // partition count for BuildEntries; 0 means GOMAXPROCS
	strategy    PartitionStrategy // how BuildEntries splits entries across threads
}

func defaultConfig() *config {
	return &config{
		threads:  0, // Resolved to GOMAXPROCS at partition time
		strategy: PartitionChunks,
	}
}

// WithBoundsCheck enables the checked fill path: InitStorage records each
// (thread, key) pair's end offset so PushChecked can reject writes past the
// committed budget. Costs one extra offset store per pair during
// materialization; the unchecked Push stays branch-free either way.
func WithBoundsCheck() Option {
	return func(c *config) {
		c.boundsCheck = true
	}
}

// WithScratch makes the builder budget and fill through caller-owned scratch
// tables so repeated builds reuse their allocations.
func WithScratch(s *Scratch) Option {
	return func(c *config) {
		c.scratch = s
	}
}

// WithThreads sets how many partitions BuildEntries splits its input into.
// Zero or negative means GOMAXPROCS.
func WithThreads(n int) Option {
	return func(c *config) {
		c.threads = n
	}
}

// WithPartitionStrategy sets how BuildEntries assigns entries to threads.
// Default is PartitionChunks.
func WithPartitionStrategy(s PartitionStrategy) Option {
	return func(c *config) {
		c.strategy = s
	}
}
