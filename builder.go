package groupdata

// threadTable is one thread's per-key slot table. During budgeting each slot
// counts how many values the thread will contribute for that key; after
// materialization the same slot holds the thread's next write position for
// that key. The struct is padded out to 128 bytes so adjacent threads' table
// headers never share a cache line (cache line size varies; we over-pad).
type threadTable struct {
	slots []uint64
	_     [tablePad]byte
}

// tablePad fills a threadTable out to 128 bytes past the 24-byte slice header.
const tablePad = 128 - 24

// buildPhase tracks where a builder is in its build cycle. The unchecked hot
// paths never consult it; it exists for the checked paths and Stats.
type buildPhase uint8

const (
	phaseEmpty buildPhase = iota
	phaseBudgeting
	phaseMaterialized
)

// String returns the phase name.
func (p buildPhase) String() string {
	switch p {
	case phaseEmpty:
		return "empty"
	case phaseBudgeting:
		return "budgeting"
	case phaseMaterialized:
		return "materialized"
	default:
		return "unknown"
	}
}

// Builder assembles a grouped Layout from an unordered stream of (key, value)
// pairs in four caller-driven phases:
//
//  1. InitBudget allocates one counting table per thread.
//  2. AddBudget tallies, per thread and without locks, how many values that
//     thread will contribute to each key.
//  3. InitStorage converts the tallies into global offsets in one forward
//     scan and reserves layout space. The budget tables become write cursors
//     in place.
//  4. Push writes each value at its thread's cursor and advances the cursor.
//
// AddBudget and Push are safe to call concurrently from different threads as
// long as every caller passes its own thread id: each (thread, key) pair owns
// a disjoint range of the layout, so no locks, atomics, or barriers are
// needed beyond the caller's fork/join between phases. InitBudget and
// InitStorage must run with no concurrent callers.
//
// The result reads as if the values had been grouped sequentially: within a
// key, values appear in thread-index order, and within one (key, thread)
// pair, in push order.
//
// The default paths perform no validation. A thread pushing more values than
// it budgeted for a key silently corrupts the neighboring groups; see
// WithBoundsCheck and PushChecked for the checked variant.
//
// Usage (threads managed by the caller):
//
//	b := groupdata.NewBuilder[float64](nil)
//	b.InitBudget(nkeys, nthread)
//	parallelFor(nthread, func(t int) {        // barrier after this
//	    for _, e := range part[t] { b.AddBudget(e.Key, t) }
//	})
//	b.InitStorage()                           // single-threaded
//	parallelFor(nthread, func(t int) {
//	    for _, e := range part[t] { b.Push(e.Key, e.Value, t) }
//	})
//	layout := b.Layout()
type Builder[V any] struct {
	layout  *Layout[V]
	scratch *Scratch
	phase   buildPhase

	checked bool
	limits  [][]uint64 // per thread, per key: end offset; only when checked

	threadTotals []uint64 // per-thread value totals from the last InitStorage
	lastAdded    uint64   // values reserved by the last InitStorage
}

// NewBuilder returns a Builder that materializes into layout. A nil layout
// allocates a fresh one, retrievable via Layout. A layout carrying data from
// an earlier build is extended in place: new groups land after the existing
// data, so one layout can accumulate groups across several
// budget/materialize/fill cycles.
func NewBuilder[V any](layout *Layout[V], opts ...Option) *Builder[V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if layout == nil {
		layout = &Layout[V]{}
	}
	scratch := cfg.scratch
	if scratch == nil {
		scratch = &Scratch{}
	}
	return &Builder[V]{
		layout:  layout,
		scratch: scratch,
		checked: cfg.boundsCheck,
	}
}

// Layout returns the layout this builder materializes into.
func (b *Builder[V]) Layout() *Layout[V] { return b.layout }

// NumThreads returns the thread count set by the last InitBudget.
func (b *Builder[V]) NumThreads() int { return len(b.scratch.tables) }

// InitBudget allocates nthread counting tables of nkeys zeroed slots each,
// discarding any uncommitted budgets from a previous cycle. Zero is valid
// for both arguments: nkeys is only a hint, since tables grow on demand as
// AddBudget sees larger keys. Table capacity is reused across cycles.
func (b *Builder[V]) InitBudget(nkeys, nthread int) {
	b.scratch.reset(nkeys, nthread)
	b.phase = phaseBudgeting
}

// AddBudget records that thread will contribute one value for key. Threads
// may call it concurrently, each with its own thread id; no synchronization
// is performed because a thread only ever touches its own table.
func (b *Builder[V]) AddBudget(key, thread int) {
	b.AddBudgetN(key, thread, 1)
}

// AddBudgetN records that thread will contribute n further values for key,
// growing the thread's table if key is beyond its current size. Budgets are
// unbounded counters; n == 0 is a valid no-op tally. The budgets committed
// for a (key, thread) pair must sum to exactly the number of Push calls that
// pair makes after materialization.
func (b *Builder[V]) AddBudgetN(key, thread int, n uint64) {
	t := &b.scratch.tables[thread]
	if key >= len(t.slots) {
		t.slots = resize(t.slots, key+1)
	}
	t.slots[key] += n
}

// InitStorage converts the committed budgets into the final grouped offsets.
// Single-threaded: the caller's barrier must guarantee every AddBudget call
// has finished before this runs, and that this returns before any Push.
//
// One forward scan assigns each (key, thread) pair the running total of all
// slots reserved before it, keys outermost and threads in index order within
// a key. The assignment lands in the budget tables themselves, so after this
// call each table slot holds the thread's next write position instead of a
// count and the fill phase needs no extra bookkeeping. The boundary is first
// extended to cover the largest budgeted key, new entries starting at the
// previous total, and the values array grows to the new total with prior
// contents preserved.
//
// Calling InitStorage again with fresh budgets starts the next build cycle.
// Later cycles must budget only keys at or past the current group count;
// re-budgeting an existing key folds the neighboring groups' data into the
// wrong ranges, the same silent corruption as an overrun Push.
func (b *Builder[V]) InitStorage() {
	tables := b.scratch.tables

	maxKeys := 0
	for i := range tables {
		maxKeys = max(maxKeys, len(tables[i].slots))
	}

	offsets := b.layout.Offsets
	if len(offsets) == 0 {
		offsets = append(offsets, 0)
	}
	// The last boundary entry is the running total of all prior cycles; new
	// boundary entries and this cycle's cursors start from it.
	base := offsets[len(offsets)-1]
	for len(offsets) < maxKeys+1 {
		offsets = append(offsets, base)
	}

	if b.checked {
		b.ensureLimits()
	}
	b.threadTotals = resize(b.threadTotals[:0], len(tables))

	var count uint64
	for key := 0; key+1 < len(offsets); key++ {
		for t := range tables {
			slots := tables[t].slots
			if key < len(slots) {
				n := slots[key]
				cur := base + count
				slots[key] = cur // the count becomes this thread's write cursor
				if b.checked {
					b.limits[t][key] = cur + n
				}
				b.threadTotals[t] += n
				count += n
			}
		}
		offsets[key+1] += count
	}

	b.layout.Offsets = offsets
	b.layout.Values = resize(b.layout.Values, int(offsets[len(offsets)-1]))
	b.lastAdded = count
	b.phase = phaseMaterialized
}

// Push writes value into the slot reserved for thread's next contribution to
// key and advances the cursor. Safe for concurrent use across distinct
// thread ids: the ranges assigned by InitStorage are disjoint across threads
// for the same key and across keys entirely.
//
// No bounds are checked. Pushing past the committed budget overwrites the
// next thread's or next key's region.
func (b *Builder[V]) Push(key int, value V, thread int) {
	t := &b.scratch.tables[thread]
	cur := t.slots[key]
	b.layout.Values[cur] = value
	t.slots[key] = cur + 1
}

// resize returns s with length n and vector-resize semantics: the prefix is
// preserved, growth is zero-filled (including reused capacity, which may
// hold stale values from an earlier cycle), shrinking re-slices in place.
func resize[T any](s []T, n int) []T {
	if n <= len(s) {
		return s[:n]
	}
	if n <= cap(s) {
		old := len(s)
		s = s[:n]
		clear(s[old:])
		return s
	}
	out := make([]T, n)
	copy(out, s)
	return out
}
