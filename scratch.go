package groupdata

// Scratch holds the per-thread budget tables a Builder works through.
// Builders allocate one internally by default; passing the same Scratch to
// successive builders via WithScratch reuses the table allocations, which
// matters when many layouts are built in a loop (one scratch, one builder
// per input page). The zero value is ready to use.
//
// A Scratch must not be shared by two builders whose build cycles overlap.
// Like Push itself, this is a caller contract the library does not check.
type Scratch struct {
	tables []threadTable
}

// reset prepares nthread tables of nkeys zeroed slots, reusing capacity from
// earlier cycles where possible.
func (s *Scratch) reset(nkeys, nthread int) {
	if cap(s.tables) < nthread {
		grown := make([]threadTable, nthread)
		copy(grown, s.tables) // keep the existing slot capacity
		s.tables = grown
	}
	s.tables = s.tables[:nthread]
	for i := range s.tables {
		s.tables[i].slots = resize(s.tables[i].slots[:0], nkeys)
	}
}
