package groupdata

import (
	"fmt"

	"github.com/gholt/brimtext"
)

// Stats describes a builder's current shape. The exported fields are always
// populated; the group-distribution fields are only gathered when Stats is
// called with debug true, since they require a scan of the boundary.
type Stats struct {
	// Phase is the builder's current phase: empty, budgeting, or
	// materialized.
	Phase string
	// Groups is the number of groups in the layout.
	Groups int
	// Values is the total number of values across all groups.
	Values int
	// Threads is the thread count set by the last InitBudget.
	Threads int

	statsDebug   bool
	tableSlots   uint64
	lastAdded    uint64
	threadTotals []uint64
	emptyGroups  int
	maxGroupLen  uint64
	meanGroupLen float64
}

// Stats returns a snapshot of the builder. Must not run concurrently with
// the budgeting or fill phases. With debug true it additionally scans the
// boundary for the group length distribution and reports per-thread totals
// from the last materialization.
func (b *Builder[V]) Stats(debug bool) *Stats {
	s := &Stats{
		Phase:      b.phase.String(),
		Groups:     b.layout.NumGroups(),
		Values:     b.layout.Len(),
		Threads:    len(b.scratch.tables),
		statsDebug: debug,
		lastAdded:  b.lastAdded,
	}
	for i := range b.scratch.tables {
		s.tableSlots += uint64(len(b.scratch.tables[i].slots))
	}
	if debug {
		s.threadTotals = append([]uint64(nil), b.threadTotals...)
		offsets := b.layout.Offsets
		for k := 0; k+1 < len(offsets); k++ {
			n := offsets[k+1] - offsets[k]
			if n == 0 {
				s.emptyGroups++
			}
			s.maxGroupLen = max(s.maxGroupLen, n)
		}
		if s.Groups > 0 {
			s.meanGroupLen = float64(s.Values) / float64(s.Groups)
		}
	}
	return s
}

func (s *Stats) String() string {
	report := [][]string{
		{"Phase", s.Phase},
		{"Groups", fmt.Sprintf("%d", s.Groups)},
		{"Values", fmt.Sprintf("%d", s.Values)},
		{"Threads", fmt.Sprintf("%d", s.Threads)},
	}
	if s.statsDebug {
		threadTotals := ""
		for i, n := range s.threadTotals {
			if i > 0 {
				threadTotals += " "
			}
			threadTotals += fmt.Sprintf("%d", n)
		}
		report = append(report, [][]string{
			{"tableSlots", fmt.Sprintf("%d", s.tableSlots)},
			{"lastAdded", fmt.Sprintf("%d", s.lastAdded)},
			{"threadTotals", threadTotals},
			{"emptyGroups", fmt.Sprintf("%d %.1f%%", s.emptyGroups, 100*float64(s.emptyGroups)/float64(max(s.Groups, 1)))},
			{"maxGroupLen", fmt.Sprintf("%d", s.maxGroupLen)},
			{"meanGroupLen", fmt.Sprintf("%.2f", s.meanGroupLen)},
		}...)
	}
	return brimtext.Align(report, nil)
}
