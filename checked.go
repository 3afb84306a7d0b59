package groupdata

import (
	grouperrors "github.com/sparsekit/groupdata/errors"
)

// PushChecked is Push with the caller contract validated. It verifies that
// storage is materialized, that thread and key are in range for this
// builder, and that the thread still has budgeted slots left for the key.
// On a violation it returns a sentinel from the errors package and leaves
// the layout and cursors untouched, so the surrounding build can stop
// cleanly without corrupting neighboring groups.
//
// The builder must have been created WithBoundsCheck; otherwise
// ErrChecksDisabled, since the per-pair end offsets are only recorded when
// the option is set.
func (b *Builder[V]) PushChecked(key int, value V, thread int) error {
	if !b.checked {
		return grouperrors.ErrChecksDisabled
	}
	if b.phase != phaseMaterialized {
		return grouperrors.ErrNotMaterialized
	}
	if thread < 0 || thread >= len(b.scratch.tables) {
		return grouperrors.ErrThreadOutOfRange
	}
	t := &b.scratch.tables[thread]
	if key < 0 || key >= len(t.slots) {
		return grouperrors.ErrUnbudgetedKey
	}
	cur := t.slots[key]
	if cur >= b.limits[thread][key] {
		return grouperrors.ErrBudgetExceeded
	}
	b.layout.Values[cur] = value
	t.slots[key] = cur + 1
	return nil
}

// Remaining reports how many budgeted slots thread still has for key, or an
// error under the same conditions as PushChecked. Useful in tests and when
// draining a partially filled build.
func (b *Builder[V]) Remaining(key, thread int) (uint64, error) {
	if !b.checked {
		return 0, grouperrors.ErrChecksDisabled
	}
	if b.phase != phaseMaterialized {
		return 0, grouperrors.ErrNotMaterialized
	}
	if thread < 0 || thread >= len(b.scratch.tables) {
		return 0, grouperrors.ErrThreadOutOfRange
	}
	t := &b.scratch.tables[thread]
	if key < 0 || key >= len(t.slots) {
		return 0, grouperrors.ErrUnbudgetedKey
	}
	return b.limits[thread][key] - t.slots[key], nil
}

// ensureLimits sizes the per-thread limit tables to mirror the budget
// tables. Called from InitStorage before the scan fills them.
func (b *Builder[V]) ensureLimits() {
	tables := b.scratch.tables
	if cap(b.limits) < len(tables) {
		grown := make([][]uint64, len(tables))
		copy(grown, b.limits)
		b.limits = grown
	}
	b.limits = b.limits[:len(tables)]
	for t := range tables {
		b.limits[t] = resize(b.limits[t][:0], len(tables[t].slots))
	}
}
