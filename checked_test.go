package groupdata

import (
	"errors"
	"slices"
	"testing"

	grouperrors "github.com/sparsekit/groupdata/errors"
)

// TestPushCheckedMatchesPush builds the same input through Push and
// PushChecked and expects identical layouts.
func TestPushCheckedMatchesPush(t *testing.T) {
	rng := newTestRNG(t)
	entries := makeRandomEntries(rng, 2000, 30)
	parts, err := Partition(entries, 3, PartitionChunks)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}

	plain := buildByThreadLoop(parts)

	b := NewBuilder[uint64](nil, WithBoundsCheck())
	b.InitBudget(0, len(parts))
	for thread, part := range parts {
		for _, e := range part {
			b.AddBudget(e.Key, thread)
		}
	}
	b.InitStorage()
	for thread, part := range parts {
		for _, e := range part {
			if err := b.PushChecked(e.Key, e.Value, thread); err != nil {
				t.Fatalf("PushChecked(%d, _, %d): %v", e.Key, thread, err)
			}
		}
	}

	checked := b.Layout()
	if !slices.Equal(checked.Offsets, plain.Offsets) {
		t.Errorf("Offsets diverge: got %v, want %v", checked.Offsets, plain.Offsets)
	}
	if !slices.Equal(checked.Values, plain.Values) {
		t.Errorf("Values diverge from the unchecked build")
	}
}

// TestPushCheckedViolations walks the guard chain one violation at a time.
func TestPushCheckedViolations(t *testing.T) {
	t.Run("checks_disabled", func(t *testing.T) {
		b := NewBuilder[uint64](nil)
		b.InitBudget(1, 1)
		b.AddBudget(0, 0)
		b.InitStorage()
		if err := b.PushChecked(0, 1, 0); !errors.Is(err, grouperrors.ErrChecksDisabled) {
			t.Fatalf("PushChecked: got %v, want ErrChecksDisabled", err)
		}
	})

	t.Run("not_materialized", func(t *testing.T) {
		b := NewBuilder[uint64](nil, WithBoundsCheck())
		if err := b.PushChecked(0, 1, 0); !errors.Is(err, grouperrors.ErrNotMaterialized) {
			t.Fatalf("before InitBudget: got %v, want ErrNotMaterialized", err)
		}
		b.InitBudget(1, 1)
		b.AddBudget(0, 0)
		if err := b.PushChecked(0, 1, 0); !errors.Is(err, grouperrors.ErrNotMaterialized) {
			t.Fatalf("before InitStorage: got %v, want ErrNotMaterialized", err)
		}
	})

	t.Run("thread_out_of_range", func(t *testing.T) {
		b := NewBuilder[uint64](nil, WithBoundsCheck())
		b.InitBudget(1, 2)
		b.AddBudget(0, 0)
		b.InitStorage()
		if err := b.PushChecked(0, 1, 2); !errors.Is(err, grouperrors.ErrThreadOutOfRange) {
			t.Fatalf("thread 2: got %v, want ErrThreadOutOfRange", err)
		}
		if err := b.PushChecked(0, 1, -1); !errors.Is(err, grouperrors.ErrThreadOutOfRange) {
			t.Fatalf("thread -1: got %v, want ErrThreadOutOfRange", err)
		}
	})

	t.Run("unbudgeted_key", func(t *testing.T) {
		b := NewBuilder[uint64](nil, WithBoundsCheck())
		b.InitBudget(0, 1)
		b.AddBudget(2, 0)
		b.InitStorage()
		if err := b.PushChecked(3, 1, 0); !errors.Is(err, grouperrors.ErrUnbudgetedKey) {
			t.Fatalf("key past tables: got %v, want ErrUnbudgetedKey", err)
		}
		if err := b.PushChecked(-1, 1, 0); !errors.Is(err, grouperrors.ErrUnbudgetedKey) {
			t.Fatalf("negative key: got %v, want ErrUnbudgetedKey", err)
		}
	})

	t.Run("budget_exceeded", func(t *testing.T) {
		b := NewBuilder[uint64](nil, WithBoundsCheck())
		b.InitBudget(2, 1)
		b.AddBudgetN(0, 0, 2)
		b.InitStorage()

		for i := range uint64(2) {
			if err := b.PushChecked(0, i, 0); err != nil {
				t.Fatalf("PushChecked %d: %v", i, err)
			}
		}
		if err := b.PushChecked(0, 9, 0); !errors.Is(err, grouperrors.ErrBudgetExceeded) {
			t.Fatalf("overrun: got %v, want ErrBudgetExceeded", err)
		}
		// Key 1 exists in the tables but was budgeted zero slots.
		if err := b.PushChecked(1, 9, 0); !errors.Is(err, grouperrors.ErrBudgetExceeded) {
			t.Fatalf("zero budget: got %v, want ErrBudgetExceeded", err)
		}

		// The rejects must not have clobbered anything.
		if got := b.Layout().Group(0); !slices.Equal(got, []uint64{0, 1}) {
			t.Fatalf("Group(0): got %v, want [0 1]", got)
		}
	})
}

// TestPushCheckedRejectsOldKeysInLaterCycle verifies that after a second
// materialization, pushing to a first-cycle key fails instead of folding
// data into the wrong range.
func TestPushCheckedRejectsOldKeysInLaterCycle(t *testing.T) {
	b := NewBuilder[uint64](nil, WithBoundsCheck())
	b.InitBudget(1, 1)
	b.AddBudget(0, 0)
	b.InitStorage()
	if err := b.PushChecked(0, 7, 0); err != nil {
		t.Fatalf("first cycle push: %v", err)
	}

	b.InitBudget(0, 1)
	b.AddBudget(1, 0)
	b.InitStorage()

	if err := b.PushChecked(0, 8, 0); !errors.Is(err, grouperrors.ErrBudgetExceeded) {
		t.Fatalf("old key in new cycle: got %v, want ErrBudgetExceeded", err)
	}
	if err := b.PushChecked(1, 8, 0); err != nil {
		t.Fatalf("new key in new cycle: %v", err)
	}
	if got := b.Layout().Group(0); !slices.Equal(got, []uint64{7}) {
		t.Fatalf("Group(0): got %v, want [7]", got)
	}
}

// TestRemaining tracks the per-pair countdown across pushes.
func TestRemaining(t *testing.T) {
	b := NewBuilder[uint64](nil, WithBoundsCheck())

	if _, err := b.Remaining(0, 0); !errors.Is(err, grouperrors.ErrNotMaterialized) {
		t.Fatalf("unmaterialized: got %v, want ErrNotMaterialized", err)
	}

	b.InitBudget(1, 2)
	b.AddBudgetN(0, 0, 3)
	b.AddBudget(0, 1)
	b.InitStorage()

	if got, err := b.Remaining(0, 0); err != nil || got != 3 {
		t.Fatalf("Remaining(0,0): got %d, %v; want 3", got, err)
	}
	if err := b.PushChecked(0, 1, 0); err != nil {
		t.Fatalf("PushChecked: %v", err)
	}
	if got, err := b.Remaining(0, 0); err != nil || got != 2 {
		t.Fatalf("after one push: got %d, %v; want 2", got, err)
	}
	if got, err := b.Remaining(0, 1); err != nil || got != 1 {
		t.Fatalf("Remaining(0,1): got %d, %v; want 1", got, err)
	}

	if _, err := b.Remaining(0, 5); !errors.Is(err, grouperrors.ErrThreadOutOfRange) {
		t.Fatalf("bad thread: got %v, want ErrThreadOutOfRange", err)
	}
	if _, err := b.Remaining(4, 0); !errors.Is(err, grouperrors.ErrUnbudgetedKey) {
		t.Fatalf("bad key: got %v, want ErrUnbudgetedKey", err)
	}

	bPlain := NewBuilder[uint64](nil)
	if _, err := bPlain.Remaining(0, 0); !errors.Is(err, grouperrors.ErrChecksDisabled) {
		t.Fatalf("plain builder: got %v, want ErrChecksDisabled", err)
	}
}
