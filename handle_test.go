package kizuna

import (
	"errors"
	"math"
	"testing"
)

type box struct{ v int }

// go test -run ^TestHandleTable$ . -count 1
func TestHandleTable(t *testing.T) {
	t.Run("register and resolve", func(t *testing.T) {
		tbl := NewHandleTable[box](4)
		a, b := &box{1}, &box{2}
		ida, idb := tbl.Register(a), tbl.Register(b)
		if ida == idb {
			t.Fatal("expected distinct ids")
		}
		got, err := tbl.Resolve(ida)
		if err != nil || got != a {
			t.Errorf("Resolve(a) = %v, %v", got, err)
		}
		if ida.Generation() != 1 {
			t.Errorf("expected first generation 1, got %d", ida.Generation())
		}
		if tbl.Len() != 2 {
			t.Errorf("expected 2 live, got %d", tbl.Len())
		}
	})

	t.Run("null and zero never resolve", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		tbl.Register(&box{})
		for _, id := range []HandleID{NullID, tbl.NullID(), 0, makeHandleID(7, 1)} {
			if _, err := tbl.Resolve(id); !errors.Is(err, ErrNotFound) {
				t.Errorf("Resolve(%s): expected ErrNotFound, got %v", id, err)
			}
		}
		if !NullID.IsNull() || !HandleID(0).IsNull() {
			t.Error("expected null ids to report IsNull")
		}
	})

	t.Run("invalidate", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		id := tbl.Register(&box{})
		if !tbl.Invalidate(id) {
			t.Fatal("expected first Invalidate to succeed")
		}
		if tbl.Invalidate(id) {
			t.Error("expected second Invalidate to report false")
		}
		if _, err := tbl.Resolve(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if tbl.Len() != 0 {
			t.Errorf("expected 0 live, got %d", tbl.Len())
		}
	})

	t.Run("reuse bumps generation", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		old := tbl.Register(&box{1})
		tbl.Invalidate(old)
		fresh := tbl.Register(&box{2})
		if fresh.Index() != old.Index() {
			t.Fatalf("expected slot %d reused, got %d", old.Index(), fresh.Index())
		}
		if fresh.Generation() != old.Generation()+1 {
			t.Errorf("expected generation %d, got %d", old.Generation()+1, fresh.Generation())
		}
		if _, err := tbl.Resolve(old); !errors.Is(err, ErrNotFound) {
			t.Errorf("stale id resolved: %v", err)
		}
		if b, _ := tbl.Resolve(fresh); b.v != 2 {
			t.Errorf("expected new occupant, got %v", b)
		}
	})

	t.Run("retire never reuses", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		tbl.retire = true
		old := tbl.Register(&box{})
		tbl.Invalidate(old)
		fresh := tbl.Register(&box{})
		if fresh.Index() == old.Index() {
			t.Error("expected a new slot with retirement enabled")
		}
	})

	t.Run("exhausted generation retires slot", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		id := tbl.Register(&box{})
		tbl.slots[id.Index()].generation = math.MaxUint32
		last := makeHandleID(id.Index(), math.MaxUint32)
		if !tbl.Invalidate(last) {
			t.Fatal("expected invalidate at max generation")
		}
		if !tbl.slots[id.Index()].retired {
			t.Error("expected slot to be retired")
		}
		next := tbl.Register(&box{})
		if next.Index() == id.Index() {
			t.Error("retired slot was reused")
		}
	})

	t.Run("relocate keeps ids", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		id := tbl.Register(&box{1})
		h := tbl.HandleOf(id)
		moved := &box{1}
		if err := tbl.Relocate(id, moved); err != nil {
			t.Fatal(err)
		}
		got, err := h.Resolve()
		if err != nil || got != moved {
			t.Errorf("expected relocated object, got %p, %v", got, err)
		}
		tbl.Invalidate(id)
		if err := tbl.Relocate(id, moved); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound relocating stale id, got %v", err)
		}
		if err := tbl.Relocate(id, nil); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation for nil, got %v", err)
		}
	})

	t.Run("handles", func(t *testing.T) {
		tbl := NewHandleTable[box](0)
		h := tbl.HandleOf(tbl.Register(&box{}))
		if !h.IsValid() || h.IsNull() {
			t.Error("expected valid handle")
		}
		tbl.Invalidate(h.ID())
		if h.IsValid() {
			t.Error("expected invalid handle after invalidate")
		}
		n := NullHandle[box]()
		if !n.IsNull() || n.IsValid() {
			t.Error("expected null handle")
		}
		if _, err := n.Resolve(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("register nil panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewHandleTable[box](0).Register(nil)
	})
}

// go test -run ^TestHandleIDString$ . -count 1
func TestHandleIDString(t *testing.T) {
	if got := makeHandleID(3, 2).String(); got != "HandleID(3:2)" {
		t.Errorf("unexpected %q", got)
	}
	if got := NullID.String(); got != "HandleID(null)" {
		t.Errorf("unexpected %q", got)
	}
}

func BenchmarkHandleResolve(b *testing.B) {
	tbl := NewHandleTable[box](1024)
	ids := make([]HandleID, 1024)
	for i := range ids {
		ids[i] = tbl.Register(&box{i})
	}
	b.ReportAllocs()
	i := 0
	for b.Loop() {
		tbl.Resolve(ids[i&1023])
		i++
	}
}
