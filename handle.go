package kizuna

import (
	"fmt"
	"math"
)

// HandleID identifies a slot in a HandleTable. The low 32 bits hold the slot
// index and the high 32 bits hold the slot generation at the time the id was
// issued. Generations start at 1, so the zero value never resolves.
type HandleID uint64

// NullID never refers to a live object.
const NullID HandleID = math.MaxUint64

func makeHandleID(index, generation uint32) HandleID {
	return HandleID(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index part of the id.
func (id HandleID) Index() uint32 {
	return uint32(id)
}

// Generation returns the generation part of the id.
func (id HandleID) Generation() uint32 {
	return uint32(id >> 32)
}

// IsNull reports whether id is NullID or the zero value.
func (id HandleID) IsNull() bool {
	return id == NullID || id == 0
}

func (id HandleID) String() string {
	if id.IsNull() {
		return "HandleID(null)"
	}
	return fmt.Sprintf("HandleID(%d:%d)", id.Index(), id.Generation())
}

// handleSlot stores where a registered object currently lives.
type handleSlot[T any] struct {
	object     *T
	generation uint32 // generation of the current (or next) occupant
	live       bool
	retired    bool // generation space exhausted, never reused
}

// HandleTable maps HandleIDs to the current address of their object. It
// never owns the objects; it only answers whether they still exist and where
// they are. Objects may be moved with Relocate without invalidating ids.
//
// A HandleTable is not safe for concurrent use.
type HandleTable[T any] struct {
	slots   []handleSlot[T]
	freeIDs []uint32 // stack of reusable slot indexes
	live    int
	retire  bool // never reuse slots
}

// NewHandleTable creates a table with room for capacity objects before it
// grows.
func NewHandleTable[T any](capacity int) *HandleTable[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &HandleTable[T]{
		slots:   make([]handleSlot[T], 0, capacity),
		freeIDs: make([]uint32, 0, capacity),
	}
}

// NullID returns the id that never resolves.
func (t *HandleTable[T]) NullID() HandleID {
	return NullID
}

// Register stores obj and returns a new id for it. Freed slots are reused
// with a bumped generation, so ids issued for a previous occupant keep
// failing to resolve.
func (t *HandleTable[T]) Register(obj *T) HandleID {
	if obj == nil {
		panic("kizuna: cannot register nil object")
	}
	var index uint32
	if n := len(t.freeIDs); n > 0 && !t.retire {
		index = t.freeIDs[n-1]
		t.freeIDs = t.freeIDs[:n-1]
	} else {
		if uint64(len(t.slots)) >= math.MaxUint32 {
			panic("kizuna: handle table exhausted")
		}
		index = uint32(len(t.slots))
		t.slots = append(t.slots, handleSlot[T]{generation: 1})
	}
	slot := &t.slots[index]
	slot.object = obj
	slot.live = true
	t.live++
	return makeHandleID(index, slot.generation)
}

// slot returns the live slot id refers to, or nil.
func (t *HandleTable[T]) slot(id HandleID) *handleSlot[T] {
	if id.IsNull() {
		return nil
	}
	index := id.Index()
	if int(index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[index]
	if !s.live || s.generation != id.Generation() {
		return nil
	}
	return s
}

// Contains reports whether id still refers to a registered object.
func (t *HandleTable[T]) Contains(id HandleID) bool {
	return t.slot(id) != nil
}

// Resolve returns the object id refers to, or ErrNotFound if it was
// invalidated or never issued by this table.
func (t *HandleTable[T]) Resolve(id HandleID) (*T, error) {
	s := t.slot(id)
	if s == nil {
		return nil, fmt.Errorf("resolve %s: %w", id, ErrNotFound)
	}
	return s.object, nil
}

// Relocate points id at obj. Outstanding ids keep resolving, now to obj.
func (t *HandleTable[T]) Relocate(id HandleID, obj *T) error {
	if obj == nil {
		return fmt.Errorf("relocate %s to nil: %w", id, ErrInvalidOperation)
	}
	s := t.slot(id)
	if s == nil {
		return fmt.Errorf("relocate %s: %w", id, ErrNotFound)
	}
	s.object = obj
	return nil
}

// Invalidate drops id. It returns false if id was already stale.
func (t *HandleTable[T]) Invalidate(id HandleID) bool {
	s := t.slot(id)
	if s == nil {
		return false
	}
	s.object = nil
	s.live = false
	t.live--
	if s.generation == math.MaxUint32 {
		s.retired = true
		return true
	}
	s.generation++
	if !t.retire {
		t.freeIDs = append(t.freeIDs, id.Index())
	}
	return true
}

// Len returns the number of live objects.
func (t *HandleTable[T]) Len() int {
	return t.live
}

// Handle is a non-owning reference to an object in a HandleTable.
type Handle[T any] struct {
	id    HandleID
	table *HandleTable[T]
}

// NullHandle returns a handle that never resolves.
func NullHandle[T any]() Handle[T] {
	return Handle[T]{id: NullID}
}

// HandleOf binds id to table.
func (t *HandleTable[T]) HandleOf(id HandleID) Handle[T] {
	return Handle[T]{id: id, table: t}
}

// ID returns the id the handle carries.
func (h Handle[T]) ID() HandleID {
	return h.id
}

// IsNull reports whether the handle carries the null id.
func (h Handle[T]) IsNull() bool {
	return h.table == nil || h.id.IsNull()
}

// IsValid reports whether the referent still exists.
func (h Handle[T]) IsValid() bool {
	return h.table != nil && h.table.Contains(h.id)
}

// Resolve returns the referent or ErrNotFound.
func (h Handle[T]) Resolve() (*T, error) {
	if h.table == nil {
		return nil, fmt.Errorf("resolve %s: %w", h.id, ErrNotFound)
	}
	return h.table.Resolve(h.id)
}

func (h Handle[T]) String() string {
	return h.id.String()
}
