package kizuna

import (
	"fmt"
	"reflect"
)

// Resources holds singletons shared by the systems of one manager (a clock,
// an input snapshot, asset caches), at most one per concrete type. Slots are
// reused through a free list, so ids stay small.
type Resources struct {
	items   []any
	types   map[reflect.Type]int
	freeIDs []int
}

// Add stores res and returns its id. A nil resource fails with
// ErrInvalidOperation and a second resource of the same type with
// ErrAlreadyExists.
func (r *Resources) Add(res any) (int, error) {
	if res == nil {
		return -1, fmt.Errorf("add nil resource: %w", ErrInvalidOperation)
	}
	t := reflect.TypeOf(res)
	if r.types == nil {
		r.types = make(map[reflect.Type]int)
	}
	if _, ok := r.types[t]; ok {
		return -1, fmt.Errorf("add resource %s: %w", t, ErrAlreadyExists)
	}
	var id int
	if n := len(r.freeIDs); n > 0 {
		id = r.freeIDs[n-1]
		r.freeIDs = r.freeIDs[:n-1]
		r.items[id] = res
	} else {
		r.items = append(r.items, res)
		id = len(r.items) - 1
	}
	r.types[t] = id
	return id, nil
}

// Has reports whether id holds a resource.
func (r *Resources) Has(id int) bool {
	return id >= 0 && id < len(r.items) && r.items[id] != nil
}

// Get returns the resource stored under id, or nil.
func (r *Resources) Get(id int) any {
	if !r.Has(id) {
		return nil
	}
	return r.items[id]
}

// Remove drops the resource stored under id. Unknown ids are ignored.
func (r *Resources) Remove(id int) {
	if !r.Has(id) {
		return
	}
	delete(r.types, reflect.TypeOf(r.items[id]))
	r.items[id] = nil
	r.freeIDs = append(r.freeIDs, id)
}

// Len returns the number of stored resources.
func (r *Resources) Len() int {
	return len(r.types)
}

// Clear removes every resource.
func (r *Resources) Clear() {
	clear(r.items)
	r.items = r.items[:0]
	clear(r.types)
	r.freeIDs = r.freeIDs[:0]
}

// HasResource reports whether a *T is stored and returns its id, or -1.
func HasResource[T any](r *Resources) (bool, int) {
	if id, ok := r.types[reflect.TypeFor[*T]()]; ok {
		return true, id
	}
	return false, -1
}

// GetResource returns the stored *T and its id, or nil and -1.
func GetResource[T any](r *Resources) (*T, int) {
	if id, ok := r.types[reflect.TypeFor[*T]()]; ok {
		return r.items[id].(*T), id
	}
	return nil, -1
}

// LookupResource returns the stored *T or ErrNotFound.
func LookupResource[T any](r *Resources) (*T, error) {
	res, id := GetResource[T](r)
	if id < 0 {
		return nil, fmt.Errorf("resource %s: %w", reflect.TypeFor[*T](), ErrNotFound)
	}
	return res, nil
}
