package kizuna

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// polymorphism maps a component or interface key to the interface keys it
// also answers to. Keys live in RoleComponent.
var polymorphism = struct {
	sync.RWMutex
	bases map[TypeKey][]TypeKey
}{bases: make(map[TypeKey][]TypeKey)}

var componentInterface = reflect.TypeFor[Component]()

// RegisterPolymorphism makes components of type Derived reachable under the
// key of the interface Base as well as their own. Queries on
// ComponentKey[Base]() then match entities carrying a Derived, and
// ComponentAs[Base] returns it.
//
// An entity holds at most one component per base key, so two component
// types sharing a base are mutually exclusive on one entity.
//
// Derived is either a component struct whose pointer implements Base, or an
// interface that embeds Base, which chains: after
//
//	kizuna.RegisterPolymorphism[Sprite, Drawable]()
//	kizuna.RegisterPolymorphism[Drawable, Visual]()
//
// a Sprite also answers to Visual. Register before attaching components of
// Derived; components already attached keep the keys they were attached
// with.
func RegisterPolymorphism[Derived, Base any]() error {
	dt, bt := reflect.TypeFor[Derived](), reflect.TypeFor[Base]()
	if bt.Kind() != reflect.Interface || bt == componentInterface {
		return fmt.Errorf("polymorphism %s -> %s: base must be an interface other than Component: %w",
			dt, bt, ErrInvalidOperation)
	}
	impl := dt
	if dt.Kind() != reflect.Interface {
		impl = reflect.PointerTo(dt)
	}
	if dt == bt || !impl.Implements(bt) {
		return fmt.Errorf("polymorphism %s -> %s: %s does not implement %s: %w",
			dt, bt, impl, bt, ErrInvalidOperation)
	}
	d, b := ComponentKey[Derived](), ComponentKey[Base]()

	polymorphism.Lock()
	defer polymorphism.Unlock()
	if slices.Contains(polymorphism.bases[d], b) {
		return fmt.Errorf("polymorphism %s -> %s: %w", dt, bt, ErrAlreadyExists)
	}
	polymorphism.bases[d] = append(polymorphism.bases[d], b)
	return nil
}

// BaseKeys returns every interface key that components with key answer to,
// following chains, nearest first.
func BaseKeys(key TypeKey) []TypeKey {
	polymorphism.RLock()
	defer polymorphism.RUnlock()
	if len(polymorphism.bases[key]) == 0 {
		return nil
	}
	var out []TypeKey
	queue := []TypeKey{key}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, b := range polymorphism.bases[cur] {
			if b == key || slices.Contains(out, b) {
				continue
			}
			out = append(out, b)
			queue = append(queue, b)
		}
	}
	return out
}

// ComponentAs returns the component of e registered under the interface B.
func ComponentAs[B any](e *Entity) (B, bool) {
	var zero B
	key, ok := lookupComponentKey[B]()
	if !ok {
		return zero, false
	}
	b, ok := e.component(key).(B)
	if !ok {
		return zero, false
	}
	return b, true
}
