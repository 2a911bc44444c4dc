package kizuna

import (
	"fmt"
	"reflect"
	"time"
)

// ComponentBase links a component to its owning entity. Embed it in every
// component struct; the pointer to that struct then satisfies Component.
//
//	type Position struct {
//	    kizuna.ComponentBase
//	    X, Y float64
//	}
type ComponentBase struct {
	owner *Entity
	self  Component
	id    HandleID
	key   TypeKey
}

func (c *ComponentBase) componentBase() *ComponentBase {
	return c
}

// Entity returns the owning entity, or nil once the component has been
// destroyed.
func (c *ComponentBase) Entity() *Entity {
	return c.owner
}

// TypeKey returns the component key of the concrete component type.
func (c *ComponentBase) TypeKey() TypeKey {
	return c.key
}

// ID returns the handle id of the component.
func (c *ComponentBase) ID() HandleID {
	return c.id
}

// Component is implemented by pointers to structs that embed ComponentBase.
// Components are owned by exactly one Entity and are only created through
// AddComponent or SetComponent.
type Component interface {
	componentBase() *ComponentBase
}

// Attacher is implemented by components that want to run code right after
// being attached.
type Attacher interface {
	OnAttach()
}

// Destroyer is implemented by components that want to run code when they are
// destroyed at a synchronization point.
type Destroyer interface {
	OnDestroy()
}

// Updater is implemented by components that advance with frame time. See
// EntityManager.UpdateComponents.
type Updater interface {
	Update(dt time.Duration)
}

// lookupComponentKey returns the key of T without allocating one.
func lookupComponentKey[T any]() (TypeKey, bool) {
	return KeyOfType(RoleComponent, reflect.TypeFor[T]())
}

// AddComponent attaches value to e as a new component and returns the
// attached copy. It fails with ErrAlreadyExists if e already has a component
// of type T, or one holding a base key of T (see RegisterPolymorphism),
// leaving e unchanged, and with ErrInvalidOperation if e is being removed.
func AddComponent[T any, PT interface {
	*T
	Component
}](e *Entity, value T) (PT, error) {
	if err := e.checkMutable("add component"); err != nil {
		return nil, err
	}
	key := ComponentKey[T]()
	if e.mask.containsBit(key) {
		return nil, fmt.Errorf("add %s to %s: %w", TypeName(RoleComponent, key), e.id, ErrAlreadyExists)
	}
	if err := e.checkBases(key); err != nil {
		return nil, err
	}
	p := PT(&value)
	e.manager.attach(e, key, p)
	return p, nil
}

// SetComponent attaches value to e, or replaces the existing component of
// type T. Handles to a replaced component keep resolving, now to the new
// value. Replacing does not change the component set, so it posts no
// ComponentsChangedEvent.
func SetComponent[T any, PT interface {
	*T
	Component
}](e *Entity, value T) (PT, error) {
	if err := e.checkMutable("set component"); err != nil {
		return nil, err
	}
	key := ComponentKey[T]()
	old := e.component(key)
	if old == nil {
		if err := e.checkBases(key); err != nil {
			return nil, err
		}
		p := PT(&value)
		e.manager.attach(e, key, p)
		return p, nil
	}
	p := PT(&value)
	if err := e.manager.replace(e, key, old, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetComponent returns the component of type T attached to e, or nil.
func GetComponent[T any, PT interface {
	*T
	Component
}](e *Entity) PT {
	key, ok := lookupComponentKey[T]()
	if !ok {
		return nil
	}
	c := e.component(key)
	if c == nil {
		return nil
	}
	return c.(PT)
}

// HasComponent reports whether e has a component of type T.
func HasComponent[T any](e *Entity) bool {
	key, ok := lookupComponentKey[T]()
	return ok && e.mask.containsBit(key)
}

// RemoveComponent detaches the component of type T from e. The component is
// destroyed at the next synchronization point. It returns false, and posts
// nothing, if e has no such component or is being removed.
func RemoveComponent[T any](e *Entity) bool {
	key, ok := lookupComponentKey[T]()
	if !ok {
		return false
	}
	return e.RemoveComponentKey(key)
}

// ComponentHandle is a non-owning reference to a component of type T.
type ComponentHandle[T any] struct {
	id    HandleID
	table *HandleTable[ComponentBase]
}

// HandleOfComponent returns a handle to c. A detached-and-destroyed or never
// attached component yields a handle that does not resolve.
func HandleOfComponent[T any, PT interface {
	*T
	Component
}](c PT) ComponentHandle[T] {
	if c == nil {
		return ComponentHandle[T]{id: NullID}
	}
	b := c.componentBase()
	if b.owner == nil {
		return ComponentHandle[T]{id: NullID}
	}
	return ComponentHandle[T]{id: b.id, table: b.owner.manager.components}
}

// ComponentHandleOf returns a handle to the component of type T on e.
func ComponentHandleOf[T any, PT interface {
	*T
	Component
}](e *Entity) (ComponentHandle[T], error) {
	c := GetComponent[T, PT](e)
	if c == nil {
		var zero T
		return ComponentHandle[T]{id: NullID}, fmt.Errorf("%T on %s: %w", zero, e.id, ErrNotFound)
	}
	return HandleOfComponent[T, PT](c), nil
}

// ID returns the handle id.
func (h ComponentHandle[T]) ID() HandleID {
	return h.id
}

// IsValid reports whether the component still exists.
func (h ComponentHandle[T]) IsValid() bool {
	return h.table != nil && h.table.Contains(h.id)
}

// Resolve returns the component or ErrNotFound.
func (h ComponentHandle[T]) Resolve() (*T, error) {
	if h.table == nil {
		return nil, fmt.Errorf("resolve %s: %w", h.id, ErrNotFound)
	}
	b, err := h.table.Resolve(h.id)
	if err != nil {
		return nil, err
	}
	p, ok := any(b.self).(*T)
	if !ok {
		return nil, fmt.Errorf("resolve %s as %T: %w", h.id, p, ErrNotFound)
	}
	return p, nil
}
