package kizuna

import (
	"fmt"
	"slices"
	"time"
)

// EntityState is the lifecycle stage of an entity.
type EntityState uint8

const (
	// StatePending entities exist and accept components but are not yet
	// visible to queries. They become active at the next Update.
	StatePending EntityState = iota
	// StateActive entities are visible and mutable.
	StateActive
	// StatePendingRemoval entities still resolve but are destroyed at the
	// next Update. They reject structural changes.
	StatePendingRemoval
	// StateDestroyed entities no longer resolve.
	StateDestroyed
)

func (s EntityState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StatePendingRemoval:
		return "pending-removal"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Entity is a node in the entity forest. It owns its components and knows
// its parent and children by id. Entities are created and destroyed only by
// their EntityManager.
type Entity struct {
	manager    *EntityManager
	children   []HandleID
	components []Component // indexed by component TypeKey
	groups     []string
	mask       bitmask256
	id         HandleID
	parent     HandleID
	state      EntityState
	activated  bool // became active at least once
}

// ID returns the entity id. It stays unique for the life of the manager.
func (e *Entity) ID() HandleID {
	return e.id
}

// Handle returns an auto-invalidating handle to e.
func (e *Entity) Handle() Handle[Entity] {
	return e.manager.entities.HandleOf(e.id)
}

// Manager returns the manager that owns e.
func (e *Entity) Manager() *EntityManager {
	return e.manager
}

// State returns the lifecycle state.
func (e *Entity) State() EntityState {
	return e.state
}

// IsActive reports whether e is visible to queries.
func (e *Entity) IsActive() bool {
	return e.state == StateActive
}

// Destroy requests removal of e and its subtree at the next Update.
func (e *Entity) Destroy() error {
	return e.manager.RemoveEntity(e.id)
}

// Parent returns the parent id, NullID for roots.
func (e *Entity) Parent() HandleID {
	return e.parent
}

// ChildIDs returns the child ids in attach order. The slice is a copy.
func (e *Entity) ChildIDs() []HandleID {
	return slices.Clone(e.children)
}

// HasChild reports whether id is a direct child of e.
func (e *Entity) HasChild(id HandleID) bool {
	return slices.Contains(e.children, id)
}

// ComponentKeys lists the own keys of the attached components in key order.
// Base keys added by RegisterPolymorphism are not listed.
func (e *Entity) ComponentKeys() []TypeKey {
	return slices.DeleteFunc(e.mask.keys(), func(k TypeKey) bool {
		return e.components[k].componentBase().key != k
	})
}

// HasComponentKey reports whether a component answers to key, either as its
// own key or as a base key.
func (e *Entity) HasComponentKey(key TypeKey) bool {
	return e.mask.containsBit(key)
}

// Component returns the component answering to key, or nil.
func (e *Entity) Component(key TypeKey) Component {
	return e.component(key)
}

// Components returns the attached components in key order, each once.
func (e *Entity) Components() []Component {
	out := make([]Component, 0, e.mask.count())
	for k, c := range e.components {
		if c != nil && c.componentBase().key == TypeKey(k) {
			out = append(out, c)
		}
	}
	return out
}

// RemoveComponentKey detaches the component answering to key, together with
// all its base keys. See RemoveComponent. It returns false if there is no
// such component or e is being removed.
func (e *Entity) RemoveComponentKey(key TypeKey) bool {
	c := e.component(key)
	if c == nil || e.checkMutable("remove component") != nil {
		return false
	}
	e.manager.detach(e, c.componentBase().key)
	return true
}

// UpdateComponents calls Update on every Updater component of e in key
// order. A component detached or replaced by an earlier Update of the same
// pass is skipped.
func (e *Entity) UpdateComponents(dt time.Duration) {
	for _, c := range e.Components() {
		u, ok := c.(Updater)
		if ok && e.component(c.componentBase().key) == c {
			u.Update(dt)
		}
	}
}

// CanSet reports whether a component with key could be attached to e now,
// or replace the one it has. It fails with ErrInvalidOperation if e is being
// removed and with ErrAlreadyExists if another component already holds one
// of the base keys of key.
func (e *Entity) CanSet(key TypeKey) error {
	if err := e.checkMutable("set component"); err != nil {
		return err
	}
	if e.component(key) != nil {
		return nil
	}
	return e.checkBases(key)
}

// AddToGroup adds e to the named group. Names are matched case-insensitively.
func (e *Entity) AddToGroup(name string) error {
	if err := e.checkMutable("add to group"); err != nil {
		return err
	}
	name = NormalizeName(name)
	if slices.Contains(e.groups, name) {
		return nil
	}
	e.groups = append(e.groups, name)
	e.manager.groups[name] = append(e.manager.groups[name], e.id)
	return nil
}

// RemoveFromGroup removes e from the named group. It returns false if e was
// not a member or is being removed; doomed entities leave their groups at
// the next Update.
func (e *Entity) RemoveFromGroup(name string) bool {
	if e.checkMutable("remove from group") != nil {
		return false
	}
	name = NormalizeName(name)
	i := slices.Index(e.groups, name)
	if i < 0 {
		return false
	}
	e.groups = slices.Delete(e.groups, i, i+1)
	e.manager.leaveGroup(name, e.id)
	return true
}

// IsInGroup reports whether e is a member of the named group.
func (e *Entity) IsInGroup(name string) bool {
	return slices.Contains(e.groups, NormalizeName(name))
}

// Groups returns the normalised names of e's groups.
func (e *Entity) Groups() []string {
	return slices.Clone(e.groups)
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d %s)", e.id.Index(), e.id.Generation(), e.state)
}

func (e *Entity) component(key TypeKey) Component {
	if int(key) >= len(e.components) {
		return nil
	}
	return e.components[key]
}

func (e *Entity) setComponent(key TypeKey, c Component) {
	if int(key) >= len(e.components) {
		grown := make([]Component, int(key)+1)
		copy(grown, e.components)
		e.components = grown
	}
	e.components[key] = c
	e.mask.set(key)
}

func (e *Entity) clearComponent(key TypeKey) Component {
	c := e.component(key)
	if c != nil {
		e.components[key] = nil
		e.mask.unset(key)
	}
	return c
}

// bind stores c under key and under every base key of key.
func (e *Entity) bind(key TypeKey, c Component) {
	e.setComponent(key, c)
	for _, b := range BaseKeys(key) {
		e.setComponent(b, c)
	}
}

// unbind clears key and the base keys held by the same component.
func (e *Entity) unbind(key TypeKey) Component {
	c := e.clearComponent(key)
	if c == nil {
		return nil
	}
	for _, b := range BaseKeys(key) {
		if e.component(b) == c {
			e.clearComponent(b)
		}
	}
	return c
}

// checkBases fails if a base key of key is already held.
func (e *Entity) checkBases(key TypeKey) error {
	for _, b := range BaseKeys(key) {
		if held := e.component(b); held != nil {
			return fmt.Errorf("%s on %s: %s already answers to %s: %w",
				TypeName(RoleComponent, key), e.id,
				TypeName(RoleComponent, held.componentBase().key),
				TypeName(RoleComponent, b), ErrAlreadyExists)
		}
	}
	return nil
}

func (e *Entity) removeChild(id HandleID) {
	if i := slices.Index(e.children, id); i >= 0 {
		e.children = slices.Delete(e.children, i, i+1)
	}
}

// checkMutable rejects structural changes on doomed or destroyed entities.
func (e *Entity) checkMutable(op string) error {
	switch e.state {
	case StatePending, StateActive:
		return nil
	default:
		return fmt.Errorf("%s on %s entity %s: %w", op, e.state, e.id, ErrInvalidOperation)
	}
}
