package kizuna

import "errors"

// Builder creates entities that start out with a component of type T.
type Builder[T any, PT interface {
	*T
	Component
}] struct {
	manager *EntityManager
	parent  HandleID
}

// NewBuilder returns a Builder creating root entities in m.
func NewBuilder[T any, PT interface {
	*T
	Component
}](m *EntityManager) *Builder[T, PT] {
	return &Builder[T, PT]{manager: m, parent: NullID}
}

// Under makes the builder create children of parent instead of roots.
func (b *Builder[T, PT]) Under(parent HandleID) *Builder[T, PT] {
	return &Builder[T, PT]{manager: b.manager, parent: parent}
}

func (b *Builder[T, PT]) create() (*Entity, error) {
	if b.parent.IsNull() {
		return b.manager.CreateEntity(), nil
	}
	return b.manager.CreateChild(b.parent)
}

// NewEntity creates one entity with a zero T.
func (b *Builder[T, PT]) NewEntity() (*Entity, error) {
	var zero T
	return b.NewEntityWith(zero)
}

// NewEntityWith creates one entity with comp attached.
func (b *Builder[T, PT]) NewEntityWith(comp T) (*Entity, error) {
	e, err := b.create()
	if err != nil {
		return nil, err
	}
	if _, err := AddComponent[T, PT](e, comp); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEntities creates count entities with a zero T.
func (b *Builder[T, PT]) NewEntities(count int) ([]*Entity, error) {
	var zero T
	return b.NewEntitiesWithValueSet(count, zero)
}

// NewEntitiesWithValueSet creates count entities, each with its own copy of
// comp. On error the entities created so far are returned with it.
func (b *Builder[T, PT]) NewEntitiesWithValueSet(count int, comp T) ([]*Entity, error) {
	out := make([]*Entity, 0, count)
	for range count {
		e, err := b.NewEntityWith(comp)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Get returns the T of e, or nil.
func (b *Builder[T, PT]) Get(e *Entity) PT {
	return GetComponent[T, PT](e)
}

// Set attaches or replaces the T of e.
func (b *Builder[T, PT]) Set(e *Entity, comp T) error {
	_, err := SetComponent[T, PT](e, comp)
	return err
}

// SetBatch sets comp on every entity, stopping at the first failure.
func (b *Builder[T, PT]) SetBatch(entities []*Entity, comp T) error {
	for _, e := range entities {
		if err := b.Set(e, comp); err != nil {
			return err
		}
	}
	return nil
}

// Builder2 creates entities that start out with components T1 and T2.
type Builder2[T1, T2 any, PT1 interface {
	*T1
	Component
}, PT2 interface {
	*T2
	Component
}] struct {
	first *Builder[T1, PT1]
}

// NewBuilder2 returns a Builder2 creating root entities in m.
func NewBuilder2[T1, T2 any, PT1 interface {
	*T1
	Component
}, PT2 interface {
	*T2
	Component
}](m *EntityManager) *Builder2[T1, T2, PT1, PT2] {
	return &Builder2[T1, T2, PT1, PT2]{first: NewBuilder[T1, PT1](m)}
}

// NewEntityWith creates one entity with c1 and c2 attached. If c2 cannot be
// attached, for instance because T1 and T2 share a base key, the half-built
// entity is removed again and never becomes active.
func (b *Builder2[T1, T2, PT1, PT2]) NewEntityWith(c1 T1, c2 T2) (*Entity, error) {
	e, err := b.first.NewEntityWith(c1)
	if err != nil {
		return nil, err
	}
	if _, err := AddComponent[T2, PT2](e, c2); err != nil {
		if rerr := e.Destroy(); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}
	return e, nil
}

// NewEntities creates count entities with zero components.
func (b *Builder2[T1, T2, PT1, PT2]) NewEntities(count int) ([]*Entity, error) {
	var (
		z1 T1
		z2 T2
	)
	out := make([]*Entity, 0, count)
	for range count {
		e, err := b.NewEntityWith(z1, z2)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Get returns both components of e; either may be nil.
func (b *Builder2[T1, T2, PT1, PT2]) Get(e *Entity) (PT1, PT2) {
	return GetComponent[T1, PT1](e), GetComponent[T2, PT2](e)
}
