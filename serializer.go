package kizuna

import (
	"fmt"
	"reflect"
	"slices"
)

// ComponentSerializer turns one component type into bytes and back. The
// wire format is up to the implementation.
type ComponentSerializer interface {
	Serialize(c Component) ([]byte, error)
	// Deserialize decodes data and attaches the result to e.
	Deserialize(e *Entity, data []byte) (Component, error)
}

type serializerEntry struct {
	serializer ComponentSerializer
	name       string
	component  TypeKey
	key        TypeKey // SerializerKey of the serializer's own type
}

// SerializerRegistry maps component types to their serializers and to a
// stable object name used in persisted data.
type SerializerRegistry struct {
	byComponent map[TypeKey]*serializerEntry
	byName      map[string]*serializerEntry
	byKey       map[TypeKey]*serializerEntry
}

// NewSerializerRegistry creates an empty registry.
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{
		byComponent: make(map[TypeKey]*serializerEntry),
		byName:      make(map[string]*serializerEntry),
		byKey:       make(map[TypeKey]*serializerEntry),
	}
}

// RegisterSerializer binds s to component type T under name. Each component
// type, name and serializer type may only be registered once; duplicates
// fail with ErrAlreadyExists.
func RegisterSerializer[T any, S ComponentSerializer](r *SerializerRegistry, name string, s S) error {
	name = NormalizeName(name)
	if name == "" {
		return fmt.Errorf("register serializer for %s: empty name: %w", reflect.TypeFor[T](), ErrInvalidOperation)
	}
	ck := ComponentKey[T]()
	sk := SerializerKey[S]()
	if _, ok := r.byComponent[ck]; ok {
		return fmt.Errorf("serializer for %s: %w", reflect.TypeFor[T](), ErrAlreadyExists)
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("serializer name %q: %w", name, ErrAlreadyExists)
	}
	if _, ok := r.byKey[sk]; ok {
		return fmt.Errorf("serializer %s: %w", reflect.TypeFor[S](), ErrAlreadyExists)
	}
	entry := &serializerEntry{serializer: s, name: name, component: ck, key: sk}
	r.byComponent[ck] = entry
	r.byName[name] = entry
	r.byKey[sk] = entry
	return nil
}

// SerializerFor returns the serializer registered for a component key.
func (r *SerializerRegistry) SerializerFor(component TypeKey) (ComponentSerializer, error) {
	entry, ok := r.byComponent[component]
	if !ok {
		return nil, fmt.Errorf("serializer for %s: %w", TypeName(RoleComponent, component), ErrNotFound)
	}
	return entry.serializer, nil
}

// SerializerByName returns the serializer registered under name.
func (r *SerializerRegistry) SerializerByName(name string) (ComponentSerializer, error) {
	entry, ok := r.byName[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("serializer %q: %w", name, ErrNotFound)
	}
	return entry.serializer, nil
}

// SerializerOf returns the registered serializer of type S.
func SerializerOf[S ComponentSerializer](r *SerializerRegistry) (S, error) {
	entry, ok := r.byKey[SerializerKey[S]()]
	if !ok {
		var zero S
		return zero, fmt.Errorf("serializer %s: %w", reflect.TypeFor[S](), ErrNotFound)
	}
	return entry.serializer.(S), nil
}

// ObjectName returns the name a component key is persisted under.
func (r *SerializerRegistry) ObjectName(component TypeKey) (string, error) {
	entry, ok := r.byComponent[component]
	if !ok {
		return "", fmt.Errorf("object name of %s: %w", TypeName(RoleComponent, component), ErrNotFound)
	}
	return entry.name, nil
}

// ObjectKey returns the component key persisted under name.
func (r *SerializerRegistry) ObjectKey(name string) (TypeKey, error) {
	entry, ok := r.byName[NormalizeName(name)]
	if !ok {
		return NoTypeKey, fmt.Errorf("object %q: %w", name, ErrNotFound)
	}
	return entry.component, nil
}

// Names lists the registered object names in order.
func (r *SerializerRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SerializeComponent encodes c with the serializer of its type and returns
// the object name alongside the data.
func SerializeComponent(r *SerializerRegistry, c Component) (string, []byte, error) {
	key := c.componentBase().key
	entry, ok := r.byComponent[key]
	if !ok {
		return "", nil, fmt.Errorf("serialize %T: %w", c, ErrNotFound)
	}
	data, err := entry.serializer.Serialize(c)
	if err != nil {
		return "", nil, fmt.Errorf("serialize %s: %w", entry.name, err)
	}
	return entry.name, data, nil
}

// DeserializeComponent decodes data with the serializer registered under
// name and attaches the component to e.
func DeserializeComponent(r *SerializerRegistry, e *Entity, name string, data []byte) (Component, error) {
	entry, ok := r.byName[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("deserialize %q: %w", name, ErrNotFound)
	}
	c, err := entry.serializer.Deserialize(e, data)
	if err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", entry.name, err)
	}
	return c, nil
}
