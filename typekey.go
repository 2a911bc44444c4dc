package kizuna

import (
	"fmt"
	"reflect"
	"sync"
)

// MaxTypeKeys is the number of distinct types each Role can hold. Keys are
// dense, so they double as indexes into fixed-size per-role storage such as
// the entity component mask.
const MaxTypeKeys = 256

// Role scopes a TypeKey. The same Go type gets independent keys in different
// roles, and each role's key space stays dense.
type Role uint8

const (
	// RoleComponent keys component types attached to entities.
	RoleComponent Role = iota
	// RoleSerializer keys component serializer types.
	RoleSerializer
	// RoleState keys behavior state types.
	RoleState
	// RoleEvent keys event types on the EventBus.
	RoleEvent

	roleCount
)

func (r Role) String() string {
	switch r {
	case RoleComponent:
		return "component"
	case RoleSerializer:
		return "serializer"
	case RoleState:
		return "state"
	case RoleEvent:
		return "event"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// TypeKey is a small integer identifying a Go type within a Role. It is
// assigned on first request and stays the same for the life of the process.
type TypeKey uint16

// NoTypeKey is never assigned to a type.
const NoTypeKey TypeKey = 1<<16 - 1

// typeRegistry holds one first-call memoized counter per role.
type typeRegistry struct {
	mu    sync.RWMutex
	keys  [roleCount]map[reflect.Type]TypeKey
	types [roleCount][]reflect.Type
}

var registry = newTypeRegistry()

func newTypeRegistry() *typeRegistry {
	r := &typeRegistry{}
	for i := range r.keys {
		r.keys[i] = make(map[reflect.Type]TypeKey, 16)
		r.types[i] = make([]reflect.Type, 0, 16)
	}
	return r
}

// keyFor returns the key of t in role, allocating the next one on first use.
func (r *typeRegistry) keyFor(role Role, t reflect.Type) TypeKey {
	r.mu.RLock()
	key, ok := r.keys[role][t]
	r.mu.RUnlock()
	if ok {
		return key
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.keys[role][t]; ok {
		return key
	}
	next := len(r.types[role])
	if next >= MaxTypeKeys {
		panic(fmt.Sprintf("kizuna: cannot register %s %s: maximum number of %s types (%d) reached",
			role, t, role, MaxTypeKeys))
	}
	key = TypeKey(next)
	r.keys[role][t] = key
	r.types[role] = append(r.types[role], t)
	return key
}

func (r *typeRegistry) lookup(role Role, t reflect.Type) (TypeKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[role][t]
	return key, ok
}

func (r *typeRegistry) typeOf(role Role, key TypeKey) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(key) >= len(r.types[role]) {
		return nil, false
	}
	return r.types[role][key], true
}

func (r *typeRegistry) count(role Role) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types[role])
}

// TypeKeyOf returns the key of T within role. The first call for a given
// (T, role) pair allocates the next unused key of that role; every later call
// returns the same value. It panics if role is unknown or its key space is
// exhausted.
func TypeKeyOf[T any](role Role) TypeKey {
	if role >= roleCount {
		panic(fmt.Sprintf("kizuna: unknown %s", role))
	}
	return registry.keyFor(role, reflect.TypeFor[T]())
}

// ComponentKey returns the component key of T.
func ComponentKey[T any]() TypeKey {
	return registry.keyFor(RoleComponent, reflect.TypeFor[T]())
}

// SerializerKey returns the serializer key of T.
func SerializerKey[T any]() TypeKey {
	return registry.keyFor(RoleSerializer, reflect.TypeFor[T]())
}

// StateKey returns the behavior state key of T.
func StateKey[T any]() TypeKey {
	return registry.keyFor(RoleState, reflect.TypeFor[T]())
}

// EventKey returns the event key of T.
func EventKey[T any]() TypeKey {
	return registry.keyFor(RoleEvent, reflect.TypeFor[T]())
}

// KeyOfType reports the key already assigned to t in role. It never
// allocates.
func KeyOfType(role Role, t reflect.Type) (TypeKey, bool) {
	if role >= roleCount || t == nil {
		return NoTypeKey, false
	}
	return registry.lookup(role, t)
}

// TypeOfKey returns the type a key was assigned to.
func TypeOfKey(role Role, key TypeKey) (reflect.Type, bool) {
	if role >= roleCount {
		return nil, false
	}
	return registry.typeOf(role, key)
}

// TypeName returns a printable name for key, for logs and errors.
func TypeName(role Role, key TypeKey) string {
	if t, ok := TypeOfKey(role, key); ok {
		return t.String()
	}
	return fmt.Sprintf("%s#%d", role, key)
}

// RegisteredKeys returns how many keys role has handed out so far.
func RegisteredKeys(role Role) int {
	if role >= roleCount {
		return 0
	}
	return registry.count(role)
}
