package kizuna

import (
	"fmt"
	"reflect"
	"testing"
)

// go test -run ^TestTypeKey$ . -count 1
func TestTypeKey(t *testing.T) {
	type alpha struct{}
	type beta struct{}
	type gamma struct{ V int }

	t.Run("distinct and idempotent", func(t *testing.T) {
		a := ComponentKey[alpha]()
		b := ComponentKey[beta]()
		if a == b {
			t.Fatalf("alpha and beta share key %d", a)
		}
		for range 3 {
			if got := ComponentKey[alpha](); got != a {
				t.Errorf("expected %d on repeat, got %d", a, got)
			}
		}
		if got := TypeKeyOf[beta](RoleComponent); got != b {
			t.Errorf("TypeKeyOf disagrees with ComponentKey: %d vs %d", got, b)
		}
	})

	t.Run("dense per role", func(t *testing.T) {
		if _, ok := KeyOfType(RoleState, reflect.TypeFor[gamma]()); ok {
			t.Skip("gamma already registered by an earlier run")
		}
		before := RegisteredKeys(RoleState)
		k := StateKey[gamma]()
		if int(k) != before {
			t.Errorf("expected next state key %d, got %d", before, k)
		}
		if RegisteredKeys(RoleState) != before+1 {
			t.Errorf("expected %d state keys, got %d", before+1, RegisteredKeys(RoleState))
		}
	})

	t.Run("roles are independent", func(t *testing.T) {
		type shared struct{}
		ComponentKey[shared]()
		if _, ok := KeyOfType(RoleSerializer, reflect.TypeFor[shared]()); ok {
			t.Error("component registration leaked into serializer role")
		}
		SerializerKey[shared]()
		if _, ok := KeyOfType(RoleSerializer, reflect.TypeFor[shared]()); !ok {
			t.Error("expected serializer key after SerializerKey")
		}
	})

	t.Run("lookup does not allocate", func(t *testing.T) {
		type unseen struct{}
		n := RegisteredKeys(RoleEvent)
		if _, ok := KeyOfType(RoleEvent, reflect.TypeFor[unseen]()); ok {
			t.Error("unseen type reported as registered")
		}
		if RegisteredKeys(RoleEvent) != n {
			t.Error("KeyOfType allocated a key")
		}
	})

	t.Run("names", func(t *testing.T) {
		k := ComponentKey[alpha]()
		typ, ok := TypeOfKey(RoleComponent, k)
		if !ok || typ != reflect.TypeFor[alpha]() {
			t.Errorf("TypeOfKey(%d) = %v, %v", k, typ, ok)
		}
		if TypeName(RoleComponent, k) != typ.String() {
			t.Errorf("unexpected name %q", TypeName(RoleComponent, k))
		}
		if got := TypeName(RoleComponent, NoTypeKey); got != fmt.Sprintf("component#%d", NoTypeKey) {
			t.Errorf("unexpected fallback name %q", got)
		}
	})

	t.Run("unknown role panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		TypeKeyOf[alpha](roleCount)
	})
}

// go test -run ^TestTypeRegistryExhaustion$ . -count 1
func TestTypeRegistryExhaustion(t *testing.T) {
	r := newTypeRegistry()
	for i := range MaxTypeKeys {
		typ := reflect.StructOf([]reflect.StructField{{Name: fmt.Sprintf("F%d", i), Type: reflect.TypeFor[int]()}})
		if k := r.keyFor(RoleComponent, typ); int(k) != i {
			t.Fatalf("expected key %d, got %d", i, k)
		}
	}
	// other roles keep their own space
	if k := r.keyFor(RoleEvent, reflect.TypeFor[int]()); k != 0 {
		t.Errorf("expected first event key 0, got %d", k)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic when the component key space is full")
		}
	}()
	r.keyFor(RoleComponent, reflect.TypeFor[string]())
}

func BenchmarkComponentKey(b *testing.B) {
	type hot struct{}
	ComponentKey[hot]()
	b.ReportAllocs()
	for b.Loop() {
		ComponentKey[hot]()
	}
}
