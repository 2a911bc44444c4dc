package kizuna

// Filter iterates over the active entities that have a component of type T
// and hands out that component directly.
//
//	f := kizuna.NewFilter[Position](m)
//	for f.Next() {
//	    pos := f.Get()
//	    // ...
//	}
type Filter[T any, PT interface {
	*T
	Component
}] struct {
	Query
	key TypeKey
}

// NewFilter creates a Filter over m.
func NewFilter[T any, PT interface {
	*T
	Component
}](m *EntityManager) *Filter[T, PT] {
	key := ComponentKey[T]()
	f := &Filter[T, PT]{
		Query: newQuery(m, key),
		key:   key,
	}
	f.Reset()
	return f
}

// Get returns the component of the current entity.
func (f *Filter[T, PT]) Get() PT {
	return f.cur.component(f.key).(PT)
}

// Filter2 is Filter for two component types.
type Filter2[T1, T2 any, PT1 interface {
	*T1
	Component
}, PT2 interface {
	*T2
	Component
}] struct {
	Query
	key1, key2 TypeKey
}

// NewFilter2 creates a Filter2 over m.
func NewFilter2[T1, T2 any, PT1 interface {
	*T1
	Component
}, PT2 interface {
	*T2
	Component
}](m *EntityManager) *Filter2[T1, T2, PT1, PT2] {
	k1, k2 := ComponentKey[T1](), ComponentKey[T2]()
	f := &Filter2[T1, T2, PT1, PT2]{
		Query: newQuery(m, k1, k2),
		key1:  k1,
		key2:  k2,
	}
	f.Reset()
	return f
}

// Get returns both components of the current entity.
func (f *Filter2[T1, T2, PT1, PT2]) Get() (PT1, PT2) {
	return f.cur.component(f.key1).(PT1), f.cur.component(f.key2).(PT2)
}
