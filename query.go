package kizuna

// Query iterates over the active entities that carry every component in a
// key set. The matching entities are cached and recomputed on Reset once
// the manager has changed structurally since the last scan.
//
//	q := kizuna.NewQuery(m, kizuna.ComponentKey[Position](), kizuna.ComponentKey[Velocity]())
//	for q.Next() {
//	    e := q.Entity()
//	    // ...
//	}
type Query struct {
	manager *EntityManager
	matches []*Entity
	cur     *Entity
	version uint64
	idx     int
	mask    bitmask256
	scanned bool
	never   bool // a key is out of range, nothing can match
}

// NewQuery creates a query over m for entities that have all of keys. A
// query without keys matches every active entity; a query with a key no
// component can have, such as NoTypeKey, matches none.
func NewQuery(m *EntityManager, keys ...TypeKey) *Query {
	q := newQuery(m, keys...)
	q.Reset()
	return &q
}

func newQuery(m *EntityManager, keys ...TypeKey) Query {
	mask, ok := maskOf(keys...)
	return Query{manager: m, mask: mask, never: !ok}
}

// IsStale reports whether the manager changed since the cache was built.
func (q *Query) IsStale() bool {
	return !q.scanned || q.version != q.manager.version
}

func (q *Query) scan() {
	q.matches = q.matches[:0]
	q.version = q.manager.version
	q.scanned = true
	if q.never {
		return
	}
	for _, e := range q.manager.live {
		if e.state == StateActive && e.mask.contains(q.mask) {
			q.matches = append(q.matches, e)
		}
	}
}

// Reset rewinds the iterator, rescanning if the cache is stale.
func (q *Query) Reset() {
	if q.IsStale() {
		q.scan()
	}
	q.idx = -1
	q.cur = nil
}

// Next advances to the next matching entity. Entities removed or stripped of
// a required component during iteration are skipped.
func (q *Query) Next() bool {
	for {
		q.idx++
		if q.idx >= len(q.matches) {
			q.cur = nil
			return false
		}
		e := q.matches[q.idx]
		if e.state == StateActive && e.mask.contains(q.mask) {
			q.cur = e
			return true
		}
	}
}

// Entity returns the current entity. Only valid after Next returned true.
func (q *Query) Entity() *Entity {
	return q.cur
}

// Entities returns the matching entities. The slice is owned by the query
// and changes on the next Reset.
func (q *Query) Entities() []*Entity {
	if q.IsStale() {
		q.scan()
	}
	return q.matches
}

// Len returns the number of matching entities.
func (q *Query) Len() int {
	return len(q.Entities())
}

// EntitiesWith returns the active entities that carry all of keys, in
// creation order.
func (m *EntityManager) EntitiesWith(keys ...TypeKey) []*Entity {
	mask, ok := maskOf(keys...)
	if !ok {
		return nil
	}
	var out []*Entity
	for _, e := range m.live {
		if e.state == StateActive && e.mask.contains(mask) {
			out = append(out, e)
		}
	}
	return out
}
