package kizuna

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// EntityManager owns every Entity and Component of one world. It allocates
// entity ids, defers creation and destruction to Update, and publishes the
// resulting structural events on its EventBus.
//
// An EntityManager must be driven from a single goroutine.
type EntityManager struct {
	bus        *EventBus
	entities   *HandleTable[Entity]
	components *HandleTable[ComponentBase]
	resources  *Resources
	logger     *slog.Logger

	live     []*Entity // creation order, pending and active
	pending  []*Entity
	doomed   []*Entity
	detached []Component
	failures []error
	groups   map[string][]HandleID

	tick    uint64
	version uint64 // bumped on every change that affects query results
}

// NewEntityManager creates a manager that publishes on bus. A nil bus gets a
// private one.
func NewEntityManager(bus *EventBus, opts ...Option) *EntityManager {
	cfg := managerConfig{
		logger:   logger,
		capacity: defaultInitialCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if bus == nil {
		bus = NewEventBus(WithBusLogger(cfg.logger))
	}
	if cfg.resources == nil {
		cfg.resources = &Resources{}
	}
	m := &EntityManager{
		bus:        bus,
		entities:   NewHandleTable[Entity](cfg.capacity),
		components: NewHandleTable[ComponentBase](cfg.capacity),
		resources:  cfg.resources,
		logger:     cfg.logger,
		live:       make([]*Entity, 0, cfg.capacity),
		groups:     make(map[string][]HandleID),
	}
	m.entities.retire = cfg.retireIDs
	return m
}

// Bus returns the event bus structural events are published on.
func (m *EntityManager) Bus() *EventBus {
	return m.bus
}

// Resources returns the manager's singleton store.
func (m *EntityManager) Resources() *Resources {
	return m.resources
}

// Tick returns the number of completed Update calls.
func (m *EntityManager) Tick() uint64 {
	return m.tick
}

// CreateEntity allocates a new root entity. It is usable immediately and
// becomes active, and visible to queries, at the next Update.
func (m *EntityManager) CreateEntity() *Entity {
	e := &Entity{
		manager: m,
		parent:  NullID,
		state:   StatePending,
	}
	e.id = m.entities.Register(e)
	m.live = append(m.live, e)
	m.pending = append(m.pending, e)
	return e
}

// CreateChild allocates a new entity under parent.
func (m *EntityManager) CreateChild(parent HandleID) (*Entity, error) {
	p, err := m.Entity(parent)
	if err != nil {
		return nil, err
	}
	if err := p.checkMutable("create child"); err != nil {
		return nil, err
	}
	e := m.CreateEntity()
	e.parent = p.id
	p.children = append(p.children, e.id)
	return e, nil
}

// Entity resolves id. Entities marked for removal still resolve until the
// next Update.
func (m *EntityManager) Entity(id HandleID) (*Entity, error) {
	return m.entities.Resolve(id)
}

// Contains reports whether id resolves.
func (m *EntityManager) Contains(id HandleID) bool {
	return m.entities.Contains(id)
}

// Len returns the number of active entities.
func (m *EntityManager) Len() int {
	n := 0
	for _, e := range m.live {
		if e.state == StateActive {
			n++
		}
	}
	return n
}

// EntityIDs returns the ids of the active entities in creation order.
func (m *EntityManager) EntityIDs() []HandleID {
	ids := make([]HandleID, 0, len(m.live))
	for _, e := range m.live {
		if e.state == StateActive {
			ids = append(ids, e.id)
		}
	}
	return ids
}

// Group returns the active members of the named group in join order.
func (m *EntityManager) Group(name string) []*Entity {
	ids := m.groups[NormalizeName(name)]
	out := make([]*Entity, 0, len(ids))
	for _, id := range ids {
		if e, err := m.entities.Resolve(id); err == nil && e.state == StateActive {
			out = append(out, e)
		}
	}
	return out
}

// GroupNames lists the groups that currently have members.
func (m *EntityManager) GroupNames() []string {
	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *EntityManager) leaveGroup(name string, id HandleID) {
	ids := m.groups[name]
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(m.groups, name)
		return
	}
	m.groups[name] = ids
}

// RemoveEntity marks id and its whole subtree for destruction at the next
// Update. Removing an entity that is already marked is a no-op. The null id
// is rejected with ErrInvalidOperation and a stale id with ErrNotFound.
func (m *EntityManager) RemoveEntity(id HandleID) error {
	if id.IsNull() {
		return fmt.Errorf("remove %s: %w", id, ErrInvalidOperation)
	}
	e, err := m.entities.Resolve(id)
	if err != nil {
		return err
	}
	if e.state == StatePendingRemoval {
		return nil
	}
	stack := []*Entity{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.state == StatePendingRemoval {
			continue
		}
		cur.state = StatePendingRemoval
		m.doomed = append(m.doomed, cur)
		for i := len(cur.children) - 1; i >= 0; i-- {
			if c, err := m.entities.Resolve(cur.children[i]); err == nil {
				stack = append(stack, c)
			}
		}
	}
	m.version++
	return nil
}

// Refresh is an alias of Update.
func (m *EntityManager) Refresh() error {
	return m.Update()
}

// Update is the synchronization point. It promotes pending entities,
// destroys entities marked for removal (children before parents), finalizes
// detached components and returns every event handler failure collected
// since the previous Update, joined.
func (m *EntityManager) Update() error {
	m.tick++
	created := m.promote()
	removed := m.reap()
	finalized := m.finalizeDetached()
	if removed > 0 {
		m.live = slices.DeleteFunc(m.live, func(e *Entity) bool {
			return e.state == StateDestroyed
		})
	}
	if created+removed+finalized > 0 {
		m.version++
		m.logger.Debug("entity manager refreshed",
			"tick", m.tick,
			"created", created,
			"removed", removed,
			"components_finalized", finalized,
			"live", len(m.live))
	}
	err := errors.Join(m.failures...)
	m.failures = m.failures[:0]
	return err
}

// UpdateComponents advances the Updater components of every active entity by
// dt, in creation order. Lifecycle states do not change; entities created or
// removed meanwhile are handled by the next Update.
func (m *EntityManager) UpdateComponents(dt time.Duration) {
	for _, e := range m.live {
		if e.state == StateActive {
			e.UpdateComponents(dt)
		}
	}
}

func (m *EntityManager) promote() int {
	n := 0
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		for _, e := range batch {
			if e.state != StatePending {
				continue
			}
			e.state = StateActive
			e.activated = true
			n++
			m.post(Publish(m.bus, EntityCreatedEvent{
				EventBase: NewEventBase(),
				Entity:    e.id,
				Parent:    e.parent,
			}))
		}
	}
	return n
}

// reap destroys doomed entities. Handlers may doom more entities while it
// runs; those are destroyed in the same pass.
func (m *EntityManager) reap() int {
	n := 0
	for len(m.doomed) > 0 {
		batch := m.doomed
		m.doomed = nil
		for _, e := range batch {
			n += m.destroy(e)
		}
	}
	return n
}

// destroy tears down e after its doomed descendants.
func (m *EntityManager) destroy(e *Entity) int {
	if e.state == StateDestroyed {
		return 0
	}
	n := 0
	for _, cid := range slices.Clone(e.children) {
		if c, err := m.entities.Resolve(cid); err == nil && c.state == StatePendingRemoval {
			n += m.destroy(c)
		}
	}
	for _, key := range e.ComponentKeys() {
		m.finalize(e.unbind(key))
	}
	parent := e.parent
	if p, err := m.entities.Resolve(parent); err == nil {
		p.removeChild(e.id)
	}
	for _, cid := range e.children {
		if c, err := m.entities.Resolve(cid); err == nil {
			c.parent = NullID
		}
	}
	e.children = nil
	groups := e.groups
	for _, g := range groups {
		m.leaveGroup(g, e.id)
	}
	e.groups = nil
	m.entities.Invalidate(e.id)
	e.state = StateDestroyed
	if e.activated {
		m.post(Publish(m.bus, EntityRemovedEvent{
			EventBase: NewEventBase(),
			Entity:    e.id,
			Parent:    parent,
			Groups:    groups,
		}))
	}
	return n + 1
}

func (m *EntityManager) finalizeDetached() int {
	n := len(m.detached)
	for len(m.detached) > 0 {
		batch := m.detached
		m.detached = nil
		for _, c := range batch {
			m.finalize(c)
		}
	}
	return n
}

// finalize runs the destroy hook and drops the component handle.
func (m *EntityManager) finalize(c Component) {
	if c == nil {
		return
	}
	if d, ok := c.(Destroyer); ok {
		d.OnDestroy()
	}
	b := c.componentBase()
	m.components.Invalidate(b.id)
	b.owner = nil
	b.self = nil
}

func (m *EntityManager) attach(e *Entity, key TypeKey, c Component) {
	b := c.componentBase()
	b.owner = e
	b.key = key
	b.self = c
	b.id = m.components.Register(b)
	e.bind(key, c)
	m.version++
	if a, ok := c.(Attacher); ok {
		a.OnAttach()
	}
	m.post(Publish(m.bus, ComponentsChangedEvent{
		EventBase: NewEventBase(),
		Entity:    e.id,
		Component: key,
		Added:     true,
	}))
}

// replace swaps old for c in place. Handles to old resolve to c afterwards.
func (m *EntityManager) replace(e *Entity, key TypeKey, old, c Component) error {
	ob := old.componentBase()
	nb := c.componentBase()
	if err := m.components.Relocate(ob.id, nb); err != nil {
		return err
	}
	nb.owner = e
	nb.key = key
	nb.id = ob.id
	nb.self = c
	if d, ok := old.(Destroyer); ok {
		d.OnDestroy()
	}
	ob.owner = nil
	ob.self = nil
	ob.id = NullID
	e.bind(key, c)
	if a, ok := c.(Attacher); ok {
		a.OnAttach()
	}
	return nil
}

// detach takes the component off e now and destroys it at the next Update.
func (m *EntityManager) detach(e *Entity, key TypeKey) {
	c := e.unbind(key)
	if c == nil {
		return
	}
	m.detached = append(m.detached, c)
	m.version++
	m.post(Publish(m.bus, ComponentsChangedEvent{
		EventBase: NewEventBase(),
		Entity:    e.id,
		Component: key,
		Added:     false,
	}))
}

// post records a handler failure for the next Update to return.
func (m *EntityManager) post(err error) {
	if err != nil {
		m.failures = append(m.failures, err)
	}
}
