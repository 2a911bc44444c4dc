package kizuna

// EntityCreatedEvent is posted when a pending entity becomes active at a
// synchronization point.
type EntityCreatedEvent struct {
	EventBase
	Entity HandleID
	Parent HandleID
}

// EntityRemovedEvent is posted when an entity is destroyed at a
// synchronization point. Its handle no longer resolves by then.
type EntityRemovedEvent struct {
	EventBase
	Entity HandleID
	Parent HandleID
	Groups []string
}

// ComponentsChangedEvent is posted whenever a component is attached to or
// detached from an entity.
type ComponentsChangedEvent struct {
	EventBase
	Entity    HandleID
	Component TypeKey
	Added     bool
}

// HierarchyChangedEvent is posted when an entity changes parent.
// OldParent and NewParent are NullID for roots.
type HierarchyChangedEvent struct {
	EventBase
	Entity    HandleID
	OldParent HandleID
	NewParent HandleID
}

// ComponentValueChangedEvent lets client modules announce that a named value
// of a component changed (an animation switching clips, a sprite changing
// texture). Values are compared in normalised form.
type ComponentValueChangedEvent struct {
	EventBase
	Entity    HandleID
	Component TypeKey
	Value     string
}

// IsValue reports whether the event carries value, ignoring case and
// surrounding space.
func (e ComponentValueChangedEvent) IsValue(value string) bool {
	return e.Value == NormalizeName(value)
}

// NotifyValueChanged publishes a ComponentValueChangedEvent for c on the bus
// of its owning entity's manager.
func NotifyValueChanged(c Component, value string) error {
	b := c.componentBase()
	if b.owner == nil {
		return ErrNotFound
	}
	return Publish(b.owner.manager.bus, ComponentValueChangedEvent{
		EventBase: NewEventBase(),
		Entity:    b.owner.id,
		Component: b.key,
		Value:     NormalizeName(value),
	})
}
