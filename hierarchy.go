package kizuna

import "fmt"

// SetParent moves child under parent, or makes it a root when parent is
// NullID. Both link ends change in the same call. Self-parenting, parenting
// into the child's own subtree and links involving entities that are being
// removed fail with ErrInvalidOperation and leave the forest untouched.
func (m *EntityManager) SetParent(child, parent HandleID) error {
	c, err := m.entities.Resolve(child)
	if err != nil {
		return err
	}
	if err := c.checkMutable("reparent"); err != nil {
		return err
	}
	if c.parent == parent || (parent.IsNull() && c.parent.IsNull()) {
		return nil
	}
	var p *Entity
	if !parent.IsNull() {
		if parent == child {
			return fmt.Errorf("parent %s to itself: %w", child, ErrInvalidOperation)
		}
		if p, err = m.entities.Resolve(parent); err != nil {
			return err
		}
		if err := p.checkMutable("adopt child"); err != nil {
			return err
		}
		if m.isAncestor(child, p) {
			return fmt.Errorf("parent %s under its descendant %s: %w", child, parent, ErrInvalidOperation)
		}
	}

	old := c.parent
	if op, err := m.entities.Resolve(old); err == nil {
		op.removeChild(child)
	}
	if p != nil {
		p.children = append(p.children, child)
		c.parent = parent
	} else {
		c.parent = NullID
	}
	m.post(Publish(m.bus, HierarchyChangedEvent{
		EventBase: NewEventBase(),
		Entity:    child,
		OldParent: old,
		NewParent: c.parent,
	}))
	return nil
}

// isAncestor walks up from e and reports whether id is on the way.
func (m *EntityManager) isAncestor(id HandleID, e *Entity) bool {
	for cur := e; cur != nil; {
		if cur.id == id {
			return true
		}
		next, err := m.entities.Resolve(cur.parent)
		if err != nil {
			return false
		}
		cur = next
	}
	return false
}

// AttachChild is SetParent(child, parent).
func (m *EntityManager) AttachChild(parent, child HandleID) error {
	return m.SetParent(child, parent)
}

// DetachChild makes child a root. It fails with ErrNotFound if child is not
// a direct child of parent.
func (m *EntityManager) DetachChild(parent, child HandleID) error {
	p, err := m.entities.Resolve(parent)
	if err != nil {
		return err
	}
	if !p.HasChild(child) {
		return fmt.Errorf("%s is not a child of %s: %w", child, parent, ErrNotFound)
	}
	return m.SetParent(child, NullID)
}

// Ancestors returns the ids from id's parent up to its root.
func (m *EntityManager) Ancestors(id HandleID) ([]HandleID, error) {
	e, err := m.entities.Resolve(id)
	if err != nil {
		return nil, err
	}
	var out []HandleID
	for !e.parent.IsNull() {
		out = append(out, e.parent)
		if e, err = m.entities.Resolve(e.parent); err != nil {
			break
		}
	}
	return out, nil
}

// Descendants returns the subtree below id in depth-first preorder.
func (m *EntityManager) Descendants(id HandleID) ([]HandleID, error) {
	e, err := m.entities.Resolve(id)
	if err != nil {
		return nil, err
	}
	var out []HandleID
	stack := make([]HandleID, 0, len(e.children))
	for i := len(e.children) - 1; i >= 0; i-- {
		stack = append(stack, e.children[i])
	}
	for len(stack) > 0 {
		cid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, err := m.entities.Resolve(cid)
		if err != nil {
			continue
		}
		out = append(out, cid)
		for i := len(c.children) - 1; i >= 0; i-- {
			stack = append(stack, c.children[i])
		}
	}
	return out, nil
}

// Roots returns the active entities without a parent, in creation order.
func (m *EntityManager) Roots() []*Entity {
	var out []*Entity
	for _, e := range m.live {
		if e.state == StateActive && e.parent.IsNull() {
			out = append(out, e)
		}
	}
	return out
}
