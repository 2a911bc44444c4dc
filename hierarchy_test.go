package kizuna

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

// checkForest verifies that every link has both ends and that no entity is
// its own ancestor.
func checkForest(t *testing.T, m *EntityManager) {
	t.Helper()
	for _, e := range m.live {
		if e.state == StateDestroyed {
			continue
		}
		if !e.parent.IsNull() {
			p, err := m.Entity(e.parent)
			if err != nil {
				t.Fatalf("%s has dangling parent %s", e.id, e.parent)
			}
			if !p.HasChild(e.id) {
				t.Fatalf("%s missing from children of %s", e.id, p.id)
			}
		}
		for _, cid := range e.children {
			c, err := m.Entity(cid)
			if err != nil {
				t.Fatalf("%s has dangling child %s", e.id, cid)
			}
			if c.parent != e.id {
				t.Fatalf("child %s points at %s, not %s", cid, c.parent, e.id)
			}
		}
		seen := map[HandleID]bool{e.id: true}
		for cur := e.parent; !cur.IsNull(); {
			if seen[cur] {
				t.Fatalf("cycle through %s", e.id)
			}
			seen[cur] = true
			p, _ := m.Entity(cur)
			cur = p.parent
		}
	}
}

// go test -run ^TestSetParent$ . -count 1
func TestSetParent(t *testing.T) {
	t.Run("move between parents", func(t *testing.T) {
		m, rec := newTestManager()
		a, b, c := m.CreateEntity(), m.CreateEntity(), m.CreateEntity()
		if err := m.SetParent(c.ID(), a.ID()); err != nil {
			t.Fatal(err)
		}
		if err := m.SetParent(c.ID(), b.ID()); err != nil {
			t.Fatal(err)
		}
		if a.HasChild(c.ID()) || !b.HasChild(c.ID()) || c.Parent() != b.ID() {
			t.Error("links not updated on both sides")
		}
		if len(rec.reparent) != 2 {
			t.Fatalf("expected 2 hierarchy events, got %d", len(rec.reparent))
		}
		if ev := rec.reparent[1]; ev.OldParent != a.ID() || ev.NewParent != b.ID() {
			t.Errorf("unexpected event %+v", ev)
		}
		if err := m.SetParent(c.ID(), b.ID()); err != nil || len(rec.reparent) != 2 {
			t.Error("no-op reparent posted an event")
		}
		checkForest(t, m)
	})

	t.Run("detach to root", func(t *testing.T) {
		m, _ := newTestManager()
		a := m.CreateEntity()
		b, _ := m.CreateChild(a.ID())
		if err := m.DetachChild(a.ID(), b.ID()); err != nil {
			t.Fatal(err)
		}
		if !b.Parent().IsNull() || len(a.ChildIDs()) != 0 {
			t.Error("detach left a link behind")
		}
		if err := m.DetachChild(a.ID(), b.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := m.AttachChild(a.ID(), b.ID()); err != nil || b.Parent() != a.ID() {
			t.Errorf("AttachChild failed: %v", err)
		}
	})

	t.Run("cycles rejected", func(t *testing.T) {
		m, _ := newTestManager()
		a := m.CreateEntity()
		b, _ := m.CreateChild(a.ID())
		c, _ := m.CreateChild(b.ID())
		for _, tc := range []struct {
			name          string
			child, parent HandleID
		}{
			{"self", a.ID(), a.ID()},
			{"child", a.ID(), b.ID()},
			{"grandchild", a.ID(), c.ID()},
		} {
			if err := m.SetParent(tc.child, tc.parent); !errors.Is(err, ErrInvalidOperation) {
				t.Errorf("%s: expected ErrInvalidOperation, got %v", tc.name, err)
			}
		}
		if !a.Parent().IsNull() || b.Parent() != a.ID() || c.Parent() != b.ID() {
			t.Error("rejected reparent changed the forest")
		}
		checkForest(t, m)
	})

	t.Run("doomed entities", func(t *testing.T) {
		m, _ := newTestManager()
		a, b := m.CreateEntity(), m.CreateEntity()
		m.RemoveEntity(a.ID())
		if err := m.SetParent(b.ID(), a.ID()); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("parenting under doomed entity: %v", err)
		}
		if err := m.SetParent(a.ID(), b.ID()); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("reparenting a doomed entity: %v", err)
		}
		if _, err := m.CreateChild(a.ID()); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("creating child of doomed entity: %v", err)
		}
		mustUpdate(t, m)
		if err := m.SetParent(b.ID(), a.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("parenting under destroyed entity: %v", err)
		}
	})

	t.Run("random sequences keep the forest", func(t *testing.T) {
		m, _ := newTestManager()
		rng := rand.New(rand.NewPCG(7, 11))
		ids := make([]HandleID, 32)
		for i := range ids {
			ids[i] = m.CreateEntity().ID()
		}
		for range 2000 {
			child := ids[rng.IntN(len(ids))]
			parent := NullID
			if rng.IntN(5) > 0 {
				parent = ids[rng.IntN(len(ids))]
			}
			err := m.SetParent(child, parent)
			if err != nil && !errors.Is(err, ErrInvalidOperation) {
				t.Fatalf("unexpected error %v", err)
			}
		}
		checkForest(t, m)
	})
}

// go test -run ^TestAncestorsDescendants$ . -count 1
func TestAncestorsDescendants(t *testing.T) {
	m, _ := newTestManager()
	a := m.CreateEntity()
	b, _ := m.CreateChild(a.ID())
	c, _ := m.CreateChild(b.ID())
	d, _ := m.CreateChild(a.ID())

	anc, err := m.Ancestors(c.ID())
	if err != nil || !slices.Equal(anc, []HandleID{b.ID(), a.ID()}) {
		t.Errorf("Ancestors = %v, %v", anc, err)
	}
	desc, err := m.Descendants(a.ID())
	if err != nil || !slices.Equal(desc, []HandleID{b.ID(), c.ID(), d.ID()}) {
		t.Errorf("Descendants = %v, %v", desc, err)
	}
	if !slices.Equal(a.ChildIDs(), []HandleID{b.ID(), d.ID()}) {
		t.Errorf("unexpected child order %v", a.ChildIDs())
	}
	mustUpdate(t, m)
	if roots := m.Roots(); len(roots) != 1 || roots[0] != a {
		t.Errorf("unexpected roots %v", roots)
	}
	if _, err := m.Descendants(NullID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
