package main

import (
	"errors"
	"math"

	"github.com/edwinsyarief/kizuna"
)

// worldPos resolves the absolute position of e by walking up its parents.
func worldPos(m *kizuna.EntityManager, e *kizuna.Entity) (float64, float64) {
	var x, y float64
	for cur := e; cur != nil; {
		if t := kizuna.GetComponent[Transform](cur); t != nil {
			x += t.X
			y += t.Y
		}
		p, err := m.Entity(cur.Parent())
		if err != nil {
			break
		}
		cur = p
	}
	return x, y
}

type blinkSystem struct {
	filter *kizuna.Filter[Blink, *Blink]
}

func newBlinkSystem(m *kizuna.EntityManager) *blinkSystem {
	return &blinkSystem{filter: kizuna.NewFilter[Blink](m)}
}

func (s *blinkSystem) update() error {
	var errs []error
	s.filter.Reset()
	for s.filter.Next() {
		b := s.filter.Get()
		if !b.step() {
			continue
		}
		value := "visible"
		if b.Hidden {
			value = "hidden"
		}
		if err := kizuna.NotifyValueChanged(b, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type orbitSystem struct {
	filter *kizuna.Filter2[Orbit, Transform, *Orbit, *Transform]
}

func newOrbitSystem(m *kizuna.EntityManager) *orbitSystem {
	return &orbitSystem{filter: kizuna.NewFilter2[Orbit, Transform](m)}
}

// update places orbiting children from the angle their Orbit advanced to.
func (s *orbitSystem) update() {
	s.filter.Reset()
	for s.filter.Next() {
		o, t := s.filter.Get()
		t.X = math.Cos(o.Angle) * o.Radius
		t.Y = math.Sin(o.Angle) * o.Radius
	}
}

// clickSystem publishes EntityClickedEvent for the topmost clickable entity
// under the cursor.
type clickSystem struct {
	m     *kizuna.EntityManager
	query *kizuna.Query
}

func newClickSystem(m *kizuna.EntityManager) *clickSystem {
	return &clickSystem{
		m:     m,
		query: kizuna.NewQuery(m, kizuna.ComponentKey[Clickable](), kizuna.ComponentKey[Transform]()),
	}
}

func (s *clickSystem) hit(mx, my int) *kizuna.Entity {
	var top *kizuna.Entity
	s.query.Reset()
	for s.query.Next() {
		e := s.query.Entity()
		if b := kizuna.GetComponent[Blink](e); b != nil && b.Hidden {
			continue
		}
		t := kizuna.GetComponent[Transform](e)
		x, y := worldPos(s.m, e)
		fx, fy := float64(mx), float64(my)
		if fx >= x && fx < x+t.W && fy >= y && fy < y+t.H {
			top = e
		}
	}
	return top
}

func (s *clickSystem) click(mx, my int) error {
	e := s.hit(mx, my)
	if e == nil {
		return nil
	}
	return kizuna.Publish(s.m.Bus(), EntityClickedEvent{
		EventBase: kizuna.NewEventBase(),
		Entity:    e.ID(),
		X:         mx,
		Y:         my,
	})
}
