package main

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/edwinsyarief/kizuna"
)

// Shape is anything that can paint an entity. Body and Disc both answer to
// it, so an entity carries one or the other.
type Shape interface {
	draw(dst *ebiten.Image, x, y float64, t *Transform)
}

func registerShapes() error {
	if err := kizuna.RegisterPolymorphism[Body, Shape](); err != nil {
		return err
	}
	return kizuna.RegisterPolymorphism[Disc, Shape]()
}

// Transform places an entity relative to its parent.
type Transform struct {
	kizuna.ComponentBase
	X, Y float64
	W, H float64
}

// Body gives an entity a colour and a label.
type Body struct {
	kizuna.ComponentBase
	Color color.RGBA
	Label string
}

func (b *Body) draw(dst *ebiten.Image, x, y float64, t *Transform) {
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(t.W), float32(t.H), b.Color, false)
	if b.Label != "" {
		text.Draw(dst, b.Label, basicfont.Face7x13, int(x)+4, int(y)+16, color.Black)
	}
}

// Disc paints a filled circle inside the transform box.
type Disc struct {
	kizuna.ComponentBase
	Color color.RGBA
}

func (d *Disc) draw(dst *ebiten.Image, x, y float64, t *Transform) {
	r := min(t.W, t.H) / 2
	vector.DrawFilledCircle(dst, float32(x+t.W/2), float32(y+t.H/2), float32(r), d.Color, true)
}

// Blink toggles visibility every Period ticks.
type Blink struct {
	kizuna.ComponentBase
	Period  int
	elapsed int
	Hidden  bool
}

func (b *Blink) step() bool {
	b.elapsed++
	if b.elapsed < b.Period {
		return false
	}
	b.elapsed = 0
	b.Hidden = !b.Hidden
	return true
}

// Clickable marks entities that react to the mouse. Clicks counts how many
// times the entity was hit.
type Clickable struct {
	kizuna.ComponentBase
	Clicks int
}

// Orbit spins a child around its parent. Speed is in radians per second.
type Orbit struct {
	kizuna.ComponentBase
	Radius float64
	Speed  float64
	Angle  float64
}

func (o *Orbit) Update(dt time.Duration) {
	o.Angle += o.Speed * dt.Seconds()
}

// EntityClickedEvent is published when the mouse hits a Clickable entity.
type EntityClickedEvent struct {
	kizuna.EventBase
	Entity kizuna.HandleID
	X, Y   int
}

// clock is a manager resource with the frame counter.
type clock struct {
	frame uint64
}
