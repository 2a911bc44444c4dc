// Command sandbox is a small ebiten scene driven by kizuna. Click a box to
// remove it together with its orbiting children; press space to spawn one.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/edwinsyarief/kizuna"
)

const (
	screenWidth  = 960
	screenHeight = 600
)

var errQuit = errors.New("quit")

type Game struct {
	m      *kizuna.EntityManager
	states *kizuna.StateStack
	blink  *blinkSystem
	orbit  *orbitSystem
	click  *clickSystem
	rng    *rand.Rand

	created, removed int
	lastErr          error
}

// playState runs the scene systems while it is on top of the stack.
type playState struct {
	g *Game
}

func (s *playState) Enter() {
	for range 4 {
		s.g.spawn()
	}
}

func (s *playState) Update() error {
	g := s.g
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.spawn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if err := kizuna.PushState[pauseState](g.states); err != nil {
			return err
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if err := g.click.click(mx, my); err != nil {
			g.lastErr = err
		}
	}
	g.m.UpdateComponents(time.Second / time.Duration(ebiten.TPS()))
	g.orbit.update()
	return g.blink.update()
}

func (s *playState) Exit() {}

type pauseState struct {
	g *Game
}

func (s *pauseState) Enter() {}

func (s *pauseState) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		s.g.states.Pop()
	}
	return nil
}

func (s *pauseState) Exit() {}

func NewGame(log *slog.Logger, seed uint64) (*Game, error) {
	if err := registerShapes(); err != nil {
		return nil, err
	}
	bus := kizuna.NewEventBus(kizuna.WithBusLogger(log))
	m := kizuna.NewEntityManager(bus, kizuna.WithLogger(log))
	g := &Game{
		m:      m,
		states: kizuna.NewStateStack(log),
		blink:  newBlinkSystem(m),
		orbit:  newOrbitSystem(m),
		click:  newClickSystem(m),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	if _, err := m.Resources().Add(&clock{}); err != nil {
		return nil, err
	}

	kizuna.SubscribeFunc(bus, func(e kizuna.EntityCreatedEvent) { g.created++ })
	kizuna.SubscribeFunc(bus, func(e kizuna.EntityRemovedEvent) { g.removed++ })
	kizuna.Subscribe(bus, func(e EntityClickedEvent) error {
		ent, err := m.Entity(e.Entity)
		if err != nil {
			return err
		}
		c := kizuna.GetComponent[Clickable](ent)
		c.Clicks++
		return m.RemoveEntity(e.Entity)
	})

	if err := kizuna.RegisterState(g.states, func() *playState { return &playState{g: g} }); err != nil {
		return nil, err
	}
	if err := kizuna.RegisterState(g.states, func() *pauseState { return &pauseState{g: g} }); err != nil {
		return nil, err
	}
	if err := kizuna.PushState[playState](g.states); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) spawn() {
	palette := []color.RGBA{
		{230, 90, 70, 255}, {80, 170, 230, 255}, {120, 200, 110, 255}, {240, 200, 80, 255},
	}
	root := g.m.CreateEntity()
	kizuna.AddComponent(root, Transform{
		X: 60 + g.rng.Float64()*(screenWidth-180),
		Y: 60 + g.rng.Float64()*(screenHeight-180),
		W: 48, H: 48,
	})
	kizuna.AddComponent(root, Body{Color: palette[g.rng.IntN(len(palette))], Label: fmt.Sprintf("#%d", root.ID().Index())})
	kizuna.AddComponent(root, Clickable{})
	root.AddToGroup("roots")

	for i := range g.rng.IntN(3) + 1 {
		child, err := g.m.CreateChild(root.ID())
		if err != nil {
			g.lastErr = err
			return
		}
		kizuna.AddComponent(child, Transform{W: 14, H: 14})
		kizuna.AddComponent(child, Disc{Color: color.RGBA{220, 220, 220, 255}})
		kizuna.AddComponent(child, Orbit{Radius: 40 + float64(i)*14, Speed: 1.8 + 1.2*float64(i), Angle: float64(i)})
		kizuna.AddComponent(child, Clickable{})
		if i == 0 {
			kizuna.AddComponent(child, Blink{Period: 30})
		}
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if c, _ := kizuna.GetResource[clock](g.m.Resources()); c != nil {
		c.frame++
	}
	if err := g.states.Update(); err != nil {
		g.lastErr = err
	}
	if err := g.m.Update(); err != nil {
		g.lastErr = err
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{18, 20, 30, 255})
	q := kizuna.NewQuery(g.m, kizuna.ComponentKey[Transform](), kizuna.ComponentKey[Shape]())
	for q.Next() {
		e := q.Entity()
		if b := kizuna.GetComponent[Blink](e); b != nil && b.Hidden {
			continue
		}
		shape, _ := kizuna.ComponentAs[Shape](e)
		x, y := worldPos(g.m, e)
		shape.draw(screen, x, y, kizuna.GetComponent[Transform](e))
	}

	var frame uint64
	if c, _ := kizuna.GetResource[clock](g.m.Resources()); c != nil {
		frame = c.frame
	}
	status := fmt.Sprintf("frame %d  live %d  roots %d  created %d  removed %d",
		frame, g.m.Len(), len(g.m.Group("roots")), g.created, g.removed)
	if _, paused := g.states.Top().(*pauseState); paused {
		status += "  [paused]"
	}
	ebitenutil.DebugPrintAt(screen, status, 10, 8)
	ebitenutil.DebugPrintAt(screen, "click: remove  space: spawn  p: pause  esc: quit", 10, screenHeight-20)
	if g.lastErr != nil {
		ebitenutil.DebugPrintAt(screen, g.lastErr.Error(), 10, 24)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	var (
		seed    uint64
		verbose bool
	)
	flag.Uint64Var(&seed, "seed", 1, "random seed")
	flag.BoolVar(&verbose, "v", false, "log structural events")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	kizuna.SetLogger(log)

	g, err := NewGame(log, seed)
	if err != nil {
		log.Error("setup failed", "err", err)
		os.Exit(1)
	}
	if verbose {
		el := kizuna.NewEventLogger(g.m.Bus(), log)
		el.LogCoreEvents(slog.LevelDebug)
		kizuna.LogEvents[EntityClickedEvent](el, slog.LevelDebug)
		defer el.Close()
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("kizuna sandbox")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		log.Error("game stopped", "err", err)
		os.Exit(1)
	}
}
