// Command inspect browses an entity forest in the terminal.
//
//	up/down, j/k  select
//	d             remove the selected subtree
//	r             detach the selected entity to the root
//	s             dump the selected entity as TOML
//	q, esc        quit
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/edwinsyarief/kizuna"
	"github.com/edwinsyarief/kizuna/serial"
)

type row struct {
	id    kizuna.HandleID
	depth int
}

type inspector struct {
	screen   tcell.Screen
	m        *kizuna.EntityManager
	reg      *kizuna.SerializerRegistry
	chime    *chime
	rows     []row
	selected int
	detail   []string
	status   string
	removed  int
}

func (in *inspector) rebuild() {
	in.rows = in.rows[:0]
	var walk func(id kizuna.HandleID, depth int)
	walk = func(id kizuna.HandleID, depth int) {
		e, err := in.m.Entity(id)
		if err != nil || !e.IsActive() {
			return
		}
		in.rows = append(in.rows, row{id: id, depth: depth})
		for _, c := range e.ChildIDs() {
			walk(c, depth+1)
		}
	}
	for _, e := range in.m.Roots() {
		walk(e.ID(), 0)
	}
	in.selected = max(0, min(in.selected, len(in.rows)-1))
}

func (in *inspector) current() *kizuna.Entity {
	if len(in.rows) == 0 {
		return nil
	}
	e, err := in.m.Entity(in.rows[in.selected].id)
	if err != nil {
		return nil
	}
	return e
}

func label(e *kizuna.Entity) string {
	if n := kizuna.GetComponent[Name](e); n != nil {
		return n.Value
	}
	return e.ID().String()
}

func (in *inspector) sync() {
	if err := in.m.Update(); err != nil {
		in.status = err.Error()
	}
	in.rebuild()
}

func (in *inspector) remove() {
	e := in.current()
	if e == nil {
		return
	}
	if err := e.Destroy(); err != nil {
		in.status = err.Error()
		return
	}
	in.sync()
}

func (in *inspector) detach() {
	e := in.current()
	if e == nil {
		return
	}
	if err := in.m.SetParent(e.ID(), kizuna.NullID); err != nil {
		in.status = err.Error()
		return
	}
	in.sync()
}

func (in *inspector) dump() {
	e := in.current()
	if e == nil {
		return
	}
	var buf bytes.Buffer
	if err := serial.EncodeEntity(&buf, in.reg, e); err != nil {
		in.status = err.Error()
		return
	}
	in.detail = strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func (in *inspector) draw() {
	s := in.screen
	s.Clear()
	w, h := s.Size()
	head := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	drawText(s, 0, 0, head, fmt.Sprintf("entities %d  tick %d  removed %d", in.m.Len(), in.m.Tick(), in.removed))

	for i, r := range in.rows {
		y := i + 2
		if y >= h-1 {
			break
		}
		e, err := in.m.Entity(r.id)
		if err != nil {
			continue
		}
		style := tcell.StyleDefault
		if i == in.selected {
			style = style.Reverse(true)
		}
		line := fmt.Sprintf("%s%s", strings.Repeat("  ", r.depth), label(e))
		if g := e.Groups(); len(g) > 0 {
			line += " [" + strings.Join(g, ",") + "]"
		}
		drawText(s, 1, y, style, line)
	}

	col := w / 2
	if e := in.current(); e != nil {
		info := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		drawText(s, col, 2, info, fmt.Sprintf("%s  %s", e.ID(), e.State()))
		y := 3
		for _, key := range e.ComponentKeys() {
			drawText(s, col, y, info, "- "+kizuna.TypeName(kizuna.RoleComponent, key))
			y++
		}
		for _, line := range in.detail {
			y++
			if y >= h-1 {
				break
			}
			drawText(s, col, y, tcell.StyleDefault, line)
		}
	}
	drawText(s, 0, h-1, tcell.StyleDefault.Foreground(tcell.ColorRed), in.status)
	s.Show()
}

// handle processes one terminal event and reports whether to keep running.
func (in *inspector) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyUp || ev.Rune() == 'k':
			in.selected = max(0, in.selected-1)
			in.detail = nil
		case ev.Key() == tcell.KeyDown || ev.Rune() == 'j':
			in.selected = min(len(in.rows)-1, in.selected+1)
			in.detail = nil
		case ev.Rune() == 'd':
			in.remove()
		case ev.Rune() == 'r':
			in.detach()
		case ev.Rune() == 's':
			in.dump()
		case ev.Rune() == 'q':
			return false
		}
	case *tcell.EventResize:
		in.screen.Sync()
	}
	return true
}

func main() {
	var (
		scenePath string
		logPath   string
		mute      bool
	)
	flag.StringVar(&scenePath, "scene", "", "TOML scene file (built-in demo if empty)")
	flag.StringVar(&logPath, "log", "", "write debug log to this file")
	flag.BoolVar(&mute, "mute", false, "disable the removal chime")
	flag.Parse()

	log := slog.New(slog.DiscardHandler)
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	kizuna.SetLogger(log)

	m := kizuna.NewEntityManager(nil, kizuna.WithLogger(log))
	reg, err := newRegistry()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if scenePath != "" {
		err = loadScene(scenePath, m, reg)
	} else {
		err = buildScene(demoScene(), m, reg)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	in := &inspector{m: m, reg: reg, chime: &chime{}}
	if !mute {
		c, err := newChime()
		if err != nil {
			log.Warn("audio disabled", "err", err)
		}
		in.chime = c
	}
	events := kizuna.NewEventLogger(m.Bus(), log)
	events.LogCoreEvents(slog.LevelDebug)
	defer events.Close()

	// count removals per sync and chime once for the batch
	pending := 0
	kizuna.SubscribeFunc(m.Bus(), func(e kizuna.EntityRemovedEvent) {
		pending++
		in.removed++
	})

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer screen.Fini()
	in.screen = screen
	in.rebuild()

	for {
		in.draw()
		if !in.handle(screen.PollEvent()) {
			return
		}
		if pending > 0 {
			in.chime.play(pending)
			pending = 0
		}
	}
}
