package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// chime plays a short falling tone whenever entities are removed. A chime
// whose speaker failed to open stays silent.
type chime struct {
	enabled bool
}

func newChime() (*chime, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return &chime{}, err
	}
	return &chime{enabled: true}, nil
}

func (c *chime) play(count int) {
	if !c.enabled || count == 0 {
		return
	}
	d := time.Millisecond * time.Duration(90+30*min(count, 5))
	speaker.Play(beep.Take(sampleRate.N(d), &dropTone{sr: sampleRate, freq: 660}))
}

// dropTone is a sine whose pitch falls by an octave per second.
type dropTone struct {
	sr    beep.SampleRate
	freq  float64
	phase float64
	pos   int
}

func (g *dropTone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		f := g.freq * math.Pow(0.5, t)
		g.phase += 2 * math.Pi * f / float64(g.sr)
		envelope := math.Min(t/0.01, 1.0) * math.Exp(-t*8)
		s := 0.25 * envelope * math.Sin(g.phase)
		samples[i][0] = s
		samples[i][1] = s
		g.pos++
	}
	return len(samples), true
}

func (g *dropTone) Err() error {
	return nil
}
