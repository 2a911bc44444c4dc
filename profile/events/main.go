// Profiling:
// go build ./profile/events
// go tool pprof -http=":8000" -nodefraction=0.001 ./events cpu.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/edwinsyarief/kizuna"
)

type tickEvent struct {
	kizuna.EventBase
	N int
}

func main() {
	rounds := 20
	publishes := 100000
	handlers := 8
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, publishes, handlers)
	p.Stop()
}

func run(rounds, publishes, handlers int) {
	for range rounds {
		bus := kizuna.NewEventBus()
		sum := 0
		for range handlers {
			kizuna.SubscribeFunc(bus, func(e tickEvent) {
				sum += e.N
			})
		}
		m := kizuna.NewEntityManager(bus)
		kizuna.SubscribeFunc(bus, func(e kizuna.EntityCreatedEvent) {
			sum++
		})
		for i := range publishes {
			kizuna.Publish(bus, tickEvent{EventBase: kizuna.NewEventBase(), N: i})
			if i%100 == 0 {
				m.CreateEntity()
				m.Update()
			}
		}
		_ = sum
	}
}
