// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/edwinsyarief/kizuna"
)

type comp1 struct {
	kizuna.ComponentBase
	V int64
	W int64
}

type comp2 struct {
	kizuna.ComponentBase
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		m := kizuna.NewEntityManager(nil, kizuna.WithInitialCapacity(numEntities))
		query := kizuna.NewFilter2[comp1, comp2](m)
		batch := kizuna.NewBuilder2[comp1, comp2](m)

		for range iters {
			batch.NewEntities(numEntities)
			m.Update()
			ids := make([]kizuna.HandleID, 0, numEntities)
			query.Reset()
			for query.Next() {
				ids = append(ids, query.Entity().ID())
				c1, c2 := query.Get()
				c1.V += c2.V
				c1.W += c2.W
			}
			for _, id := range ids {
				m.RemoveEntity(id)
			}
			m.Update()
		}
	}
}
