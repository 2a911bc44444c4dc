package kizuna

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// go test -run ^TestEventLogger$ . -count 1
func TestEventLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := NewEventBus()
	m := NewEntityManager(bus, WithLogger(slog.New(slog.DiscardHandler)))

	el := NewEventLogger(bus, log)
	el.LogCoreEvents(slog.LevelInfo)
	LogEvents[TestEvent](el, slog.LevelDebug)

	e := m.CreateEntity()
	AddComponent(e, Position{})
	mustUpdate(t, m)
	Publish(bus, testEvent(7))

	out := buf.String()
	for _, want := range []string{"EntityCreatedEvent", "ComponentsChangedEvent", "TestEvent"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s:\n%s", want, out)
		}
	}

	el.Close()
	if HandlerCount[EntityCreatedEvent](bus) != 0 || HandlerCount[TestEvent](bus) != 0 {
		t.Error("Close left subscriptions behind")
	}
	buf.Reset()
	m.CreateEntity()
	mustUpdate(t, m)
	if buf.Len() != 0 {
		t.Errorf("closed logger still writing: %s", buf.String())
	}
}
