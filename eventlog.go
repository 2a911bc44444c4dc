package kizuna

import (
	"context"
	"log/slog"
)

// EventLogger writes selected event types to a slog.Logger as they are
// published. It is a debugging aid; attach it, then Close it when done.
type EventLogger struct {
	bus    *EventBus
	logger *slog.Logger
	subs   []SubscriptionID
}

// NewEventLogger creates a logger for bus. A nil logger uses the package
// logger.
func NewEventLogger(bus *EventBus, l *slog.Logger) *EventLogger {
	if l == nil {
		l = logger
	}
	return &EventLogger{bus: bus, logger: l}
}

// LogEvents starts logging every E published on the logger's bus at level.
func LogEvents[E Event](l *EventLogger, level slog.Level) SubscriptionID {
	key := EventKey[E]()
	name := TypeName(RoleEvent, key)
	id := SubscribeFunc(l.bus, func(e E) {
		l.logger.Log(context.Background(), level, "event",
			"type", name,
			"seq", e.Sequence(),
			"event", e)
	})
	l.subs = append(l.subs, id)
	return id
}

// LogCoreEvents logs every structural event the EntityManager publishes.
func (l *EventLogger) LogCoreEvents(level slog.Level) {
	LogEvents[EntityCreatedEvent](l, level)
	LogEvents[EntityRemovedEvent](l, level)
	LogEvents[ComponentsChangedEvent](l, level)
	LogEvents[HierarchyChangedEvent](l, level)
	LogEvents[ComponentValueChangedEvent](l, level)
}

// Close unsubscribes everything the logger subscribed.
func (l *EventLogger) Close() {
	for _, id := range l.subs {
		l.bus.Unsubscribe(id)
	}
	l.subs = nil
}
