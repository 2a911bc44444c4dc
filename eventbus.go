package kizuna

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// eventSequence is shared by every event type, so sequence numbers form a
// single total order across the process.
var eventSequence atomic.Uint64

// EventBase carries the sequence number of an event. Embed it in every event
// type and initialise it with NewEventBase.
type EventBase struct {
	seq uint64
}

// NewEventBase stamps the next sequence number.
func NewEventBase() EventBase {
	return EventBase{seq: eventSequence.Add(1)}
}

// Sequence returns the number stamped at construction, 0 if unstamped.
func (e EventBase) Sequence() uint64 {
	return e.seq
}

// Event is implemented by every type that embeds EventBase.
type Event interface {
	Sequence() uint64
}

// SubscriptionID identifies one Subscribe call. Subscribing the same
// function twice yields two ids.
type SubscriptionID uint64

// handlerList holds the handlers of one concrete event type. The bus only
// sees it through dispatcher, so it never names the event type itself.
type handlerList[E Event] struct {
	entries []handlerEntry[E]
}

type handlerEntry[E Event] struct {
	id SubscriptionID
	fn func(E) error
}

type dispatcher interface {
	unsubscribe(id SubscriptionID) bool
	len() int
}

func (l *handlerList[E]) unsubscribe(id SubscriptionID) bool {
	for i, h := range l.entries {
		if h.id == id {
			// copy so a delivery already iterating the old slice is unaffected
			next := make([]handlerEntry[E], 0, len(l.entries)-1)
			next = append(next, l.entries[:i]...)
			l.entries = append(next, l.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *handlerList[E]) len() int {
	return len(l.entries)
}

// EventBus is a synchronous publish/subscribe channel. Handlers are stored
// per event TypeKey and run in subscription order inside Publish.
//
// An EventBus is meant to be driven from a single goroutine, like the
// EntityManager that publishes on it.
type EventBus struct {
	lists   []dispatcher               // indexed by event TypeKey
	owners  map[SubscriptionID]TypeKey // subscription -> event key
	logger  *slog.Logger
	nextSub SubscriptionID
}

// BusOption configures an EventBus.
type BusOption func(*EventBus)

// WithBusLogger sets the logger used to report handler failures.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *EventBus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewEventBus creates an empty bus.
func NewEventBus(opts ...BusOption) *EventBus {
	b := &EventBus{
		lists:  make([]dispatcher, 0, 16),
		owners: make(map[SubscriptionID]TypeKey),
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *EventBus) list(key TypeKey) dispatcher {
	if int(key) >= len(b.lists) {
		return nil
	}
	return b.lists[key]
}

// Subscribe registers handler for events of type E and returns an id that
// can be passed to Unsubscribe. A handler error does not stop delivery to
// the handlers after it; it is reported back to the publisher.
func Subscribe[E Event](bus *EventBus, handler func(E) error) SubscriptionID {
	if handler == nil {
		panic("kizuna: nil event handler")
	}
	key := EventKey[E]()
	if int(key) >= len(bus.lists) {
		grown := make([]dispatcher, int(key)+1)
		copy(grown, bus.lists)
		bus.lists = grown
	}
	l, _ := bus.lists[key].(*handlerList[E])
	if l == nil {
		l = &handlerList[E]{entries: make([]handlerEntry[E], 0, 4)}
		bus.lists[key] = l
	}
	bus.nextSub++
	id := bus.nextSub
	l.entries = append(l.entries, handlerEntry[E]{id: id, fn: handler})
	bus.owners[id] = key
	return id
}

// SubscribeFunc registers a handler that cannot fail.
func SubscribeFunc[E Event](bus *EventBus, handler func(E)) SubscriptionID {
	if handler == nil {
		panic("kizuna: nil event handler")
	}
	return Subscribe(bus, func(e E) error {
		handler(e)
		return nil
	})
}

// Unsubscribe removes a handler. Unknown or already removed ids are ignored
// and reported as false.
func (b *EventBus) Unsubscribe(id SubscriptionID) bool {
	key, ok := b.owners[id]
	if !ok {
		return false
	}
	delete(b.owners, id)
	l := b.list(key)
	return l != nil && l.unsubscribe(id)
}

// HandlerCount returns the number of handlers subscribed to E.
func HandlerCount[E Event](bus *EventBus) int {
	l := bus.list(EventKey[E]())
	if l == nil {
		return 0
	}
	return l.len()
}

// Publish delivers event to every handler subscribed to E before returning.
// Publishing with no subscribers is not an error. Handler errors and panics
// are collected; the remaining handlers still run and the failures are
// returned joined as *HandlerError values.
func Publish[E Event](bus *EventBus, event E) error {
	if event.Sequence() == 0 {
		return fmt.Errorf("publish %T without sequence (use NewEventBase): %w", event, ErrInvalidOperation)
	}
	key := EventKey[E]()
	l, _ := bus.list(key).(*handlerList[E])
	if l == nil || len(l.entries) == 0 {
		return nil
	}
	var errs []error
	for _, h := range l.entries {
		if err := invoke(h.fn, event); err != nil {
			herr := &HandlerError{Event: key, Subscription: h.id, Err: err}
			bus.logger.Warn("event handler failed",
				"event", TypeName(RoleEvent, key),
				"seq", event.Sequence(),
				"subscription", uint64(h.id),
				"err", err)
			errs = append(errs, herr)
		}
	}
	return errors.Join(errs...)
}

// invoke runs fn and turns a panic into an error.
func invoke[E Event](fn func(E) error, event E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()
	return fn(event)
}
