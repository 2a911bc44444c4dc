package kizuna

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

var errBench = errors.New("bench handler failed")

// go test -run ^$ -bench ^BenchmarkPublishFailSoft$ . -count 1
func BenchmarkPublishFailSoft(b *testing.B) {
	for _, failing := range []int{0, 1, 8} {
		b.Run(fmt.Sprintf("failing=%d", failing), func(b *testing.B) {
			bus := NewEventBus(WithBusLogger(slog.New(slog.DiscardHandler)))
			for i := range 16 {
				if i < failing {
					Subscribe(bus, func(e TestEvent) error { return errBench })
				} else {
					Subscribe(bus, func(e TestEvent) error { return nil })
				}
			}
			event := testEvent(1)
			b.ReportAllocs()
			for b.Loop() {
				err := Publish(bus, event)
				if (err != nil) != (failing > 0) {
					b.Fatalf("unexpected result %v", err)
				}
			}
		})
	}
}

// go test -run ^$ -bench ^BenchmarkPublishRecovered$ . -count 1
func BenchmarkPublishRecovered(b *testing.B) {
	bus := NewEventBus(WithBusLogger(slog.New(slog.DiscardHandler)))
	Subscribe(bus, func(e TestEvent) error { panic(errBench) })
	event := testEvent(1)
	b.ReportAllocs()
	for b.Loop() {
		if err := Publish(bus, event); !errors.Is(err, errBench) {
			b.Fatalf("expected recovered panic, got %v", err)
		}
	}
}

// go test -run ^$ -bench ^BenchmarkSubscriptionChurn$ . -count 1
func BenchmarkSubscriptionChurn(b *testing.B) {
	for _, resident := range []int{0, 64, 1024} {
		b.Run(fmt.Sprintf("resident=%d", resident), func(b *testing.B) {
			bus := NewEventBus()
			for range resident {
				SubscribeFunc(bus, func(e TestEvent) {})
			}
			b.ReportAllocs()
			for b.Loop() {
				id := SubscribeFunc(bus, func(e TestEvent) {})
				if !bus.Unsubscribe(id) {
					b.Fatal("unsubscribe failed")
				}
			}
		})
	}
}

// go test -run ^$ -bench ^BenchmarkMixedEventTypes$ . -count 1
func BenchmarkMixedEventTypes(b *testing.B) {
	bus := NewEventBus()
	var last uint64
	SubscribeFunc(bus, func(e TestEvent) { last = e.Sequence() })
	SubscribeFunc(bus, func(e OtherEvent) { last = e.Sequence() })
	SubscribeFunc(bus, func(e EntityCreatedEvent) { last = e.Sequence() })
	b.ReportAllocs()
	for b.Loop() {
		Publish(bus, testEvent(1))
		Publish(bus, OtherEvent{EventBase: NewEventBase(), X: 2})
		Publish(bus, EntityCreatedEvent{EventBase: NewEventBase()})
	}
	if last == 0 {
		b.Fatal("no event delivered")
	}
}

// go test -run ^$ -bench ^BenchmarkPublishUnsubscribed$ . -count 1
func BenchmarkPublishUnsubscribed(b *testing.B) {
	bus := NewEventBus()
	ids := make([]SubscriptionID, 0, 256)
	for range 256 {
		ids = append(ids, SubscribeFunc(bus, func(e TestEvent) {}))
	}
	for _, id := range ids {
		bus.Unsubscribe(id)
	}
	event := testEvent(1)
	b.ReportAllocs()
	for b.Loop() {
		Publish(bus, event)
	}
}
