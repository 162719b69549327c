package server

import (
	"context"
	"testing"
	"time"
)

func receiveEvent(t *testing.T, stream <-chan FarmEvent) FarmEvent {
	t.Helper()
	select {
	case event := <-stream:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return FarmEvent{}
	}
}

func expectNoEvent(t *testing.T, stream <-chan FarmEvent) {
	t.Helper()
	select {
	case event := <-stream:
		t.Fatalf("unexpected event delivered: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcherDeliversToPlotSubscribers(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "A")
	defer cleanup()

	published := FarmEvent{
		PlotCode:  "A",
		EventType: EventTreeChanged,
		TreeCodes: []string{"A1-T1"},
		Timestamp: time.Now(),
	}
	dispatcher.Publish(published)

	received := receiveEvent(t, stream)
	if received.PlotCode != "A" || received.EventType != EventTreeChanged {
		t.Fatalf("received %+v, expected the published event", received)
	}
	if len(received.TreeCodes) != 1 || received.TreeCodes[0] != "A1-T1" {
		t.Fatalf("received tree codes %v", received.TreeCodes)
	}
}

func TestDispatcherScopesByPlot(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamA, cleanupA := dispatcher.Subscribe(ctx, "A")
	defer cleanupA()
	streamB, cleanupB := dispatcher.Subscribe(ctx, "B")
	defer cleanupB()

	dispatcher.Publish(FarmEvent{PlotCode: "A", EventType: EventLogChanged, Timestamp: time.Now()})

	receiveEvent(t, streamA)
	expectNoEvent(t, streamB)
}

func TestWildcardSubscriberReceivesEveryPlot(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "")
	defer cleanup()

	dispatcher.Publish(FarmEvent{PlotCode: "A", EventType: EventTreeChanged, Timestamp: time.Now()})
	dispatcher.Publish(FarmEvent{PlotCode: "B", EventType: EventLogChanged, Timestamp: time.Now()})

	first := receiveEvent(t, stream)
	second := receiveEvent(t, stream)
	if first.PlotCode != "A" || second.PlotCode != "B" {
		t.Fatalf("wildcard order got %q then %q", first.PlotCode, second.PlotCode)
	}
}

func TestCancelledSubscriberStopsReceiving(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())

	stream, cleanup := dispatcher.Subscribe(ctx, "A")
	cancel()
	cleanup()

	dispatcher.Publish(FarmEvent{PlotCode: "A", EventType: EventTreeChanged, Timestamp: time.Now()})
	expectNoEvent(t, stream)
}

func TestPublishIgnoresIncompleteEvents(t *testing.T) {
	dispatcher := NewEventDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := dispatcher.Subscribe(ctx, "")
	defer cleanup()

	dispatcher.Publish(FarmEvent{EventType: EventTreeChanged})
	dispatcher.Publish(FarmEvent{PlotCode: "A"})
	expectNoEvent(t, stream)
}
