package server

import (
	"context"
	"sync"
	"time"
)

const (
	// EventTreeChanged announces a created, updated, regrown, or deleted tree.
	EventTreeChanged = "tree-change"
	// EventLogChanged announces a new care/harvest/yield log entry.
	EventLogChanged = "log-change"

	eventHeartbeat     = "heartbeat"
	eventSourceBackend = "duriantrack-backend"

	// subscribeAllPlots receives every event regardless of plot.
	subscribeAllPlots = "*"
)

// FarmEvent tells dashboard clients which trees changed under which plot.
type FarmEvent struct {
	PlotCode  string    `json:"plot_code"`
	EventType string    `json:"event_type"`
	TreeCodes []string  `json:"tree_codes"`
	Timestamp time.Time `json:"timestamp"`
}

// EventDispatcher fans farm events out to SSE subscribers. Slow subscribers
// drop messages rather than block writers.
type EventDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*eventSubscriber
	nextID      int64
	bufferSize  int
}

type eventSubscriber struct {
	id     int64
	stream chan FarmEvent
}

// NewEventDispatcher constructs an empty dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		subscribers: make(map[string]map[int64]*eventSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers for events under the plot code, or all plots when the
// code is empty. The subscription ends when ctx is done or the returned
// cleanup runs.
func (d *EventDispatcher) Subscribe(ctx context.Context, plotCode string) (<-chan FarmEvent, func()) {
	if plotCode == "" {
		plotCode = subscribeAllPlots
	}
	subscriber := &eventSubscriber{
		id:     d.nextSequence(),
		stream: make(chan FarmEvent, d.bufferSize),
	}
	d.registerSubscriber(plotCode, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(plotCode, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the event to the plot's subscribers and to wildcard
// subscribers. Full buffers drop the message for that subscriber.
func (d *EventDispatcher) Publish(event FarmEvent) {
	if event.PlotCode == "" || event.EventType == "" {
		return
	}
	d.mu.RLock()
	copies := make([]*eventSubscriber, 0)
	for _, subscriber := range d.subscribers[event.PlotCode] {
		copies = append(copies, subscriber)
	}
	for _, subscriber := range d.subscribers[subscribeAllPlots] {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()

	for _, subscriber := range copies {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

func (d *EventDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *EventDispatcher) registerSubscriber(plotCode string, subscriber *eventSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[plotCode]; !ok {
		d.subscribers[plotCode] = make(map[int64]*eventSubscriber)
	}
	d.subscribers[plotCode][subscriber.id] = subscriber
}

func (d *EventDispatcher) unregisterSubscriber(plotCode string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[plotCode]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, plotCode)
		}
	}
	d.mu.Unlock()
}
