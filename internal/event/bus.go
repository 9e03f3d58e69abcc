// Package event provides the in-process event bus connecting the monitoring
// loops to the history recorder and any other interested module.
package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a message published on the bus.
type Event struct {
	Topic     string
	Source    string
	Timestamp time.Time
	Payload   any
}

// Handler processes one event. Handlers must not block for long; async
// dispatch is serialized, so a slow handler delays everything behind it.
type Handler func(ctx context.Context, e Event)

// Topics published by the monitoring module.
const (
	TopicChange       = "monitor.change"
	TopicConnectivity = "monitor.connectivity"
)

type subscription struct {
	id      int
	handler Handler
}

type queued struct {
	ctx   context.Context
	event Event
}

// Bus is a topic-based publish/subscribe bus. Publish dispatches in the
// caller's goroutine; PublishAsync enqueues onto a single dispatch goroutine,
// which keeps asynchronous events in publication order — the monitor relies
// on that for per-entity history ordering.
type Bus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[string][]subscription
	all    []subscription
	nextID int

	queue chan queued
	done  chan struct{}
	once  sync.Once
}

// NewBus creates a bus and starts its async dispatcher.
func NewBus(logger *zap.Logger) *Bus {
	b := &Bus{
		logger: logger,
		subs:   make(map[string][]subscription),
		queue:  make(chan queued, 1024),
		done:   make(chan struct{}),
	}
	go b.dispatchLoop()
	return b
}

// Publish delivers an event to all subscribers synchronously, in
// subscription order. A panicking handler is isolated and logged.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.deliver(ctx, event)
	return nil
}

// PublishAsync enqueues an event for ordered asynchronous delivery. When the
// queue is full the event is dropped and logged rather than blocking the
// publisher; the monitoring tick must never stall on a slow consumer.
func (b *Bus) PublishAsync(ctx context.Context, event Event) {
	select {
	case b.queue <- queued{ctx: ctx, event: event}:
	default:
		b.logger.Warn("event queue full, dropping event",
			zap.String("topic", event.Topic),
			zap.String("source", event.Source),
		)
	}
}

// Subscribe registers a handler for one topic and returns its unsubscribe
// function.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	return func() { b.unsubscribe(topic, id) }
}

// SubscribeAll registers a handler for every topic.
func (b *Bus) SubscribeAll(handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})
	return func() { b.unsubscribe("", id) }
}

// Close stops the async dispatcher after draining queued events.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bus) unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if topic == "" {
		b.all = removeSub(b.all, id)
		return
	}
	b.subs[topic] = removeSub(b.subs[topic], id)
}

func removeSub(subs []subscription, id int) []subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bus) dispatchLoop() {
	for {
		select {
		case q := <-b.queue:
			b.deliver(q.ctx, q.event)
		case <-b.done:
			// Drain what is already queued so shutdown does not lose
			// detected changes.
			for {
				select {
				case q := <-b.queue:
					b.deliver(q.ctx, q.event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event.Topic])+len(b.all))
	for _, s := range b.subs[event.Topic] {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.all {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(ctx, event, h)
	}
}

// invoke runs one handler with panic isolation.
func (b *Bus) invoke(ctx context.Context, event Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}
