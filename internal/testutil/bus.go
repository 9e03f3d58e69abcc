package testutil

import (
	"context"
	"sync"

	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/pkg/models"
)

// Collector subscribes to a bus and records everything delivered, in order.
type Collector struct {
	mu     sync.Mutex
	events []event.Event
}

// Collect attaches a collector to the given topics. With no topics it records
// everything.
func Collect(bus *event.Bus, topics ...string) *Collector {
	c := &Collector{}
	handler := func(_ context.Context, e event.Event) {
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
	}
	if len(topics) == 0 {
		bus.SubscribeAll(handler)
		return c
	}
	for _, topic := range topics {
		bus.Subscribe(topic, handler)
	}
	return c
}

// Events returns a copy of all recorded events.
func (c *Collector) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Changes returns the recorded payloads that are change events.
func (c *Collector) Changes() []models.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.ChangeEvent
	for _, e := range c.events {
		if ev, ok := e.Payload.(models.ChangeEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

// Reset clears all recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
