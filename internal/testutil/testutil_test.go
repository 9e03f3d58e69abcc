package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

func TestLogger_NotNil(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if db == nil {
		t.Fatal("expected non-nil store")
	}
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}

func TestCollector_RecordsEvents(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	t.Cleanup(bus.Close)
	c := Collect(bus, "test.topic")

	bus.Publish(context.Background(), event.Event{Topic: "test.topic", Source: "test"})
	bus.Publish(context.Background(), event.Event{Topic: "other.topic", Source: "test"})

	events := c.Events()
	if len(events) != 1 {
		t.Fatalf("Events len = %d, want 1", len(events))
	}
	if events[0].Topic != "test.topic" {
		t.Errorf("events[0].Topic = %q, want test.topic", events[0].Topic)
	}
}

func TestCollector_Changes(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	t.Cleanup(bus.Close)
	c := Collect(bus)

	ev := models.ChangeEvent{Host: "10.0.0.1", ChangeKind: models.ChangeStatus}
	bus.Publish(context.Background(), event.Event{Topic: event.TopicChange, Payload: ev})
	bus.Publish(context.Background(), event.Event{Topic: "noise", Payload: "not a change"})

	changes := c.Changes()
	if len(changes) != 1 {
		t.Fatalf("Changes len = %d, want 1", len(changes))
	}
	if changes[0].Host != "10.0.0.1" {
		t.Errorf("Host = %q, want 10.0.0.1", changes[0].Host)
	}

	c.Reset()
	if len(c.Events()) != 0 {
		t.Error("expected empty events after Reset")
	}
}

func TestClock_Advance(t *testing.T) {
	c := NewClock()
	start := c.Now()
	c.Advance(5 * time.Minute)
	if got := c.Now().Sub(start); got != 5*time.Minute {
		t.Errorf("Advance: elapsed = %v, want 5m", got)
	}
}

func TestClock_Set(t *testing.T) {
	c := NewClock()
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	if !c.Now().Equal(target) {
		t.Errorf("Set: got %v, want %v", c.Now(), target)
	}
}

func TestNewSnapshot_Defaults(t *testing.T) {
	s := NewSnapshot()
	if s.Host != "192.168.0.2" {
		t.Errorf("Host = %q, want 192.168.0.2", s.Host)
	}
	if len(s.Ports) != 2 {
		t.Errorf("Ports = %d, want 2", len(s.Ports))
	}
}

func TestNewSnapshot_WithOptions(t *testing.T) {
	s := NewSnapshot(
		WithHost("10.0.0.9"),
		WithPorts(models.PortState{PortNumber: 7, Status: models.PortStatusEnabled}),
	)
	if s.Host != "10.0.0.9" {
		t.Errorf("Host = %q, want 10.0.0.9", s.Host)
	}
	if len(s.Ports) != 1 || s.Ports[0].PortNumber != 7 {
		t.Errorf("Ports = %+v, want single port 7", s.Ports)
	}
}
