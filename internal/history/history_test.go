package history

import (
	"context"
	"testing"
	"time"

	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/internal/testutil"
	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

// newTestStore creates an in-memory history store with migrations applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.NewStore(t)
	if err := db.Migrate(context.Background(), "history", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db.DB())
}

func sampleEvent(host string, kind models.ChangeKind, at time.Time) models.ChangeEvent {
	return models.ChangeEvent{
		Host:          host,
		EntityType:    models.EntityPort,
		EntityKey:     "3",
		ChangeKind:    kind,
		Field:         "status",
		PreviousValue: `"Enabled"`,
		NewValue:      `"Disabled"`,
		Timestamp:     at,
	}
}

func TestInsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := s.Insert(ctx, sampleEvent("192.168.0.1", models.ChangeStatus, now)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	events, err := s.List(ctx, EventFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("List() returned %d events, want 1", len(events))
	}

	got := events[0]
	if got.ID == "" {
		t.Error("stored event has empty ID")
	}
	if got.Event.Host != "192.168.0.1" {
		t.Errorf("Host = %q, want %q", got.Event.Host, "192.168.0.1")
	}
	if got.Event.ChangeKind != models.ChangeStatus {
		t.Errorf("ChangeKind = %q, want %q", got.Event.ChangeKind, models.ChangeStatus)
	}
	if got.Event.PreviousValue != `"Enabled"` {
		t.Errorf("PreviousValue = %q, want %q", got.Event.PreviousValue, `"Enabled"`)
	}
}

func TestList_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	inserts := []models.ChangeEvent{
		sampleEvent("10.0.0.1", models.ChangeStatus, base),
		sampleEvent("10.0.0.1", models.ChangeConfig, base.Add(time.Minute)),
		sampleEvent("10.0.0.2", models.ChangeStatus, base.Add(2*time.Minute)),
	}
	for _, ev := range inserts {
		if err := s.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		filters EventFilters
		want    int
	}{
		{"no filters", EventFilters{}, 3},
		{"by host", EventFilters{Host: "10.0.0.1"}, 2},
		{"by kind", EventFilters{ChangeKind: string(models.ChangeConfig)}, 1},
		{"by entity type", EventFilters{EntityType: string(models.EntityPort)}, 3},
		{"since", EventFilters{Since: base.Add(time.Minute)}, 2},
		{"until", EventFilters{Until: base}, 1},
		{"limit", EventFilters{Limit: 2}, 2},
		{"no match", EventFilters{Host: "10.0.0.9"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := s.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("List() returned %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Same timestamp for all three; seq must break the tie in detection order.
	for i := 0; i < 3; i++ {
		ev := sampleEvent("10.0.0.1", models.ChangeStatus, now)
		ev.EntityKey = string(rune('1' + i))
		if err := s.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	events, err := s.List(ctx, EventFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("List() returned %d events, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i-1].Seq < events[i].Seq {
			t.Errorf("events not in descending seq order: %d before %d", events[i-1].Seq, events[i].Seq)
		}
	}
	if events[0].Event.EntityKey != "3" {
		t.Errorf("newest event EntityKey = %q, want %q", events[0].Event.EntityKey, "3")
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := s.Insert(ctx, sampleEvent("10.0.0.1", models.ChangeStatus, base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	n, err := s.Purge(ctx, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Purge() removed %d rows, want 3", n)
	}

	events, err := s.List(ctx, EventFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("%d events remain after purge, want 2", len(events))
	}
}

func TestRecorder_FlushOnStop(t *testing.T) {
	s := newTestStore(t)
	rec := NewAsyncRecorder(s, zap.NewNop())
	rec.Start(context.Background())

	for i := 0; i < 10; i++ {
		rec.Record(sampleEvent("10.0.0.1", models.ChangeStatus, time.Now().UTC()))
	}
	rec.Stop()

	events, err := s.List(context.Background(), EventFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 10 {
		t.Errorf("%d events persisted, want 10", len(events))
	}
	if rec.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", rec.Dropped())
	}
}

func TestRecorder_RecordAfterStop(t *testing.T) {
	s := newTestStore(t)
	rec := NewAsyncRecorder(s, zap.NewNop())
	rec.Start(context.Background())

	rec.Record(sampleEvent("10.0.0.1", models.ChangeStatus, time.Now().UTC()))
	rec.Stop()

	// A straggler after Stop must be dropped and counted, not panic on the
	// closed queue.
	rec.Record(sampleEvent("10.0.0.1", models.ChangeStatus, time.Now().UTC()))
	rec.Stop()

	if rec.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", rec.Dropped())
	}
	events, err := s.List(context.Background(), EventFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("%d events persisted, want 1", len(events))
	}
}

func TestModule_RecordsBusEvents(t *testing.T) {
	db := testutil.NewStore(t)

	mod, err := NewModule(db, zap.NewNop())
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	bus := event.NewBus(zap.NewNop())
	t.Cleanup(bus.Close)

	if err := mod.Start(context.Background(), bus); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ev := sampleEvent("192.168.0.1", models.ChangeStatus, time.Now().UTC())
	bus.Publish(context.Background(), event.Event{
		Topic:     event.TopicChange,
		Source:    "monitor",
		Timestamp: time.Now(),
		Payload:   ev,
	})

	mod.Stop()

	events, err := mod.Store().List(context.Background(), EventFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("%d events persisted, want 1", len(events))
	}
	if events[0].Event.Host != "192.168.0.1" {
		t.Errorf("Host = %q, want %q", events[0].Event.Host, "192.168.0.1")
	}
}
