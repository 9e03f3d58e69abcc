// Package history records change events emitted by the monitoring loops and
// serves them back out for review. Recording is fire-and-forget: the monitor
// must never block on persistence, but events for the same entity are written
// in the order they were detected.
package history

import (
	"context"

	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/internal/store"
	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

// Recorder accepts change events for persistence. Record never blocks; under
// sustained overload events are dropped (and counted) rather than stalling
// the caller.
type Recorder interface {
	Record(ev models.ChangeEvent)
}

// Module wires the recorder to the event bus and exposes the history API.
type Module struct {
	logger   *zap.Logger
	store    *Store
	recorder *AsyncRecorder
	unsubs   []func()
}

// NewModule creates the history module on top of the shared database.
func NewModule(db *store.Store, logger *zap.Logger) (*Module, error) {
	if err := db.Migrate(context.Background(), "history", migrations()); err != nil {
		return nil, err
	}
	hs := NewStore(db.DB())
	return &Module{
		logger:   logger,
		store:    hs,
		recorder: NewAsyncRecorder(hs, logger),
	}, nil
}

// Name identifies the module in logs and route mounting.
func (m *Module) Name() string { return "history" }

// Recorder returns the module's fire-and-forget recorder.
func (m *Module) Recorder() Recorder { return m.recorder }

// Store returns the query side of the history module.
func (m *Module) Store() *Store { return m.store }

// Start subscribes to the monitor's topics and begins draining the recorder
// queue.
func (m *Module) Start(ctx context.Context, bus *event.Bus) error {
	m.recorder.Start(ctx)
	handler := func(_ context.Context, e event.Event) {
		ev, ok := e.Payload.(models.ChangeEvent)
		if !ok {
			m.logger.Warn("unexpected payload on monitor topic", zap.String("topic", e.Topic))
			return
		}
		m.recorder.Record(ev)
	}
	m.unsubs = append(m.unsubs,
		bus.Subscribe(event.TopicChange, handler),
		bus.Subscribe(event.TopicConnectivity, handler),
	)
	m.logger.Info("history module started")
	return nil
}

// Stop unsubscribes and flushes buffered events to the database.
func (m *Module) Stop() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.recorder.Stop()
	m.logger.Info("history module stopped")
}
