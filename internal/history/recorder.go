package history

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

const recorderQueueSize = 512

// AsyncRecorder buffers change events and writes them from a single goroutine
// so persistence never blocks the monitoring loops and events keep their
// detection order.
type AsyncRecorder struct {
	store   *Store
	logger  *zap.Logger
	queue   chan models.ChangeEvent
	dropped atomic.Int64
	done    chan struct{}

	// mu guards queue shutdown: Record holds it shared so Stop cannot close
	// the channel out from under an in-flight send.
	mu     sync.RWMutex
	closed bool
}

// NewAsyncRecorder creates a recorder writing to the given store. Call Start
// before recording.
func NewAsyncRecorder(store *Store, logger *zap.Logger) *AsyncRecorder {
	return &AsyncRecorder{
		store:  store,
		logger: logger,
		queue:  make(chan models.ChangeEvent, recorderQueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the writer goroutine. The context bounds individual insert
// calls, not the recorder's lifetime; use Stop to shut down.
func (r *AsyncRecorder) Start(ctx context.Context) {
	go r.writeLoop(ctx)
}

// Record enqueues one event. If the queue is full, or the recorder has been
// stopped, the event is dropped and counted; Record never blocks and never
// panics.
func (r *AsyncRecorder) Record(ev models.ChangeEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(ev, "recorder stopped")
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.drop(ev, "history queue full")
	}
}

func (r *AsyncRecorder) drop(ev models.ChangeEvent, reason string) {
	n := r.dropped.Add(1)
	r.logger.Warn("dropping change event",
		zap.String("reason", reason),
		zap.String("host", ev.Host),
		zap.String("change_kind", string(ev.ChangeKind)),
		zap.Int64("dropped_total", n))
}

// Dropped returns how many events were discarded.
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Stop closes the queue and blocks until buffered events are flushed. Safe to
// call more than once.
func (r *AsyncRecorder) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *AsyncRecorder) writeLoop(ctx context.Context) {
	defer close(r.done)
	for ev := range r.queue {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := r.store.Insert(writeCtx, ev); err != nil {
			r.logger.Error("persist change event",
				zap.String("host", ev.Host),
				zap.Error(err))
		}
		cancel()
	}
}
