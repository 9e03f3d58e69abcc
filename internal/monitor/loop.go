package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/awylder/switchsync/internal/device"
	"github.com/awylder/switchsync/internal/diff"
	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/internal/parse"
	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

// Client is the slice of the device session the loop drives. *device.Session
// satisfies it; tests substitute a fake.
type Client interface {
	Host() string
	State() device.SessionState
	Renew(ctx context.Context) error
	FetchSystemInfo(ctx context.Context) (models.SystemInfo, error)
	FetchPorts(ctx context.Context) (parse.PortTable, error)
	FetchVlans(ctx context.Context) (parse.VlanConfig, error)
	FetchCableDiagnostics(ctx context.Context) (parse.CableReport, error)
}

var _ Client = (*device.Session)(nil)

// LoopState is the connection state of one monitoring loop.
type LoopState string

const (
	StateDisconnected   LoopState = "disconnected"
	StateAuthenticating LoopState = "authenticating"
	StateConnected      LoopState = "connected"
)

// LoopStatus is a read-only view of a loop for the status endpoint.
type LoopStatus struct {
	Host                     string        `json:"host"`
	State                    LoopState     `json:"state"`
	Authenticated            bool          `json:"authenticated"`
	LastSuccessfulConnection time.Time     `json:"last_successful_connection,omitzero"`
	LastCookieRenewal        time.Time     `json:"last_cookie_renewal,omitzero"`
	ConsecutiveFailures      int           `json:"consecutive_failures"`
	CurrentInterval          time.Duration `json:"current_interval"`
}

// connectivity is the payload carried in a connectivity_change event's
// new_value, JSON-encoded.
type connectivity struct {
	State     string  `json:"state"`
	DownFor   string  `json:"down_for,omitempty"`
	LatencyMs float64 `json:"latency_ms,omitempty"`
	Probe     string  `json:"probe,omitempty"`
}

// Loop polls one device, diffs consecutive snapshots, and publishes the
// resulting change events. Failures back off with doubled intervals up to a
// cap; recovery resets to the base interval.
type Loop struct {
	client  Client
	bus     *event.Bus
	prober  Prober
	metrics *Metrics
	logger  *zap.Logger

	interval   time.Duration
	maxBackoff time.Duration
	cableDiag  bool

	// now is the loop's time source. Tests substitute a fixed clock to pin
	// down durations and the renewal half-life check.
	now func() time.Time

	mu           sync.RWMutex
	state        LoopState
	lastSuccess  time.Time
	lastRenewal  time.Time
	failures     int
	wait         time.Duration
	downSince    time.Time
	prev         *models.DeviceSnapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a loop for one device. Start launches it.
func NewLoop(client Client, bus *event.Bus, prober Prober, metrics *Metrics, logger *zap.Logger, interval, maxBackoff time.Duration, cableDiag bool) *Loop {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxBackoff < interval {
		maxBackoff = 8 * interval
	}
	return &Loop{
		client:     client,
		bus:        bus,
		prober:     prober,
		metrics:    metrics,
		logger:     logger.With(zap.String("host", client.Host())),
		interval:   interval,
		maxBackoff: maxBackoff,
		cableDiag:  cableDiag,
		now:        time.Now,
		state:      StateDisconnected,
		wait:       interval,
		done:       make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. The first poll fires
// immediately.
func (l *Loop) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
}

// Stop cancels the loop, interrupting a poll in flight, and waits for the
// goroutine to exit.
func (l *Loop) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	<-l.done
}

// Status returns a snapshot of the loop's connection state.
func (l *Loop) Status() LoopStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return LoopStatus{
		Host:                     l.client.Host(),
		State:                    l.state,
		Authenticated:            l.client.State().Authenticated,
		LastSuccessfulConnection: l.lastSuccess,
		LastCookieRenewal:        l.lastRenewal,
		ConsecutiveFailures:      l.failures,
		CurrentInterval:          l.wait,
	}
}

// Snapshot returns the most recent snapshot, or nil before the first
// successful poll.
func (l *Loop) Snapshot() *models.DeviceSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prev
}

// Refresh runs one poll outside the schedule. The loop's timer is not
// disturbed; the on-demand snapshot becomes the new baseline like any other.
func (l *Loop) Refresh(ctx context.Context) (*models.DeviceSnapshot, error) {
	if err := l.poll(ctx); err != nil {
		return nil, err
	}
	return l.Snapshot(), nil
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		l.maybeRenew(ctx)

		start := time.Now()
		err := l.poll(ctx)
		if l.metrics != nil {
			l.metrics.ObservePoll(time.Since(start), err == nil)
		}

		if err != nil {
			l.onFailure(ctx, err)
		} else {
			l.onSuccess(time.Since(start))
		}

		l.mu.RLock()
		wait := l.wait
		l.mu.RUnlock()
		timer.Reset(wait)
	}
}

// poll fetches the four page types, builds a snapshot, diffs it against the
// previous one, and publishes the resulting events in detection order.
func (l *Loop) poll(ctx context.Context) error {
	l.setState(StateAuthenticating)

	si, err := l.client.FetchSystemInfo(ctx)
	if err != nil {
		return err
	}
	ports, err := l.client.FetchPorts(ctx)
	if err != nil {
		return err
	}
	vlans, err := l.client.FetchVlans(ctx)
	if err != nil {
		return err
	}

	snap := &models.DeviceSnapshot{
		Host:       l.client.Host(),
		SystemInfo: si,
		Ports:      ports.Ports,
		Vlans:      vlans.Vlans,
		CapturedAt: l.now().UTC(),
	}
	if l.cableDiag {
		report, err := l.client.FetchCableDiagnostics(ctx)
		if err != nil {
			return err
		}
		snap.CableDiagnostics = report.Results
	}

	l.mu.Lock()
	prev := l.prev
	l.prev = snap
	l.mu.Unlock()

	events := diff.Diff(prev, snap)
	for _, ev := range events {
		l.publish(ctx, event.TopicChange, ev)
		if l.metrics != nil {
			l.metrics.CountChange(string(ev.ChangeKind))
		}
	}
	if len(events) > 0 {
		l.logger.Debug("snapshot diffed", zap.Int("events", len(events)))
	}
	return nil
}

// maybeRenew refreshes the session cookie once half its lifetime has passed,
// so an expiry never races a scheduled poll.
func (l *Loop) maybeRenew(ctx context.Context) {
	st := l.client.State()
	if !st.Authenticated {
		return
	}
	half := st.IssuedAt.Add(st.ExpiresAt.Sub(st.IssuedAt) / 2)
	if l.now().UTC().Before(half) {
		return
	}
	if err := l.client.Renew(ctx); err != nil {
		l.logger.Warn("session renewal failed", zap.Error(err))
		return
	}
	l.mu.Lock()
	l.lastRenewal = l.now().UTC()
	l.mu.Unlock()
	l.logger.Debug("session cookie renewed")
}

func (l *Loop) onSuccess(latency time.Duration) {
	l.mu.Lock()
	wasDown := l.state != StateConnected
	downSince := l.downSince
	l.state = StateConnected
	l.lastSuccess = l.now().UTC()
	l.failures = 0
	l.wait = l.interval
	l.downSince = time.Time{}
	l.mu.Unlock()

	if !wasDown {
		return
	}
	payload := connectivity{
		State:     "reachable",
		LatencyMs: float64(latency) / float64(time.Millisecond),
	}
	if !downSince.IsZero() {
		payload.DownFor = l.now().UTC().Sub(downSince).Round(time.Second).String()
	}
	l.publishConnectivity(payload, "unreachable")
	if l.metrics != nil && !downSince.IsZero() {
		l.metrics.CountReconnect()
	}
	l.logger.Info("device reachable", zap.Float64("latency_ms", payload.LatencyMs))
}

func (l *Loop) onFailure(ctx context.Context, err error) {
	l.mu.Lock()
	firstFailure := l.downSince.IsZero()
	if firstFailure {
		l.downSince = l.now().UTC()
	}
	lastSuccess := l.lastSuccess
	l.state = StateDisconnected
	l.failures++
	l.wait = minDuration(l.wait*2, l.maxBackoff)
	wait := l.wait
	l.mu.Unlock()

	l.logger.Warn("poll failed",
		zap.Error(err),
		zap.Duration("next_attempt_in", wait),
	)

	if !firstFailure {
		return
	}

	// The management UI stopped answering; a probe tells us whether the
	// whole host is gone or just its web server.
	verdict := "probe unavailable"
	if l.prober != nil {
		res := l.prober.Probe(ctx, l.client.Host())
		verdict = res.Detail
	}
	// The duration reported is since the last successful poll, not since the
	// failure was noticed; a device that was never reached carries none.
	payload := connectivity{State: "unreachable", Probe: verdict}
	if !lastSuccess.IsZero() {
		payload.DownFor = l.now().UTC().Sub(lastSuccess).Round(time.Second).String()
	}
	l.publishConnectivity(payload, "reachable")
}

func (l *Loop) publishConnectivity(payload connectivity, prevState string) {
	data, _ := json.Marshal(payload)
	prevData, _ := json.Marshal(prevState)
	l.publish(context.Background(), event.TopicConnectivity, models.ChangeEvent{
		Host:          l.client.Host(),
		EntityType:    models.EntityDevice,
		EntityKey:     l.client.Host(),
		ChangeKind:    models.ChangeConnectivity,
		Field:         "connectivity",
		PreviousValue: string(prevData),
		NewValue:      string(data),
		Timestamp:     l.now().UTC(),
	})
}

func (l *Loop) publish(ctx context.Context, topic string, ev models.ChangeEvent) {
	l.bus.PublishAsync(ctx, event.Event{
		Topic:     topic,
		Source:    "monitor",
		Timestamp: l.now().UTC(),
		Payload:   ev,
	})
}

func (l *Loop) setState(s LoopState) {
	l.mu.Lock()
	// Authenticating is only meaningful on the way up from Disconnected.
	if s != StateAuthenticating || l.state == StateDisconnected {
		l.state = s
	}
	l.mu.Unlock()
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
