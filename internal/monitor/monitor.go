// Package monitor runs the per-device polling loops that detect and publish
// switch state changes.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/internal/registry"
	"go.uber.org/zap"
)

// Options configure the monitoring loops.
type Options struct {
	PollInterval     time.Duration
	MaxBackoff       time.Duration
	CableDiagnostics bool
}

// Module owns one monitoring loop per registered device.
type Module struct {
	logger  *zap.Logger
	bus     *event.Bus
	reg     *registry.Registry
	prober  Prober
	metrics *Metrics
	opts    Options

	mu    sync.RWMutex
	loops map[string]*Loop
}

// NewModule creates the monitor module. Loops start when Start is called.
func NewModule(reg *registry.Registry, bus *event.Bus, prober Prober, metrics *Metrics, logger *zap.Logger, opts Options) *Module {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.MaxBackoff < opts.PollInterval {
		opts.MaxBackoff = 8 * opts.PollInterval
	}
	return &Module{
		logger:  logger,
		bus:     bus,
		reg:     reg,
		prober:  prober,
		metrics: metrics,
		opts:    opts,
		loops:   make(map[string]*Loop),
	}
}

// Name identifies the module in logs and route mounting.
func (m *Module) Name() string { return "monitor" }

// Start launches one loop per registered device.
func (m *Module) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.reg.All() {
		if _, exists := m.loops[d.Host]; exists {
			continue
		}
		loop := NewLoop(d.Session, m.bus, m.prober, m.metrics, m.logger,
			m.opts.PollInterval, m.opts.MaxBackoff, m.opts.CableDiagnostics)
		loop.Start(ctx)
		m.loops[d.Host] = loop
	}
	m.logger.Info("monitor module started", zap.Int("devices", len(m.loops)))
	return nil
}

// Stop halts every loop, waiting for polls in flight to finish or cancel.
func (m *Module) Stop() {
	m.mu.Lock()
	loops := m.loops
	m.loops = make(map[string]*Loop)
	m.mu.Unlock()

	for _, loop := range loops {
		loop.Stop()
	}
	m.logger.Info("monitor module stopped")
}

// Loop returns the loop for host, if one is running.
func (m *Module) Loop(host string) (*Loop, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.loops[host]
	return l, ok
}
