// Package registry tracks the switches under management. Each entry pairs a
// device address with its authenticated session; there is exactly one session
// per device, shared by the monitoring loop and on-demand callers.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/awylder/switchsync/internal/device"
	"go.uber.org/zap"
)

// Device is one managed switch.
type Device struct {
	Host    string          `json:"host"`
	Name    string          `json:"name,omitempty"`
	Session *device.Session `json:"-"`
}

// Registry is the set of managed devices, keyed by host address.
type Registry struct {
	logger *zap.Logger

	mu      sync.RWMutex
	devices map[string]*Device
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		logger:  logger,
		devices: make(map[string]*Device),
	}
}

// Add registers a device. The host key comes from the session. Registering
// the same host twice is an error; replace requires an explicit Remove first.
func (r *Registry) Add(name string, session *device.Session) (*Device, error) {
	host := session.Host()
	if host == "" {
		return nil, fmt.Errorf("device host must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[host]; exists {
		return nil, fmt.Errorf("device %q already registered", host)
	}
	d := &Device{Host: host, Name: name, Session: session}
	r.devices[host] = d
	r.logger.Info("device registered",
		zap.String("host", host),
		zap.String("name", name),
	)
	return d, nil
}

// Get returns the device registered for host.
func (r *Registry) Get(host string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[host]
	return d, ok
}

// All returns every registered device, sorted by host for stable listings.
func (r *Registry) All() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Host < all[j].Host })
	return all
}

// Remove unregisters a device and closes its session.
func (r *Registry) Remove(host string) bool {
	r.mu.Lock()
	d, ok := r.devices[host]
	delete(r.devices, host)
	r.mu.Unlock()

	if !ok {
		return false
	}
	d.Session.Close()
	r.logger.Info("device removed", zap.String("host", host))
	return true
}

// CloseAll closes every session. Used during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		d.Session.Close()
	}
}
