package monitor

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/awylder/switchsync/internal/device"
	"github.com/awylder/switchsync/internal/registry"
	"github.com/awylder/switchsync/internal/server"
	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

// Routes implements server.RouteProvider.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "GET", Path: "/devices", Handler: m.handleListDevices},
		{Method: "GET", Path: "/devices/{host}/status", Handler: m.handleDeviceStatus},
		{Method: "GET", Path: "/devices/{host}/snapshot", Handler: m.handleDeviceSnapshot},
		{Method: "POST", Path: "/devices/{host}/refresh", Handler: m.handleRefresh},
		{Method: "GET", Path: "/devices/{host}/cable-diagnostics", Handler: m.handleCableDiagnostics},
		{Method: "POST", Path: "/devices/{host}/ports", Handler: m.handleSetPort},
		{Method: "POST", Path: "/devices/{host}/vlans", Handler: m.handleSetVlan},
		{Method: "POST", Path: "/devices/{host}/reboot", Handler: m.handleReboot},
	}
}

type deviceSummary struct {
	Host   string     `json:"host"`
	Name   string     `json:"name,omitempty"`
	Status LoopStatus `json:"status"`
}

// handleListDevices returns every managed device with its loop status.
func (m *Module) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := m.reg.All()
	out := make([]deviceSummary, 0, len(devices))
	for _, d := range devices {
		summary := deviceSummary{Host: d.Host, Name: d.Name}
		if loop, ok := m.Loop(d.Host); ok {
			summary.Status = loop.Status()
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeviceStatus returns the loop status for one device.
func (m *Module) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	loop, ok := m.loopFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, loop.Status())
}

// handleDeviceSnapshot returns the most recent snapshot for one device.
func (m *Module) handleDeviceSnapshot(w http.ResponseWriter, r *http.Request) {
	loop, ok := m.loopFor(w, r)
	if !ok {
		return
	}
	snap := loop.Snapshot()
	if snap == nil {
		server.NotFound(w, "no snapshot captured yet", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleRefresh polls the device immediately and returns the fresh snapshot.
func (m *Module) handleRefresh(w http.ResponseWriter, r *http.Request) {
	loop, ok := m.loopFor(w, r)
	if !ok {
		return
	}
	snap, err := loop.Refresh(r.Context())
	if err != nil {
		m.writeDeviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleCableDiagnostics runs the cable test on demand.
func (m *Module) handleCableDiagnostics(w http.ResponseWriter, r *http.Request) {
	d, ok := m.deviceFor(w, r)
	if !ok {
		return
	}
	report, err := d.Session.FetchCableDiagnostics(r.Context())
	if err != nil {
		m.writeDeviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Results)
}

// handleSetPort applies a port configuration change.
func (m *Module) handleSetPort(w http.ResponseWriter, r *http.Request) {
	d, ok := m.deviceFor(w, r)
	if !ok {
		return
	}
	var req device.PortWrite
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if err := d.Session.SetPortConfig(r.Context(), req); err != nil {
		m.writeDeviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetVlan applies a VLAN definition.
func (m *Module) handleSetVlan(w http.ResponseWriter, r *http.Request) {
	d, ok := m.deviceFor(w, r)
	if !ok {
		return
	}
	var req models.VlanState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}
	if err := d.Session.SetVlan(r.Context(), req); err != nil {
		m.writeDeviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReboot asks the device to restart.
func (m *Module) handleReboot(w http.ResponseWriter, r *http.Request) {
	d, ok := m.deviceFor(w, r)
	if !ok {
		return
	}
	if err := d.Session.Reboot(r.Context()); err != nil {
		m.writeDeviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// loopFor resolves the {host} path value to a running loop, writing the
// problem response itself when it cannot.
func (m *Module) loopFor(w http.ResponseWriter, r *http.Request) (*Loop, bool) {
	host := r.PathValue("host")
	if host == "" {
		server.BadRequest(w, "host is required", r.URL.Path)
		return nil, false
	}
	loop, ok := m.Loop(host)
	if !ok {
		server.NotFound(w, "unknown device", r.URL.Path)
		return nil, false
	}
	return loop, true
}

// deviceFor resolves the {host} path value to a registered device.
func (m *Module) deviceFor(w http.ResponseWriter, r *http.Request) (*registry.Device, bool) {
	host := r.PathValue("host")
	if host == "" {
		server.BadRequest(w, "host is required", r.URL.Path)
		return nil, false
	}
	d, ok := m.reg.Get(host)
	if !ok {
		server.NotFound(w, "unknown device", r.URL.Path)
		return nil, false
	}
	return d, true
}

// writeDeviceError maps device-layer errors to problem responses.
func (m *Module) writeDeviceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *device.ValidationError
	if errors.As(err, &validationErr) {
		server.BadRequest(w, validationErr.Error(), r.URL.Path)
		return
	}
	if errors.Is(err, device.ErrRateLimited) {
		server.RateLimited(w, "device re-login throttled, retry later", r.URL.Path)
		return
	}
	var authErr *device.AuthError
	var transportErr *device.TransportError
	if errors.As(err, &authErr) || errors.As(err, &transportErr) {
		m.logger.Warn("device operation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		server.DeviceUnreachable(w, err.Error(), r.URL.Path)
		return
	}
	m.logger.Error("device operation failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	server.InternalError(w, "device operation failed", r.URL.Path)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
