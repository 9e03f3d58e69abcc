package device

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/awylder/switchsync/internal/bitmask"
	"github.com/awylder/switchsync/internal/parse"
	"github.com/awylder/switchsync/pkg/models"
	"go.uber.org/zap"
)

// maxWritablePort bounds port numbers accepted in write requests. Membership
// masks cap at 32 ports, but per-port settings go a little beyond that for
// larger chassis.
const maxWritablePort = 48

// FetchSystemInfo scrapes and parses the system-info page. A degraded parse
// is logged, never surfaced as an error.
func (s *Session) FetchSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	raw, err := s.Execute(ctx, SystemPath, http.MethodGet, "")
	if err != nil {
		return models.SystemInfo{}, err
	}
	si, quality := parse.SystemInfo(raw)
	s.logQuality(SystemPath, quality)
	return si, nil
}

// FetchPorts scrapes and parses the port-settings page.
func (s *Session) FetchPorts(ctx context.Context) (parse.PortTable, error) {
	raw, err := s.Execute(ctx, PortsPath, http.MethodGet, "")
	if err != nil {
		return parse.PortTable{}, err
	}
	table, quality := parse.Ports(raw)
	s.logQuality(PortsPath, quality)
	return table, nil
}

// FetchVlans scrapes and parses the VLAN-configuration page.
func (s *Session) FetchVlans(ctx context.Context) (parse.VlanConfig, error) {
	raw, err := s.Execute(ctx, VlanPath, http.MethodGet, "")
	if err != nil {
		return parse.VlanConfig{}, err
	}
	cfg, quality := parse.Vlans(raw)
	s.logQuality(VlanPath, quality)
	return cfg, nil
}

// FetchCableDiagnostics scrapes and parses the cable-diagnostic page.
func (s *Session) FetchCableDiagnostics(ctx context.Context) (parse.CableReport, error) {
	raw, err := s.Execute(ctx, CableDiagPath, http.MethodGet, "")
	if err != nil {
		return parse.CableReport{}, err
	}
	report, quality := parse.CableDiagnostics(raw)
	s.logQuality(CableDiagPath, quality)
	return report, nil
}

// PortWrite is an on-demand port configuration change.
type PortWrite struct {
	Port        int    `json:"port"`
	Status      string `json:"status,omitempty"`
	Speed       string `json:"speed,omitempty"`
	FlowControl string `json:"flow_control,omitempty"`
}

// SetPortConfig submits a port configuration change. The port number is
// validated before any device call.
func (s *Session) SetPortConfig(ctx context.Context, w PortWrite) error {
	if w.Port < 1 || w.Port > maxWritablePort {
		return &ValidationError{Field: "port", Reason: fmt.Sprintf("must be 1-%d", maxWritablePort)}
	}

	form := url.Values{"port": {fmt.Sprint(w.Port)}}
	if w.Status != "" {
		form.Set("state", w.Status)
	}
	if w.Speed != "" {
		form.Set("speed", w.Speed)
	}
	if w.FlowControl != "" {
		form.Set("flow", w.FlowControl)
	}
	return s.submit(ctx, PortSetPath, form)
}

// SetVlan submits a VLAN definition, encoding the membership sets as masks.
// Ports above 32 cannot be expressed in a mask and are rejected rather than
// silently lost on a write.
func (s *Session) SetVlan(ctx context.Context, v models.VlanState) error {
	if v.VlanID < 1 || v.VlanID > 4094 {
		return &ValidationError{Field: "vlan_id", Reason: "must be 1-4094"}
	}
	for _, p := range append(append([]int{}, v.TaggedPorts...), v.UntaggedPorts...) {
		if p < 1 || p > bitmask.MaxPorts {
			return &ValidationError{Field: "ports", Reason: fmt.Sprintf("port %d outside 1-%d", p, bitmask.MaxPorts)}
		}
	}

	form := url.Values{
		"vid":       {fmt.Sprint(v.VlanID)},
		"name":      {v.Name},
		"tagMbrs":   {fmt.Sprintf("0x%X", bitmask.Encode(v.TaggedPorts))},
		"untagMbrs": {fmt.Sprintf("0x%X", bitmask.Encode(v.UntaggedPorts))},
	}
	return s.submit(ctx, VlanSetPath, form)
}

// Reboot asks the device to restart. The session token dies with the device;
// the caller is expected to Close or re-Login afterwards.
func (s *Session) Reboot(ctx context.Context) error {
	return s.submit(ctx, RebootPath, url.Values{"confirm": {"1"}})
}

// submit POSTs a form and checks for the device's write acknowledgement.
func (s *Session) submit(ctx context.Context, endpoint string, form url.Values) error {
	raw, err := s.Execute(ctx, endpoint, http.MethodPost, form.Encode())
	if err != nil {
		return err
	}
	if !strings.Contains(raw, writeSuccessMarker) {
		return &TransportError{Host: s.host, Endpoint: endpoint, Reason: "write not acknowledged"}
	}
	return nil
}

func (s *Session) logQuality(endpoint string, quality models.ParseQuality) {
	if quality == models.QualityOK {
		return
	}
	s.logger.Warn("degraded parse of device page",
		zap.String("host", s.host),
		zap.String("endpoint", endpoint),
		zap.String("quality", string(quality)),
	)
}
