// Package models defines the shared data types for switch state snapshots
// and change events.
package models

import "time"

// ParseQuality reports how a raw device page was converted into a typed
// structure. Parsers never fail; a degraded result is flagged here so callers
// can tell "the switch has no VLANs" apart from "the VLAN page did not parse".
type ParseQuality string

const (
	// QualityOK means the preferred parser handled the payload.
	QualityOK ParseQuality = "ok"
	// QualityFallback means a secondary (legacy) parser handled the payload.
	QualityFallback ParseQuality = "fallback"
	// QualityDefaulted means no parser recognized the payload and the
	// structure holds defaults only.
	QualityDefaulted ParseQuality = "defaulted"
)

// PortStatus is the administrative/link state reported for a switch port.
type PortStatus string

const (
	PortStatusEnabled  PortStatus = "Enabled"
	PortStatusDisabled PortStatus = "Disabled"
	PortStatusUnknown  PortStatus = "Unknown"
)

// SystemInfo holds the identity block scraped from the system-info page.
// Fields the page does not carry stay empty.
type SystemInfo struct {
	DeviceName      string `json:"device_name"`
	MACAddress      string `json:"mac_address"`
	IPAddress       string `json:"ip_address"`
	Netmask         string `json:"netmask"`
	Gateway         string `json:"gateway"`
	FirmwareVersion string `json:"firmware_version"`
	HardwareVersion string `json:"hardware_version"`
	SerialNumber    string `json:"serial_number"`
}

// PortState is one row of the port-settings table.
type PortState struct {
	PortNumber        int        `json:"port_number"`
	Status            PortStatus `json:"status"`
	SpeedConfig       string     `json:"speed_config"`
	SpeedActual       string     `json:"speed_actual"`
	FlowControlConfig string     `json:"flow_control_config"`
	FlowControlActual string     `json:"flow_control_actual"`
	Trunk             string     `json:"trunk,omitempty"`
}

// VlanState describes one VLAN and its port membership. A port may appear in
// both sets; some firmware emits that and it is preserved as-is.
type VlanState struct {
	VlanID        int    `json:"vlan_id"`
	Name          string `json:"name"`
	TaggedPorts   []int  `json:"tagged_ports"`
	UntaggedPorts []int  `json:"untagged_ports"`
}

// CableState categorizes a cable-diagnostic result code.
type CableState string

const (
	CableStateOK           CableState = "ok"
	CableStateOpen         CableState = "open"
	CableStateShort        CableState = "short"
	CableStateUntested     CableState = "untested"
	CableStateDisconnected CableState = "disconnected"
	CableStateUnknown      CableState = "unknown"
)

// DiagnosticState is the cable-diagnostic result for one port.
type DiagnosticState struct {
	PortNumber       int        `json:"port_number"`
	StateCode        int        `json:"state_code"`
	StateDescription CableState `json:"state_description"`
	LengthMeters     int        `json:"length_meters"`
	Healthy          bool       `json:"healthy"`
	Issue            bool       `json:"issue"`
	Untested         bool       `json:"untested"`
	Disconnected     bool       `json:"disconnected"`
}

// DeviceSnapshot is a complete, timestamped view of one switch at one poll.
// Snapshots are immutable once built.
type DeviceSnapshot struct {
	Host             string            `json:"host"`
	SystemInfo       SystemInfo        `json:"system_info"`
	Ports            []PortState       `json:"ports"`
	Vlans            []VlanState       `json:"vlans"`
	CableDiagnostics []DiagnosticState `json:"cable_diagnostics,omitempty"`
	CapturedAt       time.Time         `json:"captured_at"`
}

// Port returns the port with the given number, or nil.
func (s *DeviceSnapshot) Port(n int) *PortState {
	for i := range s.Ports {
		if s.Ports[i].PortNumber == n {
			return &s.Ports[i]
		}
	}
	return nil
}

// Vlan returns the VLAN with the given id, or nil.
func (s *DeviceSnapshot) Vlan(id int) *VlanState {
	for i := range s.Vlans {
		if s.Vlans[i].VlanID == id {
			return &s.Vlans[i]
		}
	}
	return nil
}
