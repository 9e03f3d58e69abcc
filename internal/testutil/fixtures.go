package testutil

import (
	"time"

	"github.com/awylder/switchsync/pkg/models"
)

// Canned device pages in the formats the scrapers expect. They match what a
// real 8-port switch emits closely enough to exercise the full parse path.
const (
	// SysInfoPage is a system-info response.
	SysInfoPage = `Device Name: GS-2008
MAC Address: 00:11:22:33:44:55
IP Address: 192.168.0.2
Subnet Mask: 255.255.255.0
Gateway: 192.168.0.1
Firmware Version: 2.10.5
Hardware Version: A1
Serial Number: SN20081234
`

	// PortPage is a port-settings table response.
	PortPage = `Port | State | Speed Config | Speed Actual | Flow Config | Flow Actual | Trunk
-----+-------+--------------+--------------+-------------+-------------+------
1 | Enabled | Auto | 1000M | Off | Off |
2 | Enabled | Auto | Link Down | Off | Off |
3 | Disabled | Auto | Link Down | Off | Off |
4 | Enabled | 100M | 100M | On | On |
`

	// VlanPage is a structured (script-literal) VLAN-configuration response.
	VlanPage = `var cfg = {
state:1, portNum:8, count:2,
vids:[1,10],
names:["default","mgmt"],
tagMbrs:[0x0,0x6],
untagMbrs:[0xFF,0x0]
};
`

	// CablePage is a cable-diagnostic response.
	CablePage = `maxPort:4
state:[0,4,1,3]
len:[12,0,37,0]
`
)

// NewSnapshot returns a DeviceSnapshot with sensible defaults, suitable for
// diff and history fixtures. Override fields via options.
func NewSnapshot(opts ...func(*models.DeviceSnapshot)) models.DeviceSnapshot {
	s := models.DeviceSnapshot{
		Host: "192.168.0.2",
		SystemInfo: models.SystemInfo{
			DeviceName:      "GS-2008",
			MACAddress:      "00:11:22:33:44:55",
			IPAddress:       "192.168.0.2",
			FirmwareVersion: "2.10.5",
		},
		Ports: []models.PortState{
			{PortNumber: 1, Status: models.PortStatusEnabled, SpeedConfig: "Auto", SpeedActual: "1000M"},
			{PortNumber: 2, Status: models.PortStatusDisabled, SpeedConfig: "Auto"},
		},
		Vlans: []models.VlanState{
			{VlanID: 1, Name: "default", UntaggedPorts: []int{1, 2}},
		},
		CapturedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithHost sets the snapshot host.
func WithHost(host string) func(*models.DeviceSnapshot) {
	return func(s *models.DeviceSnapshot) { s.Host = host }
}

// WithPorts replaces the snapshot's port list.
func WithPorts(ports ...models.PortState) func(*models.DeviceSnapshot) {
	return func(s *models.DeviceSnapshot) { s.Ports = ports }
}

// WithVlans replaces the snapshot's VLAN list.
func WithVlans(vlans ...models.VlanState) func(*models.DeviceSnapshot) {
	return func(s *models.DeviceSnapshot) { s.Vlans = vlans }
}

// WithCapturedAt sets the capture timestamp.
func WithCapturedAt(t time.Time) func(*models.DeviceSnapshot) {
	return func(s *models.DeviceSnapshot) { s.CapturedAt = t }
}
