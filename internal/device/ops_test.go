package device

import (
	"context"
	"testing"

	"github.com/awylder/switchsync/internal/testutil"
	"github.com/awylder/switchsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fetch operations drive the full scrape-and-parse path against canned
// pages from a realistic 8-port device.
func TestFetchSystemInfo(t *testing.T) {
	f := newFakeSwitch()
	defer f.close()
	f.pages[SystemPath] = testutil.SysInfoPage
	s := newTestSession(t, f)

	si, err := s.FetchSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GS-2008", si.DeviceName)
	assert.Equal(t, "00:11:22:33:44:55", si.MACAddress)
	assert.Equal(t, "192.168.0.2", si.IPAddress)
	assert.Equal(t, "2.10.5", si.FirmwareVersion)
	assert.Equal(t, "SN20081234", si.SerialNumber)
}

func TestFetchPorts(t *testing.T) {
	f := newFakeSwitch()
	defer f.close()
	f.pages[PortsPath] = testutil.PortPage
	s := newTestSession(t, f)

	table, err := s.FetchPorts(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Ports, 4)
	assert.Equal(t, 4, table.MaxPorts)

	assert.Equal(t, models.PortStatusEnabled, table.Ports[0].Status)
	assert.Equal(t, "1000M", table.Ports[0].SpeedActual)
	assert.Equal(t, models.PortStatusDisabled, table.Ports[2].Status)
	assert.Equal(t, "On", table.Ports[3].FlowControlConfig)
}

func TestFetchVlans(t *testing.T) {
	f := newFakeSwitch()
	defer f.close()
	f.pages[VlanPath] = testutil.VlanPage
	s := newTestSession(t, f)

	cfg, err := s.FetchVlans(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 8, cfg.TotalPorts)
	require.Len(t, cfg.Vlans, 2)

	assert.Equal(t, "default", cfg.Vlans[0].Name)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, cfg.Vlans[0].UntaggedPorts)
	assert.Equal(t, 10, cfg.Vlans[1].VlanID)
	assert.Equal(t, []int{2, 3}, cfg.Vlans[1].TaggedPorts)
}

func TestFetchCableDiagnostics(t *testing.T) {
	f := newFakeSwitch()
	defer f.close()
	f.pages[CableDiagPath] = testutil.CablePage
	s := newTestSession(t, f)

	report, err := s.FetchCableDiagnostics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.MaxPorts)
	require.Len(t, report.Results, 4)

	assert.True(t, report.Results[0].Healthy)
	assert.Equal(t, 12, report.Results[0].LengthMeters)
	assert.True(t, report.Results[1].Disconnected)
	assert.True(t, report.Results[2].Issue)
	assert.Equal(t, models.CableStateUntested, report.Results[3].StateDescription)
}

func TestFetch_Unreachable(t *testing.T) {
	f := newFakeSwitch()
	s := newTestSession(t, f)
	f.close()

	if _, err := s.FetchPorts(context.Background()); err == nil {
		t.Fatal("FetchPorts() expected error from unreachable device, got nil")
	}
}
