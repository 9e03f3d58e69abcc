package parse

import (
	"strconv"
	"strings"

	"github.com/awylder/switchsync/pkg/models"
)

// PortTable is the parsed port-settings page.
type PortTable struct {
	Ports    []models.PortState
	MaxPorts int
}

// portHeaderMarker identifies the header row of the port table.
const portHeaderMarker = "Port"

// Ports parses the pipe-delimited port-settings table. The table starts at a
// header row containing the marker, followed by an optional separator rule.
// A data row whose first column is not an integer port number is dropped.
// MaxPorts is the highest port number seen, defaulting to 24 when no row
// parses.
func Ports(raw string) (PortTable, models.ParseQuality) {
	table := PortTable{MaxPorts: DefaultMaxPorts}

	all := lines(raw)
	start := -1
	for i, line := range all {
		if strings.Contains(line, portHeaderMarker) && strings.Contains(line, columnSep) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return table, models.QualityDefaulted
	}

	for _, line := range all[start:] {
		if isSeparatorRow(line) {
			continue
		}
		if !strings.Contains(line, columnSep) {
			break
		}
		cols := columns(line)
		port, err := strconv.Atoi(cols[0])
		if err != nil || port < 1 {
			continue
		}

		ps := models.PortState{
			PortNumber:        port,
			Status:            portStatus(cell(cols, 1)),
			SpeedConfig:       cell(cols, 2),
			SpeedActual:       cell(cols, 3),
			FlowControlConfig: cell(cols, 4),
			FlowControlActual: cell(cols, 5),
			Trunk:             cell(cols, 6),
		}
		table.Ports = append(table.Ports, ps)
	}

	if len(table.Ports) == 0 {
		table.MaxPorts = DefaultMaxPorts
		return table, models.QualityDefaulted
	}

	// MaxPorts is the highest parsed port number, even below the default.
	highest := 0
	for _, p := range table.Ports {
		if p.PortNumber > highest {
			highest = p.PortNumber
		}
	}
	table.MaxPorts = highest
	return table, models.QualityOK
}

// portStatus normalizes the status column. Unrecognized values pass through
// verbatim so the diff layer still sees transitions between them.
func portStatus(s string) models.PortStatus {
	switch strings.ToLower(s) {
	case "enabled", "enable", "up", "on":
		return models.PortStatusEnabled
	case "disabled", "disable", "down", "off":
		return models.PortStatusDisabled
	case "":
		return models.PortStatusUnknown
	default:
		return models.PortStatus(s)
	}
}

func cell(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}
