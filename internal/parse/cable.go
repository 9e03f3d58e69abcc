package parse

import "github.com/awylder/switchsync/pkg/models"

// CableReport is the parsed cable-diagnostic page.
type CableReport struct {
	MaxPorts int
	Results  []models.DiagnosticState
}

// Cable state codes as emitted by the diagnostic page.
const (
	cableCodeOK           = 0
	cableCodeOpen         = 1
	cableCodeShort        = 2
	cableCodeUntested     = 3
	cableCodeDisconnected = 4
)

// CableDiagnostics parses the parallel `state:[...]` and `len:[...]` arrays
// plus the `maxPort` scalar of the cable-diagnostic page. State codes map to
// a closed category set; codes outside it become "unknown" rather than
// failing. A payload without a state array yields an empty defaulted report.
func CableDiagnostics(raw string) (CableReport, models.ParseQuality) {
	report := CableReport{MaxPorts: DefaultMaxPorts}

	states, ok := extractIntArray(raw, "state")
	if !ok {
		return report, models.QualityDefaulted
	}
	lengths, _ := extractIntArray(raw, "len")
	if maxPort, ok := extractScalar(raw, "maxPort"); ok && maxPort > 0 {
		report.MaxPorts = maxPort
	}

	n := len(states)
	if report.MaxPorts < n {
		n = report.MaxPorts
	}
	for i := 0; i < n; i++ {
		code := states[i]
		ds := models.DiagnosticState{
			PortNumber:       i + 1,
			StateCode:        code,
			StateDescription: cableState(code),
		}
		if i < len(lengths) {
			ds.LengthMeters = lengths[i]
		}
		switch ds.StateDescription {
		case models.CableStateOK:
			ds.Healthy = true
		case models.CableStateOpen, models.CableStateShort:
			ds.Issue = true
		case models.CableStateUntested:
			ds.Untested = true
		case models.CableStateDisconnected:
			ds.Disconnected = true
		}
		report.Results = append(report.Results, ds)
	}

	return report, models.QualityOK
}

func cableState(code int) models.CableState {
	switch code {
	case cableCodeOK:
		return models.CableStateOK
	case cableCodeOpen:
		return models.CableStateOpen
	case cableCodeShort:
		return models.CableStateShort
	case cableCodeUntested:
		return models.CableStateUntested
	case cableCodeDisconnected:
		return models.CableStateDisconnected
	default:
		return models.CableStateUnknown
	}
}
