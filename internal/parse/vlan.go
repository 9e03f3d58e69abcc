package parse

import (
	"errors"
	"strings"

	"github.com/awylder/switchsync/internal/bitmask"
	"github.com/awylder/switchsync/pkg/models"
)

// VlanConfig is the parsed VLAN-configuration page.
type VlanConfig struct {
	Enabled    bool
	TotalPorts int
	VlanCount  int
	Vlans      []models.VlanState
}

// structuredMarker distinguishes the modern script-literal VLAN page from the
// legacy tabular one.
const structuredMarker = "vids:["

// vlanHeaderMarker identifies the header row of the legacy VLAN table.
const vlanHeaderMarker = "VLAN"

// Vlans parses the VLAN-configuration page. The format is sniffed: payloads
// carrying the structured-array marker go through the structured parser,
// everything else through the legacy table parser. The structured parser
// never propagates a failure; it drops to the defaulted empty configuration
// instead, which the quality flag records.
func Vlans(raw string) (VlanConfig, models.ParseQuality) {
	if strings.Contains(raw, structuredMarker) {
		cfg, err := parseStructuredVlans(raw)
		if err != nil {
			return defaultVlanConfig(), models.QualityDefaulted
		}
		return cfg, models.QualityOK
	}
	return parseLegacyVlans(raw)
}

func defaultVlanConfig() VlanConfig {
	return VlanConfig{Enabled: false, TotalPorts: DefaultMaxPorts, VlanCount: 0}
}

// parseStructuredVlans extracts the parallel arrays of the modern page:
//
//	state:1, portNum:8, count:2,
//	vids:[1,10], names:["default","mgmt"],
//	tagMbrs:[0x0,0x6], untagMbrs:[0xFF,0x0]
//
// Arrays align by index. An entry is built only while both an id and a name
// exist at that index; masks missing at an index count as empty membership.
// Masks are decimal or 0x-prefixed hex.
func parseStructuredVlans(raw string) (VlanConfig, error) {
	vids, ok := extractIntArray(raw, "vids")
	if !ok {
		return VlanConfig{}, errors.New("vids array missing")
	}
	names, ok := extractStringArray(raw, "names")
	if !ok {
		return VlanConfig{}, errors.New("names array missing")
	}
	tagMasks, _ := extractRawArray(raw, "tagMbrs")
	untagMasks, _ := extractRawArray(raw, "untagMbrs")

	cfg := VlanConfig{TotalPorts: DefaultMaxPorts}
	if state, ok := extractScalar(raw, "state"); ok {
		cfg.Enabled = state != 0
	}
	if portNum, ok := extractScalar(raw, "portNum"); ok && portNum > 0 {
		cfg.TotalPorts = portNum
	}

	n := len(vids)
	if len(names) < n {
		n = len(names)
	}
	for i := 0; i < n; i++ {
		tagged, err := maskAt(tagMasks, i, cfg.TotalPorts)
		if err != nil {
			return VlanConfig{}, err
		}
		untagged, err := maskAt(untagMasks, i, cfg.TotalPorts)
		if err != nil {
			return VlanConfig{}, err
		}
		cfg.Vlans = append(cfg.Vlans, models.VlanState{
			VlanID:        vids[i],
			Name:          names[i],
			TaggedPorts:   tagged,
			UntaggedPorts: untagged,
		})
	}

	cfg.VlanCount = len(cfg.Vlans)
	if count, ok := extractScalar(raw, "count"); ok {
		cfg.VlanCount = count
	}
	return cfg, nil
}

// maskAt decodes the i-th membership mask against totalPorts. An index past
// the end of the array means empty membership, not an error.
func maskAt(masks []string, i, totalPorts int) ([]int, error) {
	if i >= len(masks) {
		return nil, nil
	}
	mask, err := parseMask(masks[i])
	if err != nil {
		return nil, err
	}
	return bitmask.Decode(mask, totalPorts), nil
}

// parseLegacyVlans parses the old tabular page:
//
//	VLAN | Member Ports
//	-----+-------------
//	  1  | 1-4,7
//
// Legacy firmware has no tagging concept; members are always untagged.
// A payload with no recognizable table yields the defaulted empty
// configuration.
func parseLegacyVlans(raw string) (VlanConfig, models.ParseQuality) {
	all := lines(raw)
	start := -1
	for i, line := range all {
		if strings.Contains(line, vlanHeaderMarker) && strings.Contains(line, columnSep) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return defaultVlanConfig(), models.QualityDefaulted
	}

	cfg := VlanConfig{TotalPorts: DefaultMaxPorts}
	for _, line := range all[start:] {
		if isSeparatorRow(line) {
			continue
		}
		if !strings.Contains(line, columnSep) {
			break
		}
		cols := columns(line)
		if len(cols) < 2 {
			continue
		}
		id, ok := parseVlanID(cols[0])
		if !ok {
			continue
		}
		cfg.Vlans = append(cfg.Vlans, models.VlanState{
			VlanID:        id,
			UntaggedPorts: expandPortRange(cols[1]),
		})
	}

	if len(cfg.Vlans) == 0 {
		return defaultVlanConfig(), models.QualityDefaulted
	}
	cfg.Enabled = true
	cfg.VlanCount = len(cfg.Vlans)
	return cfg, models.QualityFallback
}

// parseVlanID accepts ids in the valid 802.1Q range only.
func parseVlanID(s string) (int, bool) {
	id := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int(r-'0')
		if id > 4094 {
			return 0, false
		}
	}
	if s == "" || id < 1 {
		return 0, false
	}
	return id, true
}
