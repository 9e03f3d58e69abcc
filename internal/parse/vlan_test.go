package parse

import (
	"reflect"
	"testing"

	"github.com/awylder/switchsync/pkg/models"
)

func TestVlans_Structured(t *testing.T) {
	raw := `
var vlanCfg = {
	state:1, portNum:8, count:2,
	vids:[1,10],
	names:["default","mgmt"],
	tagMbrs:[0x0,0x6],
	untagMbrs:[0xFF,0x0]
};
`
	cfg, quality := Vlans(raw)

	if quality != models.QualityOK {
		t.Fatalf("quality = %q, want %q", quality, models.QualityOK)
	}
	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if cfg.TotalPorts != 8 {
		t.Errorf("TotalPorts = %d, want 8", cfg.TotalPorts)
	}
	if cfg.VlanCount != 2 {
		t.Errorf("VlanCount = %d, want 2", cfg.VlanCount)
	}
	if len(cfg.Vlans) != 2 {
		t.Fatalf("len(Vlans) = %d, want 2", len(cfg.Vlans))
	}

	v1 := cfg.Vlans[0]
	if v1.VlanID != 1 || v1.Name != "default" {
		t.Errorf("vlan[0] = %+v", v1)
	}
	if !reflect.DeepEqual(v1.UntaggedPorts, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("vlan 1 untagged = %v, want 1..8", v1.UntaggedPorts)
	}
	if len(v1.TaggedPorts) != 0 {
		t.Errorf("vlan 1 tagged = %v, want empty", v1.TaggedPorts)
	}

	v10 := cfg.Vlans[1]
	if v10.VlanID != 10 || v10.Name != "mgmt" {
		t.Errorf("vlan[1] = %+v", v10)
	}
	if !reflect.DeepEqual(v10.TaggedPorts, []int{2, 3}) {
		t.Errorf("vlan 10 tagged = %v, want [2 3]", v10.TaggedPorts)
	}
	if len(v10.UntaggedPorts) != 0 {
		t.Errorf("vlan 10 untagged = %v, want empty", v10.UntaggedPorts)
	}
}

func TestVlans_Structured_DecimalMasks(t *testing.T) {
	raw := `state:1, portNum:4, count:1, vids:[100], names:["lab"], tagMbrs:[10], untagMbrs:[5]`
	cfg, quality := Vlans(raw)

	if quality != models.QualityOK {
		t.Fatalf("quality = %q, want %q", quality, models.QualityOK)
	}
	v := cfg.Vlans[0]
	if !reflect.DeepEqual(v.TaggedPorts, []int{2, 4}) {
		t.Errorf("tagged = %v, want [2 4]", v.TaggedPorts)
	}
	if !reflect.DeepEqual(v.UntaggedPorts, []int{1, 3}) {
		t.Errorf("untagged = %v, want [1 3]", v.UntaggedPorts)
	}
}

// An id without a matching name (or vice versa) ends entry construction at
// that index; trailing elements of the longer array are ignored.
func TestVlans_Structured_MisalignedArrays(t *testing.T) {
	raw := `state:1, portNum:8, count:3, vids:[1,2,3], names:["a","b"], tagMbrs:[0x0,0x0,0x0], untagMbrs:[0x1,0x2,0x4]`
	cfg, quality := Vlans(raw)

	if quality != models.QualityOK {
		t.Fatalf("quality = %q, want %q", quality, models.QualityOK)
	}
	if len(cfg.Vlans) != 2 {
		t.Fatalf("len(Vlans) = %d, want 2", len(cfg.Vlans))
	}
}

// A port may appear in both the tagged and untagged mask of the same VLAN.
// Both memberships are preserved untouched.
func TestVlans_Structured_OverlappingMembership(t *testing.T) {
	raw := `state:1, portNum:8, count:1, vids:[20], names:["dual"], tagMbrs:[0x3], untagMbrs:[0x1]`
	cfg, _ := Vlans(raw)

	v := cfg.Vlans[0]
	if !reflect.DeepEqual(v.TaggedPorts, []int{1, 2}) {
		t.Errorf("tagged = %v, want [1 2]", v.TaggedPorts)
	}
	if !reflect.DeepEqual(v.UntaggedPorts, []int{1}) {
		t.Errorf("untagged = %v, want [1]", v.UntaggedPorts)
	}
}

func TestVlans_Structured_BadMaskFallsToDefault(t *testing.T) {
	raw := `state:1, portNum:8, count:1, vids:[1], names:["default"], tagMbrs:[zz], untagMbrs:[0x0]`
	cfg, quality := Vlans(raw)

	if quality != models.QualityDefaulted {
		t.Fatalf("quality = %q, want %q", quality, models.QualityDefaulted)
	}
	if cfg.Enabled {
		t.Error("Enabled = true, want false on defaulted config")
	}
	if cfg.TotalPorts != DefaultMaxPorts {
		t.Errorf("TotalPorts = %d, want %d", cfg.TotalPorts, DefaultMaxPorts)
	}
	if cfg.VlanCount != 0 || len(cfg.Vlans) != 0 {
		t.Errorf("VlanCount = %d, Vlans = %v, want empty", cfg.VlanCount, cfg.Vlans)
	}
}

func TestVlans_Legacy(t *testing.T) {
	raw := `
VLAN | Member Ports
-----+-------------
 1   | 1-4
 20  | 5,7,9-10
`
	cfg, quality := Vlans(raw)

	if quality != models.QualityFallback {
		t.Fatalf("quality = %q, want %q", quality, models.QualityFallback)
	}
	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if len(cfg.Vlans) != 2 {
		t.Fatalf("len(Vlans) = %d, want 2", len(cfg.Vlans))
	}

	v1 := cfg.Vlans[0]
	if v1.VlanID != 1 {
		t.Errorf("VlanID = %d, want 1", v1.VlanID)
	}
	if !reflect.DeepEqual(v1.UntaggedPorts, []int{1, 2, 3, 4}) {
		t.Errorf("vlan 1 untagged = %v, want [1 2 3 4]", v1.UntaggedPorts)
	}
	if len(v1.TaggedPorts) != 0 {
		t.Errorf("vlan 1 tagged = %v, want empty (legacy is untagged-only)", v1.TaggedPorts)
	}

	v20 := cfg.Vlans[1]
	if !reflect.DeepEqual(v20.UntaggedPorts, []int{5, 7, 9, 10}) {
		t.Errorf("vlan 20 untagged = %v, want [5 7 9 10]", v20.UntaggedPorts)
	}
}

func TestVlans_Legacy_DeduplicatesRanges(t *testing.T) {
	raw := `
VLAN | Member Ports
-----+-------------
 30  | 1,1,2-3,3
`
	cfg, _ := Vlans(raw)

	if len(cfg.Vlans) != 1 {
		t.Fatalf("len(Vlans) = %d, want 1", len(cfg.Vlans))
	}
	if !reflect.DeepEqual(cfg.Vlans[0].UntaggedPorts, []int{1, 2, 3}) {
		t.Errorf("untagged = %v, want [1 2 3]", cfg.Vlans[0].UntaggedPorts)
	}
}

func TestVlans_Unrecognized(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "html error page", raw: "<html><head><title>500</title></head></html>"},
		{name: "prose", raw: "The VLAN feature is not available on this model."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, quality := Vlans(tt.raw)
			if quality != models.QualityDefaulted {
				t.Errorf("quality = %q, want %q", quality, models.QualityDefaulted)
			}
			want := defaultVlanConfig()
			if !reflect.DeepEqual(cfg, want) {
				t.Errorf("cfg = %+v, want %+v", cfg, want)
			}
		})
	}
}

func TestParseVlanID(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"4094", 4094, true},
		{"4095", 0, false},
		{"0", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1 0", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseVlanID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseVlanID(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
