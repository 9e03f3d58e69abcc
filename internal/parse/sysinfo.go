package parse

import (
	"strings"

	"github.com/awylder/switchsync/pkg/models"
)

// sysInfoKeys maps normalized page labels to setters on SystemInfo. Different
// firmware revisions label the same field differently.
var sysInfoKeys = map[string]func(*models.SystemInfo, string){
	"device name":      func(si *models.SystemInfo, v string) { si.DeviceName = v },
	"system name":      func(si *models.SystemInfo, v string) { si.DeviceName = v },
	"mac address":      func(si *models.SystemInfo, v string) { si.MACAddress = v },
	"ip address":       func(si *models.SystemInfo, v string) { si.IPAddress = v },
	"subnet mask":      func(si *models.SystemInfo, v string) { si.Netmask = v },
	"netmask":          func(si *models.SystemInfo, v string) { si.Netmask = v },
	"gateway":          func(si *models.SystemInfo, v string) { si.Gateway = v },
	"default gateway":  func(si *models.SystemInfo, v string) { si.Gateway = v },
	"firmware version": func(si *models.SystemInfo, v string) { si.FirmwareVersion = v },
	"software version": func(si *models.SystemInfo, v string) { si.FirmwareVersion = v },
	"hardware version": func(si *models.SystemInfo, v string) { si.HardwareVersion = v },
	"serial number":    func(si *models.SystemInfo, v string) { si.SerialNumber = v },
}

// SystemInfo scans `key : value` lines from the system-info page. Recognized
// keys are mapped onto the result; everything else is ignored. Missing fields
// stay empty. The value may itself contain colons (MAC addresses do), so only
// the first colon splits the line.
func SystemInfo(raw string) (models.SystemInfo, models.ParseQuality) {
	var si models.SystemInfo
	matched := 0

	for _, line := range lines(raw) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		normKey := strings.ToLower(strings.TrimSpace(key))
		set, known := sysInfoKeys[normKey]
		if !known {
			continue
		}
		set(&si, strings.TrimSpace(value))
		matched++
	}

	if matched == 0 {
		return si, models.QualityDefaulted
	}
	return si, models.QualityOK
}
