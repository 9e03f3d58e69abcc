// Package diff compares two consecutive device snapshots and produces the
// minimal list of change events. Comparing a snapshot against itself yields
// nothing; comparing against a nil previous snapshot yields baseline events,
// never change events.
package diff

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/awylder/switchsync/pkg/models"
)

// Diff produces change events describing how curr differs from prev.
// Events are ordered deterministically: system info, then ports by number,
// then VLANs by id.
func Diff(prev *models.DeviceSnapshot, curr *models.DeviceSnapshot) []models.ChangeEvent {
	if curr == nil {
		return nil
	}
	if prev == nil {
		return baseline(curr)
	}

	var events []models.ChangeEvent
	events = append(events, diffSystemInfo(prev, curr)...)
	events = append(events, diffPorts(prev, curr)...)
	events = append(events, diffVlans(prev, curr)...)
	return events
}

// baseline emits one periodic_snapshot event per entity on the first
// observation of a device.
func baseline(curr *models.DeviceSnapshot) []models.ChangeEvent {
	events := []models.ChangeEvent{{
		Host:       curr.Host,
		EntityType: models.EntitySystem,
		EntityKey:  "system",
		ChangeKind: models.ChangeSnapshot,
		NewValue:   asJSON(curr.SystemInfo),
		Timestamp:  curr.CapturedAt,
	}}
	for _, p := range curr.Ports {
		events = append(events, models.ChangeEvent{
			Host:       curr.Host,
			EntityType: models.EntityPort,
			EntityKey:  strconv.Itoa(p.PortNumber),
			ChangeKind: models.ChangeSnapshot,
			NewValue:   asJSON(p),
			Timestamp:  curr.CapturedAt,
		})
	}
	for _, v := range curr.Vlans {
		events = append(events, models.ChangeEvent{
			Host:       curr.Host,
			EntityType: models.EntityVlan,
			EntityKey:  strconv.Itoa(v.VlanID),
			ChangeKind: models.ChangeSnapshot,
			NewValue:   asJSON(v),
			Timestamp:  curr.CapturedAt,
		})
	}
	return events
}

func diffSystemInfo(prev, curr *models.DeviceSnapshot) []models.ChangeEvent {
	if prev.SystemInfo == curr.SystemInfo {
		return nil
	}
	return []models.ChangeEvent{{
		Host:          curr.Host,
		EntityType:    models.EntitySystem,
		EntityKey:     "system",
		ChangeKind:    models.ChangeConfig,
		PreviousValue: asJSON(prev.SystemInfo),
		NewValue:      asJSON(curr.SystemInfo),
		Timestamp:     curr.CapturedAt,
	}}
}

// portField describes one compared port field and whether a difference in it
// is a status transition or a configuration change.
type portField struct {
	name  string
	kind  models.ChangeKind
	value func(models.PortState) string
}

var portFields = []portField{
	{"status", models.ChangeStatus, func(p models.PortState) string { return string(p.Status) }},
	{"speed_actual", models.ChangeStatus, func(p models.PortState) string { return p.SpeedActual }},
	{"flow_control_actual", models.ChangeStatus, func(p models.PortState) string { return p.FlowControlActual }},
	{"speed_config", models.ChangeConfig, func(p models.PortState) string { return p.SpeedConfig }},
	{"flow_control_config", models.ChangeConfig, func(p models.PortState) string { return p.FlowControlConfig }},
	{"trunk", models.ChangeConfig, func(p models.PortState) string { return p.Trunk }},
}

func diffPorts(prev, curr *models.DeviceSnapshot) []models.ChangeEvent {
	var events []models.ChangeEvent
	for i := range curr.Ports {
		cp := curr.Ports[i]
		pp := prev.Port(cp.PortNumber)
		if pp == nil {
			// First observation of this port is a baseline, not a change.
			events = append(events, models.ChangeEvent{
				Host:       curr.Host,
				EntityType: models.EntityPort,
				EntityKey:  strconv.Itoa(cp.PortNumber),
				ChangeKind: models.ChangeSnapshot,
				NewValue:   asJSON(cp),
				Timestamp:  curr.CapturedAt,
			})
			continue
		}
		for _, f := range portFields {
			was, is := f.value(*pp), f.value(cp)
			if was == is {
				continue
			}
			events = append(events, models.ChangeEvent{
				Host:          curr.Host,
				EntityType:    models.EntityPort,
				EntityKey:     strconv.Itoa(cp.PortNumber),
				ChangeKind:    f.kind,
				Field:         f.name,
				PreviousValue: was,
				NewValue:      is,
				Timestamp:     curr.CapturedAt,
			})
		}
	}
	return events
}

func diffVlans(prev, curr *models.DeviceSnapshot) []models.ChangeEvent {
	var events []models.ChangeEvent

	for i := range curr.Vlans {
		cv := curr.Vlans[i]
		pv := prev.Vlan(cv.VlanID)
		key := strconv.Itoa(cv.VlanID)
		if pv == nil {
			events = append(events, models.ChangeEvent{
				Host:       curr.Host,
				EntityType: models.EntityVlan,
				EntityKey:  key,
				ChangeKind: models.ChangeVlanCreated,
				NewValue:   asJSON(cv),
				Timestamp:  curr.CapturedAt,
			})
			continue
		}
		if vlanEqual(*pv, cv) {
			continue
		}
		events = append(events, models.ChangeEvent{
			Host:          curr.Host,
			EntityType:    models.EntityVlan,
			EntityKey:     key,
			ChangeKind:    models.ChangeConfig,
			PreviousValue: asJSON(*pv),
			NewValue:      asJSON(cv),
			Timestamp:     curr.CapturedAt,
		})
	}

	for i := range prev.Vlans {
		pv := prev.Vlans[i]
		if curr.Vlan(pv.VlanID) != nil {
			continue
		}
		events = append(events, models.ChangeEvent{
			Host:          curr.Host,
			EntityType:    models.EntityVlan,
			EntityKey:     strconv.Itoa(pv.VlanID),
			ChangeKind:    models.ChangeVlanDeleted,
			PreviousValue: asJSON(pv),
			Timestamp:     curr.CapturedAt,
		})
	}

	return events
}

func vlanEqual(a, b models.VlanState) bool {
	return a.Name == b.Name &&
		intsEqual(a.TaggedPorts, b.TaggedPorts) &&
		intsEqual(a.UntaggedPorts, b.UntaggedPorts)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// asJSON serializes an entity for the previous/new value fields. The types
// here never fail to marshal.
func asJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
