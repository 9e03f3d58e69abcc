package models

import "time"

// ChangeKind classifies a detected difference between two snapshots.
type ChangeKind string

const (
	ChangeConfig       ChangeKind = "config_change"
	ChangeStatus       ChangeKind = "status_change"
	ChangeSnapshot     ChangeKind = "periodic_snapshot"
	ChangeConnectivity ChangeKind = "connectivity_change"
	ChangeVlanCreated  ChangeKind = "vlan_created"
	ChangeVlanDeleted  ChangeKind = "vlan_deleted"
)

// EntityType names the kind of entity a change event refers to.
type EntityType string

const (
	EntityPort   EntityType = "port"
	EntityVlan   EntityType = "vlan"
	EntitySystem EntityType = "system"
	EntityDevice EntityType = "device"
)

// ChangeEvent is one detected difference between consecutive snapshots of a
// device, or a connectivity transition. Events are created by the diff engine
// (connectivity events by the monitor) and are never mutated afterwards.
type ChangeEvent struct {
	Host          string     `json:"host"`
	EntityType    EntityType `json:"entity_type"`
	EntityKey     string     `json:"entity_key"`
	ChangeKind    ChangeKind `json:"change_kind"`
	Field         string     `json:"field,omitempty"`
	PreviousValue string     `json:"previous_value,omitempty"`
	NewValue      string     `json:"new_value,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}
