// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package status defines the copies of node state handed to observers.
package status

import (
	"time"

	"github.com/relabs-tech/techo_node/internal/display"
	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/radio"
)

// Snapshot is a point-in-time copy of the node state. Observers own their
// copy; changing it has no effect on the node.
type Snapshot struct {
	Time          time.Time     `json:"time"`
	DeviceID      string        `json:"device_id"`
	Fix           gps.Fix       `json:"gps"`
	Position      string        `json:"position,omitempty"` // degrees and minutes, valid fix only
	Env           env.Reading   `json:"env"`
	Power         power.State   `json:"power"`
	BatteryPct    int           `json:"battery_pct"`
	RadioOK       bool          `json:"radio_ok"`
	SensorEnabled bool          `json:"sensor_enabled"`
	Page          string        `json:"page"`
	Screen        display.Frame `json:"screen"`
	LastPacket    *radio.Packet `json:"last_packet,omitempty"`
}

// Observer receives node events from the loop. Implementations must return
// quickly and must not block on the network.
type Observer interface {
	// Snapshot is called after every display refresh.
	Snapshot(s Snapshot)
	// Beacon is called after a beacon with the frames the radio accepted.
	Beacon(s Snapshot, frames []string)
	// Received is called for every packet read from the radio.
	Received(p radio.Packet)
}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) Snapshot(s Snapshot) {
	for _, ob := range o {
		ob.Snapshot(s)
	}
}

func (o Observers) Beacon(s Snapshot, frames []string) {
	for _, ob := range o {
		ob.Beacon(s, frames)
	}
}

func (o Observers) Received(p radio.Packet) {
	for _, ob := range o {
		ob.Received(p)
	}
}
