// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package beacon builds and sends the node's status and ping frames.
package beacon

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/power"
)

// Ping is the payload sent on a button double-click.
const Ping = "PING from T-Echo"

// Format selects the beacon wire format.
type Format string

const (
	// FormatStatus is the compact "STATUS:BAT=..,GPS=..,TEMP=.." line.
	FormatStatus Format = "status"
	// FormatPipe sends a "STATUS|..." packet, followed by a "GPS|..."
	// packet when a fix is known.
	FormatPipe Format = "pipe"
)

// ParseFormat accepts "status" or "pipe".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatStatus, FormatPipe:
		return f, nil
	default:
		return "", fmt.Errorf("unknown beacon format %q (want status or pipe)", s)
	}
}

// Inputs is the state a beacon is built from.
type Inputs struct {
	Power         power.State
	Fix           gps.Fix
	SensorEnabled bool
	Env           env.Reading
	DeviceID      string
}

// Status builds the compact status line. The GPS segment is present only
// with a valid fix; the environment segment only when the sensor was
// detected and its reading is valid.
func Status(in Inputs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STATUS:BAT=%.2fV,", in.Power.BatteryVoltage)
	if in.Fix.Valid {
		fmt.Fprintf(&b, "GPS=%.6f,%.6f,", in.Fix.Latitude, in.Fix.Longitude)
	}
	if in.SensorEnabled && in.Env.Valid {
		fmt.Fprintf(&b, "TEMP=%.1fC,HUM=%.1f%%", in.Env.Temperature, in.Env.Humidity)
	}
	return b.String()
}

// StatusPacket builds "STATUS|BAT:4.05V|CHG:0|UP:123s|ID:<id>".
func StatusPacket(p power.State, deviceID string) string {
	chg := 0
	if p.Charging {
		chg = 1
	}
	return fmt.Sprintf("STATUS|BAT:%.2fV|CHG:%d|UP:%ds|ID:%s", p.BatteryVoltage, chg, p.Uptime, deviceID)
}

// LocationPacket builds "GPS|LAT:..|LNG:..|ALT:..m|ID:<id>".
func LocationPacket(fix gps.Fix, deviceID string) string {
	return fmt.Sprintf("GPS|LAT:%.6f|LNG:%.6f|ALT:%.1fm|ID:%s", fix.Latitude, fix.Longitude, fix.Altitude, deviceID)
}

// Payloads returns the frames one beacon consists of, in send order.
func (f Format) Payloads(in Inputs) []string {
	if f != FormatPipe {
		return []string{Status(in)}
	}
	out := []string{StatusPacket(in.Power, in.DeviceID)}
	if in.Fix.Valid {
		out = append(out, LocationPacket(in.Fix, in.DeviceID))
	}
	return out
}
