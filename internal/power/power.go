// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package power tracks battery voltage, charge status and uptime.
package power

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/techo_node/internal/hal"
)

// Li-Po range used for the percentage estimate.
const (
	EmptyVoltage = 3.0
	FullVoltage  = 4.2
)

// State is recomputed on every loop pass.
type State struct {
	BatteryVoltage float64 `json:"battery_v"`
	Charging       bool    `json:"charging"`
	Uptime         uint32  `json:"uptime_s"`
}

// Percent returns the estimated charge of the battery.
func (s State) Percent() int { return Percent(s.BatteryVoltage) }

// Percent maps a Li-Po voltage linearly onto 0..100, truncating.
func Percent(v float64) int {
	if v >= FullVoltage {
		return 100
	}
	if v <= EmptyVoltage {
		return 0
	}
	// The epsilon keeps 3.6 V at exactly 50 despite binary fractions.
	frac := (v - EmptyVoltage) / (FullVoltage - EmptyVoltage) * 100
	return int(frac + 1e-9)
}

// ADC returns raw conversion counts from the battery sense channel.
type ADC interface {
	ReadRaw() (int32, error)
}

// Divider converts raw counts to battery voltage:
//
//	V = sample * Reference * Ratio / FullScale
type Divider struct {
	Reference float64 // ADC reference voltage
	Ratio     float64 // resistor divider ratio
	FullScale float64 // counts at Reference
}

// DefaultDivider matches a 10-bit 3.3 V ADC behind a 1:2 divider.
var DefaultDivider = Divider{Reference: 3.3, Ratio: 2.0, FullScale: 1024}

func (d Divider) Voltage(sample int32) float64 {
	return float64(sample) * d.Reference * d.Ratio / d.FullScale
}

// Monitor samples the battery and the charger status line.
type Monitor struct {
	adc    ADC
	charge hal.InputPin // active low: low means charging
	div    Divider
	log    *slog.Logger

	lastErr string
}

func NewMonitor(adc ADC, charge hal.InputPin, div Divider, log *slog.Logger) (*Monitor, error) {
	if adc == nil {
		return nil, fmt.Errorf("power: nil ADC")
	}
	if div.FullScale <= 0 {
		return nil, fmt.Errorf("power: full scale must be positive, got %v", div.FullScale)
	}
	if charge == nil {
		charge = hal.StaticInput(true)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{adc: adc, charge: charge, div: div, log: log}, nil
}

// Update returns the new power state. On an ADC error the previous voltage
// is kept; charge status and uptime are always refreshed.
func (m *Monitor) Update(prev State, elapsed time.Duration) State {
	next := prev
	if raw, err := m.adc.ReadRaw(); err != nil {
		// Logged once per distinct error; this runs every pass.
		if msg := err.Error(); msg != m.lastErr {
			m.log.Warn("battery ADC read failed", "error", err)
			m.lastErr = msg
		}
	} else {
		m.lastErr = ""
		next.BatteryVoltage = m.div.Voltage(raw)
	}
	next.Charging = !m.charge.Read()
	next.Uptime = uint32(elapsed.Milliseconds() / 1000)
	return next
}
