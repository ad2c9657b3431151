// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/techo_node/internal/hal"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/schedule"
)

// ErrInjected is returned by simulated devices told to fail.
var ErrInjected = errors.New("sim: injected failure")

// Climate is a BME280 stand-in whose readings drift slowly.
type Climate struct {
	clock schedule.Clock

	mu   sync.Mutex
	fail bool
}

func NewClimate(clock schedule.Clock) *Climate {
	return &Climate{clock: clock}
}

// SetFailing makes every read return ErrInjected until cleared.
func (c *Climate) SetFailing(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}

func (c *Climate) phase(period time.Duration) float64 {
	t := c.clock.Elapsed()
	return 2 * math.Pi * float64(t%period) / float64(period)
}

func (c *Climate) failing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fail
}

func (c *Climate) ReadTemperature() (float64, error) {
	if c.failing() {
		return 0, ErrInjected
	}
	return 21 + 1.5*math.Sin(c.phase(10*time.Minute)), nil
}

func (c *Climate) ReadHumidity() (float64, error) {
	if c.failing() {
		return 0, ErrInjected
	}
	return 45 + 5*math.Cos(c.phase(15*time.Minute)), nil
}

func (c *Climate) ReadPressure() (float64, error) {
	if c.failing() {
		return 0, ErrInjected
	}
	return 1013.25 + 0.8*math.Sin(c.phase(30*time.Minute)), nil
}

// Battery discharges from High to Low over Discharge, then charges back
// over Charge, and repeats.
type Battery struct {
	High, Low         float64
	Discharge, Charge time.Duration

	clock   schedule.Clock
	divider power.Divider
}

func NewBattery(clock schedule.Clock, divider power.Divider) *Battery {
	return &Battery{
		High:      4.15,
		Low:       3.45,
		Discharge: 40 * time.Minute,
		Charge:    10 * time.Minute,
		clock:     clock,
		divider:   divider,
	}
}

// Voltage returns the cell voltage and whether it is charging.
func (b *Battery) Voltage() (float64, bool) {
	cycle := b.Discharge + b.Charge
	t := b.clock.Elapsed() % cycle
	span := b.High - b.Low
	if t < b.Discharge {
		return b.High - span*float64(t)/float64(b.Discharge), false
	}
	t -= b.Discharge
	return b.Low + span*float64(t)/float64(b.Charge), true
}

// ReadRaw converts the voltage back through the divider into counts.
func (b *Battery) ReadRaw() (int32, error) {
	v, _ := b.Voltage()
	d := b.divider
	if d.Reference <= 0 || d.Ratio <= 0 || d.FullScale <= 0 {
		d = power.DefaultDivider
	}
	return int32(math.Round(v * d.FullScale / (d.Reference * d.Ratio))), nil
}

// ChargeLine is the charger status output, driven low while charging.
func (b *Battery) ChargeLine() hal.InputPin { return &chargeLine{b} }

type chargeLine struct{ b *Battery }

func (c *chargeLine) Read() bool {
	_, charging := c.b.Voltage()
	return !charging
}
