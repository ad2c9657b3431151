// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"io"
	"log/slog"
	"sync"

	"github.com/relabs-tech/techo_node/internal/app"
	"github.com/relabs-tech/techo_node/internal/display"
	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/schedule"
)

// DefaultCenter is where the simulated receiver walks when no home
// position is configured.
var DefaultCenter = gps.Point{Lat: 52.520008, Lon: 13.404954}

// Bench is a full set of simulated peripherals.
type Bench struct {
	GPS     *GPS
	Climate *Climate
	Battery *Battery
	Radio   *Radio
	Button  *Button
	LED     *LED
}

// NewBench builds the simulated peripherals on clock.
func NewBench(clock schedule.Clock, center gps.Point, divider power.Divider, log *slog.Logger) *Bench {
	if log == nil {
		log = slog.Default()
	}
	return &Bench{
		GPS:     NewGPS(clock, center),
		Climate: NewClimate(clock),
		Battery: NewBattery(clock, divider),
		Radio:   NewRadio(log),
		Button:  &Button{},
		LED:     &LED{log: log},
	}
}

// Devices returns the bench as the node's peripheral set. Screen frames
// are written to screen, or dropped when it is nil.
func (b *Bench) Devices(screen io.Writer) app.Devices {
	d := app.Devices{
		GPS:         b.GPS,
		ProbeSensor: func() (env.Sensor, error) { return b.Climate, nil },
		Radio:       b.Radio,
		ADC:         b.Battery,
		Charge:      b.Battery.ChargeLine(),
		Button:      b.Button,
		LED:         b.LED,
	}
	if screen != nil {
		d.Surface = display.NewTextSurface(screen, 0)
	}
	return d
}

// LED logs its transitions at debug level.
type LED struct {
	log *slog.Logger

	mu  sync.Mutex
	on  bool
	set int
}

func (l *LED) Set(high bool) error {
	l.mu.Lock()
	l.on = high
	l.set++
	l.mu.Unlock()
	l.log.Debug("sim led", "on", high)
	return nil
}

// State reports the current level and the number of writes so far.
func (l *LED) State() (on bool, writes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on, l.set
}
