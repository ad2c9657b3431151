// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/techo_node/internal/beacon"
	"github.com/relabs-tech/techo_node/internal/config"
	"github.com/relabs-tech/techo_node/internal/display"
	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/hal"
	"github.com/relabs-tech/techo_node/internal/input"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/radio"
	"github.com/relabs-tech/techo_node/internal/schedule"
	"github.com/relabs-tech/techo_node/internal/status"
)

// Indicator timings.
const (
	readyPulse    = 500 * time.Millisecond
	receiveFlash  = 100 * time.Millisecond
	receiveFlashN = 3
)

// Devices are the peripherals the node runs on. A nil GPS, Radio or
// ProbeSensor means that part is not fitted.
type Devices struct {
	GPS         gps.Stream
	ProbeSensor func() (env.Sensor, error)
	Radio       radio.Radio
	ADC         power.ADC
	Charge      hal.InputPin // active low
	Button      hal.InputPin // active low
	LED         hal.OutputPin
	Surface     display.Surface
}

// Options are the tunables of the loop.
type Options struct {
	DeviceID string

	BootDelay       time.Duration
	LoopDelay       time.Duration
	GPSInterval     time.Duration
	SensorInterval  time.Duration
	DisplayInterval time.Duration
	BeaconInterval  time.Duration

	Divider      power.Divider
	Button       input.Timing
	BeaconFormat beacon.Format
	Home         *gps.Point
}

// OptionsFromConfig copies the loop settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	o := Options{
		DeviceID:        cfg.DeviceID,
		BootDelay:       cfg.BootDelay,
		LoopDelay:       cfg.LoopDelay,
		GPSInterval:     cfg.GPSInterval,
		SensorInterval:  cfg.SensorInterval,
		DisplayInterval: cfg.DisplayInterval,
		BeaconInterval:  cfg.BeaconInterval,
		Divider: power.Divider{
			Reference: cfg.ADCReference,
			Ratio:     cfg.ADCRatio,
			FullScale: cfg.ADCFullScale,
		},
		Button: input.Timing{
			Debounce:    cfg.ButtonDebounce,
			DoubleClick: cfg.ButtonDoubleClick,
			LongClick:   cfg.ButtonLongClick,
		},
		BeaconFormat: cfg.BeaconFormat,
	}
	if cfg.HasHome {
		o.Home = &gps.Point{Lat: cfg.HomeLat, Lon: cfg.HomeLon}
	}
	return o
}

// State is the node's data. The loop is its only writer.
type State struct {
	Fix           gps.Fix
	Env           env.Reading
	Power         power.State
	RadioOK       bool
	SensorEnabled bool
	LastPacket    *radio.Packet
}

// Node runs the cooperative loop: one pass polls every source in a fixed
// order, then idles.
type Node struct {
	opts     Options
	dev      Devices
	clock    schedule.Clock
	log      *slog.Logger
	observer status.Observer
	now      func() time.Time

	state  State
	sensor env.Sensor

	decoder  *gps.Decoder
	scratch  []byte
	battery  *power.Monitor
	renderer *display.Renderer
	tx       *beacon.Transmitter
	led      *hal.Indicator
	button   *input.Button

	gpsGate     *schedule.Gate
	sensorGate  *schedule.Gate
	displayGate *schedule.Gate
	beaconGate  *schedule.Gate
}

// NewNode wires the components. observer may be nil.
func NewNode(opts Options, dev Devices, clock schedule.Clock, log *slog.Logger, observer status.Observer) (*Node, error) {
	if clock == nil {
		clock = schedule.NewSystemClock()
	}
	if log == nil {
		log = slog.Default()
	}
	if observer == nil {
		observer = status.Observers(nil)
	}
	if opts.BeaconFormat == "" {
		opts.BeaconFormat = beacon.FormatStatus
	}
	battery, err := power.NewMonitor(dev.ADC, dev.Charge, opts.Divider, log)
	if err != nil {
		return nil, fmt.Errorf("battery monitor: %w", err)
	}

	led := hal.NewIndicator(dev.LED, clock)
	n := &Node{
		opts:     opts,
		dev:      dev,
		clock:    clock,
		log:      log,
		observer: observer,
		now:      time.Now,

		decoder:  gps.NewDecoder(log),
		scratch:  make([]byte, 0, 1024),
		battery:  battery,
		renderer: display.NewRenderer(dev.Surface, log),
		led:      led,
		button:   input.NewButton(dev.Button, opts.Button),

		gpsGate:     schedule.NewGate("gps", opts.GPSInterval),
		sensorGate:  schedule.NewGate("sensor", opts.SensorInterval),
		displayGate: schedule.NewGate("display", opts.DisplayInterval),
		beaconGate:  schedule.NewGate("beacon", opts.BeaconInterval),
	}
	if dev.Radio != nil {
		n.tx = beacon.NewTransmitter(dev.Radio, led, opts.BeaconFormat, log)
	}
	return n, nil
}

// Setup probes the peripherals, sets the capability flags and draws the
// first page. Missing or failing peripherals only disable their feature.
func (n *Node) Setup() {
	n.clock.Sleep(n.opts.BootDelay)
	n.log.Info("T-Echo node starting", "device", n.opts.DeviceID)

	if n.dev.ProbeSensor != nil {
		if s, err := n.dev.ProbeSensor(); err != nil {
			n.log.Warn("BME280 sensor not found", "error", err)
		} else {
			n.sensor = s
			n.state.SensorEnabled = true
			n.log.Info("BME280 sensor initialized")
		}
	} else {
		n.log.Warn("BME280 sensor not found")
	}

	if n.dev.GPS != nil {
		n.log.Info("GPS initialized")
	} else {
		n.log.Info("GPS disabled")
	}
	if n.dev.Surface != nil {
		n.log.Info("Display initialized")
	} else {
		n.log.Warn("Display disabled")
	}

	if n.dev.Radio != nil {
		n.log.Info("Initializing LoRa...")
		if err := n.dev.Radio.Begin(); err != nil {
			n.log.Error(fmt.Sprintf("LoRa init failed, code %d", radio.Code(err)), "error", err)
		} else {
			n.state.RadioOK = true
			n.log.Info("LoRa initialized")
		}
	} else {
		n.log.Warn("LoRa radio not fitted")
	}

	n.button.OnClick(func() { n.renderer.NextPage() })
	n.button.OnDoubleClick(func() {
		if n.state.RadioOK {
			_ = n.tx.SendPing()
		}
	})

	n.refreshDisplay()

	n.log.Info("Setup complete!")
	n.led.Pulse(readyPulse)
}

// Step runs one pass of the loop, including the idle delay.
func (n *Node) Step() {
	now := n.clock.Elapsed()

	n.button.Poll(now)

	if n.dev.GPS != nil && n.gpsGate.Check(now) {
		n.pollGPS()
	}

	if n.state.SensorEnabled && n.sensorGate.Check(now) {
		n.pollSensor()
	}

	n.state.Power = n.battery.Update(n.state.Power, n.clock.Elapsed())

	if n.displayGate.Check(now) {
		n.refreshDisplay()
	}

	if n.state.RadioOK && n.beaconGate.Check(now) {
		frames := n.tx.SendStatus(n.beaconInputs())
		n.observer.Beacon(n.Snapshot(), frames)
	}

	if n.state.RadioOK {
		n.checkIncoming()
	}

	n.clock.Sleep(n.opts.LoopDelay)
}

// Run sets up the node and loops until ctx is cancelled. A pass in
// progress always completes.
func (n *Node) Run(ctx context.Context) error {
	n.Setup()
	for {
		select {
		case <-ctx.Done():
			n.log.Info("loop stopped")
			return nil
		default:
		}
		n.Step()
	}
}

func (n *Node) pollGPS() {
	if fix, ok := n.decoder.Poll(n.dev.GPS, n.scratch); ok {
		n.state.Fix = fix
	}
}

func (n *Node) pollSensor() {
	r, err := env.Poll(n.sensor)
	if err != nil {
		n.log.Warn("sensor read failed, keeping previous reading", "error", err)
		return
	}
	n.state.Env = r
}

func (n *Node) refreshDisplay() {
	if err := n.renderer.Refresh(n.view()); err != nil {
		n.log.Warn("display refresh failed", "error", err)
	}
	n.observer.Snapshot(n.Snapshot())
}

func (n *Node) checkIncoming() {
	pkt, ok, err := n.dev.Radio.Receive()
	if err != nil {
		n.log.Debug("LoRa receive failed", "code", radio.Code(err), "error", err)
		return
	}
	if !ok {
		return
	}
	n.log.Info("Received: "+pkt.Payload, "from", pkt.From)
	n.log.Info(fmt.Sprintf("RSSI: %.2f dBm", pkt.RSSI))
	n.log.Info(fmt.Sprintf("SNR: %.2f dB", pkt.SNR))
	n.state.LastPacket = &pkt
	n.observer.Received(pkt)
	n.led.Flash(receiveFlashN, receiveFlash, receiveFlash)
}

func (n *Node) view() display.View {
	return display.View{
		Fix:           n.state.Fix,
		Env:           n.state.Env,
		Power:         n.state.Power,
		RadioOK:       n.state.RadioOK,
		SensorEnabled: n.state.SensorEnabled,
		DeviceID:      n.opts.DeviceID,
		Home:          n.opts.Home,
	}
}

func (n *Node) beaconInputs() beacon.Inputs {
	return beacon.Inputs{
		Power:         n.state.Power,
		Fix:           n.state.Fix,
		SensorEnabled: n.state.SensorEnabled,
		Env:           n.state.Env,
		DeviceID:      n.opts.DeviceID,
	}
}

// State returns a copy of the node state.
func (n *Node) State() State {
	s := n.state
	if s.LastPacket != nil {
		p := *s.LastPacket
		s.LastPacket = &p
	}
	return s
}

// Page returns the page currently selected.
func (n *Node) Page() display.Page { return n.renderer.Page() }

// Snapshot copies the state for observers.
func (n *Node) Snapshot() status.Snapshot {
	s := n.State()
	var position string
	if s.Fix.Valid {
		position = gps.FormatCoordinate(s.Fix.Latitude, true) + " " + gps.FormatCoordinate(s.Fix.Longitude, false)
	}
	return status.Snapshot{
		Time:          n.now(),
		DeviceID:      n.opts.DeviceID,
		Fix:           s.Fix,
		Position:      position,
		Env:           s.Env,
		Power:         s.Power,
		BatteryPct:    s.Power.Percent(),
		RadioOK:       s.RadioOK,
		SensorEnabled: s.SensorEnabled,
		Page:          n.renderer.Page().String(),
		Screen:        n.renderer.Frame(),
		LastPacket:    s.LastPacket,
	}
}
