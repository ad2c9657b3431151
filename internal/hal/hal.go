// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hal binds the node to real hardware through periph.io and exposes
// the small pin interfaces the rest of the program is written against.
package hal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// InputPin is a digital input. Read returns true when the line is high.
type InputPin interface {
	Read() bool
}

// OutputPin is a digital output.
type OutputPin interface {
	Set(high bool) error
}

var (
	hostOnce    sync.Once
	hostInitErr error
)

// Init loads the periph host drivers. It is safe to call more than once.
func Init() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostInitErr = fmt.Errorf("periph host init: %w", err)
		}
	})
	return hostInitErr
}

type gpioIn struct {
	pin gpio.PinIO
}

func (p gpioIn) Read() bool { return p.pin.Read() == gpio.High }

type gpioOut struct {
	pin gpio.PinIO
}

func (p gpioOut) Set(high bool) error {
	level := gpio.Low
	if high {
		level = gpio.High
	}
	return p.pin.Out(level)
}

// OpenInput configures the named GPIO as an input with the internal pull-up
// enabled (buttons and open-drain status lines idle high).
func OpenInput(name string) (InputPin, error) {
	return openInput(name, gpio.PullUp)
}

func openInput(name string, pull gpio.Pull) (InputPin, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %q as input: %w", name, err)
	}
	return gpioIn{pin: p}, nil
}

// OpenOutput configures the named GPIO as an output driven low.
func OpenOutput(name string) (OutputPin, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio %q as output: %w", name, err)
	}
	return gpioOut{pin: p}, nil
}

// OpenI2C opens an I²C bus by name ("" selects the default bus).
func OpenI2C(name string) (i2c.BusCloser, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return bus, nil
}

// OpenSPI opens an SPI port by name ("" selects the default port).
func OpenSPI(name string) (spi.PortCloser, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spi open %q: %w", name, err)
	}
	return port, nil
}

// NopOutput discards writes. Used when an optional pin is not wired.
type NopOutput struct{}

func (NopOutput) Set(bool) error { return nil }

// StaticInput always reads the same level.
type StaticInput bool

func (s StaticInput) Read() bool { return bool(s) }
