// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// BME280 reads a Bosch BME280 over I²C. Every read triggers a fresh
// measurement, as the sensor is polled only every few seconds.
type BME280 struct {
	dev *bmxx80.Dev
}

// ProbeBME280 detects and configures the sensor at addr. An error means the
// sensor is absent or unusable.
func ProbeBME280(bus i2c.Bus, addr uint16) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("BME280 at 0x%02X: %w", addr, err)
	}
	return &BME280{dev: dev}, nil
}

func (b *BME280) sense() (physic.Env, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return physic.Env{}, fmt.Errorf("BME280 sense: %w", err)
	}
	return e, nil
}

func (b *BME280) ReadTemperature() (float64, error) {
	e, err := b.sense()
	if err != nil {
		return 0, err
	}
	return e.Temperature.Celsius(), nil
}

func (b *BME280) ReadHumidity() (float64, error) {
	e, err := b.sense()
	if err != nil {
		return 0, err
	}
	return float64(e.Humidity) / float64(physic.PercentRH), nil
}

func (b *BME280) ReadPressure() (float64, error) {
	e, err := b.sense()
	if err != nil {
		return 0, err
	}
	// 1 hPa = 100 Pa
	return float64(e.Pressure) / float64(100*physic.Pascal), nil
}

// Halt stops the sensor.
func (b *BME280) Halt() error {
	return b.dev.Halt()
}
