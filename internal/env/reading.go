// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import "fmt"

// Reading is a single environmental measurement.
type Reading struct {
	Temperature float64 `json:"temp_c"`       // °C
	Humidity    float64 `json:"humidity_pct"` // %RH
	Pressure    float64 `json:"pressure_hpa"` // hPa
	Valid       bool    `json:"valid"`
}

// Sensor is a temperature/humidity/pressure sensor answering synchronous
// register reads.
type Sensor interface {
	ReadTemperature() (float64, error) // °C
	ReadHumidity() (float64, error)    // %RH
	ReadPressure() (float64, error)    // hPa
}

// Poll issues the three reads in order and returns them as one valid
// reading. On any error the caller keeps its previous reading.
func Poll(s Sensor) (Reading, error) {
	t, err := s.ReadTemperature()
	if err != nil {
		return Reading{}, fmt.Errorf("read temperature: %w", err)
	}
	h, err := s.ReadHumidity()
	if err != nil {
		return Reading{}, fmt.Errorf("read humidity: %w", err)
	}
	p, err := s.ReadPressure()
	if err != nil {
		return Reading{}, fmt.Errorf("read pressure: %w", err)
	}
	return Reading{Temperature: t, Humidity: h, Pressure: p, Valid: true}, nil
}
