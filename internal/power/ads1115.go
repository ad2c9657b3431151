// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package power

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// ADS1115 samples one single-ended channel of a TI ADS1115.
type ADS1115 struct {
	pin ads1x15.PinADC
}

// OpenADS1115 configures channel (0..3) of the converter at addr.
func OpenADS1115(bus i2c.Bus, addr uint16, channel int) (*ADS1115, error) {
	channels := []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}
	if channel < 0 || channel >= len(channels) {
		return nil, fmt.Errorf("ADS1115 channel must be 0-3, got %d", channel)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = addr
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ADS1115 at 0x%02X: %w", addr, err)
	}

	pin, err := dev.PinForChannel(channels[channel], 5*physic.Volt, 1*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("ADS1115 channel %d: %w", channel, err)
	}
	return &ADS1115{pin: pin}, nil
}

func (a *ADS1115) ReadRaw() (int32, error) {
	s, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ADS1115 read: %w", err)
	}
	return s.Raw, nil
}

func (a *ADS1115) Halt() error {
	return a.pin.Halt()
}
