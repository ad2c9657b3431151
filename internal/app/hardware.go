// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/relabs-tech/techo_node/internal/config"
	"github.com/relabs-tech/techo_node/internal/display"
	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/hal"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/radio"
)

// Hardware is the set of real peripherals opened from the configuration.
type Hardware struct {
	Devices
	closers []func() error
}

// OpenHardware opens every peripheral named in cfg. The I2C bus, the
// battery ADC and the GPIO lines are mandatory; GPS, radio and display
// failures are logged and leave that device out.
func OpenHardware(cfg *config.Config, log *slog.Logger) (*Hardware, error) {
	if err := hal.Init(); err != nil {
		return nil, err
	}
	hw := &Hardware{}

	bus, err := hal.OpenI2C(cfg.I2CBus)
	if err != nil {
		return nil, err
	}
	hw.closers = append(hw.closers, bus.Close)

	adc, err := power.OpenADS1115(bus, cfg.ADCAddr, cfg.ADCChannel)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("battery ADC: %w", err)
	}
	hw.ADC = adc
	hw.closers = append(hw.closers, adc.Halt)

	hw.ProbeSensor = func() (env.Sensor, error) {
		s, err := env.ProbeBME280(bus, cfg.BME280Addr)
		if err != nil {
			return nil, err
		}
		hw.closers = append(hw.closers, s.Halt)
		return s, nil
	}

	if hw.Charge, err = hal.OpenInput(cfg.ChargePin); err != nil {
		hw.Close()
		return nil, fmt.Errorf("charge pin: %w", err)
	}
	if hw.Button, err = hal.OpenInput(cfg.ButtonPin); err != nil {
		hw.Close()
		return nil, fmt.Errorf("button pin: %w", err)
	}
	if hw.LED, err = hal.OpenOutput(cfg.LEDPin); err != nil {
		hw.Close()
		return nil, fmt.Errorf("led pin: %w", err)
	}

	if cfg.GPSEnabled {
		if port, err := hal.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate); err != nil {
			log.Error("GPS unavailable", "error", err)
		} else {
			stream := hal.NewByteStream(port)
			hw.GPS = stream
			hw.closers = append(hw.closers, stream.Close)
		}
	}

	if port, err := hal.OpenSerial(cfg.RadioSerialPort, cfg.RadioBaudRate); err != nil {
		log.Error("LoRa modem unavailable", "error", err)
	} else {
		modem := radio.NewModem(port, cfg.RadioParams(), cfg.RadioTimeout, log)
		hw.Radio = modem
		hw.closers = append(hw.closers, modem.Close)
	}

	if cfg.DisplayEnabled {
		if err := hw.openDisplay(cfg.DisplaySPIPort); err != nil {
			log.Error("display unavailable", "error", err)
		}
	}
	return hw, nil
}

func (hw *Hardware) openDisplay(name string) error {
	port, err := hal.OpenSPI(name)
	if err != nil {
		return err
	}
	epd, err := display.OpenEPaper(port)
	if err != nil {
		port.Close()
		return err
	}
	hw.Surface = epd
	hw.closers = append(hw.closers, epd.Close, port.Close)
	return nil
}

// Close releases the devices in reverse order of opening.
func (hw *Hardware) Close() error {
	var errs []error
	for i := len(hw.closers) - 1; i >= 0; i-- {
		if err := hw.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	hw.closers = nil
	return errors.Join(errs...)
}
