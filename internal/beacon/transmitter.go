// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package beacon

import (
	"log/slog"
	"time"

	"github.com/relabs-tech/techo_node/internal/hal"
	"github.com/relabs-tech/techo_node/internal/radio"
)

// PingPulse is how long the indicator stays lit after a ping is sent.
const PingPulse = 100 * time.Millisecond

// Transmitter sends beacons and pings through the radio. Failures are
// logged with the modem result code and never retried.
type Transmitter struct {
	radio  radio.Radio
	led    *hal.Indicator
	format Format
	log    *slog.Logger
}

func NewTransmitter(r radio.Radio, led *hal.Indicator, format Format, log *slog.Logger) *Transmitter {
	if format == "" {
		format = FormatStatus
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transmitter{radio: r, led: led, format: format, log: log}
}

// SendStatus builds the beacon from in and transmits every frame of it.
// It returns the frames that were accepted by the radio.
func (t *Transmitter) SendStatus(in Inputs) []string {
	var sent []string
	for _, payload := range t.format.Payloads(in) {
		t.log.Info("Sending status: " + payload)
		if err := t.radio.Transmit(payload); err != nil {
			t.log.Warn("Status send failed", "code", radio.Code(err), "error", err)
			continue
		}
		t.log.Info("Status sent successfully!")
		sent = append(sent, payload)
	}
	return sent
}

// SendPing transmits the ping frame and pulses the indicator on success.
func (t *Transmitter) SendPing() error {
	t.log.Info("Sending ping...")
	if err := t.radio.Transmit(Ping); err != nil {
		t.log.Warn("Ping failed", "code", radio.Code(err), "error", err)
		return err
	}
	t.log.Info("Ping sent successfully!")
	if t.led != nil {
		t.led.Pulse(PingPulse)
	}
	return nil
}
