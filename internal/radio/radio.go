// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package radio talks to the LoRa transceiver.
package radio

import (
	"errors"
	"fmt"
)

// Packet is a received LoRa frame.
type Packet struct {
	From    uint16  `json:"from"`
	Payload string  `json:"payload"`
	RSSI    float64 `json:"rssi_dbm"`
	SNR     float64 `json:"snr_db"`
}

// Radio is a half-duplex text transceiver. Transmit blocks until the frame
// is sent or the driver gives up. Receive never blocks: ok is false when no
// frame is waiting.
type Radio interface {
	Begin() error
	Transmit(payload string) error
	Receive() (pkt Packet, ok bool, err error)
}

var (
	// ErrNotReady is returned when the radio was never initialized.
	ErrNotReady = errors.New("radio: not initialized")
	// ErrTimeout is returned when the modem does not answer a command.
	ErrTimeout = errors.New("radio: command timeout")
)

// CodeError carries a result code reported by the modem.
type CodeError struct {
	Code int
	Op   string
}

func (e *CodeError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("radio: error code %d (%s)", e.Code, describe(e.Code))
	}
	return fmt.Sprintf("radio: %s: error code %d (%s)", e.Op, e.Code, describe(e.Code))
}

// Code returns the numeric result of an operation: 0 on success, the modem
// code for a CodeError, ResultUnknown otherwise.
func Code(err error) int {
	if err == nil {
		return ResultOK
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	if errors.Is(err, ErrTimeout) {
		return ResultTxTimeout
	}
	return ResultUnknown
}
