// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"log/slog"
	"sync"

	"github.com/relabs-tech/techo_node/internal/beacon"
	"github.com/relabs-tech/techo_node/internal/radio"
)

// Pong is the reply the loopback radio sends to a ping when Echo is set.
const Pong = "PONG from sim"

// Radio is a loopback transceiver. Transmitted frames are logged and kept;
// received frames are injected by the caller. Like the modem it keeps a
// single receive slot.
type Radio struct {
	Echo      bool
	FailBegin bool

	log *slog.Logger

	mu    sync.Mutex
	ready bool
	sent  []string
	slot  *radio.Packet
}

func NewRadio(log *slog.Logger) *Radio {
	if log == nil {
		log = slog.Default()
	}
	return &Radio{Echo: true, log: log}
}

func (r *Radio) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailBegin {
		return &radio.CodeError{Op: "begin", Code: radio.ResultUnknown}
	}
	r.ready = true
	return nil
}

func (r *Radio) Transmit(payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return radio.ErrNotReady
	}
	if len(payload) > radio.MaxPayload {
		return &radio.CodeError{Op: "send", Code: radio.ResultTxOverrun}
	}
	r.sent = append(r.sent, payload)
	r.log.Debug("sim radio: tx", "payload", payload)
	if r.Echo && payload == beacon.Ping {
		r.slot = &radio.Packet{From: 2, Payload: Pong, RSSI: -57.5, SNR: 9.25}
	}
	return nil
}

func (r *Radio) Receive() (radio.Packet, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return radio.Packet{}, false, radio.ErrNotReady
	}
	if r.slot == nil {
		return radio.Packet{}, false, nil
	}
	p := *r.slot
	r.slot = nil
	return p, true, nil
}

// Inject places p in the receive slot, replacing any unread frame.
func (r *Radio) Inject(p radio.Packet) {
	r.mu.Lock()
	r.slot = &p
	r.mu.Unlock()
}

// Sent returns the frames transmitted so far.
func (r *Radio) Sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}
