// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/relabs-tech/techo_node/internal/radio"
)

// Button is an active-low input that plays back queued levels, one per
// Read. Once the queue is empty the line idles high. The loop samples the
// button once per pass, so a click is one low sample followed by a high one.
type Button struct {
	mu     sync.Mutex
	levels []bool
}

func (b *Button) Read() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.levels) == 0 {
		return true
	}
	v := b.levels[0]
	b.levels = b.levels[1:]
	return v
}

// Click queues one short press.
func (b *Button) Click() { b.queue(false, true) }

// DoubleClick queues two short presses.
func (b *Button) DoubleClick() { b.queue(false, true, false, true) }

func (b *Button) queue(levels ...bool) {
	b.mu.Lock()
	b.levels = append(b.levels, levels...)
	b.mu.Unlock()
}

// ReadKeys turns lines read from r into button gestures and radio traffic
// until r is exhausted:
//
//	c  click (next page)
//	d  double click (ping)
//	r  inject a received frame; the rest of the line is the payload
func ReadKeys(r io.Reader, b *Button, rf *Radio, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch line[0] {
		case 'c':
			b.Click()
		case 'd':
			b.DoubleClick()
		case 'r':
			payload := strings.TrimSpace(line[1:])
			if payload == "" {
				payload = "HELLO"
			}
			if rf != nil {
				rf.Inject(radio.Packet{From: 3, Payload: payload, RSSI: -88, SNR: 6.5})
			}
		default:
			log.Warn("unknown key, use c, d or r <text>", "input", line)
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("key input closed", "error", err)
	}
}
