// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package schedule

import (
	"sync"
	"time"
)

// Clock reports time elapsed since boot and provides the blocking delay
// used between loop passes and for indicator pulses.
type Clock interface {
	Elapsed() time.Duration
	Sleep(d time.Duration)
}

// SystemClock measures elapsed time from its creation.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock starts a clock at the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

func (c *SystemClock) Elapsed() time.Duration { return time.Since(c.boot) }

func (c *SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock is a clock that only moves when told to. Sleep advances it
// instantly, which keeps loop tests deterministic.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Sleep(d time.Duration) { c.Advance(d) }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Set moves the clock to an absolute elapsed time.
func (c *ManualClock) Set(t time.Duration) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
