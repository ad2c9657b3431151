// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package schedule holds the fixed-interval gates and the clock that drive
// the main loop.
package schedule

import "time"

// Gate decides, once per loop pass, whether a periodic action is due.
//
// A firing moves the reference to the current time, not to last+Period, so
// an overrun pushes every later firing back. Two overdue periods observed in
// a single pass still produce exactly one firing.
type Gate struct {
	Name   string
	Period time.Duration
	last   time.Duration
}

// NewGate returns a gate whose reference starts at boot (zero elapsed time).
func NewGate(name string, period time.Duration) *Gate {
	return &Gate{Name: name, Period: period}
}

// Due reports whether strictly more than Period has elapsed since the last firing.
func (g *Gate) Due(now time.Duration) bool {
	return now-g.last > g.Period
}

// Fire records a firing at now.
func (g *Gate) Fire(now time.Duration) {
	g.last = now
}

// Check fires the gate if it is due and reports whether it did.
func (g *Gate) Check(now time.Duration) bool {
	if !g.Due(now) {
		return false
	}
	g.Fire(now)
	return true
}

// Last returns the elapsed time of the last firing.
func (g *Gate) Last() time.Duration {
	return g.last
}
