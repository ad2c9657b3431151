// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package input decodes click gestures from a polled push button.
package input

import (
	"time"

	"github.com/relabs-tech/techo_node/internal/hal"
)

// Gesture is a decoded button action.
type Gesture int

const (
	None Gesture = iota
	Click
	DoubleClick
)

func (g Gesture) String() string {
	switch g {
	case Click:
		return "click"
	case DoubleClick:
		return "double-click"
	default:
		return "none"
	}
}

// Timing holds the gesture thresholds.
type Timing struct {
	Debounce    time.Duration // level changes closer than this are ignored
	DoubleClick time.Duration // max gap between the clicks of a double click
	LongClick   time.Duration // presses at least this long are not clicks
}

var DefaultTiming = Timing{
	Debounce:    50 * time.Millisecond,
	DoubleClick: 300 * time.Millisecond,
	LongClick:   200 * time.Millisecond,
}

// Button decodes clicks from an active-low input. Poll must be called
// regularly; a gesture is reported once the double-click window after the
// last release has passed.
type Button struct {
	pin    hal.InputPin
	timing Timing

	pressed    bool
	lastChange time.Duration
	pressedAt  time.Duration
	releasedAt time.Duration
	clicks     int

	onClick       func()
	onDoubleClick func()
}

func NewButton(pin hal.InputPin, timing Timing) *Button {
	if pin == nil {
		pin = hal.StaticInput(true)
	}
	return &Button{pin: pin, timing: timing, lastChange: -timing.Debounce}
}

// OnClick sets the single-click handler.
func (b *Button) OnClick(fn func()) { b.onClick = fn }

// OnDoubleClick sets the double-click handler.
func (b *Button) OnDoubleClick(fn func()) { b.onDoubleClick = fn }

// Poll samples the pin at now and runs the handler of a completed gesture.
// A long press ends the gesture in progress: clicks made before it are
// reported on its release and the long press itself is ignored.
func (b *Button) Poll(now time.Duration) Gesture {
	level := !b.pin.Read()
	if level != b.pressed && now-b.lastChange >= b.timing.Debounce {
		b.pressed = level
		b.lastChange = now
		switch {
		case level:
			b.pressedAt = now
		case now-b.pressedAt < b.timing.LongClick:
			b.clicks++
			b.releasedAt = now
		default:
			return b.emit()
		}
	}

	if b.pressed || b.clicks == 0 || now-b.releasedAt < b.timing.DoubleClick {
		return None
	}
	return b.emit()
}

// emit reports the pending clicks and clears them.
func (b *Button) emit() Gesture {
	g := None
	switch {
	case b.clicks == 1:
		g = Click
	case b.clicks > 1:
		g = DoubleClick
	}
	b.clicks = 0

	switch g {
	case Click:
		if b.onClick != nil {
			b.onClick()
		}
	case DoubleClick:
		if b.onDoubleClick != nil {
			b.onDoubleClick()
		}
	}
	return g
}
