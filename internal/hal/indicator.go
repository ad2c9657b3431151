// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hal

import "time"

// Sleeper is the blocking delay used while an indicator is lit.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Indicator drives a status LED.
type Indicator struct {
	pin   OutputPin
	sleep Sleeper
}

func NewIndicator(pin OutputPin, sleep Sleeper) *Indicator {
	if pin == nil {
		pin = NopOutput{}
	}
	return &Indicator{pin: pin, sleep: sleep}
}

// Pulse lights the indicator for d.
func (i *Indicator) Pulse(d time.Duration) {
	_ = i.pin.Set(true)
	i.sleep.Sleep(d)
	_ = i.pin.Set(false)
}

// Flash blinks the indicator times times, waiting gap after every pulse.
func (i *Indicator) Flash(times int, on, gap time.Duration) {
	for n := 0; n < times; n++ {
		_ = i.pin.Set(true)
		i.sleep.Sleep(on)
		_ = i.pin.Set(false)
		i.sleep.Sleep(gap)
	}
}
