// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sim

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/techo_node/internal/app"
	"github.com/relabs-tech/techo_node/internal/config"
	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/input"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/radio"
	"github.com/relabs-tech/techo_node/internal/schedule"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecksum(t *testing.T) {
	body := "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
	if got := Checksum(body); got != "47" {
		t.Fatalf("checksum = %s, want 47", got)
	}
}

func TestNMEAAngle(t *testing.T) {
	tests := []struct {
		deg   float64
		width int
		want  string
	}{
		{48.1173, 2, "4807.0380"},
		{-11.5, 3, "01130.0000"},
		{0, 2, "0000.0000"},
	}
	for _, tt := range tests {
		if got := nmeaAngle(tt.deg, tt.width); got != tt.want {
			t.Errorf("nmeaAngle(%v, %d) = %s, want %s", tt.deg, tt.width, got, tt.want)
		}
	}
}

func TestGPSAcquiresFix(t *testing.T) {
	clock := &schedule.ManualClock{}
	g := NewGPS(clock, DefaultCenter)
	dec := gps.NewDecoder(quietLogger())

	clock.Set(3 * time.Second)
	if _, ok := dec.Feed(g.Drain(nil)); ok {
		t.Fatalf("fix reported while acquiring")
	}
	if out := g.Drain(nil); len(out) != 0 {
		t.Fatalf("second drain without time passing = %q", out)
	}

	clock.Set(10 * time.Second)
	out := g.Drain(nil)
	if n := bytes.Count(out, []byte("\r\n")); n != maxBacklog {
		t.Fatalf("sentences after gap = %d, want %d", n, maxBacklog)
	}
	fix, ok := dec.Feed(out)
	if !ok {
		sentences, errs := dec.Stats()
		t.Fatalf("no fix after acquisition (sentences %d, errors %d)", sentences, errs)
	}
	if fix.Satellites < 7 || fix.Satellites > 10 {
		t.Fatalf("satellites = %d", fix.Satellites)
	}
	if d := gps.Distance(fix.Point(), DefaultCenter); d < 150 || d > 250 {
		t.Fatalf("distance from center = %.1f m, want about 200", d)
	}
	if _, errs := dec.Stats(); errs != 0 {
		t.Fatalf("parse errors = %d", errs)
	}
}

func TestBatteryCycle(t *testing.T) {
	clock := &schedule.ManualClock{}
	b := NewBattery(clock, power.DefaultDivider)
	line := b.ChargeLine()

	v, charging := b.Voltage()
	if v != 4.15 || charging || !line.Read() {
		t.Fatalf("at boot: %.3f V charging=%v line=%v", v, charging, line.Read())
	}
	raw, err := b.ReadRaw()
	if err != nil || raw != 644 {
		t.Fatalf("raw = %d, %v; want 644", raw, err)
	}
	if got := power.DefaultDivider.Voltage(raw); got < 4.14 || got > 4.16 {
		t.Fatalf("round trip voltage = %.3f", got)
	}

	clock.Set(45 * time.Minute)
	v, charging = b.Voltage()
	if !charging || line.Read() {
		t.Fatalf("45 min: charging=%v line=%v", charging, line.Read())
	}
	if v < 3.79 || v > 3.81 {
		t.Fatalf("45 min voltage = %.3f, want 3.80", v)
	}
}

func TestClimateFailure(t *testing.T) {
	c := NewClimate(&schedule.ManualClock{})
	r, err := env.Poll(c)
	if err != nil || !r.Valid {
		t.Fatalf("poll = %+v, %v", r, err)
	}
	if r.Temperature < 19 || r.Temperature > 23 {
		t.Fatalf("temperature = %.2f", r.Temperature)
	}
	c.SetFailing(true)
	if _, err := env.Poll(c); !errors.Is(err, ErrInjected) {
		t.Fatalf("poll while failing = %v", err)
	}
}

func TestRadioLoopback(t *testing.T) {
	r := NewRadio(quietLogger())
	if err := r.Transmit("x"); !errors.Is(err, radio.ErrNotReady) {
		t.Fatalf("transmit before begin = %v", err)
	}
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := r.Transmit("PING from T-Echo"); err != nil {
		t.Fatalf("ping: %v", err)
	}
	pkt, ok, err := r.Receive()
	if err != nil || !ok || pkt.Payload != Pong {
		t.Fatalf("echo = %+v, %v, %v", pkt, ok, err)
	}

	r.Inject(radio.Packet{From: 4, Payload: "first"})
	r.Inject(radio.Packet{From: 5, Payload: "second"})
	pkt, ok, _ = r.Receive()
	if !ok || pkt.Payload != "second" {
		t.Fatalf("slot = %+v, want the latest frame", pkt)
	}
	if _, ok, _ := r.Receive(); ok {
		t.Fatalf("slot not cleared")
	}

	if err := r.Transmit(strings.Repeat("x", radio.MaxPayload+1)); radio.Code(err) != radio.ResultTxOverrun {
		t.Fatalf("oversized = %v", err)
	}
	if sent := r.Sent(); len(sent) != 1 {
		t.Fatalf("sent = %q", sent)
	}
}

func TestRadioFailBegin(t *testing.T) {
	r := NewRadio(quietLogger())
	r.FailBegin = true
	if err := r.Begin(); radio.Code(err) != radio.ResultUnknown {
		t.Fatalf("begin = %v", err)
	}
}

func pollGestures(b *input.Button, until time.Duration) []input.Gesture {
	var got []input.Gesture
	for now := time.Duration(0); now <= until; now += 100 * time.Millisecond {
		if g := b.Poll(now); g != input.None {
			got = append(got, g)
		}
	}
	return got
}

func TestButtonGestures(t *testing.T) {
	tests := []struct {
		name  string
		press func(*Button)
		want  input.Gesture
	}{
		{"click", (*Button).Click, input.Click},
		{"double click", (*Button).DoubleClick, input.DoubleClick},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pin := &Button{}
			tt.press(pin)
			got := pollGestures(input.NewButton(pin, input.DefaultTiming), time.Second)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("gestures = %v, want [%v]", got, tt.want)
			}
		})
	}
}

func TestReadKeys(t *testing.T) {
	b := &Button{}
	r := NewRadio(quietLogger())
	if err := r.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	ReadKeys(strings.NewReader("c\n\nd\nr hi there\nx\n"), b, r, quietLogger())

	if len(b.levels) != 6 {
		t.Fatalf("queued levels = %v", b.levels)
	}
	pkt, ok, _ := r.Receive()
	if !ok || pkt.Payload != "hi there" {
		t.Fatalf("injected = %+v, %v", pkt, ok)
	}
}

func TestBenchRunsNode(t *testing.T) {
	clock := &schedule.ManualClock{}
	log := quietLogger()
	bench := NewBench(clock, DefaultCenter, power.DefaultDivider, log)
	var screen bytes.Buffer

	node, err := app.NewNode(app.OptionsFromConfig(config.Default()), bench.Devices(&screen), clock, log, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	node.Setup()
	for clock.Elapsed() < 35*time.Second {
		node.Step()
	}

	st := node.State()
	if !st.Fix.Valid || !st.SensorEnabled || !st.RadioOK || !st.Env.Valid {
		t.Fatalf("state = %+v", st)
	}
	sent := bench.Radio.Sent()
	if len(sent) != 1 {
		t.Fatalf("beacons = %q, want one", sent)
	}
	for _, want := range []string{"STATUS:BAT=4.1", "GPS=52.5", "TEMP="} {
		if !strings.Contains(sent[0], want) {
			t.Fatalf("beacon %q lacks %q", sent[0], want)
		}
	}
	if !strings.Contains(screen.String(), "T-ECHO") {
		t.Fatalf("screen output:\n%s", screen.String())
	}
	if _, writes := bench.LED.State(); writes == 0 {
		t.Fatalf("led never driven")
	}
}
