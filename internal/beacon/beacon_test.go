// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package beacon

import (
	"reflect"
	"testing"
	"time"

	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/hal"
	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/radio"
)

func TestStatus(t *testing.T) {
	fix := gps.Fix{Latitude: 37.123456, Longitude: -122.654321, Altitude: 12.3, Satellites: 7, Valid: true}
	reading := env.Reading{Temperature: 21.3, Humidity: 45.0, Pressure: 1013.2, Valid: true}

	tests := []struct {
		name string
		in   Inputs
		want string
	}{
		{
			name: "battery only",
			in:   Inputs{Power: power.State{BatteryVoltage: 4.05}},
			want: "STATUS:BAT=4.05V,",
		},
		{
			name: "fix and sensor",
			in:   Inputs{Power: power.State{BatteryVoltage: 3.70}, Fix: fix, SensorEnabled: true, Env: reading},
			want: "STATUS:BAT=3.70V,GPS=37.123456,-122.654321,TEMP=21.3C,HUM=45.0%",
		},
		{
			name: "sensor disabled hides stale reading",
			in:   Inputs{Power: power.State{BatteryVoltage: 3.70}, SensorEnabled: false, Env: reading},
			want: "STATUS:BAT=3.70V,",
		},
		{
			name: "sensor enabled without valid reading",
			in:   Inputs{Power: power.State{BatteryVoltage: 3.70}, Fix: fix, SensorEnabled: true},
			want: "STATUS:BAT=3.70V,GPS=37.123456,-122.654321,",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.in); got != tt.want {
				t.Fatalf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipePackets(t *testing.T) {
	p := power.State{BatteryVoltage: 4.05, Charging: true, Uptime: 123}
	if got, want := StatusPacket(p, "TE-01"), "STATUS|BAT:4.05V|CHG:1|UP:123s|ID:TE-01"; got != want {
		t.Fatalf("StatusPacket = %q, want %q", got, want)
	}
	fix := gps.Fix{Latitude: 48.1173, Longitude: 11.516667, Altitude: 545.4, Valid: true}
	if got, want := LocationPacket(fix, "TE-01"), "GPS|LAT:48.117300|LNG:11.516667|ALT:545.4m|ID:TE-01"; got != want {
		t.Fatalf("LocationPacket = %q, want %q", got, want)
	}

	in := Inputs{Power: p, DeviceID: "TE-01"}
	if got := FormatPipe.Payloads(in); len(got) != 1 {
		t.Fatalf("no fix: %d frames, want 1", len(got))
	}
	in.Fix = fix
	if got := FormatPipe.Payloads(in); len(got) != 2 || got[1][:4] != "GPS|" {
		t.Fatalf("with fix: %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" Pipe "); err != nil || f != FormatPipe {
		t.Fatalf("ParseFormat(pipe) = %q, %v", f, err)
	}
	if _, err := ParseFormat("json"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

type recordingRadio struct {
	sent []string
	err  error
}

func (r *recordingRadio) Begin() error { return nil }

func (r *recordingRadio) Transmit(p string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, p)
	return nil
}

func (r *recordingRadio) Receive() (radio.Packet, bool, error) { return radio.Packet{}, false, nil }

type ledPin struct{ sets []bool }

func (p *ledPin) Set(high bool) error { p.sets = append(p.sets, high); return nil }

type sleepLog struct{ total time.Duration }

func (s *sleepLog) Sleep(d time.Duration) { s.total += d }

func TestTransmitterPingPulsesOnSuccess(t *testing.T) {
	r := &recordingRadio{}
	pin := &ledPin{}
	sl := &sleepLog{}
	tx := NewTransmitter(r, hal.NewIndicator(pin, sl), FormatStatus, nil)

	if err := tx.SendPing(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !reflect.DeepEqual(r.sent, []string{Ping}) {
		t.Fatalf("sent = %q", r.sent)
	}
	if !reflect.DeepEqual(pin.sets, []bool{true, false}) || sl.total != PingPulse {
		t.Fatalf("led = %v for %v, want one %v pulse", pin.sets, sl.total, PingPulse)
	}
}

func TestTransmitterFailureDoesNotRetryOrFlash(t *testing.T) {
	r := &recordingRadio{err: &radio.CodeError{Code: radio.ResultTxTimeout, Op: "send"}}
	pin := &ledPin{}
	tx := NewTransmitter(r, hal.NewIndicator(pin, &sleepLog{}), FormatStatus, nil)

	err := tx.SendPing()
	if radio.Code(err) != radio.ResultTxTimeout {
		t.Fatalf("ping error = %v", err)
	}
	if len(pin.sets) != 0 {
		t.Fatalf("indicator must stay off after a failed ping")
	}
	if sent := tx.SendStatus(Inputs{Power: power.State{BatteryVoltage: 4.0}}); len(sent) != 0 {
		t.Fatalf("sent = %q after failure", sent)
	}
	if len(r.sent) != 0 {
		t.Fatalf("radio recorded %q", r.sent)
	}
}

func TestTransmitterSendStatus(t *testing.T) {
	r := &recordingRadio{}
	tx := NewTransmitter(r, nil, FormatStatus, nil)
	sent := tx.SendStatus(Inputs{Power: power.State{BatteryVoltage: 4.05}})
	if !reflect.DeepEqual(sent, []string{"STATUS:BAT=4.05V,"}) || !reflect.DeepEqual(r.sent, sent) {
		t.Fatalf("sent = %q, radio = %q", sent, r.sent)
	}
}
