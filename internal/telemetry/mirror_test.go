// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/techo_node/internal/power"
	"github.com/relabs-tech/techo_node/internal/radio"
	"github.com/relabs-tech/techo_node/internal/status"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeBroker struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (b *fakeBroker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: b.err}
}

func TestMirrorBeacon(t *testing.T) {
	b := &fakeBroker{}
	m := NewMirror(b, "techo/status", "techo/rx", "TE-1", nil)
	defer m.Close()

	snap := status.Snapshot{DeviceID: "TE-1", Power: power.State{BatteryVoltage: 4.05}, BatteryPct: 87}
	m.Beacon(snap, []string{"STATUS:BAT=4.05V,"})
	m.Snapshot(snap)

	if len(b.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(b.msgs))
	}
	msg := b.msgs[0]
	if msg.topic != "techo/status" || !msg.retained {
		t.Fatalf("topic = %q retained = %v", msg.topic, msg.retained)
	}
	var got map[string]any
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got["device_id"] != "TE-1" || got["battery_pct"] != float64(87) {
		t.Fatalf("payload = %s", msg.payload)
	}
	beacon, _ := got["beacon"].([]any)
	if len(beacon) != 1 || beacon[0] != "STATUS:BAT=4.05V," {
		t.Fatalf("beacon field = %v", got["beacon"])
	}
}

func TestMirrorReceived(t *testing.T) {
	b := &fakeBroker{err: errors.New("not connected")}
	m := NewMirror(b, "techo/status", "techo/rx", "TE-1", nil)
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	m.Received(radio.Packet{From: 9, Payload: "hi", RSSI: -90, SNR: 6.5})
	m.Close()

	if len(b.msgs) != 1 || b.msgs[0].topic != "techo/rx" {
		t.Fatalf("messages = %+v", b.msgs)
	}
	var got PacketMessage
	if err := json.Unmarshal(b.msgs[0].payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Payload != "hi" || got.From != 9 || got.DeviceID != "TE-1" || got.SNR != 6.5 {
		t.Fatalf("packet message = %+v", got)
	}
}
