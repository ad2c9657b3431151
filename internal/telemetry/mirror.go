// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry mirrors beacons and received packets to an MQTT broker.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/techo_node/internal/radio"
	"github.com/relabs-tech/techo_node/internal/status"
)

// Publisher is the subset of mqtt.Client the mirror uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// publishTimeout bounds how long a pending publish is watched.
const publishTimeout = 10 * time.Second

// StatusMessage is published on the status topic after every beacon.
type StatusMessage struct {
	status.Snapshot
	Beacon []string `json:"beacon"`
}

// PacketMessage is published on the rx topic for every received packet.
type PacketMessage struct {
	Time     time.Time `json:"time"`
	DeviceID string    `json:"device_id"`
	radio.Packet
}

// Mirror publishes node events without blocking the caller. Publish
// results are checked on a separate goroutine and failures are logged.
type Mirror struct {
	client      Publisher
	statusTopic string
	rxTopic     string
	deviceID    string
	log         *slog.Logger
	now         func() time.Time

	pending chan pendingPublish
	wg      sync.WaitGroup
}

type pendingPublish struct {
	topic string
	token mqtt.Token
}

// NewMirror wraps an already connected client.
func NewMirror(client Publisher, statusTopic, rxTopic, deviceID string, log *slog.Logger) *Mirror {
	if log == nil {
		log = slog.Default()
	}
	m := &Mirror{
		client:      client,
		statusTopic: statusTopic,
		rxTopic:     rxTopic,
		deviceID:    deviceID,
		log:         log,
		now:         time.Now,
		pending:     make(chan pendingPublish, 32),
	}
	m.wg.Add(1)
	go m.watch()
	return m
}

// Connect dials broker and returns the connected client. The client
// reconnects on its own after a lost connection.
func Connect(broker, clientID string, log *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt: connection lost", "error", err)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	log.Info("mqtt: connected", "broker", broker)
	return client, nil
}

func (m *Mirror) watch() {
	defer m.wg.Done()
	for p := range m.pending {
		if !p.token.WaitTimeout(publishTimeout) {
			m.log.Warn("mqtt: publish timed out", "topic", p.topic)
			continue
		}
		if err := p.token.Error(); err != nil {
			m.log.Warn("mqtt: publish failed", "topic", p.topic, "error", err)
		}
	}
}

func (m *Mirror) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		m.log.Error("mqtt: marshal failed", "topic", topic, "error", err)
		return
	}
	token := m.client.Publish(topic, 0, true, payload)
	select {
	case m.pending <- pendingPublish{topic: topic, token: token}:
	default:
		m.log.Debug("mqtt: too many pending publishes, result not checked", "topic", topic)
	}
}

// Snapshot is not mirrored; the status topic carries beacon-time state.
func (m *Mirror) Snapshot(status.Snapshot) {}

func (m *Mirror) Beacon(s status.Snapshot, frames []string) {
	m.publish(m.statusTopic, StatusMessage{Snapshot: s, Beacon: frames})
}

func (m *Mirror) Received(p radio.Packet) {
	m.publish(m.rxTopic, PacketMessage{Time: m.now(), DeviceID: m.deviceID, Packet: p})
}

// Close stops watching publish results. It does not disconnect the client.
func (m *Mirror) Close() {
	close(m.pending)
	m.wg.Wait()
}
