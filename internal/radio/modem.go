// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package radio

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Params configures the modem during Begin.
type Params struct {
	Band            uint32 // Hz
	SpreadingFactor uint8  // 7-12
	Bandwidth       uint8  // AT+PARAMETER index, see Bandwidth125KHz
	CodingRate      uint8  // denominator of 4/x, 5-8
	Preamble        uint8  // 4-7
	OutputPower     uint8  // dBm, 0-15 on RYLR896 class modems
	Address         uint16
	NetworkID       uint8
	Destination     uint16 // 0 broadcasts
}

// DefaultParams is 915 MHz, SF7, 125 kHz, CR 4/5, broadcast.
var DefaultParams = Params{
	Band:            BandUSA,
	SpreadingFactor: 7,
	Bandwidth:       Bandwidth125KHz,
	CodingRate:      5,
	Preamble:        4,
	OutputPower:     15,
	Address:         1,
	NetworkID:       5,
	Destination:     0,
}

func (p Params) validate() error {
	if p.SpreadingFactor < 7 || p.SpreadingFactor > 12 {
		return fmt.Errorf("spreading factor must be 7-12, got %d", p.SpreadingFactor)
	}
	if p.Bandwidth > Bandwidth500KHz {
		return fmt.Errorf("bandwidth index must be 0-9, got %d", p.Bandwidth)
	}
	if p.CodingRate < 5 || p.CodingRate > 8 {
		return fmt.Errorf("coding rate must be 5-8 (4/5..4/8), got %d", p.CodingRate)
	}
	if p.Preamble < 4 || p.Preamble > 7 {
		return fmt.Errorf("preamble must be 4-7, got %d", p.Preamble)
	}
	if p.NetworkID > 16 {
		return fmt.Errorf("network id must be 0-16, got %d", p.NetworkID)
	}
	return nil
}

// Modem drives a LoRa modem that speaks the RYLR896 AT command set over a
// UART. Commands are synchronous; received frames are parsed from
// unsolicited +RCV lines into a single slot, so an unread frame is replaced
// by a newer one.
type Modem struct {
	port    io.ReadWriteCloser
	lines   chan string
	params  Params
	timeout time.Duration
	log     *slog.Logger

	ready bool
	slot  *Packet
	stale int // replies still owed to commands that timed out
}

// NewModem wraps port and starts the line reader. Begin must succeed before
// frames can be sent.
func NewModem(port io.ReadWriteCloser, params Params, timeout time.Duration, log *slog.Logger) *Modem {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Modem{
		port:    port,
		lines:   make(chan string, 32),
		params:  params,
		timeout: timeout,
		log:     log,
	}
	go m.readLines()
	return m
}

func (m *Modem) readLines() {
	defer close(m.lines)
	reader := bufio.NewReader(m.port)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			m.lines <- line
		}
		if err != nil {
			return
		}
	}
}

// Begin checks the modem answers and applies the radio parameters.
func (m *Modem) Begin() error {
	if err := m.params.validate(); err != nil {
		return fmt.Errorf("radio params: %w", err)
	}
	p := m.params
	cmds := []struct {
		op  string
		cmd string
	}{
		{"probe", "AT"},
		{"set address", fmt.Sprintf("AT+ADDRESS=%d", p.Address)},
		{"set network id", fmt.Sprintf("AT+NETWORKID=%d", p.NetworkID)},
		{"set band", fmt.Sprintf("AT+BAND=%d", p.Band)},
		{"set parameter", fmt.Sprintf("AT+PARAMETER=%d,%d,%d,%d", p.SpreadingFactor, p.Bandwidth, p.CodingRate-4, p.Preamble)},
		{"set output power", fmt.Sprintf("AT+CRFOP=%d", p.OutputPower)},
	}
	for _, c := range cmds {
		if _, err := m.command(c.op, c.cmd); err != nil {
			return err
		}
	}
	m.ready = true
	return nil
}

// Transmit sends payload to the configured destination and waits for the
// modem to confirm.
func (m *Modem) Transmit(payload string) error {
	if !m.ready {
		return ErrNotReady
	}
	if len(payload) > MaxPayload {
		return &CodeError{Op: "send", Code: ResultTxOverrun}
	}
	cmd := fmt.Sprintf("AT+SEND=%d,%d,%s", m.params.Destination, len(payload), payload)
	_, err := m.command("send", cmd)
	return err
}

// Receive returns the most recent unread frame, if any.
func (m *Modem) Receive() (Packet, bool, error) {
	if !m.ready {
		return Packet{}, false, ErrNotReady
	}
	for {
		select {
		case line, ok := <-m.lines:
			if !ok {
				return m.takeSlot()
			}
			m.absorb(line)
			continue
		default:
		}
		return m.takeSlot()
	}
}

func (m *Modem) takeSlot() (Packet, bool, error) {
	if m.slot == nil {
		return Packet{}, false, nil
	}
	pkt := *m.slot
	m.slot = nil
	return pkt, true, nil
}

// isReply reports whether line answers a command rather than being
// unsolicited.
func isReply(line string) bool {
	return !strings.HasPrefix(line, "+RCV=") && line != "+READY"
}

// absorb handles a line read outside a command: a late reply to a timed-out
// command is dropped, anything else is classified.
func (m *Modem) absorb(line string) {
	if isReply(line) && m.stale > 0 {
		m.stale--
		m.log.Debug("radio: late reply dropped", "line", line)
		return
	}
	m.classify(line)
}

// classify handles an unsolicited line.
func (m *Modem) classify(line string) {
	if payload, found := strings.CutPrefix(line, "+RCV="); found {
		pkt, err := parseReceived(payload)
		if err != nil {
			m.log.Debug("radio: bad +RCV line", "line", line, "error", err)
			return
		}
		if m.slot != nil {
			m.log.Debug("radio: unread frame replaced", "from", m.slot.From)
		}
		m.slot = &pkt
		return
	}
	m.log.Debug("radio: unsolicited line", "line", line)
}

// command writes cmd and waits for its +OK, +ERR=<code> or data reply.
func (m *Modem) command(op, cmd string) (string, error) {
	m.log.Debug("radio: tx", "cmd", cmd)
	for drained := false; !drained; {
		select {
		case line, ok := <-m.lines:
			if !ok {
				return "", fmt.Errorf("radio: %s: port closed", op)
			}
			m.absorb(line)
		default:
			drained = true
		}
	}
	if _, err := io.WriteString(m.port, cmd+"\r\n"); err != nil {
		return "", fmt.Errorf("radio: %s: write: %w", op, err)
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-m.lines:
			if !ok {
				return "", fmt.Errorf("radio: %s: port closed", op)
			}
			m.log.Debug("radio: rx", "line", line)
			if !isReply(line) {
				m.classify(line)
				continue
			}
			if m.stale > 0 {
				m.stale--
				m.log.Debug("radio: late reply dropped", "line", line)
				continue
			}
			if codeStr, found := strings.CutPrefix(line, "+ERR="); found {
				code, err := strconv.Atoi(strings.TrimSpace(codeStr))
				if err != nil {
					code = ResultUnknown
				}
				return line, &CodeError{Op: op, Code: code}
			}
			return line, nil
		case <-timer.C:
			m.stale++
			return "", fmt.Errorf("radio: %s: %w", op, ErrTimeout)
		}
	}
}

// parseReceived parses "<addr>,<len>,<data>,<rssi>,<snr>". The data field
// may itself contain commas, so it is cut by length.
func parseReceived(s string) (Packet, error) {
	addrStr, rest, ok := strings.Cut(s, ",")
	if !ok {
		return Packet{}, fmt.Errorf("missing address")
	}
	addr, err := strconv.ParseUint(addrStr, 10, 16)
	if err != nil {
		return Packet{}, fmt.Errorf("address %q: %w", addrStr, err)
	}
	lenStr, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return Packet{}, fmt.Errorf("missing length")
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 || n > len(rest) {
		return Packet{}, fmt.Errorf("length %q invalid", lenStr)
	}
	data := rest[:n]
	tail, ok := strings.CutPrefix(rest[n:], ",")
	if !ok {
		return Packet{}, fmt.Errorf("missing signal fields")
	}
	rssiStr, snrStr, ok := strings.Cut(tail, ",")
	if !ok {
		return Packet{}, fmt.Errorf("missing snr")
	}
	rssi, err := strconv.ParseFloat(strings.TrimSpace(rssiStr), 64)
	if err != nil {
		return Packet{}, fmt.Errorf("rssi %q: %w", rssiStr, err)
	}
	snr, err := strconv.ParseFloat(strings.TrimSpace(snrStr), 64)
	if err != nil {
		return Packet{}, fmt.Errorf("snr %q: %w", snrStr, err)
	}
	return Packet{From: uint16(addr), Payload: data, RSSI: rssi, SNR: snr}, nil
}

func (m *Modem) Close() error {
	return m.port.Close()
}
