// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"log/slog"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Stream is the receive side of the GPS UART. Drain appends whatever bytes
// have arrived to dst without blocking.
type Stream interface {
	Drain(dst []byte) []byte
}

// maxSentence is the NMEA 0183 sentence limit (82) with room for
// non-standard talkers. Longer partial lines are noise and are dropped.
const maxSentence = 120

// Decoder assembles NMEA sentences from a byte stream and keeps the
// location state built from GGA and RMC sentences.
type Decoder struct {
	log *slog.Logger

	line []byte

	lat, lon    float64
	alt         float64
	sats        int
	haveFix     bool
	sentences   int
	parseErrors int
}

func NewDecoder(log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{log: log, line: make([]byte, 0, maxSentence)}
}

// Poll drains the stream and feeds every byte to the decoder. The returned
// fix is meaningful only when ok is true.
func (d *Decoder) Poll(s Stream, scratch []byte) (fix Fix, ok bool) {
	return d.Feed(s.Drain(scratch[:0]))
}

// Feed consumes p. It reports ok when at least one complete, well-formed
// sentence was decoded while a location is known; fix then reflects the
// latest state.
func (d *Decoder) Feed(p []byte) (fix Fix, ok bool) {
	decoded := false
	for _, b := range p {
		switch b {
		case '\n':
			if d.decodeLine(string(d.line)) {
				decoded = true
			}
			d.line = d.line[:0]
		case '\r':
		case '$':
			// A start marker always begins a new sentence, even mid-line.
			d.line = append(d.line[:0], b)
		default:
			if len(d.line) >= maxSentence {
				d.line = d.line[:0]
				continue
			}
			d.line = append(d.line, b)
		}
	}
	if !decoded || !d.haveFix {
		return Fix{}, false
	}
	return Fix{
		Latitude:   d.lat,
		Longitude:  d.lon,
		Altitude:   d.alt,
		Satellites: d.sats,
		Valid:      true,
	}, true
}

// decodeLine parses one sentence and reports whether it was well formed.
func (d *Decoder) decodeLine(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return false
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		d.parseErrors++
		d.log.Debug("nmea parse error", "error", err, "line", line)
		return false
	}
	d.sentences++

	switch m := sentence.(type) {
	case nmea.GGA:
		d.sats = int(m.NumSatellites)
		if m.FixQuality != nmea.Invalid && m.FixQuality != "" {
			d.lat = m.Latitude
			d.lon = m.Longitude
			d.alt = m.Altitude
			d.haveFix = true
		}
	case nmea.RMC:
		if m.Validity == nmea.ValidRMC {
			d.lat = m.Latitude
			d.lon = m.Longitude
			d.haveFix = true
		}
	default:
		// other sentence types (GSA, GSV, VTG, ...) only count as decoded
	}
	return true
}

// Stats returns the number of decoded sentences and rejected lines.
func (d *Decoder) Stats() (sentences, parseErrors int) {
	return d.sentences, d.parseErrors
}
