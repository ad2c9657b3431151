// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim provides simulated peripherals so the node can run on a
// workstation without the board attached.
package sim

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/schedule"
)

const metersPerDegree = 111320.0

// GPS emits one GGA sentence per simulated second for a receiver walking a
// circle around Center. No fix is reported during the first Acquire.
type GPS struct {
	Center   gps.Point
	Radius   float64 // meters
	Altitude float64 // meters
	Period   time.Duration
	Acquire  time.Duration

	clock schedule.Clock
	start time.Time

	mu      sync.Mutex
	emitted time.Duration
}

// NewGPS returns a receiver walking a 200 m circle every ten minutes.
func NewGPS(clock schedule.Clock, center gps.Point) *GPS {
	return &GPS{
		Center:   center,
		Radius:   200,
		Altitude: 120,
		Period:   10 * time.Minute,
		Acquire:  5 * time.Second,
		clock:    clock,
		start:    time.Now().UTC(),
		emitted:  -time.Second,
	}
}

// maxBacklog bounds the sentences produced by one Drain after a long gap.
const maxBacklog = 5

// Drain appends the sentences produced since the previous call.
func (g *GPS) Drain(dst []byte) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Elapsed().Truncate(time.Second)
	if now-g.emitted > maxBacklog*time.Second {
		g.emitted = now - maxBacklog*time.Second
	}
	for t := g.emitted + time.Second; t <= now; t += time.Second {
		dst = append(dst, g.sentence(t)...)
		g.emitted = t
	}
	return dst
}

// Position returns the simulated location at elapsed time t.
func (g *GPS) Position(t time.Duration) gps.Point {
	period := g.Period
	if period <= 0 {
		period = 10 * time.Minute
	}
	w := 2 * math.Pi * float64(t%period) / float64(period)
	dLat := g.Radius * math.Sin(w) / metersPerDegree
	dLon := g.Radius * math.Cos(w) / (metersPerDegree * math.Cos(g.Center.Lat*math.Pi/180))
	return gps.Point{Lat: g.Center.Lat + dLat, Lon: g.Center.Lon + dLon}
}

func (g *GPS) sentence(t time.Duration) string {
	p := g.Position(t)
	quality, sats := 1, 7+int(t/time.Second)%4
	if t < g.Acquire {
		quality, sats = 0, int(t/time.Second)%3
	}
	stamp := g.start.Add(t)
	alt := g.Altitude + 3*math.Sin(float64(t)/float64(time.Minute))

	lat, ns := nmeaAngle(p.Lat, 2), "N"
	if p.Lat < 0 {
		ns = "S"
	}
	lon, ew := nmeaAngle(p.Lon, 3), "E"
	if p.Lon < 0 {
		ew = "W"
	}
	body := fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,%d,%02d,0.9,%.1f,M,46.9,M,,",
		stamp.Format("150405.00"), lat, ns, lon, ew, quality, sats, alt)
	return "$" + body + "*" + Checksum(body) + "\r\n"
}

// nmeaAngle formats |deg| as [d]ddmm.mmmm.
func nmeaAngle(deg float64, width int) string {
	deg = math.Abs(deg)
	whole := math.Floor(deg)
	minutes := (deg - whole) * 60
	if minutes >= 59.99995 {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%0*d%07.4f", width, int(whole), minutes)
}

// Checksum returns the NMEA checksum of the text between '$' and '*'.
func Checksum(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return strings.ToUpper(fmt.Sprintf("%02x", cs))
}
