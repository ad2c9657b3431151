// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Point is a position in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the great-circle distance in meters between a and b
// using the Haversine formula.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLon := (b.Lon - a.Lon) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180.0)*math.Cos(b.Lat*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadius * c
}

// FormatCoordinate renders a coordinate as degrees and decimal minutes with
// a hemisphere letter, e.g. 37°7.4074'N.
func FormatCoordinate(deg float64, latitude bool) string {
	dir := "E"
	if latitude {
		dir = "N"
	}
	if deg < 0 {
		if latitude {
			dir = "S"
		} else {
			dir = "W"
		}
		deg = -deg
	}
	whole := math.Floor(deg)
	minutes := (deg - whole) * 60.0
	return fmt.Sprintf("%d°%.4f'%s", int(whole), minutes, dir)
}

// FormatDistance renders meters as "850m", "1.2km" or "42km".
func FormatDistance(meters float64) string {
	switch {
	case meters < 1000:
		return fmt.Sprintf("%dm", int(meters))
	case meters < 10000:
		return fmt.Sprintf("%.1fkm", meters/1000.0)
	default:
		return fmt.Sprintf("%dkm", int(meters/1000.0))
	}
}
