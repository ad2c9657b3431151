// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Fix is the latest decoded position. It is replaced as a whole whenever a
// valid sentence arrives and is never marked invalid again after the first
// fix, so a lost fix leaves the last position in place.
type Fix struct {
	Latitude   float64 `json:"lat"`   // decimal degrees
	Longitude  float64 `json:"lon"`   // decimal degrees
	Altitude   float64 `json:"alt_m"` // meters above mean sea level
	Satellites int     `json:"sats"`
	Valid      bool    `json:"valid"`
}

// Point returns the fix position.
func (f Fix) Point() Point {
	return Point{Lat: f.Latitude, Lon: f.Longitude}
}
