// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"
	"testing"
)

func TestDistanceOneDegreeOfLongitudeAtEquator(t *testing.T) {
	got := Distance(Point{0, 0}, Point{0, 1})
	want := 111320.0
	if math.Abs(got-want)/want > 0.01 {
		t.Fatalf("distance = %.1f m, want %.0f ±1%%", got, want)
	}
}

func TestDistanceSymmetricAndZero(t *testing.T) {
	a := Point{37.123456, -122.654321}
	b := Point{37.2, -122.5}
	if Distance(a, a) != 0 {
		t.Fatalf("distance to self = %f", Distance(a, a))
	}
	if math.Abs(Distance(a, b)-Distance(b, a)) > 1e-6 {
		t.Fatalf("distance not symmetric")
	}
}

func TestFormatCoordinate(t *testing.T) {
	tests := []struct {
		deg      float64
		latitude bool
		want     string
	}{
		{37.5, true, "37°30.0000'N"},
		{-37.5, true, "37°30.0000'S"},
		{-122.25, false, "122°15.0000'W"},
		{0, false, "0°0.0000'E"},
	}
	for _, tt := range tests {
		if got := FormatCoordinate(tt.deg, tt.latitude); got != tt.want {
			t.Errorf("FormatCoordinate(%v, %v) = %q, want %q", tt.deg, tt.latitude, got, tt.want)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0m"},
		{999.9, "999m"},
		{1000, "1.0km"},
		{1234, "1.2km"},
		{9999, "10.0km"},
		{10000, "10km"},
		{123456, "123km"},
	}
	for _, tt := range tests {
		if got := FormatDistance(tt.meters); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}
