// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/power"
)

func texts(f *Frame) []string {
	out := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		out[i] = l.Text
	}
	return out
}

func contains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func TestPageCycle(t *testing.T) {
	p := PageMain
	want := []Page{PageGPS, PageEnvironment, PageSystem, PageMain}
	for i, w := range want {
		p = p.Next()
		if p != w {
			t.Fatalf("step %d: page = %d, want %d", i, p, w)
		}
	}
}

func TestComposeMain(t *testing.T) {
	var f Frame
	Compose(&f, PageMain, View{
		Power:         power.State{BatteryVoltage: 4.05, Charging: true, Uptime: 42},
		RadioOK:       true,
		SensorEnabled: false,
	})
	want := []string{
		"T-Echo Mesh", "", "LoRa: OK", "GPS: SEARCH", "Sensor: N/A", "",
		"Battery: 4.05V CHG", "Uptime: 42s", "", "Click: Next Page", "Double: Send Ping",
	}
	got := texts(&f)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("main page =\n%q\nwant\n%q", got, want)
	}
	if f.Lines[0].Size != 2 {
		t.Fatalf("title size = %d, want 2", f.Lines[0].Size)
	}

	Compose(&f, PageMain, View{Fix: gps.Fix{Valid: true}, SensorEnabled: true})
	got = texts(&f)
	for _, w := range []string{"LoRa: FAIL", "GPS: LOCK", "Sensor: OK", "Battery: 0.00V "} {
		if !contains(got, w) {
			t.Fatalf("main page missing %q: %q", w, got)
		}
	}
}

func TestComposeGPS(t *testing.T) {
	var f Frame
	Compose(&f, PageGPS, View{})
	if got := texts(&f); !contains(got, "Searching for") || !contains(got, "better signal") {
		t.Fatalf("no-fix page = %q", got)
	}

	fix := gps.Fix{Latitude: 48.1173, Longitude: 11.516667, Altitude: 545.4, Satellites: 8, Valid: true}
	home := gps.Point{Lat: 48.1173, Lon: 11.516667}
	Compose(&f, PageGPS, View{Fix: fix, Home: &home})
	got := texts(&f)
	for _, w := range []string{"Lat: 48.117300", "Lng: 11.516667", "Alt: 545.4m", "Sats: 8", "Home: 0m"} {
		if !contains(got, w) {
			t.Fatalf("gps page missing %q: %q", w, got)
		}
	}
}

func TestComposeEnvironment(t *testing.T) {
	reading := env.Reading{Temperature: 21.34, Humidity: 45, Pressure: 1013.25, Valid: true}
	var f Frame

	Compose(&f, PageEnvironment, View{Env: reading, SensorEnabled: false})
	if got := texts(&f); !contains(got, "not available") {
		t.Fatalf("disabled sensor page = %q", got)
	}

	Compose(&f, PageEnvironment, View{Env: reading, SensorEnabled: true})
	got := texts(&f)
	for _, w := range []string{"Temp: 21.3 C", "Humidity: 45.0%", "Pressure: 1013.2 hPa"} {
		if !contains(got, w) {
			t.Fatalf("env page missing %q: %q", w, got)
		}
	}
}

func TestComposeSystem(t *testing.T) {
	var f Frame
	Compose(&f, PageSystem, View{Power: power.State{BatteryVoltage: 3.6, Uptime: 7}, DeviceID: "TE-01"})
	got := texts(&f)
	for _, w := range []string{"System", "Battery: 3.60V", "Level: 50%", "Charging: No", "Uptime: 7 s", "ID: TE-01"} {
		if !contains(got, w) {
			t.Fatalf("system page missing %q: %q", w, got)
		}
	}
}

type recordingSurface struct {
	frames []Frame
	err    error
}

func (s *recordingSurface) DrawFrame(f *Frame) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f.Clone())
	return nil
}

func TestRendererRefreshesCurrentPage(t *testing.T) {
	s := &recordingSurface{}
	r := NewRenderer(s, nil)

	if err := r.Refresh(View{}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if r.NextPage() != PageGPS {
		t.Fatalf("next page should be gps")
	}
	if len(s.frames) != 1 {
		t.Fatalf("page change must not redraw, got %d frames", len(s.frames))
	}
	if err := r.Refresh(View{}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := s.frames[1].Lines[0].Text; got != "GPS Data" {
		t.Fatalf("second frame title = %q", got)
	}
	if r.Frame().Lines[0].Text != "GPS Data" {
		t.Fatalf("Frame() should return the last composed frame")
	}

	s.err = errors.New("busy")
	if err := r.Refresh(View{}); err == nil || !errors.Is(err, s.err) {
		t.Fatalf("refresh error = %v, want wrapped busy", err)
	}
}

func TestRasterizeScalesTitle(t *testing.T) {
	var f Frame
	f.Title("AB")
	f.Text("x")
	img := Rasterize(&f, image.Rect(0, 0, 122, 250))

	inkIn := func(r image.Rectangle) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if img.GrayAt(x, y).Y < 128 {
					return true
				}
			}
		}
		return false
	}
	if !inkIn(image.Rect(17, 0, 31, 26)) {
		t.Fatalf("size-2 title should extend past the 1x glyph width")
	}
	if !inkIn(image.Rect(0, 26, 20, 39)) {
		t.Fatalf("second line should start below the doubled title")
	}
	if inkIn(image.Rect(0, 60, 122, 250)) {
		t.Fatalf("unexpected ink below the frame content")
	}
}

func TestTextSurface(t *testing.T) {
	var buf bytes.Buffer
	s := NewTextSurface(&buf, 12)
	var f Frame
	f.Title("Sensors")
	f.Text("a line that is too long")
	if err := s.DrawFrame(&f); err != nil {
		t.Fatalf("draw: %v", err)
	}
	want := "+------------+\n|SENSORS     |\n|a line that |\n+------------+\n"
	if buf.String() != want {
		t.Fatalf("text surface =\n%s\nwant\n%s", buf.String(), want)
	}
}
