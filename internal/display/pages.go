// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"github.com/relabs-tech/techo_node/internal/env"
	"github.com/relabs-tech/techo_node/internal/gps"
	"github.com/relabs-tech/techo_node/internal/power"
)

// Page selects what the display shows.
type Page int

const (
	PageMain Page = iota
	PageGPS
	PageEnvironment
	PageSystem

	pageCount
)

// Next returns the following page, wrapping after the last one.
func (p Page) Next() Page { return (p + 1) % pageCount }

func (p Page) String() string {
	switch p {
	case PageMain:
		return "main"
	case PageGPS:
		return "gps"
	case PageEnvironment:
		return "environment"
	case PageSystem:
		return "system"
	default:
		return "unknown"
	}
}

// View is everything a page may show. Formatters only read it.
type View struct {
	Fix           gps.Fix
	Env           env.Reading
	Power         power.State
	RadioOK       bool
	SensorEnabled bool
	DeviceID      string
	Home          *gps.Point // optional waypoint
}

// Compose writes page p for v into f, replacing its content.
func Compose(f *Frame, p Page, v View) {
	f.Reset()
	switch p {
	case PageGPS:
		composeGPS(f, v)
	case PageEnvironment:
		composeEnvironment(f, v)
	case PageSystem:
		composeSystem(f, v)
	default:
		composeMain(f, v)
	}
}

func okFail(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

func composeMain(f *Frame, v View) {
	f.Title("T-Echo Mesh")
	f.Blank()
	f.Printf("LoRa: %s", okFail(v.RadioOK))
	gpsStatus := "SEARCH"
	if v.Fix.Valid {
		gpsStatus = "LOCK"
	}
	f.Printf("GPS: %s", gpsStatus)
	sensorStatus := "N/A"
	if v.SensorEnabled {
		sensorStatus = "OK"
	}
	f.Printf("Sensor: %s", sensorStatus)
	f.Blank()
	chg := ""
	if v.Power.Charging {
		chg = "CHG"
	}
	f.Printf("Battery: %.2fV %s", v.Power.BatteryVoltage, chg)
	f.Printf("Uptime: %ds", v.Power.Uptime)
	f.Blank()
	f.Text("Click: Next Page")
	f.Text("Double: Send Ping")
}

func composeGPS(f *Frame, v View) {
	f.Title("GPS Data")
	f.Blank()
	if !v.Fix.Valid {
		f.Text("Searching for")
		f.Text("satellites...")
		f.Blank()
		f.Text("Go outside for")
		f.Text("better signal")
		return
	}
	f.Printf("Lat: %.6f", v.Fix.Latitude)
	f.Printf("Lng: %.6f", v.Fix.Longitude)
	f.Printf("Alt: %.1fm", v.Fix.Altitude)
	f.Printf("Sats: %d", v.Fix.Satellites)
	if v.Home != nil {
		f.Blank()
		f.Printf("Home: %s", gps.FormatDistance(gps.Distance(v.Fix.Point(), *v.Home)))
	}
}

func composeEnvironment(f *Frame, v View) {
	f.Title("Sensors")
	f.Blank()
	if !v.SensorEnabled || !v.Env.Valid {
		f.Text("BME280 sensor")
		f.Text("not available")
		return
	}
	f.Printf("Temp: %.1f C", v.Env.Temperature)
	f.Printf("Humidity: %.1f%%", v.Env.Humidity)
	f.Printf("Pressure: %.1f hPa", v.Env.Pressure)
}

func composeSystem(f *Frame, v View) {
	f.Title("System")
	f.Blank()
	f.Printf("Battery: %.2fV", v.Power.BatteryVoltage)
	f.Printf("Level: %d%%", v.Power.Percent())
	charging := "No"
	if v.Power.Charging {
		charging = "Yes"
	}
	f.Printf("Charging: %s", charging)
	f.Printf("Uptime: %d s", v.Power.Uptime)
	if v.DeviceID != "" {
		f.Printf("ID: %s", v.DeviceID)
	}
}
