// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/techo_node/internal/beacon"
	"github.com/relabs-tech/techo_node/internal/radio"
)

// Config holds all application configuration values.
type Config struct {
	// Identity
	DeviceID string
	Simulate bool

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	// Timing
	BootDelay       time.Duration
	LoopDelay       time.Duration
	GPSInterval     time.Duration
	SensorInterval  time.Duration
	DisplayInterval time.Duration
	BeaconInterval  time.Duration

	// GPIO
	ButtonPin string
	LEDPin    string
	ChargePin string

	// Button gestures
	ButtonDebounce    time.Duration
	ButtonDoubleClick time.Duration
	ButtonLongClick   time.Duration

	// I2C devices
	I2CBus     string
	BME280Addr uint16
	ADCAddr    uint16
	ADCChannel int

	// Battery voltage divider: V = raw * reference * ratio / full scale
	ADCReference float64
	ADCRatio     float64
	ADCFullScale float64

	// Display
	DisplayEnabled bool
	DisplaySPIPort string

	// GPS
	GPSEnabled    bool
	GPSSerialPort string
	GPSBaudRate   int

	// LoRa modem
	RadioSerialPort     string
	RadioBaudRate       int
	RadioTimeout        time.Duration
	LoRaFrequencyMHz    float64
	LoRaBandwidthKHz    float64
	LoRaSpreadingFactor int
	LoRaCodingRate      int // denominator of 4/x
	LoRaPreamble        int
	LoRaTxPower         int // dBm
	LoRaAddress         int
	LoRaNetworkID       int
	LoRaDestination     int

	// Beacon
	BeaconFormat beacon.Format

	// Home waypoint, shown as a distance on the GPS page
	HomeLat float64
	HomeLon float64
	HasHome bool // both HOME_LAT and HOME_LON given

	homeLatSet, homeLonSet bool

	// MQTT mirror (disabled when MQTTBroker is empty)
	MQTTBroker   string
	MQTTClientID string
	TopicStatus  string
	TopicRX      string

	// Live monitor (disabled when MonitorAddr is empty)
	MonitorAddr string
}

// Default returns the values of a stock T-Echo node.
func Default() *Config {
	return &Config{
		DeviceID:  "T-Echo",
		LogLevel:  "info",
		LogFormat: "text",

		BootDelay:       2 * time.Second,
		LoopDelay:       100 * time.Millisecond,
		GPSInterval:     1 * time.Second,
		SensorInterval:  5 * time.Second,
		DisplayInterval: 10 * time.Second,
		BeaconInterval:  30 * time.Second,

		ButtonPin: "GPIO17",
		LEDPin:    "GPIO27",
		ChargePin: "GPIO22",

		ButtonDebounce:    50 * time.Millisecond,
		ButtonDoubleClick: 300 * time.Millisecond,
		ButtonLongClick:   200 * time.Millisecond,

		BME280Addr: 0x76,
		ADCAddr:    0x48,
		ADCChannel: 0,

		ADCReference: 3.3,
		ADCRatio:     2.0,
		ADCFullScale: 1024,

		DisplayEnabled: true,

		GPSEnabled:    true,
		GPSSerialPort: "/dev/ttyAMA0",
		GPSBaudRate:   9600,

		RadioSerialPort:     "/dev/ttyUSB0",
		RadioBaudRate:       115200,
		RadioTimeout:        5 * time.Second,
		LoRaFrequencyMHz:    915.0,
		LoRaBandwidthKHz:    125,
		LoRaSpreadingFactor: 7,
		LoRaCodingRate:      5,
		LoRaPreamble:        4,
		LoRaTxPower:         15,
		LoRaAddress:         1,
		LoRaNetworkID:       5,
		LoRaDestination:     0,

		BeaconFormat: beacon.FormatStatus,

		MQTTClientID: "techo-node",
		TopicStatus:  "techo/status",
		TopicRX:      "techo/rx",
	}
}

// Package-level singleton, set once by InitGlobal and read with Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct. Files
// ending in .yaml or .yml are read as YAML with snake_case keys; anything
// else is KEY=VALUE text. Keys not present keep their Default value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return ParseYAML(file)
	default:
		return Parse(file)
	}
}

// Parse reads KEY=VALUE lines. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML reads a flat YAML mapping whose keys are the KEY=VALUE names in
// snake_case, e.g. "gps_baud_rate: 9600".
func ParseYAML(r io.Reader) (*Config, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return Default(), nil
		}
		return nil, fmt.Errorf("error reading yaml config: %w", err)
	}

	cfg := Default()
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml config line %d: top level must be a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("yaml config line %d: %q must be a scalar", v.Line, k.Value)
		}
		key := strings.ToUpper(k.Value)
		if err := cfg.setValue(key, v.Value); err != nil {
			return nil, fmt.Errorf("yaml config line %d: %w", k.Line, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func parseInt(key, value string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %d: must be %d-%d", key, n, lo, hi)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

// parseMillis reads a non-negative duration in milliseconds.
func parseMillis(key, value string) (time.Duration, error) {
	ms, err := parseInt(key, value, 0, math.MaxInt32)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("invalid %s %#x: not a 7-bit address", key, addr)
	}
	return uint16(addr), nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Identity
	case "DEVICE_ID":
		c.DeviceID = value
	case "SIMULATE":
		c.Simulate, err = parseBool(key, value)

	// Logging
	case "LOG_LEVEL":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid LOG_LEVEL %q (want debug, info, warn or error)", value)
		}
	case "LOG_FORMAT":
		switch strings.ToLower(value) {
		case "text", "json":
			c.LogFormat = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid LOG_FORMAT %q (want text or json)", value)
		}

	// Timing, all in milliseconds
	case "BOOT_DELAY":
		c.BootDelay, err = parseMillis(key, value)
	case "LOOP_DELAY":
		c.LoopDelay, err = parseMillis(key, value)
	case "GPS_INTERVAL":
		c.GPSInterval, err = parseMillis(key, value)
	case "SENSOR_INTERVAL":
		c.SensorInterval, err = parseMillis(key, value)
	case "DISPLAY_INTERVAL":
		c.DisplayInterval, err = parseMillis(key, value)
	case "BEACON_INTERVAL":
		c.BeaconInterval, err = parseMillis(key, value)

	// GPIO
	case "BUTTON_PIN":
		c.ButtonPin = value
	case "LED_PIN":
		c.LEDPin = value
	case "CHARGE_PIN":
		c.ChargePin = value

	// Button
	case "BUTTON_DEBOUNCE":
		c.ButtonDebounce, err = parseMillis(key, value)
	case "BUTTON_DOUBLE_CLICK":
		c.ButtonDoubleClick, err = parseMillis(key, value)
	case "BUTTON_LONG_CLICK":
		c.ButtonLongClick, err = parseMillis(key, value)

	// I2C
	case "I2C_BUS":
		c.I2CBus = value
	case "BME280_I2C_ADDR":
		c.BME280Addr, err = parseAddr(key, value)
	case "ADC_I2C_ADDR":
		c.ADCAddr, err = parseAddr(key, value)
	case "ADC_CHANNEL":
		c.ADCChannel, err = parseInt(key, value, 0, 3)
	case "ADC_REFERENCE_VOLTAGE":
		c.ADCReference, err = parseFloat(key, value)
	case "ADC_DIVIDER_RATIO":
		c.ADCRatio, err = parseFloat(key, value)
	case "ADC_FULL_SCALE":
		c.ADCFullScale, err = parseFloat(key, value)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_SPI_PORT":
		c.DisplaySPIPort = value

	// GPS
	case "GPS_ENABLED":
		c.GPSEnabled, err = parseBool(key, value)
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value, 1200, 921600)

	// LoRa
	case "RADIO_SERIAL_PORT":
		c.RadioSerialPort = value
	case "RADIO_BAUD_RATE":
		c.RadioBaudRate, err = parseInt(key, value, 1200, 921600)
	case "RADIO_TIMEOUT":
		c.RadioTimeout, err = parseMillis(key, value)
	case "LORA_FREQUENCY":
		c.LoRaFrequencyMHz, err = parseFloat(key, value)
	case "LORA_BANDWIDTH":
		var bw float64
		if bw, err = parseFloat(key, value); err == nil {
			if _, ok := radio.BandwidthFromKHz(bw); !ok {
				return fmt.Errorf("invalid LORA_BANDWIDTH %q: not a supported bandwidth in kHz", value)
			}
			c.LoRaBandwidthKHz = bw
		}
	case "LORA_SPREADING_FACTOR":
		c.LoRaSpreadingFactor, err = parseInt(key, value, 7, 12)
	case "LORA_CODING_RATE":
		c.LoRaCodingRate, err = parseInt(key, value, 5, 8)
	case "LORA_PREAMBLE":
		c.LoRaPreamble, err = parseInt(key, value, 4, 7)
	case "LORA_TX_POWER":
		c.LoRaTxPower, err = parseInt(key, value, 0, 15)
	case "LORA_ADDRESS":
		c.LoRaAddress, err = parseInt(key, value, 0, 65535)
	case "LORA_NETWORK_ID":
		c.LoRaNetworkID, err = parseInt(key, value, 0, 16)
	case "LORA_DESTINATION":
		c.LoRaDestination, err = parseInt(key, value, 0, 65535)

	// Beacon
	case "BEACON_FORMAT":
		c.BeaconFormat, err = beacon.ParseFormat(value)

	// Home waypoint
	case "HOME_LAT":
		c.HomeLat, err = parseFloat(key, value)
		c.homeLatSet = err == nil
	case "HOME_LON":
		c.HomeLon, err = parseFloat(key, value)
		c.homeLonSet = err == nil

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_RX":
		c.TopicRX = value

	// Monitor
	case "MONITOR_ADDR":
		c.MonitorAddr = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	for _, p := range []struct {
		key string
		d   time.Duration
	}{
		{"GPS_INTERVAL", c.GPSInterval},
		{"SENSOR_INTERVAL", c.SensorInterval},
		{"DISPLAY_INTERVAL", c.DisplayInterval},
		{"BEACON_INTERVAL", c.BeaconInterval},
		{"RADIO_TIMEOUT", c.RadioTimeout},
	} {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive", p.key)
		}
	}
	if c.ADCFullScale <= 0 {
		return fmt.Errorf("ADC_FULL_SCALE must be positive")
	}
	if c.ADCReference <= 0 || c.ADCRatio <= 0 {
		return fmt.Errorf("ADC_REFERENCE_VOLTAGE and ADC_DIVIDER_RATIO must be positive")
	}
	if c.GPSEnabled && !c.Simulate && c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required when GPS_ENABLED is true")
	}
	if c.LoRaFrequencyMHz < 100 || c.LoRaFrequencyMHz > 1000 {
		return fmt.Errorf("LORA_FREQUENCY %.3f MHz out of range", c.LoRaFrequencyMHz)
	}
	if c.homeLatSet != c.homeLonSet {
		return fmt.Errorf("HOME_LAT and HOME_LON must be set together")
	}
	if c.homeLatSet {
		c.HasHome = true
	}
	if c.HasHome && (math.Abs(c.HomeLat) > 90 || math.Abs(c.HomeLon) > 180) {
		return fmt.Errorf("HOME_LAT/HOME_LON out of range")
	}
	if c.MQTTBroker != "" && (c.TopicStatus == "" || c.TopicRX == "") {
		return fmt.Errorf("TOPIC_STATUS and TOPIC_RX are required when MQTT_BROKER is set")
	}
	return nil
}

// RadioParams converts the LoRa keys to modem settings.
func (c *Config) RadioParams() radio.Params {
	bw, _ := radio.BandwidthFromKHz(c.LoRaBandwidthKHz)
	return radio.Params{
		Band:            uint32(math.Round(c.LoRaFrequencyMHz * 1e6)),
		SpreadingFactor: uint8(c.LoRaSpreadingFactor),
		Bandwidth:       bw,
		CodingRate:      uint8(c.LoRaCodingRate),
		Preamble:        uint8(c.LoRaPreamble),
		OutputPower:     uint8(c.LoRaTxPower),
		Address:         uint16(c.LoRaAddress),
		NetworkID:       uint8(c.LoRaNetworkID),
		Destination:     uint16(c.LoRaDestination),
	}
}

// InitGlobal initializes the global configuration from file. Only the first
// call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or Default() if InitGlobal was never
// called or failed.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	if globalConfig == nil {
		return Default()
	}
	return globalConfig
}
