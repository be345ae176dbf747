// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDTracker string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string
	MQTTClientIDSerial  string

	// Topics
	TopicPose        string
	TopicQuaternion  string
	TopicScaledAccel string
	TopicScaledGyro  string
	TopicScaledMag   string

	// Hardware
	I2CBus         string // "" = first available bus
	UseMockSensors bool
	AxisSwapXY     bool

	// Sampling periods, milliseconds
	AccelSampleMS  int
	GyroSampleMS   int
	MagSampleMS    int
	FilterPeriodMS int

	// Oversampling and calibration
	Oversample            int
	CalibrationSamples    int // accelerometer and gyroscope
	MagCalibrationSamples int

	// Filter gains, °/s
	GyroMeasError float64
	GyroMeasDrift float64

	// Web server
	WebServerPort int
	WebPushMS     int

	// Serial bridge
	SerialPort string
	SerialBaud int

	// Display
	DisplayUpdateMS int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with the values the system was
// tuned for: 200Hz accelerometer/gyroscope, 10Hz magnetometer, 10Hz
// filter, 4-sample oversampling, 128/20 calibration samples.
func defaults() *Config {
	return &Config{
		MQTTClientIDTracker: "marg-tracker",
		MQTTClientIDConsole: "marg-console",
		MQTTClientIDWeb:     "marg-web",
		MQTTClientIDDisplay: "marg-display",
		MQTTClientIDSerial:  "marg-serial-bridge",

		TopicPose:        "marg/pose",
		TopicQuaternion:  "marg/quaternion",
		TopicScaledAccel: "marg/scaled/accel",
		TopicScaledGyro:  "marg/scaled/gyro",
		TopicScaledMag:   "marg/scaled/mag",

		AccelSampleMS:  5,
		GyroSampleMS:   5,
		MagSampleMS:    100,
		FilterPeriodMS: 100,

		Oversample:            4,
		CalibrationSamples:    128,
		MagCalibrationSamples: 20,

		GyroMeasError: 0.3,
		GyroMeasDrift: 0.0,

		WebServerPort: 8080,
		WebPushMS:     100,

		SerialPort: "/dev/serial0",
		SerialBaud: 115200,

		DisplayUpdateMS: 200,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
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

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TRACKER":
		c.MQTTClientIDTracker = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_SERIAL":
		c.MQTTClientIDSerial = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_QUATERNION":
		c.TopicQuaternion = value
	case "TOPIC_SCALED_ACCEL":
		c.TopicScaledAccel = value
	case "TOPIC_SCALED_GYRO":
		c.TopicScaledGyro = value
	case "TOPIC_SCALED_MAG":
		c.TopicScaledMag = value

	// Hardware
	case "I2C_BUS":
		c.I2CBus = value
	case "USE_MOCK_SENSORS":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid USE_MOCK_SENSORS %q: %w", value, err)
		}
		c.UseMockSensors = b
	case "AXIS_SWAP_XY":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid AXIS_SWAP_XY %q: %w", value, err)
		}
		c.AxisSwapXY = b

	// Sampling periods
	case "ACCEL_SAMPLE_MS":
		return setPositiveInt(&c.AccelSampleMS, key, value)
	case "GYRO_SAMPLE_MS":
		return setPositiveInt(&c.GyroSampleMS, key, value)
	case "MAG_SAMPLE_MS":
		return setPositiveInt(&c.MagSampleMS, key, value)
	case "FILTER_PERIOD_MS":
		return setPositiveInt(&c.FilterPeriodMS, key, value)

	// Oversampling and calibration
	case "OVERSAMPLE":
		return setPositiveInt(&c.Oversample, key, value)
	case "CALIBRATION_SAMPLES":
		return setPositiveInt(&c.CalibrationSamples, key, value)
	case "MAG_CALIBRATION_SAMPLES":
		return setPositiveInt(&c.MagCalibrationSamples, key, value)

	// Filter gains
	case "GYRO_MEAS_ERROR":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid GYRO_MEAS_ERROR %q: %w", value, err)
		}
		c.GyroMeasError = f
	case "GYRO_MEAS_DRIFT":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid GYRO_MEAS_DRIFT %q: %w", value, err)
		}
		c.GyroMeasDrift = f

	// Web server
	case "WEB_SERVER_PORT":
		return setPositiveInt(&c.WebServerPort, key, value)
	case "WEB_PUSH_MS":
		return setPositiveInt(&c.WebPushMS, key, value)

	// Serial bridge
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		return setPositiveInt(&c.SerialBaud, key, value)

	// Display
	case "DISPLAY_UPDATE_MS":
		return setPositiveInt(&c.DisplayUpdateMS, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setPositiveInt(dst *int, key, value string) error {
	val, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %d", key, val)
	}
	*dst = val
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.GyroMeasError <= 0 {
		return fmt.Errorf("GYRO_MEAS_ERROR must be positive")
	}
	if c.GyroMeasDrift < 0 {
		return fmt.Errorf("GYRO_MEAS_DRIFT must not be negative")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
