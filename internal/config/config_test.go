// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marg_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# sample config
MQTT_BROKER=tcp://broker.local:1883
MQTT_CLIENT_ID_TRACKER=test-tracker

TOPIC_POSE=test/pose
I2C_BUS=1
USE_MOCK_SENSORS=true
AXIS_SWAP_XY=true

ACCEL_SAMPLE_MS=10
GYRO_SAMPLE_MS=10
MAG_SAMPLE_MS=50
FILTER_PERIOD_MS=50

OVERSAMPLE=8
CALIBRATION_SAMPLES=64
MAG_CALIBRATION_SAMPLES=10

GYRO_MEAS_ERROR=0.5
GYRO_MEAS_DRIFT=0.1

WEB_SERVER_PORT=9090
WEB_PUSH_MS=250
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD=57600
DISPLAY_UPDATE_MS=500
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MQTTBroker != "tcp://broker.local:1883" {
		t.Errorf("MQTTBroker = %q", cfg.MQTTBroker)
	}
	if cfg.MQTTClientIDTracker != "test-tracker" {
		t.Errorf("MQTTClientIDTracker = %q", cfg.MQTTClientIDTracker)
	}
	if cfg.TopicPose != "test/pose" {
		t.Errorf("TopicPose = %q", cfg.TopicPose)
	}
	if cfg.I2CBus != "1" || !cfg.UseMockSensors || !cfg.AxisSwapXY {
		t.Errorf("hardware section = %q/%v/%v", cfg.I2CBus, cfg.UseMockSensors, cfg.AxisSwapXY)
	}
	if cfg.AccelSampleMS != 10 || cfg.MagSampleMS != 50 || cfg.FilterPeriodMS != 50 {
		t.Errorf("sample periods = %d/%d/%d", cfg.AccelSampleMS, cfg.MagSampleMS, cfg.FilterPeriodMS)
	}
	if cfg.Oversample != 8 || cfg.CalibrationSamples != 64 || cfg.MagCalibrationSamples != 10 {
		t.Errorf("oversample/calibration = %d/%d/%d", cfg.Oversample, cfg.CalibrationSamples, cfg.MagCalibrationSamples)
	}
	if cfg.GyroMeasError != 0.5 || cfg.GyroMeasDrift != 0.1 {
		t.Errorf("filter gains = %g/%g", cfg.GyroMeasError, cfg.GyroMeasDrift)
	}
	if cfg.WebServerPort != 9090 || cfg.SerialBaud != 57600 || cfg.DisplayUpdateMS != 500 {
		t.Errorf("consumer section = %d/%d/%d", cfg.WebServerPort, cfg.SerialBaud, cfg.DisplayUpdateMS)
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AccelSampleMS != 5 || cfg.GyroSampleMS != 5 {
		t.Errorf("accel/gyro periods = %d/%d, want 5/5", cfg.AccelSampleMS, cfg.GyroSampleMS)
	}
	if cfg.MagSampleMS != 100 || cfg.FilterPeriodMS != 100 {
		t.Errorf("mag/filter periods = %d/%d, want 100/100", cfg.MagSampleMS, cfg.FilterPeriodMS)
	}
	if cfg.Oversample != 4 || cfg.CalibrationSamples != 128 || cfg.MagCalibrationSamples != 20 {
		t.Errorf("oversample/calibration = %d/%d/%d, want 4/128/20", cfg.Oversample, cfg.CalibrationSamples, cfg.MagCalibrationSamples)
	}
	if cfg.GyroMeasError != 0.3 || cfg.GyroMeasDrift != 0 {
		t.Errorf("filter gains = %g/%g, want 0.3/0", cfg.GyroMeasError, cfg.GyroMeasDrift)
	}
	if cfg.TopicPose != "marg/pose" || cfg.TopicQuaternion != "marg/quaternion" {
		t.Errorf("topics = %q/%q", cfg.TopicPose, cfg.TopicQuaternion)
	}
	if cfg.UseMockSensors || cfg.AxisSwapXY {
		t.Error("hardware toggles default on")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing broker", "OVERSAMPLE=4\n", "MQTT_BROKER"},
		{"unknown key", "MQTT_BROKER=tcp://x:1883\nBOGUS_KEY=1\n", "unknown config key"},
		{"malformed line", "MQTT_BROKER=tcp://x:1883\nno equals sign\n", "invalid config line"},
		{"zero period", "MQTT_BROKER=tcp://x:1883\nACCEL_SAMPLE_MS=0\n", "must be positive"},
		{"bad float", "MQTT_BROKER=tcp://x:1883\nGYRO_MEAS_ERROR=fast\n", "GYRO_MEAS_ERROR"},
		{"negative drift", "MQTT_BROKER=tcp://x:1883\nGYRO_MEAS_DRIFT=-0.1\n", "GYRO_MEAS_DRIFT"},
		{"bad bool", "MQTT_BROKER=tcp://x:1883\nUSE_MOCK_SENSORS=maybe\n", "USE_MOCK_SENSORS"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load: err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}
