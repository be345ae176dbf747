// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/marg_tracker/internal/config"
	"github.com/relabs-tech/marg_tracker/internal/marg"
	"github.com/relabs-tech/marg_tracker/internal/orientation"
	"github.com/relabs-tech/marg_tracker/internal/sensors"
	"github.com/relabs-tech/marg_tracker/internal/tracker"
)

// RunTracker calibrates the three sensor channels, then runs the
// multi-rate coordinator and publishes pose, quaternion and scaled
// triads over MQTT until interrupted.
func RunTracker() error {
	cfg := config.Get()

	accel, gyro, mag, cleanup, err := openSensors(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.AxisSwapXY {
		log.Println("tracker: applying x/y axis remap to all sensor ports")
		accel = sensors.SwapXY(accel)
		gyro = sensors.SwapXY(gyro)
		mag = sensors.SwapXY(mag)
	}

	coord := tracker.New(tracker.Config{
		Accelerometer: tracker.ChannelConfig{
			Reader:             accel,
			SamplePeriod:       time.Duration(cfg.AccelSampleMS) * time.Millisecond,
			Oversample:         cfg.Oversample,
			Gain:               sensors.ADXL345Gain,
			CalibrationSamples: cfg.CalibrationSamples,
			VerticalOffset:     sensors.ADXL345OneG,
		},
		Gyroscope: tracker.ChannelConfig{
			Reader:             gyro,
			SamplePeriod:       time.Duration(cfg.GyroSampleMS) * time.Millisecond,
			Oversample:         cfg.Oversample,
			Gain:               sensors.ITG3200Gain,
			CalibrationSamples: cfg.CalibrationSamples,
		},
		Magnetometer: tracker.ChannelConfig{
			Reader:             mag,
			SamplePeriod:       time.Duration(cfg.MagSampleMS) * time.Millisecond,
			Oversample:         cfg.Oversample,
			Gain:               sensors.HMC5843Gain,
			CalibrationSamples: cfg.MagCalibrationSamples,
		},
		FilterPeriod:  time.Duration(cfg.FilterPeriodMS) * time.Millisecond,
		GyroMeasError: cfg.GyroMeasError,
		GyroMeasDrift: cfg.GyroMeasDrift,
	})

	log.Println("tracker: hold the body stationary, calibrating null biases")
	if err := coord.Calibrate(); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDTracker)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Printf("tracker: connected to MQTT broker at %s, starting tick loop", cfg.MQTTBroker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publish := func(pose orientation.Pose, q orientation.Quaternion) {
		publishJSON(client, cfg.TopicPose, pose)
		publishJSON(client, cfg.TopicQuaternion, q)
		publishJSON(client, cfg.TopicScaledAccel, coord.Latest(tracker.Accelerometer))
		publishJSON(client, cfg.TopicScaledGyro, coord.Latest(tracker.Gyroscope))
		publishJSON(client, cfg.TopicScaledMag, coord.Latest(tracker.Magnetometer))

		a := coord.Latest(tracker.Accelerometer)
		g := coord.Latest(tracker.Gyroscope)
		m := coord.Latest(tracker.Magnetometer)
		log.Printf("tick: pose R=%.2f P=%.2f Y=%.2f | accel %.2f %.2f %.2f | gyro %.3f %.3f %.3f | mag %.1f %.1f %.1f",
			pose.Roll, pose.Pitch, pose.Yaw,
			a.X, a.Y, a.Z,
			g.X, g.Y, g.Z,
			m.X, m.Y, m.Z,
		)
	}

	err = coord.Run(ctx, publish)
	if errors.Is(err, context.Canceled) {
		log.Println("tracker: shutting down")
		return nil
	}
	return err
}

// openSensors returns the three raw sensor ports, either real chips on
// the configured I2C bus or mocks.
func openSensors(cfg *config.Config) (accel, gyro, mag marg.RawReader, cleanup func(), err error) {
	if cfg.UseMockSensors {
		log.Println("tracker: using mock sensor ports")
		return sensors.NewMockAccelerometer(), sensors.NewMockGyroscope(), sensors.NewMockMagnetometer(), func() {}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("i2c open (%q): %w", cfg.I2CBus, err)
	}

	a, err := sensors.NewADXL345(bus)
	if err != nil {
		bus.Close()
		return nil, nil, nil, nil, err
	}
	g, err := sensors.NewITG3200(bus)
	if err != nil {
		bus.Close()
		return nil, nil, nil, nil, err
	}
	m, err := sensors.NewHMC5843(bus)
	if err != nil {
		bus.Close()
		return nil, nil, nil, nil, err
	}

	return a, g, m, func() { bus.Close() }, nil
}

func publishJSON(client mqtt.Client, topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("json marshal error (%s): %v", topic, err)
		return
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (%s): %v", topic, token.Error())
	}
}
