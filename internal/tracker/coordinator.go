// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/marg_tracker/internal/marg"
	"github.com/relabs-tech/marg_tracker/internal/orientation"
	"github.com/relabs-tech/marg_tracker/internal/sampling"
)

// SensorID names one of the three sensor channels.
type SensorID int

const (
	Accelerometer SensorID = iota
	Gyroscope
	Magnetometer
	numSensors
)

func (id SensorID) String() string {
	switch id {
	case Accelerometer:
		return "accel"
	case Gyroscope:
		return "gyro"
	case Magnetometer:
		return "mag"
	}
	return fmt.Sprintf("sensor(%d)", int(id))
}

// ChannelConfig describes one sensor channel: its port, native sample
// period, oversampling window, physical gain and calibration
// parameters.
type ChannelConfig struct {
	Reader       marg.RawReader
	SamplePeriod time.Duration
	Oversample   int
	Gain         float64

	CalibrationSamples int
	// VerticalOffset is subtracted from the z-axis calibration mean
	// (the accelerometer's 1g-at-rest constant).
	VerticalOffset float64
}

// Config wires the three channels and the filter.
type Config struct {
	Accelerometer ChannelConfig
	Gyroscope     ChannelConfig
	Magnetometer  ChannelConfig

	FilterPeriod  time.Duration
	GyroMeasError float64 // °/s
	GyroMeasDrift float64 // °/s/s
}

type channel struct {
	reader marg.RawReader
	avg    *sampling.Averager
	cal    sampling.Calibrator
	period time.Duration

	// Latest completed scaled triad, latched on window completion so
	// the filter tick never observes a half-updated triad.
	latestX, latestY, latestZ float64
}

func newChannel(cfg ChannelConfig) *channel {
	return &channel{
		reader: cfg.Reader,
		avg:    sampling.NewAverager(cfg.Oversample, cfg.Gain),
		cal: sampling.Calibrator{
			Samples:        cfg.CalibrationSamples,
			Interval:       cfg.SamplePeriod,
			VerticalOffset: cfg.VerticalOffset,
		},
		period: cfg.SamplePeriod,
	}
}

// Coordinator drives the three sensor channels and the orientation
// filter at their own periodic rates. All tick handlers run on a
// single goroutine; channels hand their latest completed triad to the
// filter tick as a latched copy.
type Coordinator struct {
	channels [numSensors]*channel
	filter   *orientation.Filter

	filterPeriod time.Duration
	calibrated   bool
}

// New builds a coordinator from cfg. Calibrate must run before the
// first tick.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		filterPeriod: cfg.FilterPeriod,
		filter: orientation.NewFilter(orientation.FilterConfig{
			SamplePeriod:  cfg.FilterPeriod.Seconds(),
			GyroMeasError: cfg.GyroMeasError,
			GyroMeasDrift: cfg.GyroMeasDrift,
		}),
	}
	c.channels[Accelerometer] = newChannel(cfg.Accelerometer)
	c.channels[Gyroscope] = newChannel(cfg.Gyroscope)
	c.channels[Magnetometer] = newChannel(cfg.Magnetometer)
	return c
}

// Calibrate computes and installs the null bias of every channel. It
// blocks for the whole calibration; the body must be stationary and no
// sampling may be interleaved.
func (c *Coordinator) Calibrate() error {
	for id := Accelerometer; id < numSensors; id++ {
		ch := c.channels[id]
		start := time.Now()
		x, y, z, err := ch.cal.Run(ch.reader)
		if err != nil {
			return fmt.Errorf("%s calibration: %w", id, err)
		}
		ch.avg.SetBias(x, y, z)
		log.Printf("%s calibration: bias x=%.2f y=%.2f z=%.2f (%d samples in %v)",
			id, x, y, z, ch.cal.Samples, time.Since(start).Round(time.Millisecond))
	}
	c.calibrated = true
	return nil
}

// OnSampleTick reads one raw triad from the given channel and feeds
// its averager. A bus fault is returned to the caller; the averager is
// left untouched and the channel keeps its last valid scaled triad.
func (c *Coordinator) OnSampleTick(id SensorID) error {
	ch := c.channels[id]
	x, y, z, err := ch.reader.ReadAxes()
	if err != nil {
		return fmt.Errorf("%s sample: %w", id, err)
	}
	if ch.avg.Add(x, y, z) {
		ch.latestX, ch.latestY, ch.latestZ = ch.avg.Latest()
	}
	return nil
}

// OnFilterTick feeds the latest triad of each channel to the filter
// and returns the resulting Euler angles. A channel with no new window
// since the previous tick simply re-supplies its previous triad.
func (c *Coordinator) OnFilterTick() orientation.Pose {
	g := c.channels[Gyroscope]
	a := c.channels[Accelerometer]
	m := c.channels[Magnetometer]
	c.filter.Update(
		g.latestX, g.latestY, g.latestZ,
		a.latestX, a.latestY, a.latestZ,
		m.latestX, m.latestY, m.latestZ,
	)
	return c.filter.Euler()
}

// Latest returns the most recently completed scaled triad of one
// channel, for telemetry.
func (c *Coordinator) Latest(id SensorID) marg.Scaled {
	ch := c.channels[id]
	return marg.Scaled{Sensor: id.String(), X: ch.latestX, Y: ch.latestY, Z: ch.latestZ}
}

// Quaternion returns the filter's current orientation estimate.
func (c *Coordinator) Quaternion() orientation.Quaternion {
	return c.filter.Quaternion()
}

// Reset returns the filter to its uninitialized state. Channel biases
// and latched triads are untouched.
func (c *Coordinator) Reset() {
	c.filter.Reset()
}

// Run drives the four periodic ticks until ctx is done. Every tick
// executes on this goroutine; the tickers only mark that a period has
// elapsed. publish is called after each filter tick with the new pose
// and quaternion.
func (c *Coordinator) Run(ctx context.Context, publish func(orientation.Pose, orientation.Quaternion)) error {
	if !c.calibrated {
		return fmt.Errorf("run: calibration has not been performed")
	}

	accelTicker := time.NewTicker(c.channels[Accelerometer].period)
	defer accelTicker.Stop()
	gyroTicker := time.NewTicker(c.channels[Gyroscope].period)
	defer gyroTicker.Stop()
	magTicker := time.NewTicker(c.channels[Magnetometer].period)
	defer magTicker.Stop()
	filterTicker := time.NewTicker(c.filterPeriod)
	defer filterTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-accelTicker.C:
			if err := c.OnSampleTick(Accelerometer); err != nil {
				log.Printf("tracker: %v", err)
			}
		case <-gyroTicker.C:
			if err := c.OnSampleTick(Gyroscope); err != nil {
				log.Printf("tracker: %v", err)
			}
		case <-magTicker.C:
			if err := c.OnSampleTick(Magnetometer); err != nil {
				log.Printf("tracker: %v", err)
			}
		case <-filterTicker.C:
			pose := c.OnFilterTick()
			if publish != nil {
				publish(pose, c.filter.Quaternion())
			}
		}
	}
}
