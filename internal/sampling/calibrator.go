// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampling

import (
	"fmt"
	"time"

	"github.com/relabs-tech/marg_tracker/internal/marg"
)

// Calibrator computes a sensor's static null bias from quiescent
// samples. Run blocks for Samples * Interval while the body must be
// held stationary; it is meant to be executed once at startup, before
// any averager output is trusted.
type Calibrator struct {
	// Samples is the number of raw reads averaged into the bias.
	Samples int
	// Interval is the sensor's native sample period, waited between
	// reads.
	Interval time.Duration
	// VerticalOffset is subtracted from the z-axis mean. An
	// accelerometer at rest reads +1g on its vertical axis, so its
	// offset is the 1g-in-LSB constant; gyroscope and magnetometer
	// leave it zero.
	VerticalOffset float64
}

// Run reads Samples triads from r and returns the per-axis mean as the
// null bias. A failed read aborts calibration.
func (c Calibrator) Run(r marg.RawReader) (x, y, z float64, err error) {
	if c.Samples <= 0 {
		return 0, 0, 0, fmt.Errorf("calibration sample count %d must be positive", c.Samples)
	}

	var accX, accY, accZ float64
	for i := 0; i < c.Samples; i++ {
		rx, ry, rz, err := r.ReadAxes()
		if err != nil {
			return 0, 0, 0, fmt.Errorf("calibration read %d/%d: %w", i+1, c.Samples, err)
		}
		accX += float64(rx)
		accY += float64(ry)
		accZ += float64(rz)
		time.Sleep(c.Interval)
	}

	n := float64(c.Samples)
	return accX / n, accY / n, accZ/n - c.VerticalOffset, nil
}
