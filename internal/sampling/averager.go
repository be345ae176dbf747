// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sampling

// Averager accumulates raw sensor triads and turns every full
// oversampling window into one averaged, bias-corrected, gain-scaled
// triad. It never blocks; acquiring the raw samples is the caller's
// job.
type Averager struct {
	window int
	gain   float64

	biasX, biasY, biasZ float64
	accX, accY, accZ    float64
	count               int

	latestX, latestY, latestZ float64
}

// NewAverager returns an averager producing one output triad per
// window raw samples, scaled by gain.
func NewAverager(window int, gain float64) *Averager {
	if window <= 0 {
		panic("sampling: averager window must be positive")
	}
	return &Averager{window: window, gain: gain}
}

// SetBias installs the null bias removed from every averaged triad.
// It is set once, after calibration and before streaming.
func (a *Averager) SetBias(x, y, z float64) {
	a.biasX, a.biasY, a.biasZ = x, y, z
}

// Add accumulates one raw triad. When the call completes the
// oversampling window it computes the scaled output triad, resets the
// accumulator, and returns true; Latest then reflects the new window.
func (a *Averager) Add(x, y, z int16) bool {
	a.accX += float64(x)
	a.accY += float64(y)
	a.accZ += float64(z)
	a.count++

	if a.count < a.window {
		return false
	}

	n := float64(a.window)
	a.latestX = (a.accX/n - a.biasX) * a.gain
	a.latestY = (a.accY/n - a.biasY) * a.gain
	a.latestZ = (a.accZ/n - a.biasZ) * a.gain

	a.accX, a.accY, a.accZ = 0, 0, 0
	a.count = 0
	return true
}

// Latest returns the most recently completed scaled triad. It is zero
// until the first window completes.
func (a *Averager) Latest() (x, y, z float64) {
	return a.latestX, a.latestY, a.latestZ
}
