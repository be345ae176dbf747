// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "math"

// normEpsilon is the smallest vector norm accepted for normalization.
// Anything below it (sensor stuck at zero, vanishing gradient) would
// turn the quaternion state into NaN.
const normEpsilon = 1e-9

// FilterConfig holds the construction-time filter constants.
type FilterConfig struct {
	// SamplePeriod is the time between Update calls, in seconds.
	SamplePeriod float64
	// GyroMeasError is the expected gyroscope measurement error in °/s.
	GyroMeasError float64
	// GyroMeasDrift is the expected gyroscope drift in °/s/s.
	GyroMeasDrift float64
}

// Filter fuses gyroscope, accelerometer and magnetometer readings into
// a unit orientation quaternion using Madgwick's gradient-descent MARG
// algorithm with gyroscope bias compensation.
//
// The filter keeps two quaternions: the running estimate of the sensor
// frame relative to earth, and an auxiliary frame captured on the first
// update so that yaw is reported relative to the start heading.
type Filter struct {
	dt   float64
	beta float64 // gradient step gain
	zeta float64 // bias drift gain

	// Estimated orientation quaternion (sensor relative to earth).
	q1, q2, q3, q4 float64
	// Auxiliary frame quaternion captured on the first update.
	aq1, aq2, aq3, aq4 float64
	// Earth-frame flux reference.
	bx, bz float64
	// Gyroscope bias estimate, rad/s.
	wbx, wby, wbz float64

	tracking bool
}

// NewFilter derives the beta and zeta gains from cfg and returns a
// filter in its initial (identity) state.
func NewFilter(cfg FilterConfig) *Filter {
	f := &Filter{
		dt:   cfg.SamplePeriod,
		beta: math.Sqrt(3.0/4.0) * math.Pi * (cfg.GyroMeasError / 180.0),
		zeta: math.Sqrt(3.0/4.0) * math.Pi * (cfg.GyroMeasDrift / 180.0),
	}
	f.Reset()
	return f
}

// Reset returns the filter to its uninitialized state: identity
// quaternion, no auxiliary frame, default flux reference. The learned
// gyroscope bias is kept so a reset does not throw away slowly
// accumulated drift knowledge.
func (f *Filter) Reset() {
	f.q1, f.q2, f.q3, f.q4 = 1, 0, 0, 0
	f.aq1, f.aq2, f.aq3, f.aq4 = 1, 0, 0, 0
	f.bx, f.bz = 1, 0
	f.tracking = false
}

// Tracking reports whether the auxiliary start frame has been captured.
func (f *Filter) Tracking() bool { return f.tracking }

// Quaternion returns the current orientation estimate.
func (f *Filter) Quaternion() Quaternion {
	return Quaternion{W: f.q1, X: f.q2, Y: f.q3, Z: f.q4}
}

// GyroBias returns the current gyroscope bias estimate in rad/s.
func (f *Filter) GyroBias() (x, y, z float64) {
	return f.wbx, f.wby, f.wbz
}

// Update advances the orientation estimate by one sample period.
// Angular rate is in rad/s; the accelerometer and magnetometer triads
// may be in any consistent units since both are normalized.
//
// A zero-norm accelerometer or magnetometer triad makes the corrective
// step undefined; in that case only the gyroscope integration is
// applied and the prior flux reference is kept.
func (f *Filter) Update(wx, wy, wz, ax, ay, az, mx, my, mz float64) {
	norm := math.Sqrt(ax*ax + ay*ay + az*az)
	if norm < normEpsilon {
		f.integrateGyro(wx, wy, wz)
		return
	}
	ax, ay, az = ax/norm, ay/norm, az/norm

	norm = math.Sqrt(mx*mx + my*my + mz*mz)
	if norm < normEpsilon {
		f.integrateGyro(wx, wy, wz)
		return
	}
	mx, my, mz = mx/norm, my/norm, mz/norm

	halfq1 := 0.5 * f.q1
	halfq2 := 0.5 * f.q2
	halfq3 := 0.5 * f.q3
	halfq4 := 0.5 * f.q4
	twoq1 := 2.0 * f.q1
	twoq2 := 2.0 * f.q2
	twoq3 := 2.0 * f.q3
	twoq4 := 2.0 * f.q4
	twobx := 2.0 * f.bx
	twobz := 2.0 * f.bz
	twobxq1 := 2.0 * f.bx * f.q1
	twobxq2 := 2.0 * f.bx * f.q2
	twobxq3 := 2.0 * f.bx * f.q3
	twobxq4 := 2.0 * f.bx * f.q4
	twobzq1 := 2.0 * f.bz * f.q1
	twobzq2 := 2.0 * f.bz * f.q2
	twobzq3 := 2.0 * f.bz * f.q3
	twobzq4 := 2.0 * f.bz * f.q4
	q1q3 := f.q1 * f.q3
	q2q4 := f.q2 * f.q4

	// Objective function: three gravity residuals, three flux residuals.
	f1 := twoq2*f.q4 - twoq1*f.q3 - ax
	f2 := twoq1*f.q2 + twoq3*f.q4 - ay
	f3 := 1.0 - twoq2*f.q2 - twoq3*f.q3 - az
	f4 := twobx*(0.5-f.q3*f.q3-f.q4*f.q4) + twobz*(q2q4-q1q3) - mx
	f5 := twobx*(f.q2*f.q3-f.q1*f.q4) + twobz*(f.q1*f.q2+f.q3*f.q4) - my
	f6 := twobx*(q1q3+q2q4) + twobz*(0.5-f.q2*f.q2-f.q3*f.q3) - mz

	// Closed-form Jacobian. Several entries are shared between rows and
	// some are applied negated in the multiplication below.
	j11or24 := twoq3
	j12or23 := 2.0 * f.q4
	j13or22 := twoq1
	j14or21 := twoq2
	j32 := 2.0 * j14or21
	j33 := 2.0 * j11or24
	j41 := twobzq3
	j42 := twobzq4
	j43 := 2.0*twobxq3 + twobzq1
	j44 := 2.0*twobxq4 - twobzq2
	j51 := twobxq4 - twobzq2
	j52 := twobxq3 + twobzq1
	j53 := twobxq2 + twobzq4
	j54 := twobxq1 - twobzq3
	j61 := twobxq3
	j62 := twobxq4 - 2.0*twobzq2
	j63 := twobxq1 - 2.0*twobzq3
	j64 := twobxq2

	// Gradient = Jᵗ·f.
	s1 := j14or21*f2 - j11or24*f1 - j41*f4 - j51*f5 + j61*f6
	s2 := j12or23*f1 + j13or22*f2 - j32*f3 + j42*f4 + j52*f5 + j62*f6
	s3 := j12or23*f2 - j33*f3 - j13or22*f1 - j43*f4 + j53*f5 + j63*f6
	s4 := j14or21*f1 + j11or24*f2 - j44*f4 - j54*f5 + j64*f6

	norm = math.Sqrt(s1*s1 + s2*s2 + s3*s3 + s4*s4)
	if norm < normEpsilon {
		// Perfect alignment, nothing to correct this tick.
		f.integrateGyro(wx, wy, wz)
		return
	}
	s1, s2, s3, s4 = s1/norm, s2/norm, s3/norm, s4/norm

	// Angular estimate of the gyroscope error, fed into the bias drift
	// loop before the bias is removed from the measurement.
	werrx := twoq1*s2 - twoq2*s1 - twoq3*s4 + twoq4*s3
	werry := twoq1*s3 + twoq2*s4 - twoq3*s1 - twoq4*s2
	werrz := twoq1*s4 - twoq2*s3 + twoq3*s2 - twoq4*s1

	f.wbx += werrx * f.dt * f.zeta
	f.wby += werry * f.dt * f.zeta
	f.wbz += werrz * f.dt * f.zeta
	wx -= f.wbx
	wy -= f.wby
	wz -= f.wbz

	// Quaternion rate from the bias-corrected gyroscope reading.
	qdot1 := -halfq2*wx - halfq3*wy - halfq4*wz
	qdot2 := halfq1*wx + halfq3*wz - halfq4*wy
	qdot3 := halfq1*wy - halfq2*wz + halfq4*wx
	qdot4 := halfq1*wz + halfq2*wy - halfq3*wx

	// Blend with the corrective gradient and integrate.
	f.q1 += (qdot1 - f.beta*s1) * f.dt
	f.q2 += (qdot2 - f.beta*s2) * f.dt
	f.q3 += (qdot3 - f.beta*s3) * f.dt
	f.q4 += (qdot4 - f.beta*s4) * f.dt
	f.normalize()

	// Recompute the earth-frame flux reference from the new quaternion
	// so the reference tracks slow magnetic declination drift.
	q1q2 := f.q1 * f.q2
	q1q3 = f.q1 * f.q3
	q1q4 := f.q1 * f.q4
	q2q3 := f.q2 * f.q3
	q2q4 = f.q2 * f.q4
	q3q4 := f.q3 * f.q4
	twomx := 2.0 * mx
	twomy := 2.0 * my
	twomz := 2.0 * mz

	hx := twomx*(0.5-f.q3*f.q3-f.q4*f.q4) + twomy*(q2q3-q1q4) + twomz*(q2q4+q1q3)
	hy := twomx*(q2q3+q1q4) + twomy*(0.5-f.q2*f.q2-f.q4*f.q4) + twomz*(q3q4-q1q2)
	hz := twomx*(q2q4-q1q3) + twomy*(q3q4+q1q2) + twomz*(0.5-f.q2*f.q2-f.q3*f.q3)

	f.bx = math.Sqrt(hx*hx + hy*hy)
	f.bz = hz

	if !f.tracking {
		f.aq1, f.aq2, f.aq3, f.aq4 = f.q1, f.q2, f.q3, f.q4
		f.tracking = true
	}
}

// integrateGyro applies the gyroscope-only half of an update: remove
// the current bias estimate, integrate the quaternion kinematics, and
// renormalize. Used when the corrective step must be skipped.
func (f *Filter) integrateGyro(wx, wy, wz float64) {
	wx -= f.wbx
	wy -= f.wby
	wz -= f.wbz

	qdot1 := -0.5*f.q2*wx - 0.5*f.q3*wy - 0.5*f.q4*wz
	qdot2 := 0.5*f.q1*wx + 0.5*f.q3*wz - 0.5*f.q4*wy
	qdot3 := 0.5*f.q1*wy - 0.5*f.q2*wz + 0.5*f.q4*wx
	qdot4 := 0.5*f.q1*wz + 0.5*f.q2*wy - 0.5*f.q3*wx

	f.q1 += qdot1 * f.dt
	f.q2 += qdot2 * f.dt
	f.q3 += qdot3 * f.dt
	f.q4 += qdot4 * f.dt
	f.normalize()
}

func (f *Filter) normalize() {
	norm := math.Sqrt(f.q1*f.q1 + f.q2*f.q2 + f.q3*f.q3 + f.q4*f.q4)
	f.q1 /= norm
	f.q2 /= norm
	f.q3 /= norm
	f.q4 /= norm
}

// Euler extracts roll, pitch and yaw in degrees, expressed relative to
// the auxiliary frame captured on the first update. Before the first
// update it decomposes the identity quaternion, i.e. all angles are 0.
func (f *Filter) Euler() Pose {
	// Conjugate of the estimate times the auxiliary frame.
	e1, e2, e3, e4 := f.q1, -f.q2, -f.q3, -f.q4

	a1 := e1*f.aq1 - e2*f.aq2 - e3*f.aq3 - e4*f.aq4
	a2 := e1*f.aq2 + e2*f.aq1 + e3*f.aq4 - e4*f.aq3
	a3 := e1*f.aq3 - e2*f.aq4 + e3*f.aq1 + e4*f.aq2
	a4 := e1*f.aq4 + e2*f.aq3 - e3*f.aq2 + e4*f.aq1

	// Rounding can push the asin argument just outside ±1 near
	// gimbal lock.
	sinTheta := 2*a2*a3 - 2*a1*a3
	if sinTheta > 1 {
		sinTheta = 1
	} else if sinTheta < -1 {
		sinTheta = -1
	}

	const toDegrees = 180.0 / math.Pi
	return Pose{
		Roll:  math.Atan2(2*a3*a4-2*a1*a2, 2*a1*a1+2*a4*a4-1) * toDegrees,
		Pitch: math.Asin(sinTheta) * toDegrees,
		Yaw:   math.Atan2(2*a2*a3-2*a1*a4, 2*a1*a1+2*a2*a2-1) * toDegrees,
	}
}
