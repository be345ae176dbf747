package orientation

import (
	"math"
	"testing"
)

const (
	normTolerance  = 1e-9
	angleTolerance = 0.5 // degrees
)

func testFilter() *Filter {
	return NewFilter(FilterConfig{SamplePeriod: 0.1, GyroMeasError: 0.3, GyroMeasDrift: 0.0})
}

func quatNormError(f *Filter) float64 {
	q := f.Quaternion()
	return math.Abs(math.Sqrt(q.W*q.W+q.X*q.X+q.Y*q.Y+q.Z*q.Z) - 1)
}

func quatFinite(f *Filter) bool {
	q := f.Quaternion()
	for _, v := range []float64{q.W, q.X, q.Y, q.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func TestUpdateKeepsUnitNorm(t *testing.T) {
	f := NewFilter(FilterConfig{SamplePeriod: 0.01, GyroMeasError: 0.3, GyroMeasDrift: 0.1})

	for i := 0; i < 500; i++ {
		ti := float64(i) * 0.01
		wx := 2.0 * math.Sin(ti)
		wy := -1.5 * math.Cos(ti*0.7)
		wz := 0.8 * math.Sin(ti*1.3)
		ax := 2.0 * math.Sin(ti*0.4)
		ay := -1.0 * math.Cos(ti*0.9)
		az := 9.81
		mx := 0.4 + 0.1*math.Sin(ti)
		my := 0.05 * math.Cos(ti)
		mz := 0.87

		f.Update(wx, wy, wz, ax, ay, az, mx, my, mz)
		if e := quatNormError(f); e > normTolerance {
			t.Fatalf("update %d: quaternion norm off unit by %g", i, e)
		}
	}
}

func TestStableAtRest(t *testing.T) {
	f := testFilter()

	for i := 0; i < 200; i++ {
		f.Update(0, 0, 0, 0, 0, 9.81, 0.5, 0, 0.866)
	}

	pose := f.Euler()
	if math.Abs(pose.Roll) > angleTolerance {
		t.Errorf("roll at rest = %.4f°, want ~0", pose.Roll)
	}
	if math.Abs(pose.Pitch) > angleTolerance {
		t.Errorf("pitch at rest = %.4f°, want ~0", pose.Pitch)
	}
}

func TestSingleUpdateWithDipField(t *testing.T) {
	f := testFilter()

	f.Update(0, 0, 0, 0, 0, 9.81, 0.5, 0, 0.866)

	if e := quatNormError(f); e > normTolerance {
		t.Fatalf("quaternion norm off unit by %g", e)
	}
	if !f.Tracking() {
		t.Fatal("auxiliary frame not captured on first update")
	}

	// The auxiliary frame is the first update's result, so the pose
	// relative to it is exactly zero.
	pose := f.Euler()
	if math.Abs(pose.Roll) > 1e-6 || math.Abs(pose.Pitch) > 1e-6 || math.Abs(pose.Yaw) > 1e-6 {
		t.Errorf("pose after first update = %+v, want all zero", pose)
	}
}

func TestEulerBeforeFirstUpdate(t *testing.T) {
	f := testFilter()

	pose := f.Euler()
	if pose.Roll != 0 || pose.Pitch != 0 || pose.Yaw != 0 {
		t.Errorf("identity decomposition = %+v, want all zero", pose)
	}

	f.Reset()
	pose = f.Euler()
	if pose.Roll != 0 || pose.Pitch != 0 || pose.Yaw != 0 {
		t.Errorf("pose after reset = %+v, want all zero", pose)
	}
}

func TestDegenerateInputsKeepFiniteState(t *testing.T) {
	cases := []struct {
		name       string
		ax, ay, az float64
		mx, my, mz float64
	}{
		{name: "zero accelerometer", mx: 0.5, mz: 0.866},
		{name: "zero magnetometer", az: 9.81},
		{name: "both zero"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := testFilter()
			for i := 0; i < 50; i++ {
				f.Update(0.1, -0.2, 0.05, tc.ax, tc.ay, tc.az, tc.mx, tc.my, tc.mz)
				if !quatFinite(f) {
					t.Fatalf("update %d: quaternion state not finite: %+v", i, f.Quaternion())
				}
				if e := quatNormError(f); e > normTolerance {
					t.Fatalf("update %d: quaternion norm off unit by %g", i, e)
				}
			}
		})
	}
}

func TestDegenerateInputSkipsReferenceCapture(t *testing.T) {
	f := testFilter()

	f.Update(0, 0, 0, 0, 0, 0, 0, 0, 0)
	if f.Tracking() {
		t.Error("auxiliary frame captured from a degenerate update")
	}

	f.Update(0, 0, 0, 0, 0, 9.81, 0.5, 0, 0.866)
	if !f.Tracking() {
		t.Error("auxiliary frame not captured on first full update")
	}
}

func TestGyroOnlyIntegration(t *testing.T) {
	// Zero-norm correction inputs force pure gyroscope integration:
	// a constant rate about z must accumulate into yaw.
	f := NewFilter(FilterConfig{SamplePeriod: 0.01, GyroMeasError: 0.3})

	w := math.Pi / 2 // rad/s
	for i := 0; i < 100; i++ {
		f.Update(0, 0, w, 0, 0, 0, 0, 0, 0)
	}

	pose := f.Euler()
	if math.Abs(pose.Yaw-90) > angleTolerance {
		t.Errorf("yaw after 1s at 90°/s = %.3f°, want ~90°", pose.Yaw)
	}
	if math.Abs(pose.Roll) > angleTolerance || math.Abs(pose.Pitch) > angleTolerance {
		t.Errorf("roll/pitch after pure z rotation = %.3f°/%.3f°, want ~0", pose.Roll, pose.Pitch)
	}
}

func TestResetRestoresIdentity(t *testing.T) {
	f := testFilter()
	for i := 0; i < 20; i++ {
		f.Update(0.5, -0.3, 0.2, 1, 2, 9, 0.4, 0.1, 0.8)
	}

	f.Reset()

	q := f.Quaternion()
	if q.W != 1 || q.X != 0 || q.Y != 0 || q.Z != 0 {
		t.Errorf("quaternion after reset = %+v, want identity", q)
	}
	if f.Tracking() {
		t.Error("still tracking after reset")
	}
}

func TestResetPreservesGyroBias(t *testing.T) {
	f := NewFilter(FilterConfig{SamplePeriod: 0.1, GyroMeasError: 0.3, GyroMeasDrift: 0.5})

	// A steady rate the correction disagrees with drives the bias
	// estimate away from zero.
	for i := 0; i < 100; i++ {
		f.Update(0.1, 0.2, -0.1, 0, 0, 9.81, 0.5, 0, 0.866)
	}

	bx, by, bz := f.GyroBias()
	if bx == 0 && by == 0 && bz == 0 {
		t.Fatal("gyro bias estimate still zero, drift loop inactive")
	}

	f.Reset()

	rx, ry, rz := f.GyroBias()
	if rx != bx || ry != by || rz != bz {
		t.Errorf("gyro bias changed across reset: (%g,%g,%g) != (%g,%g,%g)", rx, ry, rz, bx, by, bz)
	}
}
