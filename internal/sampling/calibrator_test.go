package sampling

import (
	"errors"
	"strings"
	"testing"
)

type stubReader struct {
	x, y, z int16
	err     error
	calls   int
}

func (s *stubReader) ReadAxes() (int16, int16, int16, error) {
	s.calls++
	if s.err != nil {
		return 0, 0, 0, s.err
	}
	return s.x, s.y, s.z, nil
}

func TestConstantSamplesYieldMean(t *testing.T) {
	r := &stubReader{x: 17, y: -42, z: 250}
	c := Calibrator{Samples: 128}

	x, y, z, err := c.Run(r)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if x != 17 || y != -42 || z != 250 {
		t.Errorf("bias = (%g, %g, %g), want (17, -42, 250)", x, y, z)
	}
	if r.calls != 128 {
		t.Errorf("reads = %d, want 128", r.calls)
	}
}

func TestVerticalOffsetAppliesToZOnly(t *testing.T) {
	// An accelerometer at rest reads 1g (250 counts) on its vertical
	// axis; the offset must cancel it without touching x and y.
	r := &stubReader{x: 3, y: -5, z: 250}
	c := Calibrator{Samples: 128, VerticalOffset: 250}

	x, y, z, err := c.Run(r)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if x != 3 || y != -5 {
		t.Errorf("horizontal bias = (%g, %g), want (3, -5)", x, y)
	}
	if z != 0 {
		t.Errorf("vertical bias = %g, want 0", z)
	}
}

func TestReadErrorAbortsCalibration(t *testing.T) {
	busErr := errors.New("i2c: transaction failed")
	r := &stubReader{err: busErr}
	c := Calibrator{Samples: 128}

	_, _, _, err := c.Run(r)
	if !errors.Is(err, busErr) {
		t.Fatalf("Run error = %v, want wrapped bus error", err)
	}
	if r.calls != 1 {
		t.Errorf("reads after failure = %d, want 1", r.calls)
	}
}

func TestInvalidSampleCount(t *testing.T) {
	c := Calibrator{Samples: 0}
	_, _, _, err := c.Run(&stubReader{})
	if err == nil || !strings.Contains(err.Error(), "positive") {
		t.Fatalf("Run with zero samples: err = %v, want sample count error", err)
	}
}
