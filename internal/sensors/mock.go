package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/marg_tracker/internal/marg"
)

type mockReader struct {
	start time.Time
	at    func(t float64) (x, y, z int16)
}

func (m *mockReader) ReadAxes() (x, y, z int16, err error) {
	x, y, z = m.at(time.Since(m.start).Seconds())
	return x, y, z, nil
}

// NewMockAccelerometer simulates a body at rest with a gentle wobble:
// the vertical axis reads 1g (250 counts at 4mg/LSB).
func NewMockAccelerometer() marg.RawReader {
	return &mockReader{start: time.Now(), at: func(t float64) (int16, int16, int16) {
		return int16(3 * math.Sin(t)), int16(3 * math.Cos(t*0.7)), 250
	}}
}

// NewMockGyroscope simulates a stationary gyroscope with a few counts
// of noise around zero.
func NewMockGyroscope() marg.RawReader {
	return &mockReader{start: time.Now(), at: func(t float64) (int16, int16, int16) {
		return int16(4 * math.Sin(t*3)), int16(4 * math.Cos(t*2)), int16(2 * math.Sin(t))
	}}
}

// NewMockMagnetometer simulates a fixed earth field with a 60°
// downward dip.
func NewMockMagnetometer() marg.RawReader {
	return &mockReader{start: time.Now(), at: func(t float64) (int16, int16, int16) {
		return 100 + int16(2*math.Sin(t*0.5)), int16(2 * math.Cos(t*0.3)), 173
	}}
}
