package marg

// RawSample is a single signed triad read from a sensor bus, in ADC counts.
type RawSample struct {
	Sensor string `json:"sensor"` // "accel", "gyro" or "mag"

	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Scaled is an averaged, bias-corrected triad in physical units
// (m/s² for the accelerometer, rad/s for the gyroscope, device units
// for the magnetometer).
type Scaled struct {
	Sensor string `json:"sensor"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RawReader is a synchronous port to one 3-axis sensor. A read is one
// bus transaction and may fail with a bus error.
type RawReader interface {
	ReadAxes() (x, y, z int16, err error)
}
