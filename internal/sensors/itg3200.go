// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"math"

	"periph.io/x/conn/v3/i2c"
)

// ITG3200 chip constants.
const (
	itg3200Addr = 0x68

	itg3200RegSmplrtDiv = 0x15
	itg3200RegDlpfFS    = 0x16
	itg3200RegGyroXoutH = 0x1D

	itg3200LpfBw42Hz = 0x03
	itg3200FSSel     = 0x03 // ±2000°/s, required for proper operation

	// Internal rate is 1kHz with the 42Hz low-pass filter; divider 4
	// gives a 200Hz output rate.
	itg3200SampleRateDiv = 4
)

// ITG3200Gain converts counts (14.375 LSB per °/s) to rad/s.
const ITG3200Gain = (1.0 / 14.375) * (math.Pi / 180.0)

// ITG3200 is an InvenSense 3-axis gyroscope on I2C.
type ITG3200 struct {
	dev i2c.Dev
}

// NewITG3200 configures the gyroscope for a 42Hz low-pass bandwidth
// and a 200Hz output rate.
func NewITG3200(bus i2c.Bus) (*ITG3200, error) {
	s := &ITG3200{dev: i2c.Dev{Bus: bus, Addr: itg3200Addr}}

	if err := s.writeReg(itg3200RegDlpfFS, itg3200FSSel<<3|itg3200LpfBw42Hz); err != nil {
		return nil, fmt.Errorf("gyroscope DLPF/full-scale: %w", err)
	}
	if err := s.writeReg(itg3200RegSmplrtDiv, itg3200SampleRateDiv); err != nil {
		return nil, fmt.Errorf("gyroscope sample rate divider: %w", err)
	}

	log.Printf("gyroscope: ITG-3200 at 0x%02X, 42Hz bandwidth, 200Hz output", itg3200Addr)
	return s, nil
}

// ReadAxes reads one raw triad. Axis words are big-endian starting at
// GYRO_XOUT_H.
func (s *ITG3200) ReadAxes() (x, y, z int16, err error) {
	var buf [6]byte
	if err := s.dev.Tx([]byte{itg3200RegGyroXoutH}, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("gyroscope read: %w", err)
	}
	x = int16(buf[0])<<8 | int16(buf[1])
	y = int16(buf[2])<<8 | int16(buf[3])
	z = int16(buf[4])<<8 | int16(buf[5])
	return x, y, z, nil
}

func (s *ITG3200) writeReg(reg, val byte) error {
	return s.dev.Tx([]byte{reg, val}, nil)
}
