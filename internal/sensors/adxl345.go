// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Standard gravity at Earth's surface, m/s².
const G0 = 9.812865328

// ADXL345 chip constants.
const (
	adxl345Addr = 0x53

	adxl345RegBWRate     = 0x2C
	adxl345RegPowerCtl   = 0x2D
	adxl345RegDataFormat = 0x31
	adxl345RegDataX0     = 0x32

	adxl345Rate200Hz   = 0x0B // BW_RATE code for 200Hz output
	adxl345FullRes16G  = 0x0B // full resolution, ±16g, 4mg/LSB
	adxl345MeasureMode = 0x08
	adxl345Standby     = 0x00
)

// ADXL345Gain converts full-resolution counts (4mg/LSB) to m/s².
const ADXL345Gain = 0.004 * G0

// ADXL345OneG is 1g in counts at 4mg/LSB; an accelerometer at rest
// reads this on its vertical axis, so it is the vertical calibration
// offset.
const ADXL345OneG = 250

// ADXL345 is an Analog Devices 3-axis accelerometer on I2C.
type ADXL345 struct {
	dev i2c.Dev
}

// NewADXL345 configures the accelerometer for full-resolution ±16g at
// 200Hz and puts it in measurement mode.
func NewADXL345(bus i2c.Bus) (*ADXL345, error) {
	s := &ADXL345{dev: i2c.Dev{Bus: bus, Addr: adxl345Addr}}

	// Standby while changing the data format.
	if err := s.writeReg(adxl345RegPowerCtl, adxl345Standby); err != nil {
		return nil, fmt.Errorf("accelerometer standby: %w", err)
	}
	if err := s.writeReg(adxl345RegDataFormat, adxl345FullRes16G); err != nil {
		return nil, fmt.Errorf("accelerometer data format: %w", err)
	}
	if err := s.writeReg(adxl345RegBWRate, adxl345Rate200Hz); err != nil {
		return nil, fmt.Errorf("accelerometer data rate: %w", err)
	}
	if err := s.writeReg(adxl345RegPowerCtl, adxl345MeasureMode); err != nil {
		return nil, fmt.Errorf("accelerometer measure mode: %w", err)
	}
	// Output settles within 22ms of leaving standby (AN-1077).
	time.Sleep(22 * time.Millisecond)

	log.Printf("accelerometer: ADXL345 at 0x%02X, full resolution ±16g (4mg/LSB), 200Hz", adxl345Addr)
	return s, nil
}

// ReadAxes reads one raw triad. The ADXL345 outputs little-endian
// axis pairs starting at DATAX0.
func (s *ADXL345) ReadAxes() (x, y, z int16, err error) {
	var buf [6]byte
	if err := s.dev.Tx([]byte{adxl345RegDataX0}, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("accelerometer read: %w", err)
	}
	x = int16(buf[0]) | int16(buf[1])<<8
	y = int16(buf[2]) | int16(buf[3])<<8
	z = int16(buf[4]) | int16(buf[5])<<8
	return x, y, z, nil
}

func (s *ADXL345) writeReg(reg, val byte) error {
	return s.dev.Tx([]byte{reg, val}, nil)
}
