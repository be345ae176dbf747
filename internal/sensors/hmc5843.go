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

// HMC5843 chip constants.
const (
	hmc5843Addr = 0x1E

	hmc5843RegConfigA = 0x00
	hmc5843RegConfigB = 0x01
	hmc5843RegMode    = 0x02
	hmc5843RegDataX   = 0x03

	hmc584310HzNormal = 0x10
	hmc5843Gain1Ga    = 0x20
	hmc5843Continuous = 0x00
)

// HMC5843Gain leaves magnetometer counts unscaled. The filter
// normalizes the triad, so absolute field units do not matter.
const HMC5843Gain = 1.0

// HMC5843 is a Honeywell 3-axis magnetometer on I2C.
type HMC5843 struct {
	dev i2c.Dev
}

// NewHMC5843 configures the magnetometer for continuous measurement at
// 10Hz with a ±1.0Ga range.
func NewHMC5843(bus i2c.Bus) (*HMC5843, error) {
	s := &HMC5843{dev: i2c.Dev{Bus: bus, Addr: hmc5843Addr}}

	if err := s.writeReg(hmc5843RegConfigA, hmc584310HzNormal); err != nil {
		return nil, fmt.Errorf("magnetometer config A: %w", err)
	}
	if err := s.writeReg(hmc5843RegConfigB, hmc5843Gain1Ga); err != nil {
		return nil, fmt.Errorf("magnetometer config B: %w", err)
	}
	if err := s.writeReg(hmc5843RegMode, hmc5843Continuous); err != nil {
		return nil, fmt.Errorf("magnetometer mode: %w", err)
	}
	// First valid sample is available after ~100ms in continuous mode.
	time.Sleep(100 * time.Millisecond)

	log.Printf("magnetometer: HMC5843 at 0x%02X, continuous mode, 10Hz, ±1.0Ga", hmc5843Addr)
	return s, nil
}

// ReadAxes reads one raw triad. Axis words are big-endian starting at
// the X MSB register.
func (s *HMC5843) ReadAxes() (x, y, z int16, err error) {
	var buf [6]byte
	if err := s.dev.Tx([]byte{hmc5843RegDataX}, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("magnetometer read: %w", err)
	}
	x = int16(buf[0])<<8 | int16(buf[1])
	y = int16(buf[2])<<8 | int16(buf[3])
	z = int16(buf[4])<<8 | int16(buf[5])
	return x, y, z, nil
}

func (s *HMC5843) writeReg(reg, val byte) error {
	return s.dev.Tx([]byte{reg, val}, nil)
}
