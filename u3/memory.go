// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"encoding/binary"
	"fmt"
)

const memBlockSize = 32

// toDouble converts an 8 byte slice from the calibration memory into a
// float64. The U3 stores calibration constants as 64-bit fixed-point
// values: a signed 32-bit integer part in the upper four bytes and an
// unsigned 32-bit fractional part in the lower four, both little endian.
func toDouble(b []byte) float64 {
	fraction := binary.LittleEndian.Uint32(b[0:4])
	integer := int32(binary.LittleEndian.Uint32(b[4:8]))
	return float64(integer) + float64(fraction)/(1<<32)
}

// readMemBlock reads one 32 byte block from the non-volatile user or
// calibration memory.
func (d *U3) readMemBlock(commandType byte, blockNum int) ([]byte, error) {
	cmd := make([]byte, 8)
	cmd[1] = 0xf8
	cmd[2] = 0x01
	cmd[3] = commandType
	cmd[7] = byte(blockNum)

	result, err := d.writeRead(cmd, 40, []byte{0xf8, 0x11, commandType}, true, true)
	if err != nil {
		return nil, err
	}
	return result[8:], nil
}

// ReadMem reads one block (32 bytes) from the non-volatile user memory.
// See section 5.2.6 of the U3 user's guide.
//
// Do not call this function while streaming.
func (d *U3) ReadMem(blockNum int) ([]byte, error) {
	return d.readMemBlock(byte(commandReadMem), blockNum)
}

// ReadCal reads one block (32 bytes) from the calibration memory.
//
// Do not call this function while streaming.
func (d *U3) ReadCal(blockNum int) ([]byte, error) {
	return d.readMemBlock(byte(commandReadCal), blockNum)
}

// writeMemBlock writes one 32 byte block to the non-volatile user or
// calibration memory.
func (d *U3) writeMemBlock(commandType byte, blockNum int, data []byte) error {
	if len(data) != memBlockSize {
		return ErrInvalidParameter{
			Name:   "data",
			Reason: fmt.Sprintf("must be exactly %d bytes, got %d", memBlockSize, len(data)),
		}
	}
	cmd := make([]byte, 40)
	cmd[1] = 0xf8
	cmd[2] = 0x11
	cmd[3] = commandType
	cmd[7] = byte(blockNum)
	copy(cmd[8:], data)

	_, err := d.writeRead(cmd, 8, []byte{0xf8, 0x01, commandType}, true, true)
	return err
}

// WriteMem writes one block (32 bytes) to the non-volatile user memory.
// Memory must be erased before writing. See section 5.2.7 of the U3
// user's guide.
//
// Do not call this function while streaming.
func (d *U3) WriteMem(blockNum int, data []byte) error {
	return d.writeMemBlock(byte(commandWriteMem), blockNum, data)
}

// WriteCal writes one block (32 bytes) to the calibration memory. The
// calibration memory must be erased with EraseCal first.
//
// Do not call this function while streaming.
func (d *U3) WriteCal(blockNum int, data []byte) error {
	return d.writeMemBlock(byte(commandWriteCal), blockNum, data)
}

// EraseMem erases the entire user memory. The U3 uses flash that must be
// erased before writing. See section 5.2.8 of the U3 user's guide.
//
// Do not call this function while streaming.
func (d *U3) EraseMem() error {
	// Header-only extended command: the payload checksum bytes stay
	// zero, so only the header checksum needs computing.
	cmd := make([]byte, 6)
	cmd[1] = 0xf8
	cmd[2] = 0x00
	cmd[3] = byte(commandEraseMem)
	cmd[0] = checksum8(cmd, 6)

	_, err := d.writeRead(cmd, 8, []byte{0xf8, 0x01, byte(commandEraseMem)}, true, false)
	return err
}

// EraseCal erases the entire calibration memory. The key bytes in the
// command keep a stray packet from wiping the calibration by accident.
//
// Do not call this function while streaming.
func (d *U3) EraseCal() error {
	cmd := make([]byte, 8)
	cmd[1] = 0xf8
	cmd[2] = 0x01
	cmd[3] = byte(commandEraseCal)
	cmd[6] = 0x4c
	cmd[7] = 0x6c

	_, err := d.writeRead(cmd, 8, []byte{0xf8, 0x01, byte(commandEraseCal)}, true, true)
	return err
}

// SetDefaults stores the current values as the power-up defaults in
// flash.
func (d *U3) SetDefaults() error {
	return d.setDefaults(false)
}

// SetToFactoryDefaults resets the power-up defaults in flash to the
// factory values.
func (d *U3) SetToFactoryDefaults() error {
	return d.setDefaults(true)
}

func (d *U3) setDefaults(factory bool) error {
	cmd := make([]byte, 8)
	cmd[1] = 0xf8
	cmd[2] = 0x01
	cmd[3] = byte(commandDefaults)
	cmd[6] = 0xba
	cmd[7] = 0x26
	if factory {
		cmd[6] = 0x82
		cmd[7] = 0xc7
	}

	_, err := d.writeRead(cmd, 8, []byte{0xf8, 0x01, byte(commandDefaults)}, true, true)
	return err
}

// ReadDefaults reads one block (32 bytes) of the power-up defaults from
// flash. Blocks are numbered 0-7. Set readCurrent to read the current
// configuration instead of the stored defaults.
func (d *U3) ReadDefaults(blockNum int, readCurrent bool) ([]byte, error) {
	if blockNum < 0 || blockNum > 7 {
		return nil, ErrInvalidParameter{Name: "block number", Reason: "must be 0-7"}
	}
	cmd := make([]byte, 8)
	cmd[1] = 0xf8
	cmd[2] = 0x01
	cmd[3] = byte(commandDefaults)
	cmd[7] = boolToByte(readCurrent)<<7 + byte(blockNum)

	result, err := d.writeRead(cmd, 40, []byte{0xf8, 0x11, byte(commandDefaults)}, true, true)
	if err != nil {
		return nil, err
	}
	return result[8:], nil
}

// ReadCurrent reads one block of the current configuration using the
// same layout as the power-up defaults.
func (d *U3) ReadCurrent(blockNum int) ([]byte, error) {
	return d.ReadDefaults(blockNum, true)
}

// DefaultsConfig holds the decoded power-up defaults.
type DefaultsConfig struct {
	FIODirection byte `json:"fio_direction"`
	FIOState     byte `json:"fio_state"`
	FIOAnalog    byte `json:"fio_analog"`
	EIODirection byte `json:"eio_direction"`
	EIOState     byte `json:"eio_state"`
	EIOAnalog    byte `json:"eio_analog"`
	CIODirection byte `json:"cio_direction"`
	CIOState     byte `json:"cio_state"`

	NumberOfTimersEnabled byte `json:"num_timers_enabled"`
	CounterMask           byte `json:"counter_mask"`
	PinOffset             byte `json:"pin_offset"`
	Options               byte `json:"options"`

	ClockSource byte `json:"clock_source"`
	Divisor     byte `json:"divisor"`
	TMR0Mode    byte `json:"tmr0_mode"`
	TMR0ValueL  byte `json:"tmr0_value_l"`
	TMR0ValueH  byte `json:"tmr0_value_h"`
	TMR1Mode    byte `json:"tmr1_mode"`
	TMR1ValueL  byte `json:"tmr1_value_l"`
	TMR1ValueH  byte `json:"tmr1_value_h"`

	DAC0 uint16 `json:"dac0"`
	DAC1 uint16 `json:"dac1"`

	AINNegChannel [16]byte `json:"ain_neg_channel"`
}

// ReadDefaultsConfig reads the power-up defaults stored in flash and
// decodes them.
func (d *U3) ReadDefaultsConfig() (DefaultsConfig, error) {
	var config DefaultsConfig

	defaults, err := d.ReadDefaults(0, false)
	if err != nil {
		return config, err
	}
	config.FIODirection = defaults[4]
	config.FIOState = defaults[5]
	config.FIOAnalog = defaults[6]
	config.EIODirection = defaults[8]
	config.EIOState = defaults[9]
	config.EIOAnalog = defaults[10]
	config.CIODirection = defaults[12]
	config.CIOState = defaults[13]
	config.NumberOfTimersEnabled = defaults[17]
	config.CounterMask = defaults[18]
	config.PinOffset = defaults[19]
	config.Options = defaults[20]

	defaults, err = d.ReadDefaults(1, false)
	if err != nil {
		return config, err
	}
	config.ClockSource = defaults[0]
	config.Divisor = defaults[1]
	config.TMR0Mode = defaults[16]
	config.TMR0ValueL = defaults[17]
	config.TMR0ValueH = defaults[18]
	config.TMR1Mode = defaults[20]
	config.TMR1ValueL = defaults[21]
	config.TMR1ValueH = defaults[22]

	defaults, err = d.ReadDefaults(2, false)
	if err != nil {
		return config, err
	}
	// The DAC defaults are the only big endian values in the block.
	config.DAC0 = binary.BigEndian.Uint16(defaults[16:18])
	config.DAC1 = binary.BigEndian.Uint16(defaults[20:22])

	defaults, err = d.ReadDefaults(3, false)
	if err != nil {
		return config, err
	}
	copy(config.AINNegChannel[:], defaults[:16])

	return config, nil
}

// ReadCalibrationData reads the calibration constants from the
// calibration memory and stores them on the device for later
// conversions. The high-voltage blocks only exist on U3-HV hardware
// 1.30 and later, so an invalid block error there just means the
// constants aren't present.
func (d *U3) ReadCalibrationData() (*CalibrationData, error) {
	cal := &CalibrationData{}

	block, err := d.ReadCal(0)
	if err != nil {
		return nil, err
	}
	cal.LVSESlope = toDouble(block[0:8])
	cal.LVSEOffset = toDouble(block[8:16])
	cal.LVDiffSlope = toDouble(block[16:24])
	cal.LVDiffOffset = toDouble(block[24:32])

	block, err = d.ReadCal(1)
	if err != nil {
		return nil, err
	}
	cal.DAC0Slope = toDouble(block[0:8])
	cal.DAC0Offset = toDouble(block[8:16])
	cal.DAC1Slope = toDouble(block[16:24])
	cal.DAC1Offset = toDouble(block[24:32])

	block, err = d.ReadCal(2)
	if err != nil {
		return nil, err
	}
	cal.TempSlope = toDouble(block[0:8])
	cal.VRefAtCal = toDouble(block[8:16])
	cal.VRef15AtCal = toDouble(block[16:24])
	cal.VRegAtCal = toDouble(block[24:32])

	err = d.readHighVoltageCal(cal)
	if err != nil {
		return nil, err
	}

	d.CalData = cal
	return cal, nil
}

func (d *U3) readHighVoltageCal(cal *CalibrationData) error {
	block, err := d.ReadCal(3)
	if err != nil {
		if isInvalidBlock(err) {
			return nil
		}
		return err
	}
	for i := 0; i < 4; i++ {
		cal.HVAINSlope[i] = toDouble(block[8*i : 8*i+8])
	}

	block, err = d.ReadCal(4)
	if err != nil {
		if isInvalidBlock(err) {
			return nil
		}
		return err
	}
	for i := 0; i < 4; i++ {
		cal.HVAINOffset[i] = toDouble(block[8*i : 8*i+8])
	}
	cal.HasHighVoltage = true

	return nil
}

func isInvalidBlock(err error) bool {
	lowErr, ok := err.(ErrLowlevel)
	return ok && lowErr.Code == errCodeInvalidBlock
}
