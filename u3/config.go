// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"encoding/binary"
	"fmt"
)

// Byte returns a pointer to the given byte for use in an option
// struct.
func Byte(v byte) *byte { return &v }

// Int returns a pointer to the given int for use in an option struct.
func Int(v int) *int { return &v }

// Bool returns a pointer to the given bool for use in an option
// struct.
func Bool(v bool) *bool { return &v }

// Word returns a pointer to the given uint16 for use in an option
// struct.
func Word(v uint16) *uint16 { return &v }

// Timer clock bases selectable through ConfigTimerClock. The last
// four run the named frequency through the configured divisor.
const (
	TimerClockBase4MHz         = 0
	TimerClockBase12MHz        = 1
	TimerClockBase48MHz        = 2
	TimerClockBase1MHzDivisor  = 3
	TimerClockBase4MHzDivisor  = 4
	TimerClockBase12MHzDivisor = 5
	TimerClockBase48MHzDivisor = 6
)

// ConfigU3Options selects which device defaults a ConfigU3 command
// writes. Nil fields are left untouched on the device; the write mask
// sent to the device covers only the blocks with at least one field
// set.
type ConfigU3Options struct {
	LocalID              *byte
	TimerCounterConfig   *byte
	FIOAnalog            *byte
	FIODirection         *byte
	FIOState             *byte
	EIOAnalog            *byte
	EIODirection         *byte
	EIOState             *byte
	CIODirection         *byte
	CIOState             *byte
	DAC1Enable           *byte
	DAC0                 *byte
	DAC1                 *byte
	TimerClockConfig     *byte
	TimerClockDivisor    *byte
	CompatibilityOptions *byte
}

// HardwareConfig is the decoded response of a ConfigU3 command.
type HardwareConfig struct {
	FirmwareVersion      string
	BootloaderVersion    string
	HardwareVersion      string
	SerialNumber         uint32
	ProductID            uint16
	LocalID              byte
	TimerCounterMask     byte
	FIOAnalog            byte
	FIODirection         byte
	FIOState             byte
	EIOAnalog            byte
	EIODirection         byte
	EIOState             byte
	CIODirection         byte
	CIOState             byte
	DAC1Enable           byte
	DAC0                 byte
	DAC1                 byte
	TimerClockConfig     byte
	TimerClockDivisor    int
	CompatibilityOptions byte
	VersionInfo          byte
	DeviceName           string
}

// ConfigU3 sends the low-level ConfigU3 command, which writes the
// selected power-up defaults and reads back the device identity and
// configuration. The decoded response is also saved on the session,
// so d.SerialNumber, d.FirmwareVersion, and friends are usable
// afterward.
func (d *U3) ConfigU3(opts ConfigU3Options) (*HardwareConfig, error) {
	var writeMask byte
	if opts.FIOAnalog != nil || opts.FIODirection != nil || opts.FIOState != nil ||
		opts.EIOAnalog != nil || opts.EIODirection != nil || opts.EIOState != nil ||
		opts.CIODirection != nil || opts.CIOState != nil {
		writeMask |= 2
	}
	if opts.DAC1Enable != nil || opts.DAC0 != nil || opts.DAC1 != nil {
		writeMask |= 4
	}
	if opts.LocalID != nil {
		writeMask |= 8
	}
	if opts.TimerClockConfig != nil || opts.TimerClockDivisor != nil {
		writeMask |= 16
	}
	if opts.CompatibilityOptions != nil {
		writeMask |= 32
	}

	cmd := make([]byte, 26)
	cmd[1] = 0xf8
	cmd[2] = 0x0a
	cmd[3] = byte(commandConfigU3)
	cmd[6] = writeMask
	if opts.LocalID != nil {
		cmd[8] = *opts.LocalID
	}
	if opts.TimerCounterConfig != nil {
		cmd[9] = *opts.TimerCounterConfig
	}
	if opts.FIOAnalog != nil {
		cmd[10] = *opts.FIOAnalog
	}
	if opts.FIODirection != nil {
		cmd[11] = *opts.FIODirection
	}
	if opts.FIOState != nil {
		cmd[12] = *opts.FIOState
	}
	if opts.EIOAnalog != nil {
		cmd[13] = *opts.EIOAnalog
	}
	if opts.EIODirection != nil {
		cmd[14] = *opts.EIODirection
	}
	if opts.EIOState != nil {
		cmd[15] = *opts.EIOState
	}
	if opts.CIODirection != nil {
		cmd[16] = *opts.CIODirection
	}
	if opts.CIOState != nil {
		cmd[17] = *opts.CIOState
	}
	if opts.DAC1Enable != nil {
		cmd[18] = *opts.DAC1Enable
	}
	if opts.DAC0 != nil {
		cmd[19] = *opts.DAC0
	}
	if opts.DAC1 != nil {
		cmd[20] = *opts.DAC1
	}
	if opts.TimerClockConfig != nil {
		cmd[21] = *opts.TimerClockConfig
	}
	if opts.TimerClockDivisor != nil {
		cmd[22] = *opts.TimerClockDivisor
	}
	if opts.CompatibilityOptions != nil {
		cmd[23] = *opts.CompatibilityOptions
	}

	result, err := d.writeRead(cmd, 38, []byte{0xf8, 0x10, byte(commandConfigU3)}, true, true)
	if err != nil {
		return nil, err
	}

	config := HardwareConfig{
		FirmwareVersion:      fmt.Sprintf("%d.%02d", result[10], result[9]),
		BootloaderVersion:    fmt.Sprintf("%d.%02d", result[12], result[11]),
		HardwareVersion:      fmt.Sprintf("%d.%02d", result[14], result[13]),
		SerialNumber:         binary.LittleEndian.Uint32(result[15:19]),
		ProductID:            binary.LittleEndian.Uint16(result[19:21]),
		LocalID:              result[21],
		TimerCounterMask:     result[22],
		FIOAnalog:            result[23],
		FIODirection:         result[24],
		FIOState:             result[25],
		EIOAnalog:            result[26],
		EIODirection:         result[27],
		EIOState:             result[28],
		CIODirection:         result[29],
		CIOState:             result[30],
		DAC1Enable:           result[31],
		DAC0:                 result[32],
		DAC1:                 result[33],
		TimerClockConfig:     result[34],
		TimerClockDivisor:    int(result[35]),
		CompatibilityOptions: result[36],
		VersionInfo:          result[37],
	}
	if result[35] == 0 {
		config.TimerClockDivisor = 256
	}
	config.DeviceName = "U3"
	switch config.VersionInfo {
	case 1:
		config.DeviceName += "B"
	case 2:
		config.DeviceName += "-LV"
	case 18:
		config.DeviceName += "-HV"
	}

	d.FirmwareVersion = config.FirmwareVersion
	d.BootloaderVersion = config.BootloaderVersion
	d.HardwareVersion = config.HardwareVersion
	d.SerialNumber = config.SerialNumber
	d.ProductID = config.ProductID
	d.LocalID = config.LocalID
	d.TimerCounterMask = config.TimerCounterMask
	d.FIOAnalog = config.FIOAnalog
	d.FIODirection = config.FIODirection
	d.FIOState = config.FIOState
	d.EIOAnalog = config.EIOAnalog
	d.EIODirection = config.EIODirection
	d.EIOState = config.EIOState
	d.CIODirection = config.CIODirection
	d.CIOState = config.CIOState
	d.DAC1Enable = config.DAC1Enable
	d.DAC0 = config.DAC0
	d.DAC1 = config.DAC1
	d.TimerClockConfig = config.TimerClockConfig
	d.TimerClockDivisor = config.TimerClockDivisor
	d.CompatibilityOptions = config.CompatibilityOptions
	d.VersionInfo = config.VersionInfo
	d.DeviceName = config.DeviceName

	return &config, nil
}

// ConfigIOOptions selects which IO settings a ConfigIO command
// writes. Nil fields are left untouched on the device. Setting
// EnableCounter0 or EnableCounter1 enables or disables that counter
// according to the pointed-to value.
type ConfigIOOptions struct {
	TimerCounterPinOffset *int
	EnableCounter0        *bool
	EnableCounter1        *bool
	NumberOfTimersEnabled *int
	FIOAnalog             *byte
	EIOAnalog             *byte
	EnableUART            *bool
}

// IOConfig is the decoded response of a ConfigIO command.
type IOConfig struct {
	TimerCounterConfig    byte
	DAC1Enable            byte
	FIOAnalog             byte
	EIOAnalog             byte
	NumberOfTimersEnabled int
	EnableCounter0        bool
	EnableCounter1        bool
	TimerCounterPinOffset int
}

// ConfigIO sends the low-level ConfigIO command, which assigns lines
// to analog or digital and enables timers, counters, and the UART.
// The decoded response is also saved on the session.
func (d *U3) ConfigIO(opts ConfigIOOptions) (*IOConfig, error) {
	var writeMask byte
	if opts.EIOAnalog != nil {
		writeMask |= 1
		writeMask |= 8
	}
	if opts.FIOAnalog != nil {
		writeMask |= 1
		writeMask |= 4
	}
	if opts.EnableUART != nil {
		writeMask |= 1
		writeMask |= 1 << 5
	}
	if opts.TimerCounterPinOffset != nil || opts.EnableCounter1 != nil ||
		opts.EnableCounter0 != nil || opts.NumberOfTimersEnabled != nil {
		writeMask |= 1
	}

	cmd := make([]byte, 12)
	cmd[1] = 0xf8
	cmd[2] = 0x03
	cmd[3] = byte(commandConfigIO)
	cmd[6] = writeMask
	if opts.EnableUART != nil {
		cmd[9] = boolToByte(*opts.EnableUART) << 2
	}
	if opts.TimerCounterPinOffset == nil {
		cmd[8] |= (4 & 15) << 4
	} else {
		cmd[8] |= byte(*opts.TimerCounterPinOffset&15) << 4
	}
	if opts.EnableCounter1 != nil && *opts.EnableCounter1 {
		cmd[8] |= 1 << 3
	}
	if opts.EnableCounter0 != nil && *opts.EnableCounter0 {
		cmd[8] |= 1 << 2
	}
	if opts.NumberOfTimersEnabled != nil {
		cmd[8] |= byte(*opts.NumberOfTimersEnabled & 3)
	}
	if opts.FIOAnalog != nil {
		cmd[10] = *opts.FIOAnalog
	}
	if opts.EIOAnalog != nil {
		cmd[11] = *opts.EIOAnalog
	}

	result, err := d.writeRead(cmd, 12, []byte{0xf8, 0x03, byte(commandConfigIO)}, true, true)
	if err != nil {
		return nil, err
	}

	config := IOConfig{
		TimerCounterConfig:    result[8],
		DAC1Enable:            result[9],
		FIOAnalog:             result[10],
		EIOAnalog:             result[11],
		NumberOfTimersEnabled: int(result[8] & 3),
		EnableCounter0:        (result[8]>>2)&1 == 1,
		EnableCounter1:        (result[8]>>3)&1 == 1,
		TimerCounterPinOffset: int(result[8] >> 4),
	}

	d.TimerCounterConfig = config.TimerCounterConfig
	d.NumberOfTimersEnabled = config.NumberOfTimersEnabled
	d.EnableCounter0 = config.EnableCounter0
	d.EnableCounter1 = config.EnableCounter1
	d.TimerCounterPinOffset = config.TimerCounterPinOffset
	d.DAC1Enable = config.DAC1Enable
	d.FIOAnalog = config.FIOAnalog
	d.EIOAnalog = config.EIOAnalog

	return &config, nil
}

// TimerClockConfiguration is the decoded response of a
// ConfigTimerClock command.
type TimerClockConfiguration struct {
	TimerClockBase    int
	TimerClockDivisor int
}

// ConfigTimerClock writes and reads the timer clock configuration.
// The base and divisor must be set together; calling with only a
// divisor is an error. Calling with neither reads the current
// configuration.
func (d *U3) ConfigTimerClock(timerClockBase, timerClockDivisor *int) (*TimerClockConfiguration, error) {
	cmd := make([]byte, 10)
	cmd[1] = 0xf8
	cmd[2] = 0x02
	cmd[3] = byte(commandConfigTimerClock)
	if timerClockBase != nil {
		cmd[8] = 1<<7 | byte(*timerClockBase&7)
		if timerClockDivisor != nil {
			cmd[9] = byte(*timerClockDivisor)
		}
	} else if timerClockDivisor != nil {
		return nil, ErrInvalidParameter{
			Name:   "timer clock divisor",
			Reason: "can't set just the divisor, must set both",
		}
	}

	result, err := d.writeRead(cmd, 10, []byte{0xf8, 0x02, byte(commandConfigTimerClock)}, true, true)
	if err != nil {
		return nil, err
	}

	config := TimerClockConfiguration{
		TimerClockBase:    int(result[8] & 7),
		TimerClockDivisor: int(result[9]),
	}
	d.TimerClockBase = config.TimerClockBase
	d.TimerClockDivisor = config.TimerClockDivisor

	return &config, nil
}

// WatchdogOptions configures the hardware watchdog. TimeoutPeriod is
// in seconds. With OnlyRead set the current configuration is read
// without writing anything.
type WatchdogOptions struct {
	ResetOnTimeout       bool
	SetDIOStateOnTimeout bool
	TimeoutPeriod        uint16
	DIOState             byte
	DIONumber            byte
	OnlyRead             bool
}

// WatchdogConfig is the decoded response of a Watchdog command.
type WatchdogConfig struct {
	WatchdogEnabled      bool
	ResetOnTimeout       bool
	SetDIOStateOnTimeout bool
	TimeoutPeriod        uint16
	DIOState             byte
	DIONumber            byte
}

// Watchdog writes the watchdog configuration, or reads it back when
// OnlyRead is set. Requires hardware version 1.21 or greater.
func (d *U3) Watchdog(opts WatchdogOptions) (*WatchdogConfig, error) {
	cmd := make([]byte, 16)
	cmd[1] = 0xf8
	cmd[2] = 0x05
	cmd[3] = byte(commandWatchdog)
	if !opts.OnlyRead {
		cmd[6] = 1
	}
	if opts.ResetOnTimeout {
		cmd[7] |= 1 << 5
	}
	if opts.SetDIOStateOnTimeout {
		cmd[7] |= 1 << 4
	}
	binary.LittleEndian.PutUint16(cmd[8:10], opts.TimeoutPeriod)
	cmd[10] = (opts.DIOState&1)<<7 + opts.DIONumber&15

	result, err := d.writeRead(cmd, 16, []byte{0xf8, 0x05, byte(commandWatchdog)}, true, true)
	if err != nil {
		return nil, err
	}

	status := WatchdogConfig{
		TimeoutPeriod: binary.LittleEndian.Uint16(result[8:10]),
		DIOState:      (result[10] >> 7) & 1,
		DIONumber:     result[10] & 15,
	}
	if result[7] != 0 && result[7] != 255 {
		status.WatchdogEnabled = true
		status.ResetOnTimeout = (result[7]>>5)&1 == 1
		status.SetDIOStateOnTimeout = (result[7]>>4)&1 == 1
	}
	return &status, nil
}
