// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHighVoltageDifferential is returned when a differential analog
// conversion is requested on a high-voltage channel, which the U3-HV
// hardware does not support.
var ErrHighVoltageDifferential = errors.New("can't do differential readings on high-voltage channels")

// Stream state errors.
var (
	ErrStreamNotConfigured = errors.New("stream must be configured before it can be started")
	ErrStreamRunning       = errors.New("stream is already running")
	ErrStreamNotRunning    = errors.New("stream is not running")
)

// ErrInvalidParameter reports a value that failed validation before
// any packet was built or sent.
type ErrInvalidParameter struct {
	Name   string
	Reason string
}

func (e ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// ErrPacketTooLarge reports a feedback batch whose request packet, or
// whose expected response, would not fit in a single 64 byte transfer.
// It is returned before anything is written to the device.
type ErrPacketTooLarge struct {
	Len      int
	Response bool
}

func (e ErrPacketTooLarge) Error() string {
	what := "command"
	if e.Response {
		what = "response"
	}
	return fmt.Sprintf(
		"the feedback %s is %d bytes, which is bigger than the %d byte maximum; break the commands into separate calls to GetFeedback",
		what, e.Len, maxPacketLength)
}

// ErrBadChecksum reports that the device rejected our packet because
// its checksum did not verify on the device side.
type ErrBadChecksum struct{}

func (e ErrBadChecksum) Error() string {
	return "device detected a bad checksum"
}

// ErrChecksum reports a response whose checksum bytes do not match its
// contents.
type ErrChecksum struct{}

func (e ErrChecksum) Error() string {
	return "response checksum was incorrect"
}

// ErrIncorrectCommand reports a response that echoed different command
// bytes than the ones sent.
type ErrIncorrectCommand struct {
	Expected []byte
	Got      []byte
	Packet   []byte
}

func (e ErrIncorrectCommand) Error() string {
	return fmt.Sprintf("got incorrect command bytes: expected %s, got %s, full packet %s",
		hexDump(e.Expected), hexDump(e.Got), hexDump(e.Packet))
}

// ErrFraming reports a read or write that moved a different number of
// bytes than the packet layout requires.
type ErrFraming struct {
	Op   string
	Want int
	Got  int
}

func (e ErrFraming) Error() string {
	return fmt.Sprintf("could only %s %d of %d bytes", e.Op, e.Got, e.Want)
}

// ErrLowlevel reports a nonzero error code in a device response. For
// feedback batches Command holds the string form of the command the
// device blamed.
type ErrLowlevel struct {
	Code    byte
	Device  string
	Command string
}

func (e ErrLowlevel) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("the command %s returned an error: %s", e.Command, LowlevelErrorString(e.Code))
	}
	device := e.Device
	if device == "" {
		device = "LabJack"
	}
	return fmt.Sprintf("the %s returned an error: %s", device, LowlevelErrorString(e.Code))
}

// Error codes the driver itself reacts to.
const (
	errCodeInvalidBlock      byte = 26
	errCodeAutoRecoverActive byte = 59
	errCodeAutoRecoverReport byte = 60
)

type lowlevelError struct {
	name   string
	advice string
}

var lowlevelErrors = map[byte]lowlevelError{
	1:   {"SCRATCH_WRT_FAIL", ""},
	2:   {"SCRATCH_ERASE_FAIL", ""},
	3:   {"DATA_BUFFER_OVERFLOW", ""},
	4:   {"ADC0_BUFFER_OVERFLOW", ""},
	5:   {"FUNCTION_INVALID", ""},
	6:   {"SWDT_TIME_INVALID", "This error is caused when an invalid time was passed to the watchdog."},
	7:   {"XBR_CONFIG_ERROR", ""},
	16:  {"FLASH_WRITE_FAIL", "For some reason, the LabJack was unable to write the specified page of its internal flash."},
	17:  {"FLASH_ERASE_FAIL", "For some reason, the LabJack was unable to erase the specified page of its internal flash."},
	18:  {"FLASH_JMP_FAIL", "For some reason, the LabJack was unable to jump to a different section of flash. This may be an indication the flash is corrupted."},
	19:  {"FLASH_PSP_TIMEOUT", ""},
	20:  {"FLASH_ABORT_RECEIVED", ""},
	21:  {"FLASH_PAGE_MISMATCH", ""},
	22:  {"FLASH_BLOCK_MISMATCH", ""},
	23:  {"FLASH_PAGE_NOT_IN_CODE_AREA", "Usually, this error is raised when you try to write new firmware before upgrading the bootloader."},
	24:  {"MEM_ILLEGAL_ADDRESS", ""},
	25:  {"FLASH_LOCKED", "Tried to write to flash before unlocking it."},
	26:  {"INVALID_BLOCK", ""},
	27:  {"FLASH_ILLEGAL_PAGE", ""},
	28:  {"FLASH_TOO_MANY_BYTES", ""},
	29:  {"FLASH_INVALID_STRING_NUM", ""},
	40:  {"SHT1x_COMM_TIME_OUT", "LabJack never received the ACK it was expecting from the SHT. This is usually due to incorrect wiring. Double check that all wires are securely connected to the correct pins."},
	41:  {"SHT1x_NO_ACK", ""},
	42:  {"SHT1x_CRC_FAILED", ""},
	43:  {"SHT1x_TOO_MANY_W_BYTES", ""},
	44:  {"SHT1x_TOO_MANY_R_BYTES", ""},
	45:  {"SHT1x_INVALID_MODE", ""},
	46:  {"SHT1x_INVALID_LINE", ""},
	48:  {"STREAM_IS_ACTIVE", "This error is raised when you call StreamStart after the stream has already been started."},
	49:  {"STREAM_TABLE_INVALID", ""},
	50:  {"STREAM_CONFIG_INVALID", ""},
	52:  {"STREAM_NOT_RUNNING", "This error is raised when you call StopStream after the stream has already been stopped."},
	53:  {"STREAM_INVALID_TRIGGER", ""},
	54:  {"STREAM_ADC0_BUFFER_OVERFLOW", ""},
	55:  {"STREAM_SCAN_OVERLAP", "This error is raised when a scan interrupt is fired before the LabJack has completed the previous scan. The most common cause of this error is a configuration with a high sampling rate and a large number of channels."},
	56:  {"STREAM_SAMPLE_NUM_INVALID", ""},
	57:  {"STREAM_BIPOLAR_GAIN_INVALID", ""},
	58:  {"STREAM_SCAN_RATE_INVALID", ""},
	59:  {"STREAM_AUTORECOVER_ACTIVE", "This error is to inform you that the autorecover feature has been activated. Autorecovery is usually triggered by not reading data fast enough from the LabJack."},
	60:  {"STREAM_AUTORECOVER_REPORT", "This error marks the packet as an autorecovery report packet which contains how many packets were lost."},
	63:  {"STREAM_AUTORECOVER_OVERFLOW", ""},
	64:  {"TIMER_INVALID_MODE", ""},
	65:  {"TIMER_QUADRATURE_AB_ERROR", ""},
	66:  {"TIMER_QUAD_PULSE_SEQUENCE", ""},
	67:  {"TIMER_BAD_CLOCK_SOURCE", ""},
	68:  {"TIMER_STREAM_ACTIVE", ""},
	69:  {"TIMER_PWMSTOP_MODULE_ERROR", ""},
	70:  {"TIMER_SEQUENCE_ERROR", ""},
	71:  {"TIMER_LINE_SEQUENCE_ERROR", ""},
	72:  {"TIMER_SHARING_ERROR", ""},
	80:  {"EXT_OSC_NOT_STABLE", ""},
	81:  {"INVALID_POWER_SETTING", ""},
	82:  {"PLL_NOT_LOCKED", ""},
	96:  {"INVALID_PIN", ""},
	97:  {"PIN_CONFIGURED_FOR_ANALOG", "This error is raised when you try to do a digital operation on a pin that's configured for analog. Use a command like ConfigIO to set the pin to digital."},
	98:  {"PIN_CONFIGURED_FOR_DIGITAL", "This error is raised when you try to do an analog operation on a pin which is configured for digital. Use a command like ConfigIO to set the pin to analog."},
	99:  {"IOTYPE_SYNCH_ERROR", ""},
	100: {"INVALID_OFFSET", ""},
	101: {"IOTYPE_NOT_VALID", ""},
	102: {"TC_PIN_OFFSET_MUST_BE_4-8", "This error is raised when you try to configure the Timer/Counter pin offset to be 0-3."},
}

// LowlevelErrorString converts a device error code into its symbolic
// name plus a line of advice when one is known.
func LowlevelErrorString(code byte) string {
	e, ok := lowlevelErrors[code]
	if !ok {
		return fmt.Sprintf("UNKNOWN_ERROR (%d)\nUnrecognized error code (%d)", code, code)
	}
	if e.advice == "" {
		return fmt.Sprintf("%s (%d)", e.name, code)
	}
	return fmt.Sprintf("%s (%d)\n%s", e.name, code, e.advice)
}

// hexDump renders a byte slice as a list of 0x-prefixed bytes for
// diagnostics.
func hexDump(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%#x", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
