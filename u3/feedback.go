// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"encoding/binary"
	"fmt"
)

// IOType codes for the feedback commands.
const (
	ioTypeAIN            byte = 1
	ioTypeWaitShort      byte = 5
	ioTypeWaitLong       byte = 6
	ioTypeLED            byte = 9
	ioTypeBitStateRead   byte = 10
	ioTypeBitStateWrite  byte = 11
	ioTypeBitDirRead     byte = 12
	ioTypeBitDirWrite    byte = 13
	ioTypePortStateRead  byte = 26
	ioTypePortStateWrite byte = 27
	ioTypePortDirRead    byte = 28
	ioTypePortDirWrite   byte = 29
	ioTypeDAC8           byte = 34
	ioTypeDAC16          byte = 38
	ioTypeTimer          byte = 42
	ioTypeTimerConfig    byte = 43
	ioTypeCounter        byte = 54
)

// TimerMode selects one of the U3 timer modes. The mode is written
// with a TimerConfig command and determines how a Timer reading is
// decoded.
type TimerMode int

// Timer modes supported by the U3. See section 2.9 of the U3 user's
// guide for what each mode does.
const (
	TimerModeNone                    TimerMode = -1
	TimerModePWM16                   TimerMode = 0
	TimerModePWM8                    TimerMode = 1
	TimerModeRisingEdges32           TimerMode = 2
	TimerModeFallingEdges32          TimerMode = 3
	TimerModeDutyCycle               TimerMode = 4
	TimerModeFirmwareCounter         TimerMode = 5
	TimerModeFirmwareCounterDebounce TimerMode = 6
	TimerModeFrequencyOutput         TimerMode = 7
	TimerModeQuadrature              TimerMode = 8
	TimerModeTimerStop               TimerMode = 9
	TimerModeSystemTimerLow          TimerMode = 10
	TimerModeSystemTimerHigh         TimerMode = 11
	TimerModeRisingEdges16           TimerMode = 12
	TimerModeFallingEdges16          TimerMode = 13
	TimerModeLineToLine              TimerMode = 14
)

// FeedbackCommand is a single low-level IO operation that rides in a
// Feedback packet. CommandBytes returns the bytes the command
// contributes to the request, ResponseLen the number of response
// bytes it consumes, and Decode the reading taken from exactly that
// many bytes (nil for commands that return no data).
type FeedbackCommand interface {
	fmt.Stringer
	CommandBytes() []byte
	ResponseLen() int
	Decode(buf []byte) interface{}
}

// writeOnly supplies the response handling shared by feedback commands
// that return no data.
type writeOnly struct{}

func (writeOnly) ResponseLen() int          { return 0 }
func (writeOnly) Decode([]byte) interface{} { return nil }

// CommandList groups feedback commands so that a prepared sequence can
// be handed to GetFeedback next to individual commands. The batch
// engine flattens lists, recursively, before building the packet, so
// the members serialize and decode exactly as if they had been passed
// one by one.
type CommandList []FeedbackCommand

// CommandBytes concatenates the bytes of every member in order.
func (l CommandList) CommandBytes() []byte {
	var b []byte
	for _, cmd := range l {
		b = append(b, cmd.CommandBytes()...)
	}
	return b
}

// ResponseLen sums the response bytes of every member.
func (l CommandList) ResponseLen() int {
	n := 0
	for _, cmd := range l {
		n += cmd.ResponseLen()
	}
	return n
}

// Decode returns nil; members decode individually once the batch
// engine has flattened the list.
func (l CommandList) Decode([]byte) interface{} { return nil }

func (l CommandList) String() string {
	return fmt.Sprintf("CommandList(%d commands)", len(l))
}

// flattenCommands expands nested CommandLists into one ordered slice.
func flattenCommands(cmds []FeedbackCommand) []FeedbackCommand {
	flat := make([]FeedbackCommand, 0, len(cmds))
	for _, cmd := range cmds {
		if list, ok := cmd.(CommandList); ok {
			flat = append(flat, flattenCommands(list)...)
			continue
		}
		flat = append(flat, cmd)
	}
	return flat
}

func validAnalogChannel(ch int) bool {
	return (ch >= 0 && ch <= 15) || ch == 30 || ch == 31
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Ports holds one byte per digital port: the flexible FIO lines, the
// EIO lines on the DB15 connector, and the CIO lines.
type Ports struct {
	FIO byte
	EIO byte
	CIO byte
}

// AllLines is the write mask that selects every line of all three
// ports.
var AllLines = Ports{FIO: 0xff, EIO: 0xff, CIO: 0xff}

// AIN reads one analog input. The decoded result is the raw 16-bit
// value; use BinaryToCalibratedAnalogVoltage to convert it to volts.
// Channels 0-15 address AIN0-AIN15, channel 30 is the internal
// temperature sensor, and channel 31 is Vref. A negative channel of
// 31 gives a single-ended reading.
type AIN struct {
	PositiveChannel int
	NegativeChannel int
	LongSettling    bool
	QuickSample     bool
}

// NewAIN prepares an analog input read of the given channel pair.
func NewAIN(positiveChannel, negativeChannel int, longSettling, quickSample bool) (*AIN, error) {
	if !validAnalogChannel(positiveChannel) {
		return nil, ErrInvalidParameter{Name: "positive channel", Reason: "must be 0-15, 30, or 31"}
	}
	if !validAnalogChannel(negativeChannel) {
		return nil, ErrInvalidParameter{Name: "negative channel", Reason: "must be 0-15, 30, or 31"}
	}
	return &AIN{
		PositiveChannel: positiveChannel,
		NegativeChannel: negativeChannel,
		LongSettling:    longSettling,
		QuickSample:     quickSample,
	}, nil
}

func (c *AIN) CommandBytes() []byte {
	b := byte(c.PositiveChannel)
	b |= boolToByte(c.LongSettling) << 6
	b |= boolToByte(c.QuickSample) << 7
	return []byte{ioTypeAIN, b, byte(c.NegativeChannel)}
}

func (c *AIN) ResponseLen() int { return 2 }

func (c *AIN) Decode(buf []byte) interface{} {
	return binary.LittleEndian.Uint16(buf)
}

func (c *AIN) String() string {
	return fmt.Sprintf("AIN(positiveChannel=%d, negativeChannel=%d, longSettling=%t, quickSample=%t)",
		c.PositiveChannel, c.NegativeChannel, c.LongSettling, c.QuickSample)
}

// WaitShort delays the rest of the feedback batch by Time counts of
// 128 microseconds each.
type WaitShort struct {
	writeOnly
	Time byte
}

// NewWaitShort prepares a short delay of time x 128 us.
func NewWaitShort(time byte) *WaitShort {
	return &WaitShort{Time: time}
}

func (c *WaitShort) CommandBytes() []byte {
	return []byte{ioTypeWaitShort, c.Time}
}

func (c *WaitShort) String() string {
	return fmt.Sprintf("WaitShort(time=%d)", c.Time)
}

// WaitLong delays the rest of the feedback batch by Time counts of
// 32 milliseconds each.
type WaitLong struct {
	writeOnly
	Time byte
}

// NewWaitLong prepares a long delay of time x 32 ms.
func NewWaitLong(time byte) *WaitLong {
	return &WaitLong{Time: time}
}

func (c *WaitLong) CommandBytes() []byte {
	return []byte{ioTypeWaitLong, c.Time}
}

func (c *WaitLong) String() string {
	return fmt.Sprintf("WaitLong(time=%d)", c.Time)
}

// LED turns the status LED on or off.
type LED struct {
	writeOnly
	State bool
}

// NewLED prepares an LED state change.
func NewLED(state bool) *LED {
	return &LED{State: state}
}

func (c *LED) CommandBytes() []byte {
	return []byte{ioTypeLED, boolToByte(c.State)}
}

func (c *LED) String() string {
	return fmt.Sprintf("LED(state=%t)", c.State)
}

// BitStateRead reads the state of one digital line. IONumbers 0-7 are
// FIO, 8-15 are EIO, and 16-19 are CIO. Decodes to a byte that is 1
// when the line is high.
type BitStateRead struct {
	IONumber int
}

// NewBitStateRead prepares a read of the given digital line.
func NewBitStateRead(ioNumber int) *BitStateRead {
	return &BitStateRead{IONumber: ioNumber}
}

func (c *BitStateRead) CommandBytes() []byte {
	return []byte{ioTypeBitStateRead, byte(c.IONumber % 20)}
}

func (c *BitStateRead) ResponseLen() int { return 1 }

func (c *BitStateRead) Decode(buf []byte) interface{} {
	return buf[0]
}

func (c *BitStateRead) String() string {
	return fmt.Sprintf("BitStateRead(ioNumber=%d)", c.IONumber)
}

// BitStateWrite sets the state of one digital line.
type BitStateWrite struct {
	writeOnly
	IONumber int
	State    bool
}

// NewBitStateWrite prepares a write of the given digital line, driving
// it high when state is true.
func NewBitStateWrite(ioNumber int, state bool) *BitStateWrite {
	return &BitStateWrite{IONumber: ioNumber, State: state}
}

func (c *BitStateWrite) CommandBytes() []byte {
	return []byte{ioTypeBitStateWrite, byte(c.IONumber%20) | boolToByte(c.State)<<7}
}

func (c *BitStateWrite) String() string {
	return fmt.Sprintf("BitStateWrite(ioNumber=%d, state=%t)", c.IONumber, c.State)
}

// BitDirRead reads the direction of one digital line. Decodes to a
// byte that is 1 for output.
type BitDirRead struct {
	IONumber int
}

// NewBitDirRead prepares a direction read of the given digital line.
func NewBitDirRead(ioNumber int) *BitDirRead {
	return &BitDirRead{IONumber: ioNumber}
}

func (c *BitDirRead) CommandBytes() []byte {
	return []byte{ioTypeBitDirRead, byte(c.IONumber % 20)}
}

func (c *BitDirRead) ResponseLen() int { return 1 }

func (c *BitDirRead) Decode(buf []byte) interface{} {
	return buf[0]
}

func (c *BitDirRead) String() string {
	return fmt.Sprintf("BitDirRead(ioNumber=%d)", c.IONumber)
}

// BitDirWrite sets the direction of one digital line.
type BitDirWrite struct {
	writeOnly
	IONumber int
	Output   bool
}

// NewBitDirWrite prepares a direction write of the given digital
// line, making it an output when output is true.
func NewBitDirWrite(ioNumber int, output bool) *BitDirWrite {
	return &BitDirWrite{IONumber: ioNumber, Output: output}
}

func (c *BitDirWrite) CommandBytes() []byte {
	return []byte{ioTypeBitDirWrite, byte(c.IONumber%20) | boolToByte(c.Output)<<7}
}

func (c *BitDirWrite) String() string {
	return fmt.Sprintf("BitDirWrite(ioNumber=%d, output=%t)", c.IONumber, c.Output)
}

// PortStateRead reads the state of all digital lines at once, decoding
// to a Ports value.
type PortStateRead struct{}

// NewPortStateRead prepares a read of all three digital ports.
func NewPortStateRead() *PortStateRead {
	return &PortStateRead{}
}

func (c *PortStateRead) CommandBytes() []byte {
	return []byte{ioTypePortStateRead}
}

func (c *PortStateRead) ResponseLen() int { return 3 }

func (c *PortStateRead) Decode(buf []byte) interface{} {
	return Ports{FIO: buf[0], EIO: buf[1], CIO: buf[2]}
}

func (c *PortStateRead) String() string {
	return "PortStateRead()"
}

// PortStateWrite sets the state of the digital lines selected by the
// write mask.
type PortStateWrite struct {
	writeOnly
	State     Ports
	WriteMask Ports
}

// NewPortStateWrite prepares a state write of every digital line.
func NewPortStateWrite(state Ports) *PortStateWrite {
	return &PortStateWrite{State: state, WriteMask: AllLines}
}

// NewPortStateWriteMasked prepares a state write of only the lines
// selected by writeMask.
func NewPortStateWriteMasked(state, writeMask Ports) *PortStateWrite {
	return &PortStateWrite{State: state, WriteMask: writeMask}
}

func (c *PortStateWrite) CommandBytes() []byte {
	return []byte{ioTypePortStateWrite,
		c.WriteMask.FIO, c.WriteMask.EIO, c.WriteMask.CIO,
		c.State.FIO, c.State.EIO, c.State.CIO}
}

func (c *PortStateWrite) String() string {
	return fmt.Sprintf("PortStateWrite(state=%+v, writeMask=%+v)", c.State, c.WriteMask)
}

// PortDirRead reads the direction of all digital lines at once,
// decoding to a Ports value where 1 bits are outputs.
type PortDirRead struct{}

// NewPortDirRead prepares a direction read of all three digital ports.
func NewPortDirRead() *PortDirRead {
	return &PortDirRead{}
}

func (c *PortDirRead) CommandBytes() []byte {
	return []byte{ioTypePortDirRead}
}

func (c *PortDirRead) ResponseLen() int { return 3 }

func (c *PortDirRead) Decode(buf []byte) interface{} {
	return Ports{FIO: buf[0], EIO: buf[1], CIO: buf[2]}
}

func (c *PortDirRead) String() string {
	return "PortDirRead()"
}

// PortDirWrite sets the direction of the digital lines selected by
// the write mask.
type PortDirWrite struct {
	writeOnly
	Direction Ports
	WriteMask Ports
}

// NewPortDirWrite prepares a direction write of every digital line.
func NewPortDirWrite(direction Ports) *PortDirWrite {
	return &PortDirWrite{Direction: direction, WriteMask: AllLines}
}

// NewPortDirWriteMasked prepares a direction write of only the lines
// selected by writeMask.
func NewPortDirWriteMasked(direction, writeMask Ports) *PortDirWrite {
	return &PortDirWrite{Direction: direction, WriteMask: writeMask}
}

func (c *PortDirWrite) CommandBytes() []byte {
	return []byte{ioTypePortDirWrite,
		c.WriteMask.FIO, c.WriteMask.EIO, c.WriteMask.CIO,
		c.Direction.FIO, c.Direction.EIO, c.Direction.CIO}
}

func (c *PortDirWrite) String() string {
	return fmt.Sprintf("PortDirWrite(direction=%+v, writeMask=%+v)", c.Direction, c.WriteMask)
}

// DAC8 sets an analog output from an 8-bit value.
type DAC8 struct {
	writeOnly
	Dac   int
	Value byte
}

// NewDAC8 prepares an 8-bit update of DAC0 or DAC1.
func NewDAC8(dac int, value byte) *DAC8 {
	return &DAC8{Dac: dac, Value: value}
}

// NewDAC0_8 prepares an 8-bit update of DAC0.
func NewDAC0_8(value byte) *DAC8 { return NewDAC8(0, value) }

// NewDAC1_8 prepares an 8-bit update of DAC1.
func NewDAC1_8(value byte) *DAC8 { return NewDAC8(1, value) }

func (c *DAC8) CommandBytes() []byte {
	return []byte{ioTypeDAC8 + byte(c.Dac%2), c.Value}
}

func (c *DAC8) String() string {
	return fmt.Sprintf("DAC8(dac=%d, value=%d)", c.Dac, c.Value)
}

// DAC16 sets an analog output from a 16-bit value.
type DAC16 struct {
	writeOnly
	Dac   int
	Value uint16
}

// NewDAC16 prepares a 16-bit update of DAC0 or DAC1.
func NewDAC16(dac int, value uint16) *DAC16 {
	return &DAC16{Dac: dac, Value: value}
}

// NewDAC0_16 prepares a 16-bit update of DAC0.
func NewDAC0_16(value uint16) *DAC16 { return NewDAC16(0, value) }

// NewDAC1_16 prepares a 16-bit update of DAC1.
func NewDAC1_16(value uint16) *DAC16 { return NewDAC16(1, value) }

func (c *DAC16) CommandBytes() []byte {
	return []byte{ioTypeDAC16 + byte(c.Dac%2), byte(c.Value & 0xff), byte(c.Value >> 8)}
}

func (c *DAC16) String() string {
	return fmt.Sprintf("DAC16(dac=%d, value=%d)", c.Dac, c.Value)
}

// TimerStopReading is the decoded value of a timer in stop input mode:
// the current edge count and the stop value it counts toward.
type TimerStopReading struct {
	Count     uint16
	StopValue uint16
}

// Timer reads, and optionally updates, one of the two timers. Mode
// should match the mode the timer was configured with, since it
// selects the decode: quadrature readings are signed 32-bit counts,
// stop input readings are a TimerStopReading, and everything else is
// an unsigned 32-bit value.
type Timer struct {
	Timer       int
	UpdateReset bool
	Value       uint16
	Mode        TimerMode
}

// NewTimer prepares a read of timer 0 or 1. When updateReset is set,
// value is written to the timer as part of the read.
func NewTimer(timer int, updateReset bool, value uint16, mode TimerMode) (*Timer, error) {
	if timer != 0 && timer != 1 {
		return nil, ErrInvalidParameter{Name: "timer", Reason: "should be either 0 or 1"}
	}
	return &Timer{Timer: timer, UpdateReset: updateReset, Value: value, Mode: mode}, nil
}

// NewTimer0 prepares a read of timer 0.
func NewTimer0(updateReset bool, value uint16, mode TimerMode) *Timer {
	return &Timer{Timer: 0, UpdateReset: updateReset, Value: value, Mode: mode}
}

// NewTimer1 prepares a read of timer 1.
func NewTimer1(updateReset bool, value uint16, mode TimerMode) *Timer {
	return &Timer{Timer: 1, UpdateReset: updateReset, Value: value, Mode: mode}
}

// NewQuadratureInputTimer prepares a read of timer 0 in quadrature
// input mode, decoding the signed 32-bit count.
func NewQuadratureInputTimer(updateReset bool, value uint16) *Timer {
	return &Timer{Timer: 0, UpdateReset: updateReset, Value: value, Mode: TimerModeQuadrature}
}

// NewTimerStopInput1 prepares a read of timer 1 in timer stop mode,
// decoding the edge count and stop value pair.
func NewTimerStopInput1(updateReset bool, value uint16) *Timer {
	return &Timer{Timer: 1, UpdateReset: updateReset, Value: value, Mode: TimerModeTimerStop}
}

func (c *Timer) CommandBytes() []byte {
	return []byte{ioTypeTimer + byte(2*c.Timer), boolToByte(c.UpdateReset),
		byte(c.Value & 0xff), byte(c.Value >> 8)}
}

func (c *Timer) ResponseLen() int { return 4 }

func (c *Timer) Decode(buf []byte) interface{} {
	switch c.Mode {
	case TimerModeQuadrature:
		return int32(binary.LittleEndian.Uint32(buf))
	case TimerModeTimerStop:
		return TimerStopReading{
			Count:     binary.LittleEndian.Uint16(buf[2:]),
			StopValue: binary.LittleEndian.Uint16(buf[:2]),
		}
	default:
		return binary.LittleEndian.Uint32(buf)
	}
}

func (c *Timer) String() string {
	return fmt.Sprintf("Timer(timer=%d, updateReset=%t, value=%d, mode=%d)",
		c.Timer, c.UpdateReset, c.Value, c.Mode)
}

// TimerConfig sets the mode and initial value of one of the two
// timers.
type TimerConfig struct {
	writeOnly
	Timer int
	Mode  TimerMode
	Value uint16
}

// NewTimerConfig prepares a mode change of timer 0 or 1.
func NewTimerConfig(timer int, mode TimerMode, value uint16) (*TimerConfig, error) {
	if timer != 0 && timer != 1 {
		return nil, ErrInvalidParameter{Name: "timer", Reason: "should be either 0 or 1"}
	}
	if mode < 0 || mode > 14 {
		return nil, ErrInvalidParameter{Name: "timer mode", Reason: "must be 0-14"}
	}
	return &TimerConfig{Timer: timer, Mode: mode, Value: value}, nil
}

func (c *TimerConfig) CommandBytes() []byte {
	return []byte{ioTypeTimerConfig + byte(2*c.Timer), byte(c.Mode),
		byte(c.Value & 0xff), byte(c.Value >> 8)}
}

func (c *TimerConfig) String() string {
	return fmt.Sprintf("TimerConfig(timer=%d, mode=%d, value=%d)", c.Timer, c.Mode, c.Value)
}

// Counter reads one of the two hardware counters, decoding the
// unsigned 32-bit count. When Reset is set the counter is cleared
// after the read, so the returned value is the count just before the
// reset.
type Counter struct {
	Counter int
	Reset   bool
}

// NewCounter prepares a read of counter 0 or 1.
func NewCounter(counter int, reset bool) *Counter {
	return &Counter{Counter: counter, Reset: reset}
}

// NewCounter0 prepares a read of counter 0.
func NewCounter0(reset bool) *Counter { return NewCounter(0, reset) }

// NewCounter1 prepares a read of counter 1.
func NewCounter1(reset bool) *Counter { return NewCounter(1, reset) }

func (c *Counter) CommandBytes() []byte {
	return []byte{ioTypeCounter + byte(c.Counter%2), boolToByte(c.Reset)}
}

func (c *Counter) ResponseLen() int { return 4 }

func (c *Counter) Decode(buf []byte) interface{} {
	return binary.LittleEndian.Uint32(buf)
}

func (c *Counter) String() string {
	return fmt.Sprintf("Counter(counter=%d, reset=%t)", c.Counter, c.Reset)
}

// GetFeedback sends the given feedback commands to the device in a
// single Feedback packet and returns one decoded result per command,
// in order. Commands that return no data contribute a nil result.
// CommandList arguments are flattened first, so their members produce
// individual results.
//
// Batches are limited by the 64 byte packet size in both directions;
// oversized batches are rejected before anything is sent.
func (d *U3) GetFeedback(cmds ...FeedbackCommand) ([]interface{}, error) {
	flat := flattenCommands(cmds)

	sendBuffer := make([]byte, 7, 7+3*len(flat))
	sendBuffer[1] = 0xf8
	readLen := 9
	for _, cmd := range flat {
		sendBuffer = append(sendBuffer, cmd.CommandBytes()...)
		readLen += cmd.ResponseLen()
	}
	if len(sendBuffer)%2 != 0 {
		sendBuffer = append(sendBuffer, 0)
	}
	sendBuffer[2] = byte(len(sendBuffer)/2 - 3)
	if readLen%2 != 0 {
		readLen++
	}

	if len(sendBuffer) > maxPacketLength {
		return nil, ErrPacketTooLarge{Len: len(sendBuffer)}
	}
	if readLen > maxPacketLength {
		return nil, ErrPacketTooLarge{Len: readLen, Response: true}
	}

	rcv, err := d.writeRead(sendBuffer, readLen, nil, false, true)
	if err != nil {
		return nil, err
	}
	if err := d.checkResponse(rcv, []byte{0xf8}); err != nil {
		if lowErr, ok := err.(ErrLowlevel); ok {
			if i := int(rcv[7]) - 1; i >= 0 && i < len(flat) {
				lowErr.Command = flat[i].String()
			}
			return nil, lowErr
		}
		return nil, err
	}
	if rcv[3] != 0x00 {
		return nil, ErrIncorrectCommand{Expected: []byte{0x00}, Got: []byte{rcv[3]}, Packet: rcv}
	}

	results := make([]interface{}, 0, len(flat))
	i := 9
	for _, cmd := range flat {
		n := cmd.ResponseLen()
		results = append(results, cmd.Decode(rcv[i:i+n]))
		i += n
	}
	return results, nil
}
