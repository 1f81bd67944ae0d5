// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"encoding/binary"
)

// SPIMode selects the clock polarity and phase for SPI transfers.
type SPIMode byte

// The four SPI modes. Mode A is CPOL=0 CPHA=0, B is CPOL=0 CPHA=1,
// C is CPOL=1 CPHA=0, and D is CPOL=1 CPHA=1.
const (
	SPIModeA SPIMode = 0
	SPIModeB SPIMode = 1
	SPIModeC SPIMode = 2
	SPIModeD SPIMode = 3
)

// SPIOptions adjusts an SPI transfer. The zero value uses mode A with
// automatic chip select on FIO4 and the clock, MISO, and MOSI lines on
// FIO5, FIO6, and FIO7.
type SPIOptions struct {
	AutoCS           *bool   `json:"auto_cs,omitempty"`
	DisableDirConfig bool    `json:"disable_dir_config,omitempty"`
	Mode             SPIMode `json:"mode,omitempty"`
	ClockFactor      byte    `json:"clock_factor,omitempty"`
	CSPin            *int    `json:"cs_pin,omitempty"`
	CLKPin           *int    `json:"clk_pin,omitempty"`
	MISOPin          *int    `json:"miso_pin,omitempty"`
	MOSIPin          *int    `json:"mosi_pin,omitempty"`
}

// SPI sends and receives serial data using SPI synchronous
// communication. One byte is received for every byte sent. See section
// 5.2.15 of the U3 user's guide. Requires U3 hardware version 1.21 or
// greater.
func (d *U3) SPI(data []byte, opts SPIOptions) ([]byte, error) {
	autoCS := true
	if opts.AutoCS != nil {
		autoCS = *opts.AutoCS
	}
	csPin, clkPin, misoPin, mosiPin := 4, 5, 6, 7
	if opts.CSPin != nil {
		csPin = *opts.CSPin
	}
	if opts.CLKPin != nil {
		clkPin = *opts.CLKPin
	}
	if opts.MISOPin != nil {
		misoPin = *opts.MISOPin
	}
	if opts.MOSIPin != nil {
		mosiPin = *opts.MOSIPin
	}

	trueLen := len(data)
	padded := padToEven(data)
	numBytes := len(padded)

	cmd := make([]byte, 14+numBytes)
	cmd[1] = 0xf8
	cmd[2] = byte(4 + numBytes/2)
	cmd[3] = byte(commandSPI)
	cmd[6] = boolToByte(autoCS)<<7 | boolToByte(opts.DisableDirConfig)<<6 | byte(opts.Mode&3)
	cmd[7] = opts.ClockFactor
	cmd[9] = byte(csPin)
	cmd[10] = byte(clkPin)
	cmd[11] = byte(misoPin)
	cmd[12] = byte(mosiPin)
	cmd[13] = byte(trueLen)
	copy(cmd[14:], padded)

	echo := []byte{0xf8, byte(1 + numBytes/2), byte(commandSPI)}
	result, err := d.writeRead(cmd, 8+numBytes, echo, true, true)
	if err != nil {
		return nil, err
	}
	return result[8 : 8+trueLen], nil
}

// I2COptions adjusts an I2C transfer. The zero value clocks at the
// default speed with SDA on FIO6 and SCL on FIO7.
type I2COptions struct {
	ResetAtStart          bool  `json:"reset_at_start,omitempty"`
	NoStopWhenRestarting  bool  `json:"no_stop_when_restarting,omitempty"`
	EnableClockStretching bool  `json:"enable_clock_stretching,omitempty"`
	SpeedAdjust           byte  `json:"speed_adjust,omitempty"`
	SDAPin                *int  `json:"sda_pin,omitempty"`
	SCLPin                *int  `json:"scl_pin,omitempty"`
	NumBytesToReceive     int   `json:"num_bytes_to_receive,omitempty"`
	// AddressByte is placed in the packet unshifted, overriding the
	// address argument, for sensors that document the already-shifted
	// byte.
	AddressByte *byte `json:"address_byte,omitempty"`
}

// I2CResult holds the acks and data returned by an I2C transfer.
type I2CResult struct {
	// AckArray holds the raw ack bits. Each sent byte acks in turn,
	// starting with the address byte at bit 0.
	AckArray []byte
	// Received holds the bytes read back from the bus.
	Received []byte
}

// I2C sends and receives serial data using I2C asynchronous
// communication. The address is the 7-bit address, not shifted. See
// section 5.2.19 of the U3 user's guide. Requires U3 hardware version
// 1.21 or greater.
func (d *U3) I2C(address byte, data []byte, opts I2COptions) (I2CResult, error) {
	sdaPin, sclPin := 6, 7
	if opts.SDAPin != nil {
		sdaPin = *opts.SDAPin
	}
	if opts.SCLPin != nil {
		sclPin = *opts.SCLPin
	}

	trueLen := len(data)
	padded := padToEven(data)
	numBytes := len(padded)

	cmd := make([]byte, 14+numBytes)
	cmd[1] = 0xf8
	cmd[2] = byte(4 + numBytes/2)
	cmd[3] = byte(commandI2C)
	cmd[6] = boolToByte(opts.ResetAtStart)<<1 |
		boolToByte(opts.NoStopWhenRestarting)<<2 |
		boolToByte(opts.EnableClockStretching)<<3
	cmd[7] = opts.SpeedAdjust
	cmd[8] = byte(sdaPin)
	cmd[9] = byte(sclPin)
	if opts.AddressByte != nil {
		cmd[10] = *opts.AddressByte
	} else {
		cmd[10] = address << 1
	}
	cmd[12] = byte(trueLen)
	cmd[13] = byte(opts.NumBytesToReceive)
	copy(cmd[14:], padded)

	recvLen := opts.NumBytesToReceive
	oddResponse := recvLen%2 != 0
	if oddResponse {
		recvLen++
	}

	echo := []byte{0xf8, byte(3 + recvLen/2), byte(commandI2C)}
	result, err := d.writeRead(cmd, 12+recvLen, echo, true, true)
	if err != nil {
		return I2CResult{}, err
	}

	if len(result) > 12 {
		received := result[12:]
		if oddResponse {
			received = received[:len(received)-1]
		}
		return I2CResult{AckArray: result[8:12], Received: received}, nil
	}
	return I2CResult{AckArray: result[8:], Received: nil}, nil
}

// AsynchOptions adjusts the UART configuration. The zero value writes
// a 9600 baud configuration with the UART enabled after routing the
// TX and RX lines with ConfigIO.
type AsynchOptions struct {
	// Update being false reads the configuration without writing it.
	Update *bool `json:"update,omitempty"`
	// UARTEnable being false disables the UART.
	UARTEnable *bool `json:"uart_enable,omitempty"`
	// Baud is the desired baud rate, 9600 by default.
	Baud int `json:"baud,omitempty"`
	// TimerClockBaseHz selects the hardware 1.21-1.29 baud encoding,
	// which scales off the timer clock instead of the fixed 48 MHz
	// UART clock. Pass the timer clock base frequency in Hertz; read
	// the timer configuration first. Zero selects the modern encoding.
	TimerClockBaseHz int `json:"timer_clock_base_hz,omitempty"`
	// ConfigurePins being false skips the ConfigIO call that routes
	// the UART onto the digital lines.
	ConfigurePins *bool `json:"configure_pins,omitempty"`
}

// UARTConfig reports the UART configuration the device echoed back.
type UARTConfig struct {
	Updated    bool
	Enabled    bool
	BaudFactor uint16
}

// AsynchConfig configures the U3 UART for asynchronous communication.
// See section 5.2.16 of the U3 user's guide. Requires U3 hardware
// version 1.21 or greater.
func (d *U3) AsynchConfig(opts AsynchOptions) (UARTConfig, error) {
	update := true
	if opts.Update != nil {
		update = *opts.Update
	}
	uartEnable := true
	if opts.UARTEnable != nil {
		uartEnable = *opts.UARTEnable
	}
	baud := 9600
	if opts.Baud != 0 {
		baud = opts.Baud
	}
	configurePins := true
	if opts.ConfigurePins != nil {
		configurePins = *opts.ConfigurePins
	}

	if configurePins {
		if _, err := d.ConfigIO(ConfigIOOptions{EnableUART: Bool(true)}); err != nil {
			return UARTConfig{}, err
		}
	}

	olderHardware := opts.TimerClockBaseHz != 0

	cmd := make([]byte, 10)
	cmd[1] = 0xf8
	cmd[2] = 0x02
	cmd[3] = byte(commandAsynchConfig)
	cmd[7] = boolToByte(update)<<7 | boolToByte(uartEnable)<<6
	if olderHardware {
		cmd[9] = byte(256 - opts.TimerClockBaseHz/baud)
	} else {
		factor := uint16(65536 - 48000000/(2*baud))
		binary.LittleEndian.PutUint16(cmd[8:10], factor)
	}

	result, err := d.writeRead(cmd, 10, []byte{0xf8, 0x02, byte(commandAsynchConfig)}, true, true)
	if err != nil {
		return UARTConfig{}, err
	}

	config := UARTConfig{
		Updated: result[7]>>7&1 == 1,
		Enabled: result[7]>>6&1 == 1,
	}
	if olderHardware {
		config.BaudFactor = uint16(result[9])
	} else {
		config.BaudFactor = binary.LittleEndian.Uint16(result[8:10])
	}
	return config, nil
}

// UARTStatus reports how a transmit went: how many bytes made it out
// and how many are waiting in the 256 byte receive buffer.
type UARTStatus struct {
	BytesSent       int
	BytesInRXBuffer int
}

// AsynchTX sends bytes to the U3 UART, which transmits them
// asynchronously on the TX line. See section 5.2.17 of the U3 user's
// guide. Requires U3 hardware version 1.21 or greater.
func (d *U3) AsynchTX(data []byte) (UARTStatus, error) {
	trueLen := len(data)
	padded := padToEven(data)
	numBytes := len(padded)

	cmd := make([]byte, 8+numBytes)
	cmd[1] = 0xf8
	cmd[2] = byte(1 + numBytes/2)
	cmd[3] = byte(commandAsynchTX)
	cmd[7] = byte(trueLen)
	copy(cmd[8:], padded)

	echo := []byte{0xf8, 0x02, byte(commandAsynchTX)}
	result, err := d.writeRead(cmd, 10, echo, true, true)
	if err != nil {
		return UARTStatus{}, err
	}
	return UARTStatus{BytesSent: int(result[7]), BytesInRXBuffer: int(result[8])}, nil
}

// AsynchRX reads the oldest 32 bytes from the U3 UART's 256 byte
// receive buffer. Set flush to also discard the rest of the buffer.
// The count reports how many buffered bytes remained before the read.
// See section 5.2.18 of the U3 user's guide. Requires U3 hardware
// version 1.21 or greater.
func (d *U3) AsynchRX(flush bool) ([]byte, int, error) {
	cmd := make([]byte, 8)
	cmd[1] = 0xf8
	cmd[2] = 0x01
	cmd[3] = byte(commandAsynchRX)
	cmd[7] = boolToByte(flush)

	echo := []byte{0xf8, 0x11, byte(commandAsynchRX)}
	result, err := d.writeRead(cmd, 40, echo, true, true)
	if err != nil {
		return nil, 0, err
	}
	return result[8:], int(result[7]), nil
}

// SHT1xOptions adjusts an SHT1x sensor read. The zero value reads
// both temperature and humidity at full resolution over FIO4 (data)
// and FIO5 (clock), which matches the EI-1050 probe.
type SHT1xOptions struct {
	DataPin  *int `json:"data_pin,omitempty"`
	ClockPin *int `json:"clock_pin,omitempty"`
	// Options is the SHT1x command bitfield: bit 7 reads temperature,
	// bit 6 reads relative humidity, bit 2 turns the heater on, and
	// bit 0 drops the resolution to 8-bit RH and 12-bit temperature.
	Options *byte `json:"options,omitempty"`
}

// SHT1xReading holds one temperature and humidity measurement.
type SHT1xReading struct {
	StatusReg      byte
	StatusRegCRC   byte
	Temperature    float64
	TemperatureCRC byte
	Humidity       float64
	HumidityCRC    byte
}

// SHT1x reads temperature and humidity from a Sensirion SHT1x sensor,
// such as the one in the EI-1050 probe. Temperature is in degrees C
// and humidity in percent RH. See section 5.2.20 of the U3 user's
// guide. Requires U3 hardware version 1.21 or greater.
func (d *U3) SHT1x(opts SHT1xOptions) (SHT1xReading, error) {
	dataPin, clockPin := 4, 5
	shtOptions := byte(0xc0)
	if opts.DataPin != nil {
		dataPin = *opts.DataPin
	}
	if opts.ClockPin != nil {
		clockPin = *opts.ClockPin
	}
	if opts.Options != nil {
		shtOptions = *opts.Options
	}

	cmd := make([]byte, 10)
	cmd[1] = 0xf8
	cmd[2] = 0x02
	cmd[3] = byte(commandSHT1x)
	cmd[6] = byte(dataPin)
	cmd[7] = byte(clockPin)
	cmd[9] = shtOptions

	echo := []byte{0xf8, 0x05, byte(commandSHT1x)}
	result, err := d.writeRead(cmd, 16, echo, true, true)
	if err != nil {
		return SHT1xReading{}, err
	}

	tempBits := float64(binary.LittleEndian.Uint16(result[10:12]))
	temp := -39.60 + 0.01*tempBits

	humidBits := float64(binary.LittleEndian.Uint16(result[13:15]))
	humid := -4 + 0.0405*humidBits - 0.0000028*humidBits*humidBits
	humid += (temp - 25) * (0.01 + 0.00008*humidBits)

	return SHT1xReading{
		StatusReg:      result[8],
		StatusRegCRC:   result[9],
		Temperature:    temp,
		TemperatureCRC: result[12],
		Humidity:       humid,
		HumidityCRC:    result[15],
	}, nil
}

// padToEven returns data padded with one zero byte when its length is
// odd, copying so the caller's slice is never grown in place.
func padToEven(data []byte) []byte {
	if len(data)%2 == 0 {
		return data
	}
	padded := make([]byte, len(data)+1)
	copy(padded, data)
	return padded
}
