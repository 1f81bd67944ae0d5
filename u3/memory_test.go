// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"bytes"
	"testing"
)

func TestToDouble(t *testing.T) {
	testCases := []struct {
		name     string
		bytes    []byte
		expected float64
	}{
		{"one", []byte{0, 0, 0, 0, 1, 0, 0, 0}, 1.0},
		{"two and a half", []byte{0, 0, 0, 0x80, 2, 0, 0, 0}, 2.5},
		{"minus one", []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}, -1.0},
		{"minus a half", []byte{0, 0, 0, 0x80, 0xff, 0xff, 0xff, 0xff}, -0.5},
		{"quarter", []byte{0, 0, 0, 0x40, 0, 0, 0, 0}, 0.25},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := toDouble(tc.bytes); got != tc.expected {
				t.Errorf("Expected %f, got %f", tc.expected, got)
			}
		})
	}
}

// halfStep encodes n + 0.5 in the fixed-point layout the calibration
// memory uses, giving each constant a distinct easily spotted value.
func halfStep(n byte) []byte {
	return []byte{0, 0, 0, 0x80, n, 0, 0, 0}
}

// queueMemBlock queues a valid 40 byte read response for the given
// command type carrying the given 32 bytes of block data.
func (f *fakeTransport) queueMemBlock(t *testing.T, commandType byte, data []byte) {
	t.Helper()
	response := make([]byte, 40)
	response[1] = 0xf8
	response[2] = 0x11
	response[3] = commandType
	copy(response[8:], data)
	f.queueChecksummed(t, response)
}

func TestReadCal(t *testing.T) {
	d, ft := newFakeU3()
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	ft.queueMemBlock(t, 0x2d, data)

	block, err := d.ReadCal(2)
	if err != nil {
		t.Fatalf("ReadCal failed: %s", err)
	}

	expectedSent := []byte{0x29, 0xf8, 0x01, 0x2d, 0x02, 0x00, 0x00, 0x02}
	if !bytes.Equal(ft.written[0], expectedSent) {
		t.Errorf("Expected sent packet % #x, got % #x", expectedSent, ft.written[0])
	}
	if !bytes.Equal(block, data) {
		t.Errorf("Expected block data % #x, got % #x", data, block)
	}
}

func TestReadMem(t *testing.T) {
	d, ft := newFakeU3()
	ft.queueMemBlock(t, 0x2a, make([]byte, 32))

	if _, err := d.ReadMem(5); err != nil {
		t.Fatalf("ReadMem failed: %s", err)
	}
	sent := ft.written[0]
	if sent[3] != 0x2a {
		t.Errorf("Expected command type 0x2a, got %#x", sent[3])
	}
	if sent[7] != 5 {
		t.Errorf("Expected block number 5, got %d", sent[7])
	}
}

func TestWriteMemRequiresFullBlock(t *testing.T) {
	d, ft := newFakeU3()
	err := d.WriteMem(0, make([]byte, 31))
	if err == nil {
		t.Fatal("Expected an error for a short block")
	}
	if _, ok := err.(ErrInvalidParameter); !ok {
		t.Errorf("Expected ErrInvalidParameter, got %T: %s", err, err)
	}
	if len(ft.written) != 0 {
		t.Errorf("Expected nothing written to the device, got %d writes", len(ft.written))
	}
}

func TestWriteCal(t *testing.T) {
	d, ft := newFakeU3()
	response := make([]byte, 8)
	response[1] = 0xf8
	response[2] = 0x01
	response[3] = 0x2b
	ft.queueChecksummed(t, response)

	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(0xff - i)
	}
	if err := d.WriteCal(1, data); err != nil {
		t.Fatalf("WriteCal failed: %s", err)
	}

	sent := ft.written[0]
	if len(sent) != 40 {
		t.Fatalf("Expected a 40 byte command, got %d bytes", len(sent))
	}
	if sent[2] != 0x11 || sent[3] != 0x2b {
		t.Errorf("Expected command bytes [0x11 0x2b], got [%#x %#x]", sent[2], sent[3])
	}
	if sent[7] != 1 {
		t.Errorf("Expected block number 1, got %d", sent[7])
	}
	if !bytes.Equal(sent[8:], data) {
		t.Errorf("Expected the block data in the command, got % #x", sent[8:])
	}
}

func TestEraseCalSendsKeyBytes(t *testing.T) {
	d, ft := newFakeU3()
	response := make([]byte, 8)
	response[1] = 0xf8
	response[2] = 0x01
	response[3] = 0x2c
	ft.queueChecksummed(t, response)

	if err := d.EraseCal(); err != nil {
		t.Fatalf("EraseCal failed: %s", err)
	}
	sent := ft.written[0]
	if sent[6] != 0x4c || sent[7] != 0x6c {
		t.Errorf("Expected key bytes [0x4c 0x6c], got [%#x %#x]", sent[6], sent[7])
	}
}

func TestEraseMem(t *testing.T) {
	d, ft := newFakeU3()
	response := make([]byte, 8)
	response[1] = 0xf8
	response[2] = 0x01
	response[3] = 0x29
	ft.queueChecksummed(t, response)

	if err := d.EraseMem(); err != nil {
		t.Fatalf("EraseMem failed: %s", err)
	}
	sent := ft.written[0]
	if len(sent) != 6 {
		t.Fatalf("Expected a 6 byte command, got %d bytes", len(sent))
	}
	if sent[2] != 0x00 || sent[3] != 0x29 {
		t.Errorf("Expected command bytes [0x00 0x29], got [%#x %#x]", sent[2], sent[3])
	}
}

func TestSetDefaults(t *testing.T) {
	testCases := []struct {
		name     string
		factory  bool
		expected []byte
	}{
		{"current values", false, []byte{0xba, 0x26}},
		{"factory values", true, []byte{0x82, 0xc7}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ft := newFakeU3()
			response := make([]byte, 8)
			response[1] = 0xf8
			response[2] = 0x01
			response[3] = 0x0e
			ft.queueChecksummed(t, response)

			var err error
			if tc.factory {
				err = d.SetToFactoryDefaults()
			} else {
				err = d.SetDefaults()
			}
			if err != nil {
				t.Fatalf("SetDefaults failed: %s", err)
			}
			sent := ft.written[0]
			if !bytes.Equal(sent[6:8], tc.expected) {
				t.Errorf("Expected key bytes % #x, got % #x", tc.expected, sent[6:8])
			}
		})
	}
}

func TestReadDefaults(t *testing.T) {
	t.Run("rejects invalid blocks", func(t *testing.T) {
		d, ft := newFakeU3()
		if _, err := d.ReadDefaults(8, false); err == nil {
			t.Fatal("Expected an error for block 8")
		}
		if len(ft.written) != 0 {
			t.Errorf("Expected nothing written to the device, got %d writes", len(ft.written))
		}
	})
	t.Run("reading the current values sets the top bit", func(t *testing.T) {
		d, ft := newFakeU3()
		ft.queueMemBlock(t, 0x0e, make([]byte, 32))
		if _, err := d.ReadCurrent(3); err != nil {
			t.Fatalf("ReadCurrent failed: %s", err)
		}
		if ft.written[0][7] != 0x83 {
			t.Errorf("Expected block byte 0x83, got %#x", ft.written[0][7])
		}
	})
}

func TestReadDefaultsConfig(t *testing.T) {
	d, ft := newFakeU3()

	block0 := make([]byte, 32)
	block0[4] = 0xf0  // FIO direction
	block0[5] = 0x0f  // FIO state
	block0[6] = 0x03  // FIO analog
	block0[8] = 0x01  // EIO direction
	block0[9] = 0x02  // EIO state
	block0[10] = 0x04 // EIO analog
	block0[12] = 0x05 // CIO direction
	block0[13] = 0x06 // CIO state
	block0[17] = 2    // timers enabled
	block0[18] = 3    // counter mask
	block0[19] = 4    // pin offset
	block0[20] = 1    // options
	ft.queueMemBlock(t, 0x0e, block0)

	block1 := make([]byte, 32)
	block1[0] = 2 // clock source
	block1[1] = 10
	block1[16] = 7
	block1[17] = 0x34
	block1[18] = 0x12
	block1[20] = 9
	block1[21] = 0x78
	block1[22] = 0x56
	ft.queueMemBlock(t, 0x0e, block1)

	block2 := make([]byte, 32)
	block2[16] = 0x20
	block2[17] = 0x01
	block2[20] = 0x30
	block2[21] = 0x02
	ft.queueMemBlock(t, 0x0e, block2)

	block3 := make([]byte, 32)
	for i := 0; i < 16; i++ {
		block3[i] = byte(i)
	}
	ft.queueMemBlock(t, 0x0e, block3)

	config, err := d.ReadDefaultsConfig()
	if err != nil {
		t.Fatalf("ReadDefaultsConfig failed: %s", err)
	}

	if len(ft.written) != 4 {
		t.Fatalf("Expected 4 block reads, got %d", len(ft.written))
	}
	for i, sent := range ft.written {
		if sent[7] != byte(i) {
			t.Errorf("Expected read %d to request block %d, got %d", i, i, sent[7])
		}
	}

	if config.FIODirection != 0xf0 || config.FIOState != 0x0f || config.FIOAnalog != 0x03 {
		t.Errorf("Unexpected FIO defaults: %+v", config)
	}
	if config.EIODirection != 1 || config.EIOState != 2 || config.EIOAnalog != 4 {
		t.Errorf("Unexpected EIO defaults: %+v", config)
	}
	if config.CIODirection != 5 || config.CIOState != 6 {
		t.Errorf("Unexpected CIO defaults: %+v", config)
	}
	if config.NumberOfTimersEnabled != 2 || config.CounterMask != 3 ||
		config.PinOffset != 4 || config.Options != 1 {
		t.Errorf("Unexpected timer/counter defaults: %+v", config)
	}
	if config.ClockSource != 2 || config.Divisor != 10 {
		t.Errorf("Unexpected clock defaults: %+v", config)
	}
	if config.TMR0Mode != 7 || config.TMR0ValueL != 0x34 || config.TMR0ValueH != 0x12 {
		t.Errorf("Unexpected timer 0 defaults: %+v", config)
	}
	if config.TMR1Mode != 9 || config.TMR1ValueL != 0x78 || config.TMR1ValueH != 0x56 {
		t.Errorf("Unexpected timer 1 defaults: %+v", config)
	}
	if config.DAC0 != 0x2001 {
		t.Errorf("Expected DAC0 0x2001, got %#x", config.DAC0)
	}
	if config.DAC1 != 0x3002 {
		t.Errorf("Expected DAC1 0x3002, got %#x", config.DAC1)
	}
	for i := 0; i < 16; i++ {
		if config.AINNegChannel[i] != byte(i) {
			t.Errorf("Expected AIN%d negative channel %d, got %d", i, i, config.AINNegChannel[i])
		}
	}
}

func TestReadCalibrationData(t *testing.T) {
	t.Run("low voltage only", func(t *testing.T) {
		d, ft := newFakeU3()

		block := make([]byte, 32)
		copy(block[0:], halfStep(1))
		copy(block[8:], halfStep(2))
		copy(block[16:], halfStep(3))
		copy(block[24:], halfStep(4))
		ft.queueMemBlock(t, 0x2d, block)

		block = make([]byte, 32)
		copy(block[0:], halfStep(5))
		copy(block[8:], halfStep(6))
		copy(block[16:], halfStep(7))
		copy(block[24:], halfStep(8))
		ft.queueMemBlock(t, 0x2d, block)

		block = make([]byte, 32)
		copy(block[0:], halfStep(9))
		copy(block[8:], halfStep(10))
		copy(block[16:], halfStep(11))
		copy(block[24:], halfStep(12))
		ft.queueMemBlock(t, 0x2d, block)

		// Older and low-voltage U3s report block 3 as invalid.
		invalid := make([]byte, 40)
		invalid[1] = 0xf8
		invalid[2] = 0x11
		invalid[3] = 0x2d
		invalid[6] = errCodeInvalidBlock
		ft.queueChecksummed(t, invalid)

		cal, err := d.ReadCalibrationData()
		if err != nil {
			t.Fatalf("ReadCalibrationData failed: %s", err)
		}
		if cal.LVSESlope != 1.5 || cal.LVSEOffset != 2.5 ||
			cal.LVDiffSlope != 3.5 || cal.LVDiffOffset != 4.5 {
			t.Errorf("Unexpected analog constants: %+v", cal)
		}
		if cal.DAC0Slope != 5.5 || cal.DAC0Offset != 6.5 ||
			cal.DAC1Slope != 7.5 || cal.DAC1Offset != 8.5 {
			t.Errorf("Unexpected DAC constants: %+v", cal)
		}
		if cal.TempSlope != 9.5 || cal.VRefAtCal != 10.5 ||
			cal.VRef15AtCal != 11.5 || cal.VRegAtCal != 12.5 {
			t.Errorf("Unexpected misc constants: %+v", cal)
		}
		if cal.HasHighVoltage {
			t.Error("Expected no high-voltage constants")
		}
		if d.CalData != cal {
			t.Error("Expected the constants to be stored on the session")
		}
	})
	t.Run("high voltage", func(t *testing.T) {
		d, ft := newFakeU3()

		for block := 0; block < 3; block++ {
			ft.queueMemBlock(t, 0x2d, make([]byte, 32))
		}
		slopes := make([]byte, 32)
		offsets := make([]byte, 32)
		for i := byte(0); i < 4; i++ {
			copy(slopes[8*i:], halfStep(13+i))
			copy(offsets[8*i:], halfStep(17+i))
		}
		ft.queueMemBlock(t, 0x2d, slopes)
		ft.queueMemBlock(t, 0x2d, offsets)

		cal, err := d.ReadCalibrationData()
		if err != nil {
			t.Fatalf("ReadCalibrationData failed: %s", err)
		}
		if !cal.HasHighVoltage {
			t.Fatal("Expected high-voltage constants")
		}
		for i := 0; i < 4; i++ {
			if cal.HVAINSlope[i] != 13.5+float64(i) {
				t.Errorf("Expected HV slope %d to be %f, got %f", i, 13.5+float64(i), cal.HVAINSlope[i])
			}
			if cal.HVAINOffset[i] != 17.5+float64(i) {
				t.Errorf("Expected HV offset %d to be %f, got %f", i, 17.5+float64(i), cal.HVAINOffset[i])
			}
		}
	})
}
