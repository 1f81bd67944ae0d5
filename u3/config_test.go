// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"bytes"
	"testing"
)

func TestConfigIOReadsWithoutWriting(t *testing.T) {
	d, ft := newFakeU3()
	ft.queue([]byte{0x56, 0xf8, 0x03, 0x0b, 0x4f, 0x00, 0x00, 0x00, 0x40, 0x00, 0x0f, 0x00})

	config, err := d.ConfigIO(ConfigIOOptions{})
	if err != nil {
		t.Fatalf("ConfigIO failed: %s", err)
	}

	expectedSent := []byte{0x47, 0xf8, 0x03, 0x0b, 0x40, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00}
	if !bytes.Equal(ft.written[0], expectedSent) {
		t.Errorf("Expected sent packet % #x, got % #x", expectedSent, ft.written[0])
	}

	expected := IOConfig{
		TimerCounterConfig:    64,
		DAC1Enable:            0,
		FIOAnalog:             15,
		EIOAnalog:             0,
		NumberOfTimersEnabled: 0,
		EnableCounter0:        false,
		EnableCounter1:        false,
		TimerCounterPinOffset: 4,
	}
	if *config != expected {
		t.Errorf("Expected config %+v, got %+v", expected, *config)
	}
	if d.FIOAnalog != 15 {
		t.Errorf("Expected the session to mirror FIOAnalog 15, got %d", d.FIOAnalog)
	}
	if d.TimerCounterPinOffset != 4 {
		t.Errorf("Expected the session to mirror pin offset 4, got %d", d.TimerCounterPinOffset)
	}
}

func TestConfigIOWriteMask(t *testing.T) {
	testCases := []struct {
		name     string
		opts     ConfigIOOptions
		expected []byte
	}{
		{
			"fio analog only",
			ConfigIOOptions{FIOAnalog: Byte(0x0f)},
			[]byte{0x05, 0x00, 0x40, 0x00, 0x0f, 0x00},
		},
		{
			"eio analog only",
			ConfigIOOptions{EIOAnalog: Byte(0xaa)},
			[]byte{0x09, 0x00, 0x40, 0x00, 0x00, 0xaa},
		},
		{
			"fio and eio analog",
			ConfigIOOptions{FIOAnalog: Byte(0xff), EIOAnalog: Byte(0xff)},
			[]byte{0x0d, 0x00, 0x40, 0x00, 0xff, 0xff},
		},
		{
			"uart enabled",
			ConfigIOOptions{EnableUART: Bool(true)},
			[]byte{0x21, 0x00, 0x40, 0x04, 0x00, 0x00},
		},
		{
			"two timers",
			ConfigIOOptions{NumberOfTimersEnabled: Int(2)},
			[]byte{0x01, 0x00, 0x42, 0x00, 0x00, 0x00},
		},
		{
			"counter 0 enabled",
			ConfigIOOptions{EnableCounter0: Bool(true)},
			[]byte{0x01, 0x00, 0x44, 0x00, 0x00, 0x00},
		},
		{
			"counter 0 disabled",
			ConfigIOOptions{EnableCounter0: Bool(false)},
			[]byte{0x01, 0x00, 0x40, 0x00, 0x00, 0x00},
		},
		{
			"counter 1 enabled",
			ConfigIOOptions{EnableCounter1: Bool(true)},
			[]byte{0x01, 0x00, 0x48, 0x00, 0x00, 0x00},
		},
		{
			"pin offset 8",
			ConfigIOOptions{TimerCounterPinOffset: Int(8)},
			[]byte{0x01, 0x00, 0x80, 0x00, 0x00, 0x00},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ft := newFakeU3()
			response := make([]byte, 12)
			response[1] = 0xf8
			response[2] = 0x03
			response[3] = 0x0b
			response[8] = 0x40
			ft.queueChecksummed(t, response)

			if _, err := d.ConfigIO(tc.opts); err != nil {
				t.Fatalf("ConfigIO failed: %s", err)
			}
			sent := ft.written[0]
			if !bytes.Equal(sent[6:12], tc.expected) {
				t.Errorf("Expected payload % #x, got % #x", tc.expected, sent[6:12])
			}
		})
	}
}

func TestConfigU3WriteMask(t *testing.T) {
	testCases := []struct {
		name         string
		opts         ConfigU3Options
		expectedMask byte
		payloadIndex int
		payloadByte  byte
	}{
		{"read only", ConfigU3Options{}, 0, 8, 0},
		{"io defaults", ConfigU3Options{FIOAnalog: Byte(0x0f)}, 2, 10, 0x0f},
		{"dac defaults", ConfigU3Options{DAC1Enable: Byte(1)}, 4, 18, 1},
		{"local id", ConfigU3Options{LocalID: Byte(9)}, 8, 8, 9},
		{"timer clock", ConfigU3Options{TimerClockConfig: Byte(0x86)}, 16, 21, 0x86},
		{"compatibility", ConfigU3Options{CompatibilityOptions: Byte(1)}, 32, 23, 1},
		// TimerCounterConfig rides along in the packet but has no
		// write mask bit of its own.
		{"timer counter config", ConfigU3Options{TimerCounterConfig: Byte(0x44)}, 0, 9, 0x44},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ft := newFakeU3()
			response := make([]byte, 38)
			response[1] = 0xf8
			response[2] = 0x10
			response[3] = 0x08
			ft.queueChecksummed(t, response)

			if _, err := d.ConfigU3(tc.opts); err != nil {
				t.Fatalf("ConfigU3 failed: %s", err)
			}
			sent := ft.written[0]
			if len(sent) != 26 {
				t.Fatalf("Expected a 26 byte command, got %d bytes", len(sent))
			}
			if sent[6] != tc.expectedMask {
				t.Errorf("Expected write mask %#x, got %#x", tc.expectedMask, sent[6])
			}
			if sent[tc.payloadIndex] != tc.payloadByte {
				t.Errorf("Expected byte %d to be %#x, got %#x",
					tc.payloadIndex, tc.payloadByte, sent[tc.payloadIndex])
			}
		})
	}
}

func TestConfigU3ParsesIdentity(t *testing.T) {
	d, ft := newFakeU3()
	response := make([]byte, 38)
	response[1] = 0xf8
	response[2] = 0x10
	response[3] = 0x08
	response[9] = 46  // firmware 1.46
	response[10] = 1
	response[11] = 27 // bootloader 0.27
	response[13] = 30 // hardware 1.30
	response[14] = 1
	copy(response[15:19], []byte{0x0a, 0x0b, 0x0c, 0x0d})
	response[19] = 3 // product ID
	response[21] = 5 // local ID
	response[23] = 0x0f
	response[35] = 0  // divisor byte 0 means 256
	response[37] = 18 // U3-HV
	ft.queueChecksummed(t, response)

	config, err := d.ConfigU3(ConfigU3Options{})
	if err != nil {
		t.Fatalf("ConfigU3 failed: %s", err)
	}

	if config.FirmwareVersion != "1.46" {
		t.Errorf("Expected firmware 1.46, got %s", config.FirmwareVersion)
	}
	if config.BootloaderVersion != "0.27" {
		t.Errorf("Expected bootloader 0.27, got %s", config.BootloaderVersion)
	}
	if config.HardwareVersion != "1.30" {
		t.Errorf("Expected hardware 1.30, got %s", config.HardwareVersion)
	}
	if config.SerialNumber != 218893066 {
		t.Errorf("Expected serial 218893066, got %d", config.SerialNumber)
	}
	if config.ProductID != 3 {
		t.Errorf("Expected product ID 3, got %d", config.ProductID)
	}
	if config.LocalID != 5 {
		t.Errorf("Expected local ID 5, got %d", config.LocalID)
	}
	if config.FIOAnalog != 0x0f {
		t.Errorf("Expected FIOAnalog 0x0f, got %#x", config.FIOAnalog)
	}
	if config.TimerClockDivisor != 256 {
		t.Errorf("Expected divisor 256, got %d", config.TimerClockDivisor)
	}
	if config.DeviceName != "U3-HV" {
		t.Errorf("Expected device name U3-HV, got %s", config.DeviceName)
	}
	if !d.IsHighVoltage() {
		t.Error("Expected the session to report high voltage")
	}
	if d.SerialNumber != 218893066 {
		t.Errorf("Expected the session to mirror the serial, got %d", d.SerialNumber)
	}
	if d.FirmwareVersion != "1.46" {
		t.Errorf("Expected the session to mirror the firmware, got %s", d.FirmwareVersion)
	}
}

func TestConfigU3DeviceNames(t *testing.T) {
	testCases := []struct {
		versionInfo byte
		expected    string
	}{
		{0, "U3"},
		{1, "U3B"},
		{2, "U3-LV"},
		{18, "U3-HV"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			d, ft := newFakeU3()
			response := make([]byte, 38)
			response[1] = 0xf8
			response[2] = 0x10
			response[3] = 0x08
			response[37] = tc.versionInfo
			ft.queueChecksummed(t, response)

			config, err := d.ConfigU3(ConfigU3Options{})
			if err != nil {
				t.Fatalf("ConfigU3 failed: %s", err)
			}
			if config.DeviceName != tc.expected {
				t.Errorf("Expected device name %s, got %s", tc.expected, config.DeviceName)
			}
		})
	}
}

func TestConfigTimerClock(t *testing.T) {
	t.Run("write base and divisor", func(t *testing.T) {
		d, ft := newFakeU3()
		response := make([]byte, 10)
		response[1] = 0xf8
		response[2] = 0x02
		response[3] = 0x0a
		response[8] = TimerClockBase48MHzDivisor
		response[9] = 15
		ft.queueChecksummed(t, response)

		config, err := d.ConfigTimerClock(Int(TimerClockBase48MHzDivisor), Int(15))
		if err != nil {
			t.Fatalf("ConfigTimerClock failed: %s", err)
		}
		sent := ft.written[0]
		if sent[8] != 0x86 {
			t.Errorf("Expected clock byte 0x86, got %#x", sent[8])
		}
		if sent[9] != 15 {
			t.Errorf("Expected divisor byte 15, got %d", sent[9])
		}
		if config.TimerClockBase != TimerClockBase48MHzDivisor {
			t.Errorf("Expected base %d, got %d", TimerClockBase48MHzDivisor, config.TimerClockBase)
		}
		if config.TimerClockDivisor != 15 {
			t.Errorf("Expected divisor 15, got %d", config.TimerClockDivisor)
		}
		if d.TimerClockBase != TimerClockBase48MHzDivisor || d.TimerClockDivisor != 15 {
			t.Error("Expected the session to mirror the timer clock configuration")
		}
	})
	t.Run("read only", func(t *testing.T) {
		d, ft := newFakeU3()
		response := make([]byte, 10)
		response[1] = 0xf8
		response[2] = 0x02
		response[3] = 0x0a
		response[8] = TimerClockBase4MHz
		response[9] = 1
		ft.queueChecksummed(t, response)

		if _, err := d.ConfigTimerClock(nil, nil); err != nil {
			t.Fatalf("ConfigTimerClock failed: %s", err)
		}
		sent := ft.written[0]
		if sent[8] != 0 || sent[9] != 0 {
			t.Errorf("Expected a read-only command, got clock %#x divisor %d", sent[8], sent[9])
		}
	})
	t.Run("divisor without base", func(t *testing.T) {
		d, ft := newFakeU3()
		_, err := d.ConfigTimerClock(nil, Int(4))
		if err == nil {
			t.Fatal("Expected an error for a divisor without a base")
		}
		if _, ok := err.(ErrInvalidParameter); !ok {
			t.Errorf("Expected ErrInvalidParameter, got %T: %s", err, err)
		}
		if len(ft.written) != 0 {
			t.Errorf("Expected nothing written to the device, got %d writes", len(ft.written))
		}
	})
}

func TestWatchdog(t *testing.T) {
	t.Run("write", func(t *testing.T) {
		d, ft := newFakeU3()
		response := make([]byte, 16)
		response[1] = 0xf8
		response[2] = 0x05
		response[3] = 0x09
		response[7] = 0x30
		response[8] = 60
		response[10] = 0x82
		ft.queueChecksummed(t, response)

		config, err := d.Watchdog(WatchdogOptions{
			ResetOnTimeout:       true,
			SetDIOStateOnTimeout: true,
			TimeoutPeriod:        60,
			DIOState:             1,
			DIONumber:            2,
		})
		if err != nil {
			t.Fatalf("Watchdog failed: %s", err)
		}
		sent := ft.written[0]
		if sent[6] != 1 {
			t.Errorf("Expected the write bit set, got %#x", sent[6])
		}
		if sent[7] != 0x30 {
			t.Errorf("Expected timeout options 0x30, got %#x", sent[7])
		}
		if sent[8] != 60 || sent[9] != 0 {
			t.Errorf("Expected timeout period bytes [60 0], got [%d %d]", sent[8], sent[9])
		}
		if sent[10] != 0x82 {
			t.Errorf("Expected DIO byte 0x82, got %#x", sent[10])
		}

		expected := WatchdogConfig{
			WatchdogEnabled:      true,
			ResetOnTimeout:       true,
			SetDIOStateOnTimeout: true,
			TimeoutPeriod:        60,
			DIOState:             1,
			DIONumber:            2,
		}
		if *config != expected {
			t.Errorf("Expected config %+v, got %+v", expected, *config)
		}
	})
	t.Run("read disabled", func(t *testing.T) {
		d, ft := newFakeU3()
		response := make([]byte, 16)
		response[1] = 0xf8
		response[2] = 0x05
		response[3] = 0x09
		ft.queueChecksummed(t, response)

		config, err := d.Watchdog(WatchdogOptions{OnlyRead: true})
		if err != nil {
			t.Fatalf("Watchdog failed: %s", err)
		}
		if ft.written[0][6] != 0 {
			t.Errorf("Expected a read-only command, got write mask %#x", ft.written[0][6])
		}
		if config.WatchdogEnabled {
			t.Error("Expected the watchdog to be disabled")
		}
	})
}
