// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"bytes"
	"testing"
)

// queueFeedback queues a valid feedback response whose data bytes
// start at offset 9.
func (f *fakeTransport) queueFeedback(t *testing.T, data ...byte) {
	t.Helper()
	length := 9 + len(data)
	if length%2 != 0 {
		length++
	}
	response := make([]byte, length)
	response[1] = 0xf8
	response[2] = byte(length/2 - 3)
	copy(response[9:], data)
	f.queueChecksummed(t, response)
}

func TestToggleLED(t *testing.T) {
	d, ft := newFakeU3()
	ft.queueFeedback(t)
	ft.queueFeedback(t)

	// The LED starts on, so the first toggle turns it off.
	if err := d.ToggleLED(); err != nil {
		t.Fatalf("ToggleLED failed: %s", err)
	}
	if !bytes.Equal(ft.written[0][7:9], []byte{9, 0}) {
		t.Errorf("Expected LED off bytes [9 0], got %v", ft.written[0][7:9])
	}

	if err := d.ToggleLED(); err != nil {
		t.Fatalf("ToggleLED failed: %s", err)
	}
	if !bytes.Equal(ft.written[1][7:9], []byte{9, 1}) {
		t.Errorf("Expected LED on bytes [9 1], got %v", ft.written[1][7:9])
	}
}

func TestSetFIOState(t *testing.T) {
	d, ft := newFakeU3()
	ft.queueFeedback(t)

	if err := d.SetFIOState(4, true); err != nil {
		t.Fatalf("SetFIOState failed: %s", err)
	}
	sent := ft.written[0]
	// Setting a line drives it to output and then writes the state.
	if !bytes.Equal(sent[7:11], []byte{13, 0x84, 11, 0x84}) {
		t.Errorf("Expected direction and state writes, got %v", sent[7:11])
	}
}

func TestGetFIOState(t *testing.T) {
	d, ft := newFakeU3()
	ft.queueFeedback(t, 1)

	state, err := d.GetFIOState(6)
	if err != nil {
		t.Fatalf("GetFIOState failed: %s", err)
	}
	if !bytes.Equal(ft.written[0][7:9], []byte{10, 6}) {
		t.Errorf("Expected a state read of FIO6, got %v", ft.written[0][7:9])
	}
	if state != 1 {
		t.Errorf("Expected state 1, got %d", state)
	}
}

func TestGetDIState(t *testing.T) {
	d, ft := newFakeU3()
	ft.queueFeedback(t, 1)

	state, err := d.GetDIState(6)
	if err != nil {
		t.Fatalf("GetDIState failed: %s", err)
	}
	sent := ft.written[0]
	// Reading a digital input first releases the line to input.
	if !bytes.Equal(sent[7:11], []byte{13, 6, 10, 6}) {
		t.Errorf("Expected a direction write and state read, got %v", sent[7:11])
	}
	if state != 1 {
		t.Errorf("Expected state 1, got %d", state)
	}
}

func TestGetDIOState(t *testing.T) {
	d, ft := newFakeU3()
	ft.queueFeedback(t, 0)

	state, err := d.GetDIOState(CIO2)
	if err != nil {
		t.Fatalf("GetDIOState failed: %s", err)
	}
	if !bytes.Equal(ft.written[0][7:9], []byte{10, 18}) {
		t.Errorf("Expected a state read of CIO2, got %v", ft.written[0][7:9])
	}
	if state != 0 {
		t.Errorf("Expected state 0, got %d", state)
	}
}

func TestConfigAnalog(t *testing.T) {
	d, ft := newFakeU3()
	// The current assignment has FIO0 analog.
	current := make([]byte, 12)
	current[1] = 0xf8
	current[2] = 0x03
	current[3] = 0x0b
	current[8] = 0x40
	current[10] = 0x01
	ft.queueChecksummed(t, current)
	updated := make([]byte, 12)
	updated[1] = 0xf8
	updated[2] = 0x03
	updated[3] = 0x0b
	updated[8] = 0x40
	updated[10] = 0x05
	updated[11] = 0x02
	ft.queueChecksummed(t, updated)

	config, err := d.ConfigAnalog(FIO2, EIO1)
	if err != nil {
		t.Fatalf("ConfigAnalog failed: %s", err)
	}

	if len(ft.written) != 2 {
		t.Fatalf("Expected a read then a write, got %d writes", len(ft.written))
	}
	write := ft.written[1]
	if write[6] != 0x0d {
		t.Errorf("Expected the analog write mask, got %#x", write[6])
	}
	if write[10] != 0x05 {
		t.Errorf("Expected FIOAnalog 0x05, got %#x", write[10])
	}
	if write[11] != 0x02 {
		t.Errorf("Expected EIOAnalog 0x02, got %#x", write[11])
	}
	if config.FIOAnalog != 0x05 || config.EIOAnalog != 0x02 {
		t.Errorf("Expected the updated assignment back, got %+v", config)
	}
}

func TestConfigDigital(t *testing.T) {
	d, ft := newFakeU3()
	// FIO0, FIO2, and EIO1 start out analog.
	current := make([]byte, 12)
	current[1] = 0xf8
	current[2] = 0x03
	current[3] = 0x0b
	current[8] = 0x40
	current[10] = 0x05
	current[11] = 0x02
	ft.queueChecksummed(t, current)
	updated := make([]byte, 12)
	updated[1] = 0xf8
	updated[2] = 0x03
	updated[3] = 0x0b
	updated[8] = 0x40
	updated[10] = 0x04
	ft.queueChecksummed(t, updated)

	config, err := d.ConfigDigital(FIO0, EIO1)
	if err != nil {
		t.Fatalf("ConfigDigital failed: %s", err)
	}

	write := ft.written[1]
	if write[10] != 0x04 {
		t.Errorf("Expected FIOAnalog 0x04, got %#x", write[10])
	}
	if write[11] != 0x00 {
		t.Errorf("Expected EIOAnalog 0x00, got %#x", write[11])
	}
	if config.FIOAnalog != 0x04 {
		t.Errorf("Expected the updated assignment back, got %+v", config)
	}
}

func TestConfigAnalogNoLines(t *testing.T) {
	d, ft := newFakeU3()
	current := make([]byte, 12)
	current[1] = 0xf8
	current[2] = 0x03
	current[3] = 0x0b
	current[8] = 0x40
	current[10] = 0x0f
	ft.queueChecksummed(t, current)

	config, err := d.ConfigAnalog()
	if err != nil {
		t.Fatalf("ConfigAnalog failed: %s", err)
	}
	if len(ft.written) != 1 {
		t.Errorf("Expected only the read, got %d writes", len(ft.written))
	}
	if config.FIOAnalog != 0x0f {
		t.Errorf("Expected the current assignment back, got %+v", config)
	}
}
