// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package u3 controls the LabJack U3 data acquisition device using
// its low-level USB command protocol. The package speaks the raw
// packet format directly (checksums, the Feedback command set,
// configuration, streaming, and the serial bridges), so no vendor
// driver is required beyond a working USB or HID transport.
package u3

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/gotmc/libusb"
	"github.com/karalabe/hid"
)

// U3 models one open LabJack U3. The exported configuration fields
// mirror the most recent ConfigU3, ConfigIO, and ConfigTimerClock
// responses. A U3 expects single-threaded use; callers that share a
// session across goroutines must serialize access themselves.
type U3 struct {
	Transport Transporter
	Debug     bool

	// Mirror of the last ConfigU3 response.
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

	// Mirror of the last ConfigIO response.
	TimerCounterConfig    byte
	NumberOfTimersEnabled int
	EnableCounter0        bool
	EnableCounter1        bool
	TimerCounterPinOffset int

	// Mirror of the last ConfigTimerClock response.
	TimerClockBase int

	// CalData holds the calibration constants read from flash; nil
	// until ReadCalibrationData succeeds.
	CalData *CalibrationData

	ledState bool

	streamConfigured        bool
	streamRunning           bool
	streamSamplesPerPacket  int
	streamPacketsPerRequest int
	streamChannelNumbers    []int
	streamNegChannels       []int
	streamPacketOffset      int
}

// New wraps an already opened transport in a U3 session. Most callers
// will want GetFirstDevice, NewViaSN, or OpenHID instead, which also
// populate the configuration mirror.
func New(t Transporter) *U3 {
	return &U3{Transport: t, ledState: true}
}

func newConfiguredU3(t Transporter) (*U3, error) {
	d := New(t)
	if _, err := d.ConfigU3(ConfigU3Options{}); err != nil {
		t.Close()
		return nil, err
	}
	return d, nil
}

// GetFirstDevice creates a new U3 session using the first U3 found in
// the USB context.
func GetFirstDevice(ctx *libusb.Context) (*U3, error) {
	dev, dh, err := ctx.OpenDeviceWithVendorProduct(VendorID, ProductID)
	if err != nil {
		return nil, fmt.Errorf("error opening the U3, %s", err)
	}
	t, err := NewUSBTransport(dev, dh)
	if err != nil {
		return nil, err
	}
	return newConfiguredU3(t)
}

// NewViaSN creates a new U3 session by searching the list of USB
// devices for the given serial number.
func NewViaSN(ctx *libusb.Context, sn string) (*U3, error) {
	usbDevices, err := ctx.GetDeviceList()
	if err != nil {
		return nil, fmt.Errorf("error getting USB device list: %s", err)
	}
	for _, usbDevice := range usbDevices {
		usbDeviceDescriptor, err := usbDevice.GetDeviceDescriptor()
		if err != nil {
			return nil, fmt.Errorf("error getting device descriptor: %s", err)
		}
		if usbDeviceDescriptor.VendorID != VendorID ||
			usbDeviceDescriptor.ProductID != ProductID {
			continue
		}
		usbDeviceHandle, err := usbDevice.Open()
		if err != nil {
			return nil, fmt.Errorf("error getting device handle: %s", err)
		}
		serialNum, err := usbDeviceHandle.GetStringDescriptorASCII(
			usbDeviceDescriptor.SerialNumberIndex)
		if err != nil {
			usbDeviceHandle.Close()
			return nil, fmt.Errorf("error reading S/N: %s", err)
		}
		if serialNum == sn {
			log.Printf("Found S/N %s. Creating device", sn)
			t, err := NewUSBTransport(usbDevice, usbDeviceHandle)
			if err != nil {
				return nil, err
			}
			return newConfiguredU3(t)
		}
		usbDeviceHandle.Close()
	}
	return nil, fmt.Errorf("couldn't find U3 %s", sn)
}

// OpenHID creates a new U3 session through the HID layer. With an
// empty serial the first U3 found is used.
func OpenHID(serial string) (*U3, error) {
	infos := hid.Enumerate(VendorID, ProductID)
	if len(infos) == 0 {
		return nil, fmt.Errorf("no U3 found on the HID bus")
	}
	for _, info := range infos {
		if serial != "" && info.Serial != serial {
			continue
		}
		dev, err := info.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening U3: %s", err)
		}
		return newConfiguredU3(&HIDTransport{Device: dev})
	}
	return nil, fmt.Errorf("couldn't find U3 %s", serial)
}

// Close closes the underlying transport.
func (d *U3) Close() error {
	return d.Transport.Close()
}

// IsHighVoltage reports whether the connected device is a U3-HV,
// whose first four analog inputs are fixed high-voltage inputs.
func (d *U3) IsHighVoltage() bool {
	return strings.HasSuffix(d.DeviceName, "-HV")
}

// Reset restarts the device. A soft reset reinitializes the firmware
// without disturbing the USB connection; a hard reset behaves like a
// power cycle.
func (d *U3) Reset(hard bool) error {
	cmd := make([]byte, 4)
	cmd[1] = commandReset
	cmd[2] = 0x01
	if hard {
		cmd[2] = 0x02
	}
	cmd[0] = checksum8(cmd, len(cmd))
	_, err := d.writeRead(cmd, 4, nil, false, false)
	return err
}

// writeRead sends one command packet and reads its response. The
// response must be exactly readLen bytes. When checkEcho is set the
// response is validated against the echoed command bytes; when
// addChecksum is set the command's checksum bytes are filled in
// before sending.
func (d *U3) writeRead(cmd []byte, readLen int, echo []byte, checkEcho, addChecksum bool) ([]byte, error) {
	if addChecksum {
		if err := SetChecksum(cmd); err != nil {
			return nil, err
		}
	}
	if d.Debug {
		log.Printf("sent: %s", hexDump(cmd))
	}
	n, err := d.Transport.Write(cmd)
	if err != nil {
		return nil, fmt.Errorf("error writing command: %s", err)
	}
	if n != len(cmd) {
		return nil, ErrFraming{Op: "write", Want: len(cmd), Got: n}
	}
	result := make([]byte, readLen)
	n, err = d.Transport.Read(result)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %s", err)
	}
	if d.Debug {
		log.Printf("received: %s", hexDump(result[:n]))
	}
	if n != readLen {
		return nil, ErrFraming{Op: "read", Want: readLen, Got: n}
	}
	if checkEcho {
		if err := d.checkResponse(result, echo); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// checkResponse validates a response packet: the device's bad
// checksum marker, the echoed command bytes, the response checksum,
// and the error code byte, in that order.
func (d *U3) checkResponse(results []byte, commandBytes []byte) error {
	size := len(commandBytes)
	if len(results) == 0 {
		return fmt.Errorf("got a zero length packet")
	}
	if results[0] == badChecksumMarker && results[1] == badChecksumMarker {
		return ErrBadChecksum{}
	}
	if !bytes.Equal(results[1:size+1], commandBytes) {
		return ErrIncorrectCommand{
			Expected: commandBytes,
			Got:      results[1 : size+1],
			Packet:   results,
		}
	}
	if !VerifyChecksum(results) {
		return ErrChecksum{}
	}
	if results[6] != 0 {
		return ErrLowlevel{Code: results[6], Device: d.DeviceName}
	}
	return nil
}
