// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"fmt"

	"github.com/gotmc/libusb"
	"github.com/karalabe/hid"
)

const defaultTimeout = 2000

// Transporter moves raw packets between the driver and a U3. Write
// and Read carry command traffic; StreamRead drains the endpoint that
// carries stream data, which is a separate bulk endpoint over libusb.
// Implementations are not safe for concurrent use.
type Transporter interface {
	Write(p []byte) (n int, err error)
	Read(p []byte) (n int, err error)
	StreamRead(p []byte) (n int, err error)
	Close() error
}

// Init initializes a new libusb session/context by creating a new
// Context and returning a pointer to that Context.
func Init() (*libusb.Context, error) {
	return libusb.NewContext()
}

// USBTransport is a Transporter backed by a libusb device handle. The
// U3 exposes one bulk OUT endpoint for commands, one bulk IN endpoint
// for responses, and a second bulk IN endpoint for stream data.
type USBTransport struct {
	Timeout          int
	Device           *libusb.Device
	DeviceDescriptor *libusb.DeviceDescriptor
	DeviceHandle     *libusb.DeviceHandle
	ConfigDescriptor *libusb.ConfigDescriptor
	OutEndpoint      *libusb.EndpointDescriptor
	InEndpoint       *libusb.EndpointDescriptor
	StreamEndpoint   *libusb.EndpointDescriptor
}

// NewUSBTransport claims the given USB device and locates its bulk
// endpoints.
func NewUSBTransport(dev *libusb.Device, dh *libusb.DeviceHandle) (*USBTransport, error) {
	var t USBTransport
	err := dh.ClaimInterface(0)
	if err != nil {
		return nil, fmt.Errorf("error claiming the bulk interface %s", err)
	}
	t.Timeout = defaultTimeout
	t.Device = dev
	t.DeviceHandle = dh
	deviceDescriptor, err := dev.GetDeviceDescriptor()
	if err != nil {
		return nil, fmt.Errorf("error getting device descriptor %s", err)
	}
	t.DeviceDescriptor = deviceDescriptor
	configDescriptor, err := dev.GetActiveConfigDescriptor()
	if err != nil {
		return nil, fmt.Errorf("error getting active config descriptor. %s", err)
	}
	t.ConfigDescriptor = configDescriptor
	firstDescriptor := configDescriptor.SupportedInterfaces[0].InterfaceDescriptors[0]
	for _, endpoint := range firstDescriptor.EndpointDescriptors {
		switch {
		case byte(endpoint.EndpointAddress)&0x80 == 0:
			t.OutEndpoint = endpoint
		case t.InEndpoint == nil:
			t.InEndpoint = endpoint
		default:
			t.StreamEndpoint = endpoint
		}
	}
	if t.OutEndpoint == nil || t.InEndpoint == nil {
		return nil, fmt.Errorf("device is missing its bulk endpoints")
	}
	return &t, nil
}

// Write sends a command packet using a bulk USB transfer.
func (t *USBTransport) Write(p []byte) (n int, err error) {
	return t.DeviceHandle.BulkTransfer(
		t.OutEndpoint.EndpointAddress,
		p,
		len(p),
		t.Timeout,
	)
}

// Read reads a response packet using a bulk USB transfer.
func (t *USBTransport) Read(p []byte) (n int, err error) {
	return t.DeviceHandle.BulkTransfer(
		t.InEndpoint.EndpointAddress,
		p,
		len(p),
		t.Timeout,
	)
}

// StreamRead reads stream data from the third bulk endpoint.
func (t *USBTransport) StreamRead(p []byte) (n int, err error) {
	endpoint := t.StreamEndpoint
	if endpoint == nil {
		endpoint = t.InEndpoint
	}
	return t.DeviceHandle.BulkTransfer(
		endpoint.EndpointAddress,
		p,
		len(p),
		t.Timeout,
	)
}

// Close releases the claimed interface and closes the device handle.
func (t *USBTransport) Close() error {
	err := t.DeviceHandle.ReleaseInterface(0)
	if err != nil {
		return fmt.Errorf("error releasing interface %s", err)
	}
	t.DeviceHandle.Close()
	return nil
}

// HIDTransport is a Transporter backed by a HID device handle, for
// hosts where the U3 is exposed through the HID layer instead of
// libusb. Stream data shares the single interrupt IN endpoint.
type HIDTransport struct {
	Device *hid.Device
}

// Write sends a command packet over the HID layer.
func (t *HIDTransport) Write(p []byte) (n int, err error) {
	return t.Device.Write(p)
}

// Read reads a response packet over the HID layer.
func (t *HIDTransport) Read(p []byte) (n int, err error) {
	return t.Device.Read(p)
}

// StreamRead reads stream data over the HID layer.
func (t *HIDTransport) StreamRead(p []byte) (n int, err error) {
	return t.Device.Read(p)
}

// Close closes the HID device handle.
func (t *HIDTransport) Close() error {
	return t.Device.Close()
}
