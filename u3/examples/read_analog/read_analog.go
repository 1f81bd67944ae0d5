// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"log"

	"github.com/gotmc/labjack/u3"
	"github.com/gotmc/libusb"
)

func main() {
	// Setup the USB context
	ctx, err := libusb.NewContext()
	if err != nil {
		log.Fatal("Couldn't create USB context. Ending now.")
	}
	defer ctx.Close()

	daq, err := u3.GetFirstDevice(ctx)
	if err != nil {
		log.Fatalf("Couldn't find a U3: %s", err)
	}
	defer daq.Close()
	log.Printf("Found a %s / S/N %d / firmware %s",
		daq.DeviceName, daq.SerialNumber, daq.FirmwareVersion)

	// Read the calibration constants so the conversions are exact.
	if _, err := daq.ReadCalibrationData(); err != nil {
		log.Fatalf("Error reading the calibration memory: %s", err)
	}

	// Put FIO0 and FIO1 in analog mode.
	config, err := daq.ConfigAnalog(u3.FIO0, u3.FIO1)
	if err != nil {
		log.Fatalf("Error configuring the analog lines: %s", err)
	}
	log.Printf("FIOAnalog = %#08b", config.FIOAnalog)

	// AIN0 single-ended against ground.
	v, err := daq.GetAIN(0, 31, false, false)
	if err != nil {
		log.Fatalf("Error reading AIN0: %s", err)
	}
	log.Printf("AIN0 = %.5f V", v)

	// AIN0 minus AIN1 differential.
	v, err = daq.GetAIN(0, 1, false, false)
	if err != nil {
		log.Fatalf("Error reading AIN0-AIN1: %s", err)
	}
	log.Printf("AIN0-AIN1 = %.5f V", v)

	// Internal temperature sensor.
	k, err := daq.GetTemperature()
	if err != nil {
		log.Fatalf("Error reading the temperature: %s", err)
	}
	log.Printf("Internal temperature = %.2f K (%.2f C)", k, k-273.15)
}
