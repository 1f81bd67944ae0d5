// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"log"
	"time"

	"github.com/gotmc/labjack/u3"
)

const millisecondDelay = 500

func main() {
	// Open the first U3 found on the HID bus.
	daq, err := u3.OpenHID("")
	if err != nil {
		log.Fatalf("Couldn't find a U3: %s", err)
	}
	defer daq.Close()

	log.Printf("Found a %s / S/N %d / firmware %s",
		daq.DeviceName, daq.SerialNumber, daq.FirmwareVersion)

	// Blink the status LED.
	for i := 0; i < 10; i++ {
		if err := daq.ToggleLED(); err != nil {
			log.Fatalf("Error toggling the LED: %s", err)
		}
		time.Sleep(millisecondDelay * time.Millisecond)
	}
}
