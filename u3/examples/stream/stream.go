// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"flag"
	"log"

	"github.com/gotmc/labjack/u3"
	"github.com/gotmc/libusb"
)

var (
	frequency float64
	blocks    int
)

func init() {
	flag.Float64Var(&frequency, "hz", 5000, "scan frequency in Hertz")
	flag.IntVar(&blocks, "blocks", 10, "number of blocks to read")
}

func main() {
	flag.Parse()

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

	if _, err := daq.ReadCalibrationData(); err != nil {
		log.Fatalf("Error reading the calibration memory: %s", err)
	}
	if _, err = daq.ConfigAnalog(u3.FIO0, u3.FIO1); err != nil {
		log.Fatalf("Error configuring the analog lines: %s", err)
	}

	// Scan AIN0 and AIN1 single-ended.
	err = daq.StreamConfig([]int{0, 1}, []int{31, 31}, u3.StreamConfigOptions{
		ScanFrequency: frequency,
	})
	if err != nil {
		log.Fatalf("Error configuring the stream: %s", err)
	}
	if err := daq.StreamStart(); err != nil {
		log.Fatalf("Error starting the stream: %s", err)
	}
	log.Printf("Streaming AIN0 and AIN1 at %.0f Hz", frequency)

	samples := 0
	missed := 0
	for i := 0; i < blocks; i++ {
		reading, err := daq.StreamData(true)
		if err != nil {
			daq.StreamStop()
			log.Fatalf("Error reading stream data: %s", err)
		}
		if reading.NumPackets == 0 {
			continue
		}
		missed += reading.Missed
		for channel, values := range reading.Readings {
			samples += len(values)
			log.Printf("%s: %d samples, first %.5f V", channel, len(values), values[0])
		}
	}
	log.Printf("Read %d samples, missed %d", samples, missed)

	if err := daq.StreamStop(); err != nil {
		log.Fatalf("Error stopping the stream: %s", err)
	}
}
