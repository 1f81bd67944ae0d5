// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

// USB identifiers for the LabJack U3.
const (
	VendorID  = 0x0cd5
	ProductID = 0x0003
)

// maxPacketLength is the largest command or response the U3 interface
// carries in a single packet.
const maxPacketLength = 64

type command byte

// Extended command types. Extended commands carry 0xF8 in byte 1 and
// one of these codes in byte 3.
const (
	commandFeedback         command = 0x00
	commandConfigU3         command = 0x08
	commandWatchdog         command = 0x09
	commandConfigTimerClock command = 0x0a
	commandConfigIO         command = 0x0b
	commandDefaults         command = 0x0e
	commandStreamConfig     command = 0x11
	commandAsynchConfig     command = 0x14
	commandAsynchTX         command = 0x15
	commandAsynchRX         command = 0x16
	commandWriteMem         command = 0x28
	commandEraseMem         command = 0x29
	commandReadMem          command = 0x2a
	commandWriteCal         command = 0x2b
	commandEraseCal         command = 0x2c
	commandReadCal          command = 0x2d
	commandSHT1x            command = 0x39
	commandSPI              command = 0x3a
	commandI2C              command = 0x3b
)

// Normal command bytes sent in byte 1 of short form packets.
const (
	commandReset       byte = 0x99
	commandStreamStart byte = 0xa8
	commandStreamStop  byte = 0xb0
	badChecksumMarker  byte = 0xb8
)

var commands = map[command]string{
	commandFeedback:         "Feedback",
	commandConfigU3:         "ConfigU3",
	commandWatchdog:         "Watchdog",
	commandConfigTimerClock: "ConfigTimerClock",
	commandConfigIO:         "ConfigIO",
	commandDefaults:         "Read/SetDefaults",
	commandStreamConfig:     "StreamConfig",
	commandAsynchConfig:     "AsynchConfig",
	commandAsynchTX:         "AsynchTX",
	commandAsynchRX:         "AsynchRX",
	commandWriteMem:         "WriteMem",
	commandEraseMem:         "EraseMem",
	commandReadMem:          "ReadMem",
	commandWriteCal:         "WriteCal",
	commandEraseCal:         "EraseCal",
	commandReadCal:          "ReadCal",
	commandSHT1x:            "SHT1X",
	commandSPI:              "SPI",
	commandI2C:              "I2C",
}

// String implements the Stringer interface for the command type.
func (c command) String() string {
	return commands[c]
}
