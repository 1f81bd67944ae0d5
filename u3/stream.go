// Copyright (c) 2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

import (
	"encoding/binary"
	"fmt"
	"log"
)

const (
	streamHeaderSize  = 12
	streamFooterSize  = 2
	maxSamplesPerPkt  = 25
	maxScanInterval   = 65535
	maxPacketsPerReq  = 48
	lowSpeedClockHz   = 4000000.0
	highSpeedClockHz  = 48000000.0
	dividedClockTicks = 15625.0
)

// StreamConfigOptions adjusts the scan clock and packing of a stream.
// The zero value scans at the fastest rate with 25 samples per packet
// and the highest resolution index. Setting ScanFrequency derives the
// clock divisor and scan interval, overriding DivideClockBy256 and
// ScanInterval.
type StreamConfigOptions struct {
	SamplesPerPacket   *int    `json:"samples_per_packet,omitempty"`
	InternalClock48MHz bool    `json:"internal_clock_48mhz,omitempty"`
	DivideClockBy256   bool    `json:"divide_clock_by_256,omitempty"`
	Resolution         *int    `json:"resolution,omitempty"`
	ScanInterval       *int    `json:"scan_interval,omitempty"`
	ScanFrequency      float64 `json:"scan_frequency,omitempty"`
}

// StreamConfig writes the stream channel table and scan clock. Stream
// mode scans the listed channels at the configured rate; call this
// before StreamStart. A negative channel of 31 gives a single-ended
// reading and 32 selects the special 0-3.6V range. Requires U3
// hardware version 1.21 or greater.
func (d *U3) StreamConfig(channels, negChannels []int, opts StreamConfigOptions) error {
	if len(channels) == 0 {
		return ErrInvalidParameter{Name: "channels", Reason: "need at least one channel"}
	}
	if len(negChannels) != len(channels) {
		return ErrInvalidParameter{
			Name:   "negative channels",
			Reason: fmt.Sprintf("length %d didn't match the %d channels", len(negChannels), len(channels)),
		}
	}
	numChannels := len(channels)

	samplesPerPacket := maxSamplesPerPkt
	if opts.SamplesPerPacket != nil {
		samplesPerPacket = *opts.SamplesPerPacket
	}
	resolution := 3
	if opts.Resolution != nil {
		resolution = *opts.Resolution
	}
	scanInterval := 1
	if opts.ScanInterval != nil {
		scanInterval = *opts.ScanInterval
	}
	divideClockBy256 := opts.DivideClockBy256

	if opts.ScanFrequency != 0 {
		if opts.ScanFrequency < 1000 {
			if opts.ScanFrequency < 25 {
				samplesPerPacket = int(opts.ScanFrequency)
			}
			divideClockBy256 = true
			scanInterval = int(dividedClockTicks / opts.ScanFrequency)
		} else {
			divideClockBy256 = false
			scanInterval = int(lowSpeedClockHz / opts.ScanFrequency)
		}
	}

	// Force the scan interval and samples per packet into range.
	if scanInterval > maxScanInterval {
		scanInterval = maxScanInterval
	}
	if scanInterval < 1 {
		scanInterval = 1
	}
	if samplesPerPacket < 1 {
		samplesPerPacket = 1
	}
	if samplesPerPacket > maxSamplesPerPkt {
		samplesPerPacket = maxSamplesPerPkt
	}

	cmd := make([]byte, 12+2*numChannels)
	cmd[1] = 0xf8
	cmd[2] = byte(numChannels + 3)
	cmd[3] = byte(commandStreamConfig)
	cmd[6] = byte(numChannels)
	cmd[7] = byte(samplesPerPacket)
	cmd[9] = boolToByte(opts.InternalClock48MHz)<<3 |
		boolToByte(divideClockBy256)<<2 |
		byte(resolution&3)
	binary.LittleEndian.PutUint16(cmd[10:12], uint16(scanInterval))
	for i := 0; i < numChannels; i++ {
		cmd[12+2*i] = byte(channels[i])
		if negChannels[i] == 32 {
			cmd[13+2*i] = 30
		} else {
			cmd[13+2*i] = byte(negChannels[i])
		}
	}

	_, err := d.writeRead(cmd, 8, []byte{0xf8, 0x01, byte(commandStreamConfig)}, true, true)
	if err != nil {
		return err
	}

	d.streamSamplesPerPacket = samplesPerPacket
	d.streamChannelNumbers = append([]int(nil), channels...)
	d.streamNegChannels = append([]int(nil), negChannels...)
	d.streamPacketOffset = 0
	d.streamConfigured = true

	freq := lowSpeedClockHz
	if opts.InternalClock48MHz {
		freq = highSpeedClockHz
	}
	if divideClockBy256 {
		freq /= 256
	}
	freq /= float64(scanInterval)

	if samplesPerPacket < maxSamplesPerPkt {
		// Low speed, so limit each request to one packet.
		d.streamPacketsPerRequest = 1
	} else {
		ppr := int(freq / float64(samplesPerPacket))
		if ppr < 1 {
			ppr = 1
		}
		if ppr > maxPacketsPerReq {
			ppr = maxPacketsPerReq
		}
		d.streamPacketsPerRequest = ppr
	}
	return nil
}

// StreamStart starts streaming on the device. The stream must be
// configured first.
func (d *U3) StreamStart() error {
	if !d.streamConfigured {
		return ErrStreamNotConfigured
	}
	if d.streamRunning {
		return ErrStreamRunning
	}

	results, err := d.writeRead([]byte{commandStreamStart, commandStreamStart}, 4, nil, false, false)
	if err != nil {
		return err
	}
	if results[2] != 0 {
		return ErrLowlevel{Code: results[2], Device: d.DeviceName, Command: "StreamStart"}
	}
	d.streamRunning = true
	return nil
}

// StreamStop stops streaming on the device.
func (d *U3) StreamStop() error {
	results, err := d.writeRead([]byte{commandStreamStop, commandStreamStop}, 4, nil, false, false)
	if err != nil {
		return err
	}
	if results[2] != 0 {
		return ErrLowlevel{Code: results[2], Device: d.DeviceName, Command: "StreamStop"}
	}
	d.streamRunning = false
	return nil
}

// StreamReading is one block of stream data.
type StreamReading struct {
	// NumPackets is the number of USB packets collected in this block.
	// Zero means the read returned no data; try again.
	NumPackets int
	// Errors is the number of packets in this block whose error byte
	// was set.
	Errors int
	// Missed is the number of samples dropped to buffer overflow on
	// the device.
	Missed int
	// FirstPacket is the packet counter value of the first packet.
	FirstPacket byte
	// Raw holds the raw packet bytes, for processing later with
	// ProcessStreamData.
	Raw []byte
	// Readings maps "AINx" channel names to converted values. Only
	// populated when StreamData is called with convert set.
	Readings map[string][]float64
}

// StreamData reads one block of stream data from the device. When
// convert is set the samples are calibrated and demuxed per channel;
// reading raw and converting later with ProcessStreamData is much
// faster. The stream must be started first.
func (d *U3) StreamData(convert bool) (StreamReading, error) {
	var reading StreamReading
	if !d.streamRunning {
		return reading, ErrStreamNotRunning
	}

	numBytes := streamHeaderSize + streamFooterSize + 2*d.streamSamplesPerPacket
	buf := make([]byte, numBytes*d.streamPacketsPerRequest)
	n, err := d.Transport.StreamRead(buf)
	if err != nil {
		return reading, fmt.Errorf("error reading stream data: %s", err)
	}
	if n == 0 {
		return reading, nil
	}
	result := buf[:n]

	numPackets := len(result) / numBytes
	reading.NumPackets = numPackets
	reading.Raw = result
	if numPackets == 0 {
		return reading, nil
	}
	reading.FirstPacket = result[10]

	for i := 0; i < numPackets; i++ {
		errByte := result[11+i*numBytes]
		if errByte == 0 {
			continue
		}
		reading.Errors++
		if d.Debug && errByte != errCodeAutoRecoverActive && errByte != errCodeAutoRecoverReport {
			log.Printf("stream packet error: %s", LowlevelErrorString(errByte))
		}
		if errByte == errCodeAutoRecoverReport {
			reading.Missed += int(binary.LittleEndian.Uint32(result[6+i*numBytes : 10+i*numBytes]))
		}
	}

	if convert {
		readings, err := d.ProcessStreamData(result, numBytes)
		if err != nil {
			return reading, err
		}
		reading.Readings = readings
	}
	return reading, nil
}

// ProcessStreamData breaks raw stream bytes into individual channels
// and applies calibrations. Samples rotate through the configured
// channel table, and the rotation persists across calls so split
// blocks stay aligned. Channels 193 and 194 carry the digital port
// states and channels 200 and up carry timers and counters; those
// samples are kept as their raw 16-bit values.
func (d *U3) ProcessStreamData(result []byte, numBytes int) (map[string][]float64, error) {
	if numBytes == 0 {
		numBytes = streamHeaderSize + streamFooterSize + 2*d.streamSamplesPerPacket
	}

	readings := make(map[string][]float64)
	for start := 0; start+numBytes <= len(result); start += numBytes {
		samples := result[start+streamHeaderSize : start+numBytes-streamFooterSize]
		for j := 0; j+2 <= len(samples); j += 2 {
			if d.streamPacketOffset >= len(d.streamChannelNumbers) {
				d.streamPacketOffset = 0
			}
			channel := d.streamChannelNumbers[d.streamPacketOffset]
			raw := binary.LittleEndian.Uint16(samples[j : j+2])

			var value float64
			switch {
			case channel == 193 || channel == 194 || channel >= 200:
				value = float64(raw)
			default:
				negChannel := d.streamNegChannels[d.streamPacketOffset]
				singleEnded := negChannel == 31
				isSpecial := negChannel == 32
				lvChannel := true
				if d.IsHighVoltage() && channel < 4 {
					lvChannel = false
				}
				v, err := d.BinaryToCalibratedAnalogVoltage(raw, lvChannel, singleEnded, isSpecial, channel)
				if err != nil {
					return nil, err
				}
				value = v
			}

			key := fmt.Sprintf("AIN%d", channel)
			readings[key] = append(readings[key], value)
			d.streamPacketOffset++
		}
	}
	return readings, nil
}
