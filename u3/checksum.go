// Copyright (c) 2017-2020 The labjack developers. All rights reserved.
// Project site: https://github.com/gotmc/labjack
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package u3

// checksum8 sums bytes 1 through numBytes-1 and folds any carry back
// into the low byte twice, so the result of summing up to 63 bytes
// still fits in a single byte. Byte 0 is excluded because that is
// where the checksum itself is placed.
func checksum8(buf []byte, numBytes int) byte {
	var total uint32
	for i := 1; i < numBytes; i++ {
		total += uint32(buf[i])
	}
	b := (total & 0xff) + ((total >> 8) & 0xff)
	b = (b & 0xff) + (b >> 8)
	return byte(b)
}

// checksum16 sums the payload of an extended command, which starts at
// byte 6 and runs to the end of the buffer.
func checksum16(buf []byte) uint16 {
	var total uint32
	for i := 6; i < len(buf); i++ {
		total += uint32(buf[i])
	}
	return uint16(total)
}

// isExtended reports whether the command byte at position 1 marks an
// extended command. Extended commands carry a 16-bit payload checksum
// in addition to the 8-bit header checksum.
func isExtended(commandByte byte) bool {
	return (commandByte&0x78)>>3 == 0x0f
}

// SetChecksum fills in the checksum bytes of cmd in place. cmd[1] must
// already hold the command byte, since it selects between the normal
// and extended checksum layouts. Extended commands get checksum16 of
// the payload in bytes 4 (LSB) and 5 (MSB) and checksum8 of bytes 1-5
// in byte 0; normal commands get checksum8 of the whole packet in
// byte 0.
func SetChecksum(cmd []byte) error {
	if len(cmd) < 8 {
		return ErrInvalidParameter{
			Name:   "command",
			Reason: "does not contain enough bytes",
		}
	}
	if isExtended(cmd[1]) {
		cs16 := checksum16(cmd)
		cmd[4] = byte(cs16 & 0xff)
		cmd[5] = byte(cs16 >> 8)
		cmd[0] = checksum8(cmd, 6)
		return nil
	}
	cmd[0] = checksum8(cmd, len(cmd))
	return nil
}

// VerifyChecksum reports whether the checksum bytes of buf match its
// contents. For extended packets both the 8-bit header checksum and
// the 16-bit payload checksum must hold.
func VerifyChecksum(buf []byte) bool {
	if len(buf) < 8 {
		return false
	}
	if isExtended(buf[1]) {
		cs16 := checksum16(buf)
		if buf[4] != byte(cs16&0xff) || buf[5] != byte(cs16>>8) {
			return false
		}
		return buf[0] == checksum8(buf, 6)
	}
	return buf[0] == checksum8(buf, len(buf))
}
