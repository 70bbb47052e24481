package framer

import (
	"bytes"
	"encoding/binary"

	"github.com/muexxl/rtkbase/internal/ubx"
)

// UBXHeader reports whether data begins with the UBX sync sequence.
func UBXHeader(data []byte) bool {
	return len(data) >= 2 && data[0] == ubx.Sync1 && data[1] == ubx.Sync2
}

// UBXLength returns the length of a complete, checksum-valid UBX frame at
// the head of data, or 0 if data does not hold enough bytes, or the header
// or checksum do not validate.
func UBXLength(data []byte) int {
	if !UBXHeader(data) || len(data) < 6 {
		return 0
	}
	payloadLen := int(binary.LittleEndian.Uint16(data[4:6]))
	total := 8 + payloadLen
	if len(data) < total {
		return 0
	}
	ckA, ckB := ubx.Checksum(data[2 : 6+payloadLen])
	if ckA != data[6+payloadLen] || ckB != data[7+payloadLen] {
		return 0
	}
	return total
}

// RTCM3Header reports whether data begins with the RTCM3 preamble byte.
func RTCM3Header(data []byte) bool {
	return len(data) >= 1 && data[0] == 0xD3
}

// RTCM3Length returns the length of a complete, CRC-24Q-valid RTCM3 frame
// at the head of data, or 0 if data does not hold enough bytes, the header
// does not match, or the CRC does not validate.
func RTCM3Length(data []byte) int {
	if !RTCM3Header(data) || len(data) < 3 {
		return 0
	}
	payloadLen := (int(data[1]&0x03) << 8) | int(data[2])
	total := 3 + payloadLen + 3
	if len(data) < total {
		return 0
	}
	want := CRC24Q(data[:3+payloadLen])
	got := uint32(data[total-3])<<16 | uint32(data[total-2])<<8 | uint32(data[total-1])
	if want != got {
		return 0
	}
	return total
}

// NMEAHeader reports whether data begins with an NMEA talker id prefix.
func NMEAHeader(data []byte) bool {
	return len(data) >= 2 && data[0] == '$' && data[1] == 'G'
}

// NMEALength returns the length of a complete NMEA sentence at the head of
// data (up to and including the terminating CRLF), or 0 if no terminator
// has arrived yet or the header does not match. The core does not validate
// the trailing *XX checksum.
func NMEALength(data []byte) int {
	if !NMEAHeader(data) {
		return 0
	}
	idx := bytes.Index(data, []byte("\r\n"))
	if idx < 0 {
		return 0
	}
	return idx + 2
}

// crc24qPoly is the CRC-24Q polynomial RTCM3 frames are protected with.
const crc24qPoly = 0x1864CFB

// CRC24Q computes the 24-bit CRC-24Q checksum used by RTCM3 frame
// trailers, bit by bit (RTCM3 frames are short enough that a lookup table
// buys nothing worth the extra code).
func CRC24Q(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 16
		for i := 0; i < 8; i++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= crc24qPoly
			}
		}
	}
	return crc & 0xFFFFFF
}
