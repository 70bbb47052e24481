// Package ubx implements the u-blox UBX binary protocol: frame checksums,
// configuration command encoders and navigation/status message decoders.
//
// Field layouts follow the u-blox receiver description manual for the
// message ids this controller needs; everything else is preserved as a
// raw Message and never interpreted.
package ubx

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/muexxl/rtkbase/internal/rtkerr"
)

// Sync bytes that begin every UBX frame.
const (
	Sync1 = 0xB5
	Sync2 = 0x62
)

// ID identifies a UBX message by its two-byte class/id pair.
type ID struct {
	Class byte
	ID    byte
}

func (i ID) String() string {
	if name, ok := names[i]; ok {
		return name
	}
	return fmt.Sprintf("UBX-%02X-%02X", i.Class, i.ID)
}

// Bytes returns the class/id pair in wire order.
func (i ID) Bytes() [2]byte { return [2]byte{i.Class, i.ID} }

// Well-known message ids used by the controller.
var (
	IDNavPosECEF  = ID{0x01, 0x01}
	IDNavStatus   = ID{0x01, 0x03}
	IDNavPVT      = ID{0x01, 0x07}
	IDNavHPPosLLH = ID{0x01, 0x14}
	IDNavTimeUTC  = ID{0x01, 0x21}
	IDNavSVIN     = ID{0x01, 0x3B}
	IDCfgMsg      = ID{0x06, 0x01}
	IDCfgRst      = ID{0x06, 0x04}
	IDCfgRate     = ID{0x06, 0x08}
	IDCfgTMode3   = ID{0x06, 0x71}
	IDMgaDBD      = ID{0x13, 0x80}
	IDMgaIniTime  = ID{0x13, 0x40}
)

var names = map[ID]string{
	IDNavPosECEF:  "NAV-POSECEF",
	IDNavStatus:   "NAV-STATUS",
	IDNavPVT:      "NAV-PVT",
	IDNavHPPosLLH: "NAV-HPPOSLLH",
	IDNavTimeUTC:  "NAV-TIMEUTC",
	IDNavSVIN:     "NAV-SVIN",
	IDCfgMsg:      "CFG-MSG",
	IDCfgRst:      "CFG-RST",
	IDCfgRate:     "CFG-RATE",
	IDCfgTMode3:   "CFG-TMODE3",
	IDMgaDBD:      "MGA-DBD",
	IDMgaIniTime:  "MGA-INI-TIME",
}

// Message is a raw, validated UBX frame: a class/id, its payload, and the
// instant the final byte was read off the wire. Typed decoders below turn
// the payload into the records the controller actually consumes.
type Message struct {
	ID       ID
	Payload  []byte
	Received time.Time
}

// Checksum computes the 8-bit Fletcher checksum u-blox uses, over the bytes
// from class through the end of the payload (i.e. everything between the
// two sync bytes and the two checksum bytes).
func Checksum(classIDLenPayload []byte) (ckA, ckB byte) {
	for _, b := range classIDLenPayload {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Encode serializes a message id and payload into a complete UBX frame.
func Encode(id ID, payload []byte) []byte {
	frame := make([]byte, 0, 8+len(payload))
	frame = append(frame, Sync1, Sync2, id.Class, id.ID)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	ckA, ckB := Checksum(frame[2:])
	frame = append(frame, ckA, ckB)
	return frame
}

// Decode validates and splits a complete UBX frame (as produced by the
// framer) into its id and payload. It returns an error tagged for
// protocol-framing policy handling if the checksum does not match.
func Decode(frame []byte) (Message, error) {
	if len(frame) < 8 || frame[0] != Sync1 || frame[1] != Sync2 {
		return Message{}, rtkerr.Wrap(rtkerr.ProtocolFraming, fmt.Errorf("ubx: not a UBX frame"))
	}
	payloadLen := binary.LittleEndian.Uint16(frame[4:6])
	want := 8 + int(payloadLen)
	if len(frame) != want {
		return Message{}, rtkerr.Wrap(rtkerr.ProtocolFraming, fmt.Errorf("ubx: frame length mismatch: have %d want %d", len(frame), want))
	}
	ckA, ckB := Checksum(frame[2 : 6+int(payloadLen)])
	if ckA != frame[6+payloadLen] || ckB != frame[7+payloadLen] {
		return Message{}, rtkerr.Wrap(rtkerr.ProtocolFraming, fmt.Errorf("ubx: checksum mismatch"))
	}
	payload := make([]byte, payloadLen)
	copy(payload, frame[6:6+payloadLen])
	return Message{ID: ID{frame[2], frame[3]}, Payload: payload}, nil
}
