package ubx

import (
	"encoding/binary"
	"math"
)

// ResetMode selects the navBbrMask for UBX-CFG-RST.
type ResetMode int

const (
	ResetCold ResetMode = iota
	ResetWarm
	ResetHot
)

// EncodeCfgRst builds a UBX-CFG-RST controlled-software-reset command.
func EncodeCfgRst(mode ResetMode) []byte {
	var navBbrMask uint16
	switch mode {
	case ResetCold:
		navBbrMask = 0xFFFF
	case ResetWarm:
		navBbrMask = 0x0001
	case ResetHot:
		navBbrMask = 0x0000
	}
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], navBbrMask)
	payload[2] = 0x02 // controlled software reset
	payload[3] = 0x00 // reserved
	return Encode(IDCfgRst, payload)
}

// EncodeCfgRate builds a UBX-CFG-RATE command setting the measurement rate
// in milliseconds, one navigation solution per measurement, referenced to
// GPS time.
func EncodeCfgRate(measRateMS uint16) []byte {
	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:2], measRateMS)
	binary.LittleEndian.PutUint16(payload[2:4], 1) // navRate
	binary.LittleEndian.PutUint16(payload[4:6], 1) // timeRef = GPS
	return Encode(IDCfgRate, payload)
}

// Port selection for the CFG-MSG short form.
const (
	PortNone byte = 0x00
	PortUSB  byte = 0x01
)

// EncodeCfgMsg builds the short-form UBX-CFG-MSG command, which sets the
// output rate for a message on the port it was received on.
func EncodeCfgMsg(id ID, rate byte) []byte {
	payload := []byte{id.Class, id.ID, rate}
	return Encode(IDCfgMsg, payload)
}

const tmode3PayloadLen = 40

// EncodeCfgTMode3SurveyIn builds a UBX-CFG-TMODE3 command starting
// survey-in mode with the given minimum duration and target accuracy.
func EncodeCfgTMode3SurveyIn(minDurS uint32, accM float64) []byte {
	payload := make([]byte, tmode3PayloadLen)
	binary.LittleEndian.PutUint16(payload[2:4], 0x0001)
	binary.LittleEndian.PutUint32(payload[24:28], minDurS)
	binary.LittleEndian.PutUint32(payload[28:32], accMetersToTenthMM(accM))
	return Encode(IDCfgTMode3, payload)
}

// EncodeCfgTMode3Fixed builds a UBX-CFG-TMODE3 command switching to a fixed
// lat/lon/height position with the given accuracy.
func EncodeCfgTMode3Fixed(latDeg, lonDeg, heightM, accM float64) []byte {
	payload := make([]byte, tmode3PayloadLen)
	binary.LittleEndian.PutUint16(payload[2:4], 0x0101) // fixed mode, lla bit set

	latMain, latHP := splitHighPrecisionDeg(latDeg)
	lonMain, lonHP := splitHighPrecisionDeg(lonDeg)
	altMain, altHP := splitHighPrecisionHeight(heightM)

	binary.LittleEndian.PutUint32(payload[4:8], uint32(latMain))
	binary.LittleEndian.PutUint32(payload[8:12], uint32(lonMain))
	binary.LittleEndian.PutUint32(payload[12:16], uint32(altMain))
	payload[16] = byte(latHP)
	payload[17] = byte(lonHP)
	payload[18] = byte(altHP)
	binary.LittleEndian.PutUint32(payload[20:24], accMetersToTenthMM(accM))

	return Encode(IDCfgTMode3, payload)
}

// EncodeCfgTMode3Off builds a UBX-CFG-TMODE3 command disabling time mode.
func EncodeCfgTMode3Off() []byte {
	payload := make([]byte, tmode3PayloadLen)
	return Encode(IDCfgTMode3, payload)
}

// EncodeMgaDBDRequest builds an empty-payload UBX-MGA-DBD poll request.
func EncodeMgaDBDRequest() []byte {
	return Encode(IDMgaDBD, nil)
}

func accMetersToTenthMM(accM float64) uint32 {
	return uint32(math.Round(accM * 10000))
}

// splitHighPrecisionDeg splits a lat/lon in degrees into the standard
// 1e-7 deg int32 field and its 1e-9 deg high-precision remainder, the way
// UBX-CFG-TMODE3 and UBX-NAV-HPPOSLLH both encode position.
func splitHighPrecisionDeg(deg float64) (main int32, hp int8) {
	totalNano := int64(math.Round(deg * 1e9))
	mainVal := totalNano / 100
	hpVal := totalNano % 100
	return int32(mainVal), int8(hpVal)
}

// splitHighPrecisionHeight splits a height in meters into a centimeter
// int32 field and its 0.1mm high-precision remainder.
func splitHighPrecisionHeight(heightM float64) (mainCM int32, hpTenthMM int8) {
	totalTenthMM := int64(math.Round(heightM * 10000))
	mainVal := totalTenthMM / 100
	hpVal := totalTenthMM % 100
	return int32(mainVal), int8(hpVal)
}
