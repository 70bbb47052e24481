package ubx

import (
	"encoding/binary"
	"fmt"
	"time"
)

// NavSVIN is the decoded UBX-NAV-SVIN survey-in status message.
type NavSVIN struct {
	ItowMS         uint32
	DurS           uint32
	MeanAccTenthMM uint32
	NumObs         uint32
	Valid          bool
	InProgress     bool
	Received       time.Time
}

// DecodeNavSVIN decodes a UBX-NAV-SVIN payload (40 bytes).
func DecodeNavSVIN(payload []byte, received time.Time) (NavSVIN, error) {
	if len(payload) < 40 {
		return NavSVIN{}, fmt.Errorf("ubx: NAV-SVIN payload too short: %d", len(payload))
	}
	return NavSVIN{
		ItowMS:         binary.LittleEndian.Uint32(payload[4:8]),
		DurS:           binary.LittleEndian.Uint32(payload[8:12]),
		MeanAccTenthMM: binary.LittleEndian.Uint32(payload[28:32]),
		NumObs:         binary.LittleEndian.Uint32(payload[32:36]),
		Valid:          payload[36] != 0,
		InProgress:     payload[37] != 0,
		Received:       received,
	}, nil
}

// NavStatus is the decoded UBX-NAV-STATUS message. GPSFix==5 means "time
// only" fix.
type NavStatus struct {
	ItowMS   uint32
	GPSFix   byte
	Received time.Time
}

// DecodeNavStatus decodes a UBX-NAV-STATUS payload (16 bytes).
func DecodeNavStatus(payload []byte, received time.Time) (NavStatus, error) {
	if len(payload) < 16 {
		return NavStatus{}, fmt.Errorf("ubx: NAV-STATUS payload too short: %d", len(payload))
	}
	return NavStatus{
		ItowMS:   binary.LittleEndian.Uint32(payload[0:4]),
		GPSFix:   payload[4],
		Received: received,
	}, nil
}

// NavPVT is the decoded UBX-NAV-PVT position/velocity/time bundle.
type NavPVT struct {
	Year, Month, Day    int
	Hour, Min, Sec      int
	Nano                int32
	LatE7, LonE7        int32
	HeightMM, HMSLMM    int32
	HAccMM, VAccMM      uint32
	FixType             byte
	GNSSFixOK           bool
	ValidDate           bool
	ValidTime           bool
	FullyResolved       bool
	ValidMag            bool
	InvalidLLH          bool
	Received            time.Time
}

// DecodeNavPVT decodes a UBX-NAV-PVT payload (92 bytes, the M8/F9 layout).
func DecodeNavPVT(payload []byte, received time.Time) (NavPVT, error) {
	if len(payload) < 84 {
		return NavPVT{}, fmt.Errorf("ubx: NAV-PVT payload too short: %d", len(payload))
	}
	valid := payload[11]
	flags := payload[21]
	msg := NavPVT{
		Year:          int(binary.LittleEndian.Uint16(payload[4:6])),
		Month:         int(payload[6]),
		Day:           int(payload[7]),
		Hour:          int(payload[8]),
		Min:           int(payload[9]),
		Sec:           int(payload[10]),
		Nano:          int32(binary.LittleEndian.Uint32(payload[16:20])),
		FixType:       payload[20],
		LonE7:         int32(binary.LittleEndian.Uint32(payload[24:28])),
		LatE7:         int32(binary.LittleEndian.Uint32(payload[28:32])),
		HeightMM:      int32(binary.LittleEndian.Uint32(payload[32:36])),
		HMSLMM:        int32(binary.LittleEndian.Uint32(payload[36:40])),
		HAccMM:        binary.LittleEndian.Uint32(payload[40:44]),
		VAccMM:        binary.LittleEndian.Uint32(payload[44:48]),
		ValidDate:     valid&0x01 != 0,
		ValidTime:     valid&0x02 != 0,
		FullyResolved: valid&0x04 != 0,
		ValidMag:      valid&0x08 != 0,
		GNSSFixOK:     flags&0x01 != 0,
		Received:      received,
	}
	if len(payload) >= 80 {
		flags3 := binary.LittleEndian.Uint16(payload[78:80])
		msg.InvalidLLH = flags3&0x01 != 0
	}
	return msg, nil
}

// FixOK reports whether the receiver considers this fix usable, per the
// controller's ingest rule: gnssFixOk && validTime && validDate && fullyResolved.
func (p NavPVT) FixOK() bool {
	return p.GNSSFixOK && p.ValidTime && p.ValidDate && p.FullyResolved
}

// UnixTime returns the GNSS time this fix reports, as seconds since the
// Unix epoch plus the signed nanosecond offset.
func (p NavPVT) UnixTime() float64 {
	t := time.Date(p.Year, time.Month(p.Month), p.Day, p.Hour, p.Min, p.Sec, 0, time.UTC)
	return float64(t.Unix()) + float64(p.Nano)*1e-9
}

// NavHPPosLLH is the decoded UBX-NAV-HPPOSLLH high-precision position.
type NavHPPosLLH struct {
	Lat, Lon float64 // degrees, 9 fractional digits of precision
	HeightM  float64
	Received time.Time
}

// DecodeNavHPPosLLH decodes a UBX-NAV-HPPOSLLH payload (36 bytes).
func DecodeNavHPPosLLH(payload []byte, received time.Time) (NavHPPosLLH, error) {
	if len(payload) < 36 {
		return NavHPPosLLH{}, fmt.Errorf("ubx: NAV-HPPOSLLH payload too short: %d", len(payload))
	}
	lon := int32(binary.LittleEndian.Uint32(payload[8:12]))
	lat := int32(binary.LittleEndian.Uint32(payload[12:16]))
	height := int32(binary.LittleEndian.Uint32(payload[16:20]))
	lonHP := int8(payload[24])
	latHP := int8(payload[25])
	heightHP := int8(payload[26])

	return NavHPPosLLH{
		Lat:      float64(lat)*1e-7 + float64(latHP)*1e-9,
		Lon:      float64(lon)*1e-7 + float64(lonHP)*1e-9,
		HeightM:  (float64(height) + float64(heightHP)*0.1) / 1000.0,
		Received: received,
	}, nil
}

// NavTimeUTC carries only the receive timestamp; the controller never
// consumes the rest of the payload.
type NavTimeUTC struct {
	Received time.Time
}

// DecodeNavTimeUTC validates the payload length and returns the timestamp.
func DecodeNavTimeUTC(payload []byte, received time.Time) (NavTimeUTC, error) {
	if len(payload) < 20 {
		return NavTimeUTC{}, fmt.Errorf("ubx: NAV-TIMEUTC payload too short: %d", len(payload))
	}
	return NavTimeUTC{Received: received}, nil
}
