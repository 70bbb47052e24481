// Package framer demultiplexes a byte stream carrying interleaved UBX,
// RTCM3 and NMEA frames, validates them, and emits whole frames in arrival
// order.
package framer

// Kind tags which protocol a Frame's bytes belong to.
type Kind int

const (
	KindUnknown Kind = iota
	KindUBX
	KindRTCM3
	KindNMEA
)

func (k Kind) String() string {
	switch k {
	case KindUBX:
		return "UBX"
	case KindRTCM3:
		return "RTCM3"
	case KindNMEA:
		return "NMEA"
	default:
		return "Unknown"
	}
}

// Frame is one validated frame's raw bytes, tagged with its kind. A Frame
// is produced by the Framer and consumed within the same tick; it is never
// persisted.
type Frame struct {
	Kind Kind
	Data []byte
}
