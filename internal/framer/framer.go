package framer

// minFrameBytes is the minimum buffer size the framer tries detectors
// against; below this, no protocol's header+length fields are even
// present.
const minFrameBytes = 8

// DropWarnThreshold is the number of consecutive resync bytes (frames that
// never resolved) after which the caller should log a warning, per the
// error handling design's "over 100 consecutive frames dropped" policy.
const DropWarnThreshold = 100

// Framer resyncs to the next recognizable frame in an interleaved UBX /
// RTCM3 / NMEA byte stream and emits whole frames in arrival order. It
// never blocks waiting for more bytes.
type Framer struct {
	buf             []byte
	consecutiveDrop int
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Tick appends newly available bytes and drains as many complete frames as
// the buffer currently supports. Bytes that match no detector are dropped
// one at a time (resync); the returned frames preserve buffer order.
func (f *Framer) Tick(newBytes []byte) []Frame {
	if len(newBytes) > 0 {
		f.buf = append(f.buf, newBytes...)
	}

	var frames []Frame
	for len(f.buf) >= minFrameBytes {
		if l := UBXLength(f.buf); l > 0 {
			frames = append(frames, Frame{Kind: KindUBX, Data: clone(f.buf[:l])})
			f.buf = f.buf[l:]
			f.consecutiveDrop = 0
			continue
		}
		if l := RTCM3Length(f.buf); l > 0 {
			frames = append(frames, Frame{Kind: KindRTCM3, Data: clone(f.buf[:l])})
			f.buf = f.buf[l:]
			f.consecutiveDrop = 0
			continue
		}
		if l := NMEALength(f.buf); l > 0 {
			frames = append(frames, Frame{Kind: KindNMEA, Data: clone(f.buf[:l])})
			f.buf = f.buf[l:]
			f.consecutiveDrop = 0
			continue
		}
		f.buf = f.buf[1:]
		f.consecutiveDrop++
	}
	return frames
}

// ConsecutiveDrops reports how many resync bytes have been discarded in a
// row since the last successfully emitted frame.
func (f *Framer) ConsecutiveDrops() int {
	return f.consecutiveDrop
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
