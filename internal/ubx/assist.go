package ubx

import "bytes"

// mgaIniTimeHeader is the fixed 6-byte header of a UBX-MGA-INI-TIME
// message: sync, class, id, and its 0x0018-byte length.
var mgaIniTimeHeader = []byte{Sync1, Sync2, IDMgaIniTime.Class, IDMgaIniTime.ID, 0x18, 0x00}

const mgaIniTimeFrameLen = 32

// mgaHeader is the sync+class prefix shared by every UBX-MGA message.
var mgaHeader = []byte{Sync1, Sync2, 0x13}

// StripMGAIniTime drops any leading UBX-MGA-INI-TIME messages from an
// AssistNow blob. After stripping, it requires the remainder to begin with
// a UBX-MGA message; otherwise the blob is malformed and StripMGAIniTime
// returns ok=false, meaning the caller should keep whatever blob it already
// has rather than write this one.
func StripMGAIniTime(data []byte) (stripped []byte, ok bool) {
	for bytes.HasPrefix(data, mgaIniTimeHeader) {
		if len(data) < mgaIniTimeFrameLen {
			return nil, false
		}
		data = data[mgaIniTimeFrameLen:]
	}
	if !bytes.HasPrefix(data, mgaHeader) {
		return nil, false
	}
	return data, true
}
