package controller

import "github.com/muexxl/rtkbase/internal/ubx"

// MessageSet names the two-byte UBX ids a mode requires active and the
// ones it requires silenced. Applying a set never leaves a partial union
// in place (invariant I3): the controller always silences the obsolete set
// before activating the required one.
type MessageSet struct {
	Required []ubx.ID
	Obsolete []ubx.ID
}

var nmeaAll = func() []ubx.ID {
	ids := make([]ubx.ID, 0, 16)
	for i := byte(0x00); i <= 0x0F; i++ {
		ids = append(ids, ubx.ID{Class: 0xF0, ID: i})
	}
	return ids
}()

var rtcmAll = []ubx.ID{
	{Class: 0xF5, ID: 0x05},
	{Class: 0xF5, ID: 0x4A},
	{Class: 0xF5, ID: 0x4D},
	{Class: 0xF5, ID: 0x54},
	{Class: 0xF5, ID: 0x57},
	{Class: 0xF5, ID: 0xE6},
}

var navSVIN = ubx.ID{Class: 0x01, ID: 0x3B}
var navStatus = ubx.ID{Class: 0x01, ID: 0x03}
var navHPPosLLH = ubx.ID{Class: 0x01, ID: 0x14}
var navPVT = ubx.ID{Class: 0x01, ID: 0x07}

var rtcm1005 = ubx.ID{Class: 0xF5, ID: 0x05}
var rtcm1074 = ubx.ID{Class: 0xF5, ID: 0x4A}
var rtcm1077 = ubx.ID{Class: 0xF5, ID: 0x4D}
var rtcm1084 = ubx.ID{Class: 0xF5, ID: 0x54}
var rtcm1087 = ubx.ID{Class: 0xF5, ID: 0x57}
var rtcm1230 = ubx.ID{Class: 0xF5, ID: 0xE6}

// messageSets maps each msg_mode name to its base required/obsolete sets,
// before the NAV-PVT forcing rule below is applied.
var messageSets = map[string]MessageSet{
	"svin": {
		Required: []ubx.ID{navSVIN, navStatus},
		Obsolete: append(append([]ubx.ID{navHPPosLLH}, nmeaAll...), rtcmAll...),
	},
	"time": {
		Required: []ubx.ID{navStatus, rtcm1005, rtcm1074, rtcm1084, rtcm1230},
		Obsolete: append(append([]ubx.ID{navSVIN, navHPPosLLH}, nmeaAll...), rtcm1077, rtcm1087),
	},
	"output_positions": {
		Required: []ubx.ID{navHPPosLLH},
		Obsolete: append(append(append([]ubx.ID{}, nmeaAll...), rtcmAll...), navSVIN),
	},
	"status": {
		Required: []ubx.ID{navPVT},
		Obsolete: append(append([]ubx.ID{navSVIN, navHPPosLLH}, nmeaAll...), rtcm1077, rtcm1087),
	},
}

// BuildMessageSet returns the required/obsolete id sets for mode, with the
// NAV-PVT forcing rule applied: when forcePVT is true (assistance or
// time-difference enabled) or the mode's base set already requires it,
// 01 07 is in Required; otherwise it moves into Obsolete. Per invariant I3
// the two sets are always disjoint.
func BuildMessageSet(mode string, forcePVT bool) MessageSet {
	base := messageSets[mode]
	required := removeID(base.Required, navPVT)
	obsolete := removeID(base.Obsolete, navPVT)

	if forcePVT || len(required) != len(base.Required) {
		required = append(required, navPVT)
	} else {
		obsolete = append(obsolete, navPVT)
	}

	return MessageSet{Required: required, Obsolete: obsolete}
}

func removeID(ids []ubx.ID, target ubx.ID) []ubx.ID {
	out := make([]ubx.ID, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
