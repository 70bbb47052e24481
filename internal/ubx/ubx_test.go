package ubx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeChecksumRoundTrip(t *testing.T) {
	frame := EncodeCfgRate(500)
	msg, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, IDCfgRate, msg.ID)
	assert.Len(t, msg.Payload, 6)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	frame := EncodeCfgRate(500)
	frame[len(frame)-1] ^= 0xFF
	_, err := Decode(frame)
	assert.Error(t, err)
}

func TestEncodeCfgRst(t *testing.T) {
	cases := []struct {
		mode           ResetMode
		lowByte        byte
		highByte       byte
	}{
		{ResetCold, 0xFF, 0xFF},
		{ResetWarm, 0x01, 0x00},
		{ResetHot, 0x00, 0x00},
	}
	for _, c := range cases {
		frame := EncodeCfgRst(c.mode)
		msg, err := Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, IDCfgRst, msg.ID)
		assert.Equal(t, c.lowByte, msg.Payload[0]) // little-endian low byte first
		assert.Equal(t, c.highByte, msg.Payload[1])
		assert.Equal(t, byte(0x02), msg.Payload[2])
	}
}

func TestEncodeCfgMsgActivateDeactivate(t *testing.T) {
	active := EncodeCfgMsg(IDNavSVIN, PortUSB)
	msg, err := Decode(active)
	require.NoError(t, err)
	assert.Equal(t, []byte{IDNavSVIN.Class, IDNavSVIN.ID, PortUSB}, msg.Payload)

	inactive := EncodeCfgMsg(IDNavSVIN, PortNone)
	msg, err = Decode(inactive)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), msg.Payload[2])
}

func TestEncodeCfgTMode3Flags(t *testing.T) {
	surveyIn := EncodeCfgTMode3SurveyIn(180, 2.0)
	msg, err := Decode(surveyIn)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), msg.Payload[2])
	assert.Equal(t, byte(0x00), msg.Payload[3])

	fixed := EncodeCfgTMode3Fixed(49.6345, 8.6314, 148.6, 1.0)
	msg, err = Decode(fixed)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), msg.Payload[2])
	assert.Equal(t, byte(0x01), msg.Payload[3])

	off := EncodeCfgTMode3Off()
	msg, err = Decode(off)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), msg.Payload[2])
	assert.Equal(t, byte(0x00), msg.Payload[3])
}

func TestDecodeNavSVIN(t *testing.T) {
	payload := make([]byte, 40)
	now := time.Now()
	svin, err := DecodeNavSVIN(payload, now)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), svin.DurS)
	assert.False(t, svin.Valid)
	assert.False(t, svin.InProgress)
	assert.Equal(t, now, svin.Received)
}

func TestNavPVTFixOK(t *testing.T) {
	goodValid := byte(0x01 | 0x02 | 0x04) // validDate, validTime, fullyResolved
	goodFlags := byte(0x01)               // gnssFixOk
	p := NavPVT{
		ValidDate:     goodValid&0x01 != 0,
		ValidTime:     goodValid&0x02 != 0,
		FullyResolved: goodValid&0x04 != 0,
		GNSSFixOK:     goodFlags&0x01 != 0,
	}
	assert.True(t, p.FixOK())

	p.GNSSFixOK = false
	assert.False(t, p.FixOK())
}

func TestStripMGAIniTime(t *testing.T) {
	iniMsg := make([]byte, 32)
	copy(iniMsg, mgaIniTimeHeader)
	payload := append(append([]byte{}, iniMsg...), iniMsg...)
	rest := []byte{Sync1, Sync2, 0x13, 0x02, 0x00, 0x00}
	blob := append(payload, rest...)

	stripped, ok := StripMGAIniTime(blob)
	require.True(t, ok)
	assert.Equal(t, rest, stripped)
}

func TestStripMGAIniTimeRejectsMalformed(t *testing.T) {
	blob := []byte{0x00, 0x01, 0x02}
	_, ok := StripMGAIniTime(blob)
	assert.False(t, ok)
}
