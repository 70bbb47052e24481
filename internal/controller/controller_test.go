package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muexxl/rtkbase/internal/ioworker"
	"github.com/muexxl/rtkbase/internal/ubx"
)

// fakeClock lets tests advance time deterministically instead of racing
// real sleeps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testLogger() *logrus.Entry {
	return logrus.NewEntry(logrus.New())
}

func newTestController(mode Mode) (*Controller, *ioworker.Inbox, *ioworker.Mailbox, *fakeClock) {
	inbox := &ioworker.Inbox{}
	mailbox := &ioworker.Mailbox{}
	clock := newFakeClock()
	params := Params{Mode: mode, Survey: SurveyParams{MinDurS: 180, AccM: 2.0}}
	c := New(params, inbox, mailbox, func() bool { return true }, func(bool) {}, clock, testLogger())
	return c, inbox, mailbox, clock
}

func TestStatusAgesToUndefinedAfterFiveSeconds(t *testing.T) {
	c, _, _, clock := newTestController(ModeOutputPositions)
	c.setStatus(StatusStreaming)
	c.setFixStatus(FixOK)

	clock.Advance(4 * time.Second)
	c.ageStatuses()
	assert.Equal(t, StatusStreaming, c.currentStatus())

	clock.Advance(2 * time.Second)
	c.ageStatuses()
	assert.Equal(t, StatusUndefined, c.currentStatus())
	assert.Equal(t, FixUndefined, c.currentFix())
}

func TestApplyMessageSetIsIdempotent(t *testing.T) {
	c, _, mailbox, _ := newTestController(ModeSurveyIn)

	c.applyMessageSet(context.Background(), "svin")
	first := mailbox.DrainAll()
	assert.NotEmpty(t, first)

	c.applyMessageSet(context.Background(), "svin")
	second := mailbox.DrainAll()
	assert.Empty(t, second, "re-applying the same msg_mode must emit no UBX bytes")
}

func TestSetRateIsIdempotent(t *testing.T) {
	c, _, mailbox, _ := newTestController(ModeSurveyIn)

	c.setRate(1000)
	assert.NotEmpty(t, mailbox.DrainAll())

	c.setRate(1000)
	assert.Empty(t, mailbox.DrainAll())

	c.setRate(500)
	assert.NotEmpty(t, mailbox.DrainAll())
}

func TestSurveyInReachesTimeStatus(t *testing.T) {
	c, inbox, mailbox, _ := newTestController(ModeSurveyIn)
	ctx := context.Background()

	var udpStates []bool
	c.setUDPActive = func(active bool) { udpStates = append(udpStates, active) }

	// status=undefined tick: reset + survey-in config.
	c.transition(ctx)
	cmds := mailbox.DrainAll()
	require.NotEmpty(t, cmds)

	// Receiver reports survey in progress.
	svinPayload := make([]byte, 40)
	svinPayload[37] = 1 // in_progress
	inbox.Push(ubx.Message{ID: ubx.IDNavSVIN, Payload: svinPayload, Received: c.clock.Now()})
	c.processInbox()
	assert.Equal(t, StatusSurveying, c.currentStatus())

	c.transition(ctx)
	assert.Contains(t, udpStates, false)

	// Receiver reports a time-only fix.
	statusPayload := make([]byte, 16)
	statusPayload[4] = 5
	inbox.Push(ubx.Message{ID: ubx.IDNavStatus, Payload: statusPayload, Received: c.clock.Now()})
	c.processInbox()
	assert.Equal(t, StatusTime, c.currentStatus())

	c.transition(ctx)
	assert.Equal(t, true, udpStates[len(udpStates)-1])
}

func TestFixedModeFirstCommandIsResetThenTMode3Fixed(t *testing.T) {
	inbox := &ioworker.Inbox{}
	mailbox := &ioworker.Mailbox{}
	clock := newFakeClock()
	params := Params{
		Mode:          ModeFixed,
		FixedLocation: Location{LatDeg: 49.6345, LonDeg: 8.6314, HeightM: 148.6, AccM: 1.0},
	}
	c := New(params, inbox, mailbox, func() bool { return true }, func(bool) {}, clock, testLogger())

	c.transition(context.Background())
	cmds := mailbox.DrainAll()
	require.True(t, len(cmds) >= 2)

	resetFrame := ubx.Encode(ubx.IDCfgRst, []byte{0x00, 0x00, 0x02, 0x00})
	assert.Equal(t, resetFrame, cmds[0])

	tmode3 := ubx.EncodeCfgTMode3Fixed(49.6345, 8.6314, 148.6, 1.0)
	assert.Contains(t, cmds, tmode3)
}

func TestOutputPositionsLogsOnHPPosLLH(t *testing.T) {
	c, inbox, _, clock := newTestController(ModeOutputPositions)

	logged := &recordingLogger{}
	c.params.PositionsFile = logged

	payload := make([]byte, 36)
	// lon/lat/height left at zero; HP bytes at zero too.
	inbox.Push(ubx.Message{ID: ubx.IDNavHPPosLLH, Payload: payload, Received: clock.Now()})
	c.processInbox()

	assert.Equal(t, StatusStreaming, c.currentStatus())
	require.Len(t, logged.calls, 1)
}

type recordingLogger struct {
	calls []float64
}

func (r *recordingLogger) Append(received time.Time, lat, lon, height float64) error {
	r.calls = append(r.calls, lat)
	return nil
}
