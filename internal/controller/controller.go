// Package controller implements the receiver's configuration state
// machine: it drives reset → survey-in/fixed → time-mode → streaming
// transitions, keeps the active UBX message set in sync with the current
// mode, and is the sole writer of udp_stream_active.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/muexxl/rtkbase/internal/ioworker"
	"github.com/muexxl/rtkbase/internal/ubx"
)

// Mode names the top-level operating mode, set once at startup from the
// CLI surface.
type Mode string

const (
	ModeSurveyIn        Mode = "survey_in"
	ModeFixed           Mode = "fixed"
	ModeOutputPositions Mode = "output_positions"
)

// Status names the receiver's current phase within its mode.
type Status string

const (
	StatusUndefined Status = "undefined"
	StatusSurveying Status = "surveying"
	StatusTime      Status = "time"
	StatusStreaming Status = "streaming"
	StatusAcquiring Status = "acquiring"
)

// FixStatus names the validity of the most recent NAV-PVT fix.
type FixStatus string

const (
	FixUndefined FixStatus = "undefined"
	FixOK        FixStatus = "ok"
	FixNotOK     FixStatus = "not_ok"
)

// tickPeriod is the controller's loop period; §4.G requires ≥ 5 Hz.
const tickPeriod = 100 * time.Millisecond

// statusAgeLimit is how long status/fix_status survive without a
// corroborating UBX message before ageing to undefined.
const statusAgeLimit = 5 * time.Second

// Location is a surveyed or configured antenna position.
type Location struct {
	LatDeg, LonDeg, HeightM, AccM float64
}

// SurveyParams configures survey-in mode.
type SurveyParams struct {
	MinDurS uint32
	AccM    float64
}

// PositionLogger receives high-precision fixes in output_positions mode.
type PositionLogger interface {
	Append(received time.Time, lat, lon, height float64) error
}

// AssistNowHinter receives location hints as fixes improve.
type AssistNowHinter interface {
	UpdateLocation(latDeg, lonDeg, altM, accM float64)
}

// TimeDiffEstimator receives GNSS/host time pairs for drift estimation.
type TimeDiffEstimator interface {
	Update(tGNSS, tHost, latencySeconds float64) error
}

// Params configures a Controller for its lifetime; none of these change
// after New.
type Params struct {
	Mode            Mode
	Survey          SurveyParams
	FixedLocation   Location
	AssistEnabled   bool
	TimeDiffEnabled bool
	TimeDiffLatency time.Duration
	PositionsFile   PositionLogger
	AssistNow       AssistNowHinter
	TimeDiff        TimeDiffEstimator
}

// State is a read-only snapshot of the controller's current state.
type State struct {
	Mode              Mode
	Status            Status
	FixStatus         FixStatus
	MsgMode           string
	RateMS            uint16
	LastStatusInstant time.Time
	LastFixInstant    time.Time
}

// Controller owns the receiver's configuration state machine. It is the
// sole writer of outbound UBX config and the sole consumer of the I/O
// worker's inbox.
type Controller struct {
	params Params
	clock  Clock
	log    *logrus.Entry

	inbox        *ioworker.Inbox
	mailbox      *ioworker.Mailbox
	linkReady    func() bool
	setUDPActive func(bool)

	mu     sync.Mutex
	status Status
	fix    FixStatus
	msgMode string
	rateMS  uint16

	lastStatusInstant time.Time
	lastFixInstant    time.Time
}

// New builds a Controller. linkReady and setUDPActive are bound to the I/O
// worker's LinkReady/SetUDPStreamActive methods; inbox and mailbox are the
// worker's shared queues.
func New(params Params, inbox *ioworker.Inbox, mailbox *ioworker.Mailbox, linkReady func() bool, setUDPActive func(bool), clock Clock, log *logrus.Entry) *Controller {
	return &Controller{
		params:       params,
		clock:        clock,
		log:          log,
		inbox:        inbox,
		mailbox:      mailbox,
		linkReady:    linkReady,
		setUDPActive: setUDPActive,
		status:       StatusUndefined,
		fix:          FixUndefined,
	}
}

// Snapshot returns the controller's current state under its lock.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:              c.params.Mode,
		Status:            c.status,
		FixStatus:         c.fix,
		MsgMode:           c.msgMode,
		RateMS:            c.rateMS,
		LastStatusInstant: c.lastStatusInstant,
		LastFixInstant:    c.lastFixInstant,
	}
}

// Run drives the controller's tick loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !c.linkReady() {
			c.clock.Sleep(ctx, tickPeriod)
			continue
		}

		c.transition(ctx)
		c.processInbox()
		c.ageStatuses()

		c.clock.Sleep(ctx, tickPeriod)
	}
}

func (c *Controller) transition(ctx context.Context) {
	switch c.params.Mode {
	case ModeSurveyIn:
		c.transitionSurveyIn(ctx)
	case ModeFixed:
		c.transitionFixed(ctx)
	case ModeOutputPositions:
		c.transitionOutputPositions(ctx)
	}
}

func (c *Controller) transitionSurveyIn(ctx context.Context) {
	switch c.currentStatus() {
	case StatusUndefined:
		c.resetHot()
		c.clock.Sleep(ctx, 1*time.Second)
		c.setRate(500)
		c.applyMessageSet(ctx, "svin")
		c.sendUBX(ubx.EncodeCfgTMode3SurveyIn(c.params.Survey.MinDurS, c.params.Survey.AccM))
		c.setUDPActive(false)
		c.clock.Sleep(ctx, 2*time.Second)
	case StatusSurveying:
		c.setUDPActive(false)
	case StatusTime:
		c.setRate(1000)
		c.applyMessageSet(ctx, "time")
		c.setUDPActive(true)
	}
}

func (c *Controller) transitionFixed(ctx context.Context) {
	switch c.currentStatus() {
	case StatusUndefined:
		c.resetHot()
		c.setRate(1000)
		c.applyMessageSet(ctx, "svin")
		loc := c.params.FixedLocation
		c.sendUBX(ubx.EncodeCfgTMode3Fixed(loc.LatDeg, loc.LonDeg, loc.HeightM, loc.AccM))
		c.clock.Sleep(ctx, 1*time.Second)
		c.setUDPActive(false)
	case StatusTime:
		c.applyMessageSet(ctx, "time")
		c.setUDPActive(true)
	}
}

func (c *Controller) transitionOutputPositions(ctx context.Context) {
	switch c.currentStatus() {
	case StatusStreaming:
		// nothing
	case StatusAcquiring:
		if c.currentFix() == FixOK {
			c.applyMessageSet(ctx, "output_positions")
		}
	default:
		c.resetHot()
		c.sendUBX(ubx.EncodeCfgTMode3Off())
		c.setRate(1000)
		c.applyMessageSet(ctx, "status")
	}
}

// resetHot emits RESET hot and clears the tracked message-set/rate state,
// since the hardware forgets its configuration across a reset and the next
// applyMessageSet/setRate must not treat the stale tracked state as
// already converged.
func (c *Controller) resetHot() {
	c.sendUBX(ubx.EncodeCfgRst(ubx.ResetHot))
	c.mu.Lock()
	c.msgMode = ""
	c.rateMS = 0
	c.mu.Unlock()
}

// setRate applies CFG-RATE, skipping the write if the requested rate
// already matches the tracked rate (invariant: idempotent reconfiguration).
func (c *Controller) setRate(ms uint16) {
	c.mu.Lock()
	if c.rateMS == ms {
		c.mu.Unlock()
		return
	}
	c.rateMS = ms
	c.mu.Unlock()
	c.sendUBX(ubx.EncodeCfgRate(ms))
}

// applyMessageSet silences the mode's obsolete ids then activates its
// required ones, skipping entirely if mode already matches the tracked
// msg_mode (invariant I3/P6: idempotent, never a partial union).
func (c *Controller) applyMessageSet(ctx context.Context, mode string) {
	c.mu.Lock()
	if c.msgMode == mode {
		c.mu.Unlock()
		return
	}
	c.msgMode = mode
	c.mu.Unlock()

	forcePVT := c.params.AssistEnabled || c.params.TimeDiffEnabled
	set := BuildMessageSet(mode, forcePVT)

	for _, id := range set.Obsolete {
		c.sendUBX(ubx.EncodeCfgMsg(id, 0))
	}
	c.clock.Sleep(ctx, 1*time.Second)
	for _, id := range set.Required {
		c.sendUBX(ubx.EncodeCfgMsg(id, 1))
	}
}

func (c *Controller) sendUBX(frame []byte) {
	c.mailbox.Push(frame)
}

func (c *Controller) currentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) currentFix() FixStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fix
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.lastStatusInstant = c.clock.Now()
	c.mu.Unlock()
}

func (c *Controller) setFixStatus(s FixStatus) {
	c.mu.Lock()
	c.fix = s
	c.lastFixInstant = c.clock.Now()
	c.mu.Unlock()
}

// processInbox drains every pending decoded UBX message and applies the
// ingest effects for the ones the controller cares about.
func (c *Controller) processInbox() {
	for _, msg := range c.inbox.DrainAll() {
		switch msg.ID {
		case ubx.IDNavHPPosLLH:
			c.onNavHPPosLLH(msg)
		case ubx.IDNavSVIN:
			c.onNavSVIN(msg)
		case ubx.IDNavStatus:
			c.onNavStatus(msg)
		case ubx.IDNavPVT:
			c.onNavPVT(msg)
		}
	}
}

func (c *Controller) onNavHPPosLLH(msg ubx.Message) {
	fix, err := ubx.DecodeNavHPPosLLH(msg.Payload, msg.Received)
	if err != nil {
		c.log.WithError(err).Debug("dropping malformed NAV-HPPOSLLH")
		return
	}
	if c.params.Mode == ModeOutputPositions {
		c.setStatus(StatusStreaming)
		if c.params.PositionsFile != nil {
			if err := c.params.PositionsFile.Append(fix.Received, fix.Lat, fix.Lon, fix.HeightM); err != nil {
				c.log.WithError(err).Warn("writing position log failed")
			}
		}
	}
}

func (c *Controller) onNavSVIN(msg ubx.Message) {
	svin, err := ubx.DecodeNavSVIN(msg.Payload, msg.Received)
	if err != nil {
		c.log.WithError(err).Debug("dropping malformed NAV-SVIN")
		return
	}
	if svin.InProgress {
		c.setStatus(StatusSurveying)
	}
}

func (c *Controller) onNavStatus(msg ubx.Message) {
	st, err := ubx.DecodeNavStatus(msg.Payload, msg.Received)
	if err != nil {
		c.log.WithError(err).Debug("dropping malformed NAV-STATUS")
		return
	}
	if st.GPSFix == 5 {
		c.setStatus(StatusTime)
	}
}

func (c *Controller) onNavPVT(msg ubx.Message) {
	pvt, err := ubx.DecodeNavPVT(msg.Payload, msg.Received)
	if err != nil {
		c.log.WithError(err).Debug("dropping malformed NAV-PVT")
		return
	}

	if pvt.FixOK() {
		c.setFixStatus(FixOK)
		if c.params.AssistEnabled && c.params.AssistNow != nil {
			c.params.AssistNow.UpdateLocation(float64(pvt.LatE7)*1e-7, float64(pvt.LonE7)*1e-7, float64(pvt.HeightMM)/1000.0, float64(pvt.HAccMM)/1000.0)
		}
		if c.params.TimeDiffEnabled && c.params.TimeDiff != nil {
			tGNSS := pvt.UnixTime()
			tHost := float64(pvt.Received.UnixNano()) / 1e9
			if err := c.params.TimeDiff.Update(tGNSS, tHost, c.params.TimeDiffLatency.Seconds()); err != nil {
				c.log.WithError(err).Warn("writing time-difference estimate failed")
			}
		}
	} else {
		c.setFixStatus(FixNotOK)
		if c.params.Mode == ModeOutputPositions {
			c.setStatus(StatusAcquiring)
		}
	}

	if pvt.FixType == 5 {
		c.setStatus(StatusTime)
	}
}

// ageStatuses drops status and fix_status back to undefined once 5 s have
// passed without a corroborating message (invariant I2 / P5).
func (c *Controller) ageStatuses() {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusUndefined && !c.lastStatusInstant.IsZero() && now.Sub(c.lastStatusInstant) > statusAgeLimit {
		c.status = StatusUndefined
	}
	if c.fix != FixUndefined && !c.lastFixInstant.IsZero() && now.Sub(c.lastFixInstant) > statusAgeLimit {
		c.fix = FixUndefined
	}
}
