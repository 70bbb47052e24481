// Package ioworker owns the serial link and the byte-stream framer: it is
// the sole reader and writer of the serial link, decoding UBX frames into
// an inbox for the controller and fanning RTCM3 frames out over UDP while
// streaming is active.
package ioworker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/muexxl/rtkbase/internal/framer"
	"github.com/muexxl/rtkbase/internal/serialio"
	"github.com/muexxl/rtkbase/internal/ubx"
	"github.com/muexxl/rtkbase/internal/udpbroadcast"
)

// IdleSleep is how long the worker sleeps when a tick did no work.
const IdleSleep = 10 * time.Millisecond

// Worker is the I/O worker: the sole reader and writer of the serial link.
// Construct one with New, then run it with Run in its own goroutine.
type Worker struct {
	link        *serialio.Link
	framer      *framer.Framer
	broadcaster *udpbroadcast.Broadcaster

	Inbox   *Inbox
	Mailbox *Mailbox

	streamActive atomic.Bool
	linkReady    atomic.Bool

	log *logrus.Entry

	readBuf []byte
}

// New builds an I/O worker over the given serial link and UDP broadcaster.
func New(link *serialio.Link, broadcaster *udpbroadcast.Broadcaster, log *logrus.Entry) *Worker {
	return &Worker{
		link:        link,
		framer:      framer.New(),
		broadcaster: broadcaster,
		Inbox:       &Inbox{},
		Mailbox:     &Mailbox{},
		log:         log,
		readBuf:     make([]byte, 4096),
	}
}

// SetUDPStreamActive is called only by the controller to flip whether RTCM3
// frames are fanned out over UDP.
func (w *Worker) SetUDPStreamActive(active bool) {
	w.streamActive.Store(active)
}

// LinkReady reports whether the serial link is currently open, for the
// controller's "wait until link-ready" gate.
func (w *Worker) LinkReady() bool {
	return w.linkReady.Load()
}

// Run drives the I/O worker loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if w.link.IsOpen() {
				w.link.Close()
			}
			return
		default:
		}

		didWork := w.tick(ctx)
		if !didWork {
			select {
			case <-ctx.Done():
				return
			case <-time.After(IdleSleep):
			}
		}
	}
}

// tick performs one iteration of the I/O worker loop and reports whether
// it did any work (so Run knows whether to sleep).
func (w *Worker) tick(ctx context.Context) bool {
	didWork := false

	if !w.link.IsOpen() {
		w.linkReady.Store(false)
		if err := w.link.Open(ctx); err != nil {
			return false
		}
		w.linkReady.Store(true)
		didWork = true
	}

	for _, frame := range w.Mailbox.DrainAll() {
		if err := w.link.Write(frame); err != nil {
			w.log.WithError(err).Warn("write to serial link failed, closing for rescan")
			w.linkReady.Store(false)
			break
		}
		didWork = true
	}

	if w.link.IsOpen() {
		n, err := w.link.Read(w.readBuf)
		if err != nil {
			w.log.WithError(err).Warn("read from serial link failed, closing for rescan")
			w.linkReady.Store(false)
		} else if n > 0 {
			didWork = true
			frames := w.framer.Tick(w.readBuf[:n])
			if w.framer.ConsecutiveDrops() >= framer.DropWarnThreshold {
				w.log.Warnf("framer has dropped %d consecutive bytes without resolving a frame", w.framer.ConsecutiveDrops())
			}
			for _, f := range frames {
				w.dispatch(f)
			}
		}
	}

	return didWork
}

func (w *Worker) dispatch(f framer.Frame) {
	switch f.Kind {
	case framer.KindUBX:
		msg, err := ubx.Decode(f.Data)
		if err != nil {
			w.log.WithError(err).Debug("dropping malformed UBX frame")
			return
		}
		msg.Received = time.Now()
		w.Inbox.Push(msg)
	case framer.KindRTCM3:
		if w.streamActive.Load() {
			w.broadcaster.Send(f.Data)
		}
	case framer.KindNMEA, framer.KindUnknown:
		// NMEA sentences and unrecognized bytes carry nothing the
		// controller or the caster feed need.
	}
}
