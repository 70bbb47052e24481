package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/muexxl/rtkbase/internal/applog"
	"github.com/muexxl/rtkbase/internal/assistnow"
	"github.com/muexxl/rtkbase/internal/config"
	"github.com/muexxl/rtkbase/internal/controller"
	"github.com/muexxl/rtkbase/internal/ioworker"
	"github.com/muexxl/rtkbase/internal/positionlog"
	"github.com/muexxl/rtkbase/internal/rtkerr"
	"github.com/muexxl/rtkbase/internal/serialio"
	"github.com/muexxl/rtkbase/internal/timediff"
	"github.com/muexxl/rtkbase/internal/udpbroadcast"
)

// runController wires the serial link, UDP broadcaster, I/O worker,
// controller state machine and optional collaborators together, then runs
// until SIGINT, joining tasks in I/O-worker → controller → AssistNow
// order.
func runController(cfg config.Config, log *logrus.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	link := serialio.New(serialio.DefaultVID, serialio.DefaultPID)

	broadcaster, err := udpbroadcast.New()
	if err != nil {
		return rtkerr.Wrap(rtkerr.Config, err)
	}
	defer broadcaster.Close()

	worker := ioworker.New(link, broadcaster, applog.Component(log, "ioworker"))

	params := controller.Params{
		Mode:            cfg.Mode,
		Survey:          cfg.Survey,
		FixedLocation:   cfg.FixedLocation,
		AssistEnabled:   cfg.AssistEnabled,
		TimeDiffEnabled: cfg.TimeDiffEnabled,
		TimeDiffLatency: cfg.TimeDiffLatency,
	}

	var positionLogger *positionlog.Logger
	if cfg.Mode == controller.ModeOutputPositions {
		positionLogger, err = positionlog.Open(cfg.PositionsFile)
		if err != nil {
			return rtkerr.Wrap(rtkerr.Config, err)
		}
		defer positionLogger.Close()
		params.PositionsFile = positionLogger
	}

	var assistTask *assistnow.Fetcher
	if cfg.AssistEnabled {
		assistTask = assistnow.New(cfg.AssistToken, cfg.AssistanceFile, applog.Component(log, "assistnow"))
		params.AssistNow = assistTask
	}

	var timeDiffEstimator *timediff.Estimator
	if cfg.TimeDiffEnabled {
		timeDiffEstimator = timediff.NewEstimator(timediff.FileWriter{Path: cfg.TimeDiffFile})
		params.TimeDiff = timeDiffEstimator
	}

	ctrl := controller.New(
		params,
		worker.Inbox,
		worker.Mailbox,
		worker.LinkReady,
		worker.SetUDPStreamActive,
		controller.RealClock{},
		applog.Component(log, "controller"),
	)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	controllerDone := make(chan struct{})
	go func() {
		defer close(controllerDone)
		ctrl.Run(ctx)
	}()

	var assistDone chan struct{}
	if assistTask != nil {
		assistDone = make(chan struct{})
		go func() {
			defer close(assistDone)
			assistTask.Run(ctx)
		}()
	}

	<-ctx.Done()

	// Join in I/O-worker → controller → AssistNow order so a later task
	// never outlives the one feeding it.
	<-workerDone
	<-controllerDone
	if assistDone != nil {
		<-assistDone
	}
	return nil
}
