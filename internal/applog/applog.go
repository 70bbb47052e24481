// Package applog configures the shared logrus logger used by every
// long-running component of the base-station controller.
package applog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to stderr, with level and formatter chosen by
// the caller (normally from CLI flags bound in internal/config).
func New(level string, jsonFormat bool) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)

	if jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log, nil
}

// Component returns an entry tagged with the owning component's name, the
// way every task in the controller identifies its log lines.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
