// Package logging builds the logrus logger shared by the gate components.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr. format is "text" or "json".
func New(debug bool, format string) *logrus.Logger {
	return NewWithOutput(os.Stderr, debug, format)
}

func NewWithOutput(out io.Writer, debug bool, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if format == "json" {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}

	logger.Level = logrus.InfoLevel
	if debug {
		logger.Level = logrus.DebugLevel
	}

	return logger
}

// Discard returns a logger that drops everything. Used when a caller passes
// no logger and in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Component tags log lines with the emitting component.
func Component(log logrus.FieldLogger, name string) logrus.FieldLogger {
	if log == nil {
		log = Discard()
	}
	return log.WithField("component", name)
}
