// Package logging configures the logrus loggers used by the control, host and
// command-line code. Nothing on the audio goroutine logs.
package logging

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DebugEnv switches every logger from GetLogger to debug level when it parses
// as true.
const DebugEnv = "MULTIFX_DEBUG"

// Logger is the subset of logrus the rest of the module depends on.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	WithField(key string, value interface{}) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
}

var debug bool

func init() {
	var err error

	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger at info level, or debug level when
// MULTIFX_DEBUG is set.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}

	return l
}

// New returns a logger at the named level ("debug", "info", "warn", ...).
// An empty level keeps the GetLogger default.
func New(level string) (*logrus.Logger, error) {
	l := GetLogger()
	if level == "" || debug {
		return l, nil
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l.SetLevel(lvl)

	return l, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

// WithComponent tags entries with the emitting component.
func WithComponent(l Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}
