// Package persist groups the on-disk concerns shared by every component
// that needs durable state: a STARTUP/SHUTDOWN-bracketed logger in the
// idiom of the teacher's persist.Logger, and atomic JSON snapshotting of
// the wallet document.
package persist

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus.Logger the way the teacher's persist.Logger wraps
// the standard library's log.Logger: bracketing the log file with a
// STARTUP line on open and a SHUTDOWN line on Close, so a truncated log
// file is visibly distinguishable from a clean shutdown.
type Logger struct {
	*logrus.Logger
	file *os.File
}

// NewFileLogger opens (creating/appending) the log file at path and
// returns a Logger writing to it in logfmt, bracketed by STARTUP/SHUTDOWN
// markers the way rivine's persist package brackets its daemon logs.
func NewFileLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("persist: opening log file %s: %w", path, err)
	}

	l := logrus.New()
	l.SetOutput(f)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)

	logger := &Logger{Logger: l, file: f}
	logger.Info("STARTUP: log opened at ", time.Now().Format(time.RFC3339))
	return logger, nil
}

// NewLogger returns a Logger writing to an arbitrary io.Writer (tests,
// stderr-only deployments), with no backing file to close.
func NewLogger(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger := &Logger{Logger: l}
	logger.Info("STARTUP: log opened at ", time.Now().Format(time.RFC3339))
	return logger
}

// Close writes the SHUTDOWN marker and closes the backing file, if any.
func (l *Logger) Close() error {
	l.Info("SHUTDOWN: log closed at ", time.Now().Format(time.RFC3339))
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
