// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kernellog is the single place every other package's logging is
// wired up from. It owns the slog.Backend and the log rotator; every
// subsystem gets its own slog.Logger tagged with a short subsystem code.
package kernellog

import (
	"fmt"
	"io"
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// subsystemTags lists every subsystem tag that takes a logger.
var subsystemTags = []string{
	"BCHN", "UTXO", "MEMP", "VLDT", "MINR", "PEER", "SYNC", "RPCS", "EXPL", "WLLT", "CFGS",
}

var (
	logRotator *rotator.Rotator
	backendLog = slog.NewBackend(logWriter{})
)

// logWriter fans every write out to stdout and, once InitLogRotator has
// been called, to the rotated log file as well.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// InitLogRotator creates a rotating file writer at logFile. It must be
// called before any subsystem logs if file output is desired; logging to
// stdout works regardless.
func InitLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("kernellog: failed to create log rotator: %w", err)
	}
	logRotator = r
	return nil
}

// NewSubLogger returns a new slog.Logger tagged subsystem, levelled at
// level (a string accepted by slog.LevelFromString, e.g. "debug", "info").
func NewSubLogger(subsystem, level string) slog.Logger {
	l := backendLog.Logger(subsystem)
	setLogLevel(l, level)
	return l
}

func setLogLevel(l slog.Logger, levelString string) {
	level, ok := slog.LevelFromString(levelString)
	if !ok {
		level = slog.LevelInfo
	}
	l.SetLevel(level)
}

// Subsystems returns a copy of the subsystem tags every package's
// UseLogger setter is keyed on.
func Subsystems() []string {
	out := make([]string, len(subsystemTags))
	copy(out, subsystemTags)
	return out
}

// DiscardLogger is a slog.Logger that drops everything: slog.Disabled,
// the same value every package-level log var starts as before UseLogger
// is called.
var DiscardLogger slog.Logger = slog.Disabled

// SetWriter overrides the backend's underlying writer, for tests that
// want to capture log output instead of writing to stdout.
func SetWriter(w io.Writer) {
	backendLog = slog.NewBackend(w)
}
