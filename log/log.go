// Copyright (c) 2025 The ftc-headerchain developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package log is the ambient logging surface every other package in this
// module writes through: a single package-level btclog.Logger, disabled
// until an embedding application wires one in, plus a rotating-file
// helper for applications that want one without pulling in their own
// logging stack.
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// Log is the package-level logger this module's components write through
// (currently only blockchain logs). It performs no logging by default; call UseLogger
// or InitLogRotator to wire one in.
var Log btclog.Logger

// UseLogger sets the logger used by this module's packages.
func UseLogger(logger btclog.Logger) {
	Log = logger
}

func init() {
	DisableLog()
}

// DisableLog disables all output from this module's packages. This is the
// default until UseLogger or InitLogRotator is called.
func DisableLog() {
	Log = btclog.Disabled
}

// InitLogRotator pairs a jrick/logrotate rotator with a btclog backend and
// installs it as the package logger, in the shape every btcsuite-derived
// node ships as its log.go. logFile is created (and its parent directory,
// if missing) if it does not already exist.
func InitLogRotator(logFile string) (btclog.Logger, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("log: failed to create log directory %s: %w", logDir, err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return nil, fmt.Errorf("log: failed to create file rotator: %w", err)
	}

	backend := btclog.NewBackend(r)
	logger := backend.Logger("FTCH")
	logger.SetLevel(btclog.LevelInfo)
	UseLogger(logger)
	return logger, nil
}
