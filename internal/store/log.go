// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package store

import "github.com/btcsuite/btclog"

// log is a logger that is initialized with no output filters.
var log btclog.Logger

func init() {
	DisableLog()
}

// DisableLog disables all library log output.
func DisableLog() {
	log = btclog.Disabled
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// loggerWrapper adapts btclog logger to badger.
type loggerWrapper struct {
	btclog.Logger
}

// Warningf implements badger.Logger.
func (l loggerWrapper) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
