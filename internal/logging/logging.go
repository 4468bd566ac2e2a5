// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package logging

import (
	"io"
	"sort"

	"github.com/btcsuite/btclog"

	"github.com/BoostyLabs/bchwallet/bitcoincash/coinselect"
	"github.com/BoostyLabs/bchwallet/bitcoincash/keychain"
	"github.com/BoostyLabs/bchwallet/bitcoincash/signer"
	"github.com/BoostyLabs/bchwallet/bitcoincash/txbuilder"
	"github.com/BoostyLabs/bchwallet/internal/store"
)

// Subsystem tags.
const (
	CoinSelection = "CSEL"
	TxBuilder     = "TXBD"
	Signer        = "SIGN"
	Keychain      = "KEYS"
	Store         = "STOR"
	Main          = "MAIN"
)

// Loggers holds one logger per subsystem sharing the same backend.
type Loggers struct {
	subsystems map[string]btclog.Logger
}

// New creates subsystem loggers writing to w with the level and hands them to the packages.
func New(w io.Writer, level btclog.Level) *Loggers {
	backend := btclog.NewBackend(w)

	loggers := &Loggers{subsystems: make(map[string]btclog.Logger, 6)}
	for _, tag := range []string{CoinSelection, TxBuilder, Signer, Keychain, Store, Main} {
		logger := backend.Logger(tag)
		logger.SetLevel(level)
		loggers.subsystems[tag] = logger
	}

	coinselect.UseLogger(loggers.subsystems[CoinSelection])
	txbuilder.UseLogger(loggers.subsystems[TxBuilder])
	signer.UseLogger(loggers.subsystems[Signer])
	keychain.UseLogger(loggers.subsystems[Keychain])
	store.UseLogger(loggers.subsystems[Store])

	return loggers
}

// Logger returns subsystem logger, disabled logger for unknown tag.
func (l *Loggers) Logger(tag string) btclog.Logger {
	if logger, ok := l.subsystems[tag]; ok {
		return logger
	}

	return btclog.Disabled
}

// SetLevel changes level of every subsystem.
func (l *Loggers) SetLevel(level btclog.Level) {
	for _, logger := range l.subsystems {
		logger.SetLevel(level)
	}
}

// Subsystems returns sorted subsystem tags.
func (l *Loggers) Subsystems() []string {
	tags := make([]string, 0, len(l.subsystems))
	for tag := range l.subsystems {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}
