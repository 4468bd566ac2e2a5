// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package main implements bchwallet, a command line Bitcoin Cash wallet
// building and signing transfer transactions from locally imported unspent outputs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/urfave/cli/v2"

	"github.com/BoostyLabs/bchwallet/bitcoincash/keychain"
	"github.com/BoostyLabs/bchwallet/internal/config"
	"github.com/BoostyLabs/bchwallet/internal/logging"
)

// environment holds settings and loggers shared by every command.
type environment struct {
	config  *config.Config
	loggers *logging.Loggers
	log     btclog.Logger
}

// globalOverrides maps global flags to config keys they override.
var globalOverrides = map[string]string{
	"network":   config.NetworkKey,
	"data-dir":  config.DataDirKey,
	"log-level": config.LogLevelKey,
	"path":      config.DerivationPathKey,
	"fee-rate":  config.FeeRateKey,
	"selection": config.CoinSelectionKey,
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp creates command tree.
func newApp() *cli.App {
	env := new(environment)

	return &cli.App{
		Name:  "bchwallet",
		Usage: "Bitcoin Cash wallet: addresses, keys and signed transfers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file (yaml, json or toml)"},
			&cli.StringFlag{Name: "network", Usage: "main, test or regtest"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory with encrypted seed and unspent outputs"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn, error, critical or off"},
			&cli.StringFlag{Name: "path", Usage: "derivation path of the wallet key"},
			&cli.StringFlag{Name: "fee-rate", Usage: "satoshi per byte used during coin selection"},
			&cli.StringFlag{Name: "selection", Usage: "branch-and-bound, largest-first or single-random-draw"},
		},
		Before: env.setup,
		Commands: []*cli.Command{
			addressCommand(env),
			mnemonicCommand(),
			seedCommand(env),
			utxoCommand(env),
			sendCommand(env),
		},
	}
}

// setup loads config and wires loggers before any command runs.
func (env *environment) setup(c *cli.Context) error {
	overrides := make(map[string]any)
	for flag, key := range globalOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	cfg, err := config.Load(c.String("config"), overrides)
	if err != nil {
		return err
	}

	env.config = cfg
	env.loggers = logging.New(c.App.ErrWriter, cfg.LogLevel)
	env.log = env.loggers.Logger(logging.Main)
	env.log.Debugf("network %s, data dir %s, selection %s", cfg.Network, cfg.DataDir, cfg.CoinSelection)

	return nil
}

// seedPath returns location of the encrypted seed.
func (env *environment) seedPath() string {
	return filepath.Join(env.config.DataDir, keychain.SeedFileName)
}

// storePath returns location of the unspent outputs store.
func (env *environment) storePath() string {
	return filepath.Join(env.config.DataDir, "utxo")
}

// unlock reads encrypted seed and decrypts it with password.
func (env *environment) unlock(password string) (*keychain.LockedDeriver, error) {
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	deriver, err := keychain.ReadSeedFile(env.seedPath())
	if err != nil {
		return nil, fmt.Errorf("%w, run 'seed import' first", err)
	}
	if err = deriver.Unlock([]byte(password)); err != nil {
		return nil, err
	}

	return deriver, nil
}
