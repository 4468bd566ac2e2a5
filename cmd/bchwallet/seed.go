// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/BoostyLabs/bchwallet/bitcoincash/keychain"
)

func mnemonicCommand() *cli.Command {
	return &cli.Command{
		Name:  "mnemonic",
		Usage: "manage mnemonic phrases",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "generate 24 words mnemonic",
				Action: func(c *cli.Context) error {
					mnemonic, err := keychain.NewMnemonic()
					if err != nil {
						return err
					}

					_, err = fmt.Fprintln(c.App.Writer, mnemonic)
					return err
				},
			},
		},
	}
}

func seedCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "manage encrypted wallet seed",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "derive seed from mnemonic and store it encrypted with password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mnemonic", EnvVars: []string{"BCHWALLET_MNEMONIC"}, Required: true},
					&cli.StringFlag{Name: "passphrase", Usage: "optional mnemonic passphrase"},
					passwordFlag(),
					&cli.BoolFlag{Name: "force", Usage: "overwrite existing seed"},
				},
				Action: env.importSeed,
			},
		},
	}
}

func (env *environment) importSeed(c *cli.Context) error {
	path := env.seedPath()
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("seed already exists at %s, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	seed, err := keychain.SeedFromMnemonic(c.String("mnemonic"), c.String("passphrase"))
	if err != nil {
		return err
	}
	defer clear(seed)

	deriver, err := keychain.NewHDKeyDeriver(seed)
	if err != nil {
		return err
	}
	key, err := deriver.DerivePrivateKey(env.config.DerivationPath)
	if err != nil {
		return err
	}

	if err = keychain.WriteSeedFile(path, seed, []byte(c.String("password")), keychain.DefaultEncryptionParams()); err != nil {
		return err
	}
	env.log.Infof("seed stored at %s", path)

	return printWalletAddress(c.App.Writer, key, env.config.Network)
}
