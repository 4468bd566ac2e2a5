// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utils"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utxo"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
	"github.com/BoostyLabs/bchwallet/internal/store"
)

func utxoCommand(env *environment) *cli.Command {
	addressFlag := &cli.StringFlag{Name: "address", Usage: "owner address of the outputs", Required: true}

	return &cli.Command{
		Name:  "utxo",
		Usage: "manage locally stored unspent outputs",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "validate listunspent JSON and store it for the address",
				Flags: []cli.Flag{
					addressFlag,
					&cli.StringFlag{Name: "file", Usage: "listunspent JSON file, - for stdin", Value: "-"},
				},
				Action: env.importUnspent,
			},
			{
				Name:   "list",
				Usage:  "print stored outputs of the address",
				Flags:  []cli.Flag{addressFlag},
				Action: env.listUnspent,
			},
		},
	}
}

func (env *environment) importUnspent(c *cli.Context) error {
	owner, err := utils.NewLockingScriptFromString(c.String("address"))
	if err != nil {
		return err
	}

	var data []byte
	if file := c.String("file"); file == "-" {
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return err
	}

	unspent, err := utxo.Parse(data, owner)
	if err != nil {
		return err
	}

	err = env.withStore(func(db *store.Store) error {
		return db.PutUnspent(c.Context, owner, data)
	})
	if err != nil {
		return err
	}
	env.log.Infof("imported %d outputs, %d with tokens", unspent.Len(), len(unspent.WithToken))

	printUnspent(c.App.Writer, unspent)
	return nil
}

func (env *environment) listUnspent(c *cli.Context) error {
	owner, err := utils.NewLockingScriptFromString(c.String("address"))
	if err != nil {
		return err
	}

	unspent, err := env.loadUnspent(c.Context, owner)
	if err != nil {
		return err
	}

	printUnspent(c.App.Writer, unspent)
	return nil
}

// loadUnspent reads stored outputs of the owner.
func (env *environment) loadUnspent(ctx context.Context, owner []byte) (*bitcoincash.UnspentUTXOs, error) {
	var data []byte
	err := env.withStore(func(db *store.Store) (err error) {
		data, err = db.Unspent(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}

	return utxo.Parse(data, owner)
}

// withStore opens the store for the duration of fn.
func (env *environment) withStore(fn func(db *store.Store) error) (err error) {
	db, err := store.Open(env.storePath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()

	return fn(db)
}

func printUnspent(w io.Writer, unspent *bitcoincash.UnspentUTXOs) {
	for _, out := range unspent.NonToken {
		fmt.Fprintf(w, "%v %s BCH height %d\n", out.OutPoint, numbers.SatoshiToBCH(out.Value), out.Height)
	}
	for _, out := range unspent.WithToken {
		fmt.Fprintf(w, "%v %s BCH height %d token %v amount %d", out.OutPoint, numbers.SatoshiToBCH(out.Value), out.Height,
			out.Token.Category, out.Token.Amount)
		if out.Token.NFT != nil {
			fmt.Fprintf(w, " nft %s %x", out.Token.NFT.Capability, out.Token.NFT.Commitment)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "balance: %s BCH\n", numbers.SatoshiToBCH(unspent.NonTokenAmount()))
}
