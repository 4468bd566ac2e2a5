// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"

	"github.com/BoostyLabs/bchwallet/bitcoincash/address"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utils"
)

func addressCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "decode, encode and convert addresses",
		Subcommands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "print address fields",
				ArgsUsage: "<address>",
				Action:    decodeAddress,
			},
			{
				Name:  "encode",
				Usage: "build address from hash",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "hash", Usage: "hex encoded public key or script hash", Required: true},
					&cli.StringFlag{Name: "type", Usage: "key or script", Value: address.PubKeyHash.String()},
					&cli.BoolFlag{Name: "token", Usage: "token aware cashaddr"},
					&cli.BoolFlag{Name: "legacy", Usage: "legacy format instead of cashaddr"},
				},
				Action: env.encodeAddress,
			},
			{
				Name:      "convert",
				Usage:     "convert cashaddr to legacy and back",
				ArgsUsage: "<address>",
				Action:    convertAddress,
			},
			{
				Name:  "wallet",
				Usage: "print receiving address of the wallet key",
				Flags: []cli.Flag{passwordFlag()},
				Action: func(c *cli.Context) error {
					key, err := env.walletKey(c.String("password"))
					if err != nil {
						return err
					}

					return printWalletAddress(c.App.Writer, key, env.config.Network)
				},
			},
		},
	}
}

// passwordFlag defines password of the encrypted seed.
func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "password",
		Usage:    "password of the encrypted seed",
		EnvVars:  []string{"BCHWALLET_PASSWORD"},
		Required: true,
	}
}

func decodeAddress(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one address")
	}

	addr, err := address.Decode(c.Args().First())
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "scheme:        %s\n", addr.Scheme)
	fmt.Fprintf(w, "network:       %s\n", addr.Network)
	fmt.Fprintf(w, "type:          %s\n", addr.HashType)
	fmt.Fprintf(w, "token support: %t\n", addr.TokenSupport)
	fmt.Fprintf(w, "hash:          %x\n", addr.Body)

	return nil
}

func (env *environment) encodeAddress(c *cli.Context) error {
	body, err := hex.DecodeString(c.String("hash"))
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	var hashType address.HashType
	switch c.String("type") {
	case address.PubKeyHash.String():
		hashType = address.PubKeyHash
	case address.ScriptHash.String():
		hashType = address.ScriptHash
	default:
		return fmt.Errorf("unknown hash type %q", c.String("type"))
	}

	scheme := address.SchemeCashAddr
	if c.Bool("legacy") {
		scheme = address.SchemeLegacy
	}

	encoded, err := address.New(body, scheme, hashType, env.config.Network, c.Bool("token")).Encode()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, encoded)
	return err
}

func convertAddress(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one address")
	}

	addr, err := address.Decode(c.Args().First())
	if err != nil {
		return err
	}

	var converted string
	if addr.Scheme == address.SchemeLegacy {
		converted, err = addr.CashAddr()
	} else {
		converted, err = addr.Legacy()
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, converted)
	return err
}

// walletKey unlocks the seed and derives the wallet key at configured path.
func (env *environment) walletKey(password string) (*btcec.PrivateKey, error) {
	deriver, err := env.unlock(password)
	if err != nil {
		return nil, err
	}
	defer deriver.Lock()

	return deriver.DerivePrivateKey(env.config.DerivationPath)
}

// walletScript returns P2PKH locking bytecode of the key.
func walletScript(key *btcec.PrivateKey) ([]byte, error) {
	return utils.NewP2PKHScript(btcutil.Hash160(key.PubKey().SerializeCompressed()))
}

func printWalletAddress(w io.Writer, key *btcec.PrivateKey, network address.Network) error {
	hash := btcutil.Hash160(key.PubKey().SerializeCompressed())
	for _, tokenSupport := range []bool{false, true} {
		encoded, err := address.EncodeCashAddr(hash, address.PubKeyHash, network, tokenSupport)
		if err != nil {
			return err
		}

		label := "address:      "
		if tokenSupport {
			label = "token address:"
		}
		fmt.Fprintln(w, label, encoded)
	}

	return nil
}
