// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/urfave/cli/v2"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
	"github.com/BoostyLabs/bchwallet/bitcoincash/coinselect"
	"github.com/BoostyLabs/bchwallet/bitcoincash/signer"
	"github.com/BoostyLabs/bchwallet/bitcoincash/txbuilder"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utils"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

func sendCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "build and sign transfer transaction from stored outputs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Usage: "destination address", Required: true},
			&cli.StringFlag{Name: "amount", Usage: "BCH to send, e.g. 0.0001", Required: true},
			passwordFlag(),
			&cli.StringFlag{Name: "token-category", Usage: "category of tokens to send"},
			&cli.Uint64Flag{Name: "token-amount", Usage: "fungible token amount to send"},
			&cli.StringFlag{Name: "nft-capability", Usage: "none, mutable or minting"},
			&cli.StringFlag{Name: "nft-commitment", Usage: "hex encoded NFT commitment"},
			&cli.BoolFlag{Name: "genesis", Usage: "create new token category from the first stored output with index 0"},
		},
		Action: env.send,
	}
}

func (env *environment) send(c *cli.Context) error {
	destination, err := utils.NewLockingScriptFromString(c.String("to"))
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	amount, err := numbers.BCHToSatoshi(c.String("amount"))
	if err != nil {
		return err
	}

	deriver, err := env.unlock(c.String("password"))
	if err != nil {
		return err
	}
	defer deriver.Lock()

	key, err := deriver.DerivePrivateKey(env.config.DerivationPath)
	if err != nil {
		return err
	}
	owner, err := walletScript(key)
	if err != nil {
		return err
	}

	unspent, err := env.loadUnspent(c.Context, owner)
	if err != nil {
		return err
	}

	token, err := tokenOptions(c)
	if err != nil {
		return err
	}
	required, err := requiredOutputs(unspent, token, c.Bool("genesis"))
	if err != nil {
		return err
	}

	selector, err := coinselect.New(env.config.CoinSelection)
	if err != nil {
		return err
	}
	builder := txbuilder.NewTxBuilder(signer.NewSigner(deriver, env.config.HashType), txbuilder.Config{
		Selector:     selector,
		FeeRate:      env.config.FeeRate,
		RelayFeeRate: env.config.RelayFeeRate,
	})

	env.log.Infof("sending %s BCH from %d stored outputs", numbers.SatoshiToBCH(amount), unspent.Len())

	result, err := builder.BuildTransferTx(txbuilder.TransferParams{
		Path:         env.config.DerivationPath,
		Destination:  destination,
		ChangeScript: owner,
		Amount:       amount,
		UTXOs:        bitcoincash.UnspentUTXOs{NonToken: unspent.NonToken},
		Required:     required,
		Token:        token,
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "tx:   %s\n", result.RawTx)
	fmt.Fprintf(w, "dust: %d\n", result.Dust)
	fmt.Fprintf(w, "fee:  %d\n", result.Fee)

	return nil
}

// tokenOptions reads token flags, nil if no tokens are sent.
func tokenOptions(c *cli.Context) (*txbuilder.TokenOptions, error) {
	if !c.IsSet("token-category") && !c.IsSet("token-amount") && !c.IsSet("nft-capability") && !c.Bool("genesis") {
		return nil, nil
	}

	opts := &txbuilder.TokenOptions{Amount: c.Uint64("token-amount")}
	if c.IsSet("token-category") {
		category, err := chainhash.NewHashFromStr(c.String("token-category"))
		if err != nil {
			return nil, fmt.Errorf("token category: %w", err)
		}
		opts.Category = category
	}

	if c.IsSet("nft-capability") {
		capability, err := cashtoken.ParseCapability(c.String("nft-capability"))
		if err != nil {
			return nil, err
		}
		commitment, err := hex.DecodeString(c.String("nft-commitment"))
		if err != nil {
			return nil, fmt.Errorf("nft commitment: %w", err)
		}
		opts.NFT = &cashtoken.NFT{Capability: capability, Commitment: commitment}
	} else if c.IsSet("nft-commitment") {
		return nil, fmt.Errorf("nft commitment requires nft capability")
	}

	return opts, nil
}

// requiredOutputs picks outputs that must be spent: the genesis output or every output holding the category.
func requiredOutputs(unspent *bitcoincash.UnspentUTXOs, token *txbuilder.TokenOptions, genesis bool) (*bitcoincash.UnspentUTXOs, error) {
	switch {
	case token == nil:
		return nil, nil
	case genesis:
		for _, out := range unspent.NonToken {
			if out.OutPoint.Index == 0 && (token.Category == nil || *token.Category == out.OutPoint.Hash) {
				return &bitcoincash.UnspentUTXOs{NonToken: []bitcoincash.UTXO{out}}, nil
			}
		}

		return nil, fmt.Errorf("%w: no stored output with index 0", txbuilder.ErrInvalidGenesis)
	case token.Category == nil:
		return nil, fmt.Errorf("%w: token category is required", txbuilder.ErrInvalidToken)
	default:
		required := new(bitcoincash.UnspentUTXOs)
		for _, out := range unspent.WithToken {
			if out.Token.Category == *token.Category {
				required.WithToken = append(required.WithToken, out)
			}
		}
		if len(required.WithToken) == 0 {
			return nil, fmt.Errorf("%w: no outputs hold %v", txbuilder.ErrInsufficientTokens, token.Category)
		}

		return required, nil
	}
}
