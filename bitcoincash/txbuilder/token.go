// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
)

// TokenOptions describes tokens attached to the destination output.
type TokenOptions struct {
	// Category of transferred tokens. Nil for genesis, category is taken from the genesis output then.
	Category *chainhash.Hash
	Amount   uint64         // fungible amount to transfer.
	NFT      *cashtoken.NFT // sent to the destination. Input NFTs which are not sent return with the change.
}

// tokenPlan describes inputs and token attachments of the transfer.
type tokenPlan struct {
	required    []bitcoincash.UTXO
	destination *cashtoken.Token // attached to the destination output.
	change      *cashtoken.Token // attached to the change output, nil if nothing returns.
}

// newTokenPlan resolves required inputs and token attachments.
// Genesis outputs (required non-token outputs) take precedence over token outputs.
func newTokenPlan(opts *TokenOptions, required *bitcoincash.UnspentUTXOs) (*tokenPlan, error) {
	if opts == nil {
		if required == nil {
			return &tokenPlan{}, nil
		}
		if len(required.WithToken) > 0 {
			return nil, fmt.Errorf("%w: spending token outputs without token options burns tokens", ErrInvalidToken)
		}

		return &tokenPlan{required: required.NonToken}, nil
	}
	if required == nil {
		return nil, fmt.Errorf("%w: no genesis or token outputs provided", ErrInvalidToken)
	}

	switch {
	case len(required.NonToken) > 0:
		genesis := required.NonToken[0]
		if genesis.OutPoint.Index != 0 {
			return nil, fmt.Errorf("%w: %v is not the first output", ErrInvalidGenesis, genesis.OutPoint)
		}
		if opts.Category != nil && *opts.Category != genesis.OutPoint.Hash {
			return nil, fmt.Errorf("%w: category %v differs from %v", ErrInvalidGenesis, opts.Category, genesis.OutPoint.Hash)
		}

		return &tokenPlan{
			required:    required.NonToken,
			destination: &cashtoken.Token{Category: genesis.OutPoint.Hash, Amount: opts.Amount, NFT: opts.NFT},
		}, nil
	case len(required.WithToken) > 0:
		if opts.Category == nil {
			return nil, fmt.Errorf("%w: category is required to spend token outputs", ErrInvalidToken)
		}
		for _, utxo := range required.WithToken {
			if utxo.Token == nil || utxo.Token.Category != *opts.Category {
				return nil, fmt.Errorf("%w: %v does not hold %v tokens", ErrInvalidToken, utxo.OutPoint, opts.Category)
			}
		}

		available := required.TokenAmount(*opts.Category)
		if opts.Amount > available {
			return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientTokens, opts.Amount, available)
		}

		returned, err := returnedNFT(required.WithToken, opts.NFT)
		if err != nil {
			return nil, err
		}

		plan := &tokenPlan{
			required:    required.WithToken,
			destination: &cashtoken.Token{Category: *opts.Category, Amount: opts.Amount, NFT: opts.NFT},
		}
		if available > opts.Amount || returned != nil {
			plan.change = &cashtoken.Token{Category: *opts.Category, Amount: available - opts.Amount, NFT: returned}
		}

		return plan, nil
	default:
		return nil, fmt.Errorf("%w: no genesis or token outputs provided", ErrInvalidToken)
	}
}

// returnedNFT checks that the sent NFT can be produced by the inputs and returns the NFT left for the change output.
// The sent NFT consumes an identical input NFT, otherwise it is minted by a minting input which stays unspent.
// The change output holds at most one NFT, more leftovers would be burned.
func returnedNFT(inputs []bitcoincash.UTXO, sent *cashtoken.NFT) (*cashtoken.NFT, error) {
	var (
		left    []*cashtoken.NFT
		minting bool
	)
	for _, utxo := range inputs {
		if utxo.Token.NFT == nil {
			continue
		}

		left = append(left, utxo.Token.NFT)
		minting = minting || utxo.Token.NFT.Capability == cashtoken.CapabilityMinting
	}

	if sent != nil {
		idx := slices.IndexFunc(left, func(nft *cashtoken.NFT) bool {
			return nft.Capability == sent.Capability && bytes.Equal(nft.Commitment, sent.Commitment)
		})
		switch {
		case idx >= 0:
			left = slices.Delete(left, idx, idx+1)
		case !minting:
			return nil, fmt.Errorf("%w: no minting nft or identical nft among inputs", ErrInvalidToken)
		}
	}

	switch len(left) {
	case 0:
		return nil, nil
	case 1:
		return left[0], nil
	default:
		return nil, fmt.Errorf("%w: %d nfts can not return in one change output", ErrInvalidToken, len(left))
	}
}
