// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package keychain

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

const (
	// MnemonicEntropyBits defines entropy size of 24 words mnemonic.
	MnemonicEntropyBits = 256
	// SeedSize defines length of BIP39 seed.
	SeedSize = 64
)

// ErrInvalidMnemonic defines invalid mnemonic error.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// NewMnemonic generates 24 words BIP39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}

	return bip39.NewMnemonic(entropy)
}

// SeedFromMnemonic derives BIP39 seed from the mnemonic and optional passphrase.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, errors.Join(ErrInvalidMnemonic, err)
	}

	return seed, nil
}
