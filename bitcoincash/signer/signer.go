// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
	"github.com/BoostyLabs/bchwallet/bitcoincash/keychain"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utils"
)

// ErrKeyMismatch defines that derived key does not control the spent output.
var ErrKeyMismatch = errors.New("private key does not match spent output")

// KeyDeriver provides private keys by HD derivation path. Implemented by keychain derivers.
type KeyDeriver interface {
	DerivePrivateKey(path string) (*btcec.PrivateKey, error)
}

// SignParams defines parameters for SignP2PKH method.
type SignParams struct {
	Tx       *wire.MsgTx
	PrevOuts []*wire.TxOut // outputs spent by Tx inputs, token prefix included.
	Path     string        // derivation path of the key controlling all inputs.
}

// Signer provides transaction signing related logic.
type Signer struct {
	deriver  KeyDeriver
	hashType HashType
}

// NewSigner is a constructor for Signer.
func NewSigner(deriver KeyDeriver, hashType HashType) *Signer {
	return &Signer{
		deriver:  deriver,
		hashType: hashType,
	}
}

// SignP2PKH signs every pay-to-public-key-hash input of the transaction in place.
func (signer *Signer) SignP2PKH(params SignParams) error {
	if len(params.Tx.TxIn) == 0 {
		return errors.New("transaction has no inputs")
	}

	privateKey, err := signer.deriver.DerivePrivateKey(params.Path)
	if err != nil {
		if errors.Is(err, keychain.ErrKeyDerivation) {
			return err
		}

		return errors.Join(keychain.ErrKeyDerivation, err)
	}

	return SignP2PKHWithKey(params.Tx, params.PrevOuts, privateKey, signer.hashType)
}

// SignP2PKHWithKey signs every input with provided key in the order of inputs.
func SignP2PKHWithKey(tx *wire.MsgTx, prevOuts []*wire.TxOut, privateKey *btcec.PrivateKey, hashType HashType) error {
	sigHashes, err := NewSigHashes(tx, prevOuts)
	if err != nil {
		return err
	}

	pubKey := privateKey.PubKey()
	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	for idx := range tx.TxIn {
		_, lockingBytecode, err := cashtoken.SplitScript(prevOuts[idx].PkScript)
		if err != nil {
			return fmt.Errorf("input %d: %w", idx, err)
		}

		spentHash, err := utils.ExtractPubKeyHash(lockingBytecode)
		if err != nil {
			return fmt.Errorf("input %d: %w", idx, err)
		}
		if !bytes.Equal(spentHash, pubKeyHash) {
			return fmt.Errorf("input %d: %w", idx, ErrKeyMismatch)
		}

		hash, err := CalcSignatureHash(tx, sigHashes, idx, prevOuts[idx], hashType)
		if err != nil {
			return fmt.Errorf("input %d: %w", idx, err)
		}

		signature := append(ecdsa.Sign(privateKey, hash).Serialize(), byte(hashType))
		tx.TxIn[idx].SignatureScript, err = utils.NewP2PKHUnlockingScript(signature, pubKey)
		if err != nil {
			return fmt.Errorf("input %d: %w", idx, err)
		}
	}

	log.Debugf("signed %d inputs of %v", len(tx.TxIn), tx.TxHash())

	return nil
}
