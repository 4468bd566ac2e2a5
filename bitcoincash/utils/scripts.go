// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"

	"github.com/BoostyLabs/bchwallet/bitcoincash/address"
)

// ErrNonStandardScript defines script that is not one of supported templates.
var ErrNonStandardScript = errors.New("non-standard script")

// NewP2PKHScript builds pay-to-public-key-hash locking script.
// INFO: Script will have the next format: {OP_DUP OP_HASH160 <hash160> OP_EQUALVERIFY OP_CHECKSIG}.
func NewP2PKHScript(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != 20 {
		return nil, fmt.Errorf("invalid public key hash length: %d", len(pubKeyHash))
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// MustP2PKHScript uses NewP2PKHScript, panics in case of error.
func MustP2PKHScript(pubKeyHash []byte) []byte {
	script, err := NewP2PKHScript(pubKeyHash)
	if err != nil {
		panic(err)
	}

	return script
}

// NewP2SHScript builds pay-to-script-hash locking script for 20 or 32 bytes script hash.
// INFO: Script will have the next format: {OP_HASH160|OP_HASH256 <hash> OP_EQUAL}.
func NewP2SHScript(scriptHash []byte) ([]byte, error) {
	var hashOp byte
	switch len(scriptHash) {
	case 20:
		hashOp = txscript.OP_HASH160
	case 32:
		hashOp = txscript.OP_HASH256
	default:
		return nil, fmt.Errorf("invalid script hash length: %d", len(scriptHash))
	}

	return txscript.NewScriptBuilder().
		AddOp(hashOp).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// NewLockingScript builds locking script paying to the address.
func NewLockingScript(addr *address.Address) ([]byte, error) {
	if addr.HashType == address.ScriptHash {
		return NewP2SHScript(addr.Body)
	}

	return NewP2PKHScript(addr.Body)
}

// NewLockingScriptFromString decodes address string of any scheme and builds its locking script.
func NewLockingScriptFromString(addr string) ([]byte, error) {
	decoded, err := address.Decode(addr)
	if err != nil {
		return nil, err
	}

	return NewLockingScript(decoded)
}

// NewP2PKHUnlockingScript builds unlocking script for pay-to-public-key-hash output.
// INFO: Script will have the next format: {<signature||hashtype> <compressed public key>}.
func NewP2PKHUnlockingScript(signature []byte, pubKey *btcec.PublicKey) ([]byte, error) {
	if len(signature) == 0 {
		return nil, errors.New("empty signature")
	}

	return txscript.NewScriptBuilder().
		AddData(signature).
		AddData(pubKey.SerializeCompressed()).
		Script()
}

// ExtractPubKeyHash returns public key hash from pay-to-public-key-hash locking script.
func ExtractPubKeyHash(script []byte) ([]byte, error) {
	if len(script) != 25 ||
		script[0] != txscript.OP_DUP ||
		script[1] != txscript.OP_HASH160 ||
		script[2] != txscript.OP_DATA_20 ||
		script[23] != txscript.OP_EQUALVERIFY ||
		script[24] != txscript.OP_CHECKSIG {
		return nil, ErrNonStandardScript
	}

	return script[3:23], nil
}
