// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoincash

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

// UTXO describes unspent transaction output data.
type UTXO struct {
	Height          uint32 // block height, 0 for mempool outputs.
	OutPoint        wire.OutPoint
	Value           uint64 // in Satoshi.
	LockingBytecode []byte // ScriptPubKey without token prefix.
	Token           *cashtoken.Token
}

// ScriptField returns output script field: token prefix, if any, followed by locking bytecode.
func (u *UTXO) ScriptField() ([]byte, error) {
	return cashtoken.JoinScript(u.Token, u.LockingBytecode)
}

// TxOut returns the output as it is serialized in the transaction it belongs to.
func (u *UTXO) TxOut() (*wire.TxOut, error) {
	script, err := u.ScriptField()
	if err != nil {
		return nil, err
	}

	return wire.NewTxOut(numbers.MustSigned(u.Value), script), nil
}

// UnspentUTXOs describes wallet UTXOs split by token attachment.
type UnspentUTXOs struct {
	NonToken  []UTXO
	WithToken []UTXO
}

// NonTokenAmount returns total satoshi amount of outputs without tokens.
func (u *UnspentUTXOs) NonTokenAmount() uint64 {
	var sum uint64
	for _, utxo := range u.NonToken {
		sum += utxo.Value
	}

	return sum
}

// TokenAmount returns total fungible amount of the category held by token outputs.
func (u *UnspentUTXOs) TokenAmount(category chainhash.Hash) uint64 {
	var sum uint64
	for _, utxo := range u.WithToken {
		if utxo.Token != nil && utxo.Token.Category == category {
			sum += utxo.Token.Amount
		}
	}

	return sum
}

// Len returns total number of outputs.
func (u *UnspentUTXOs) Len() int {
	return len(u.NonToken) + len(u.WithToken)
}
