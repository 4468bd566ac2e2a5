// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
)

// HashType defines which parts of the transaction are covered by the signature.
type HashType uint32

const (
	// HashTypeAll signs all inputs and outputs.
	HashTypeAll HashType = 0x01
	// HashTypeUTXOs additionally commits to every spent output, tokens included.
	HashTypeUTXOs HashType = 0x20
	// HashTypeForkID marks replay protected signature hash algorithm.
	HashTypeForkID HashType = 0x40

	// DefaultHashType defines hash type used for wallet inputs.
	DefaultHashType = HashTypeAll | HashTypeUTXOs | HashTypeForkID

	// baseTypeMask selects base hash type bits.
	baseTypeMask HashType = 0x1f
)

// ErrUnsupportedHashType defines that signature hash type is not supported.
var ErrUnsupportedHashType = errors.New("unsupported signature hash type")

// Validate checks that hash type is ALL with fork id, optionally committing to spent outputs.
func (t HashType) Validate() error {
	if t&HashTypeForkID == 0 || t&baseTypeMask != HashTypeAll || t&^(baseTypeMask|HashTypeUTXOs|HashTypeForkID) != 0 {
		return fmt.Errorf("%w: %#02x", ErrUnsupportedHashType, uint32(t))
	}

	return nil
}

// SigHashes holds the transaction-wide hashes shared by every input preimage.
type SigHashes struct {
	HashPrevOuts chainhash.Hash
	HashSequence chainhash.Hash
	HashOutputs  chainhash.Hash
	HashUTXOs    chainhash.Hash
}

// NewSigHashes computes shared hashes of the transaction.
// prevOuts are the outputs spent by the transaction inputs, in the same order.
func NewSigHashes(tx *wire.MsgTx, prevOuts []*wire.TxOut) (*SigHashes, error) {
	if len(prevOuts) != len(tx.TxIn) {
		return nil, fmt.Errorf("%d spent outputs for %d inputs", len(prevOuts), len(tx.TxIn))
	}

	var (
		prevOutsBuf bytes.Buffer
		sequenceBuf bytes.Buffer
		outputsBuf  bytes.Buffer
		utxosBuf    bytes.Buffer
	)
	for i, in := range tx.TxIn {
		writeOutPoint(&prevOutsBuf, &in.PreviousOutPoint)
		_ = binary.Write(&sequenceBuf, binary.LittleEndian, in.Sequence)
		if err := wire.WriteTxOut(&utxosBuf, 0, 0, prevOuts[i]); err != nil {
			return nil, err
		}
	}
	for _, out := range tx.TxOut {
		if err := wire.WriteTxOut(&outputsBuf, 0, 0, out); err != nil {
			return nil, err
		}
	}

	return &SigHashes{
		HashPrevOuts: chainhash.DoubleHashH(prevOutsBuf.Bytes()),
		HashSequence: chainhash.DoubleHashH(sequenceBuf.Bytes()),
		HashOutputs:  chainhash.DoubleHashH(outputsBuf.Bytes()),
		HashUTXOs:    chainhash.DoubleHashH(utxosBuf.Bytes()),
	}, nil
}

// Preimage returns serialized signature preimage of the input.
//
//	version (4) | hashPrevouts (32) | [hashUtxos (32)] | hashSequence (32) |
//	outpoint (36) | [token prefix] | scriptCode (var) | value (8) | sequence (4) |
//	hashOutputs (32) | locktime (4) | hash type (4)
func Preimage(tx *wire.MsgTx, sigHashes *SigHashes, idx int, prevOut *wire.TxOut, hashType HashType) ([]byte, error) {
	if err := hashType.Validate(); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(tx.TxIn) {
		return nil, fmt.Errorf("input index %d out of range [0, %d)", idx, len(tx.TxIn))
	}

	_, scriptCode, err := cashtoken.SplitScript(prevOut.PkScript)
	if err != nil {
		return nil, err
	}
	tokenPrefix := prevOut.PkScript[:len(prevOut.PkScript)-len(scriptCode)]

	in := tx.TxIn[idx]
	w := bytes.NewBuffer(make([]byte, 0, 4+32*4+36+len(prevOut.PkScript)+9+8+4+4+4))
	_ = binary.Write(w, binary.LittleEndian, uint32(tx.Version))
	w.Write(sigHashes.HashPrevOuts[:])
	if hashType&HashTypeUTXOs != 0 {
		w.Write(sigHashes.HashUTXOs[:])
	}
	w.Write(sigHashes.HashSequence[:])
	writeOutPoint(w, &in.PreviousOutPoint)
	w.Write(tokenPrefix)
	if err = wire.WriteVarBytes(w, 0, scriptCode); err != nil {
		return nil, err
	}
	_ = binary.Write(w, binary.LittleEndian, uint64(prevOut.Value))
	_ = binary.Write(w, binary.LittleEndian, in.Sequence)
	w.Write(sigHashes.HashOutputs[:])
	_ = binary.Write(w, binary.LittleEndian, tx.LockTime)
	_ = binary.Write(w, binary.LittleEndian, uint32(hashType))

	return w.Bytes(), nil
}

// CalcSignatureHash returns double sha256 of the input preimage.
func CalcSignatureHash(tx *wire.MsgTx, sigHashes *SigHashes, idx int, prevOut *wire.TxOut, hashType HashType) ([]byte, error) {
	preimage, err := Preimage(tx, sigHashes, idx, prevOut, hashType)
	if err != nil {
		return nil, err
	}

	return chainhash.DoubleHashB(preimage), nil
}

// writeOutPoint writes previous transaction hash (internal byte order) and output index.
func writeOutPoint(w *bytes.Buffer, op *wire.OutPoint) {
	w.Write(op.Hash[:])
	_ = binary.Write(w, binary.LittleEndian, op.Index)
}
