// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package utxo

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	jsoniter "github.com/json-iterator/go"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidRecord defines error class of RecordError.
var ErrInvalidRecord = errors.New("invalid unspent output record")

// RecordError describes malformed unspent output record.
type RecordError struct {
	Index int    // position of the record in the list.
	Field string // json field name.
	Err   error
}

// Error returns error description.
func (e *RecordError) Error() string {
	return fmt.Sprintf("%v #%d: %s: %v", ErrInvalidRecord, e.Index, e.Field, e.Err)
}

// Unwrap returns underlying error.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements comparator method for [errors] package.
func (e *RecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// Record describes one entry of Electrum blockchain.scripthash.listunspent response.
type Record struct {
	Height    *int64     `json:"height"`
	TxHash    *string    `json:"tx_hash"`
	TxPos     *int64     `json:"tx_pos"`
	Value     *int64     `json:"value"`
	TokenData *TokenData `json:"token_data,omitempty"`
}

// TokenData describes token attachment of the record.
type TokenData struct {
	Amount   *string  `json:"amount"`
	Category *string  `json:"category"`
	NFT      *NFTData `json:"nft,omitempty"`
}

// NFTData describes non-fungible token of the record.
type NFTData struct {
	Capability *string `json:"capability"`
	Commitment string  `json:"commitment"`
}

// Parse decodes listunspent response into typed outputs locked by lockingBytecode.
// Every record must be complete and well-formed, the first malformed one fails the whole list.
func Parse(data []byte, lockingBytecode []byte) (*bitcoincash.UnspentUTXOs, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	unspent := &bitcoincash.UnspentUTXOs{
		NonToken:  make([]bitcoincash.UTXO, 0, len(records)),
		WithToken: make([]bitcoincash.UTXO, 0),
	}
	seen := make(map[wire.OutPoint]struct{}, len(records))
	for idx := range records {
		utxo, err := records[idx].toUTXO(idx, lockingBytecode)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[utxo.OutPoint]; ok {
			return nil, &RecordError{Index: idx, Field: "tx_hash", Err: fmt.Errorf("duplicate outpoint %v", utxo.OutPoint)}
		}
		seen[utxo.OutPoint] = struct{}{}

		if utxo.Token != nil {
			unspent.WithToken = append(unspent.WithToken, utxo)
		} else {
			unspent.NonToken = append(unspent.NonToken, utxo)
		}
	}

	return unspent, nil
}

// Marshal encodes outputs back into listunspent records.
func Marshal(unspent *bitcoincash.UnspentUTXOs) ([]byte, error) {
	records := make([]Record, 0, unspent.Len())
	for _, list := range [][]bitcoincash.UTXO{unspent.NonToken, unspent.WithToken} {
		for _, utxo := range list {
			records = append(records, newRecord(utxo))
		}
	}

	return json.Marshal(records)
}

// toUTXO validates the record.
func (r *Record) toUTXO(idx int, lockingBytecode []byte) (bitcoincash.UTXO, error) {
	fail := func(field string, err error) (bitcoincash.UTXO, error) {
		return bitcoincash.UTXO{}, &RecordError{Index: idx, Field: field, Err: err}
	}

	switch {
	case r.Height == nil:
		return fail("height", errors.New("missing"))
	case *r.Height < 0 || *r.Height > int64(^uint32(0)):
		return fail("height", fmt.Errorf("out of range %d", *r.Height))
	case r.TxHash == nil:
		return fail("tx_hash", errors.New("missing"))
	case r.TxPos == nil:
		return fail("tx_pos", errors.New("missing"))
	case *r.TxPos < 0 || *r.TxPos > int64(^uint32(0)):
		return fail("tx_pos", fmt.Errorf("out of range %d", *r.TxPos))
	case r.Value == nil:
		return fail("value", errors.New("missing"))
	case *r.Value <= 0:
		return fail("value", fmt.Errorf("non-positive %d", *r.Value))
	}

	hash, err := parseHash(*r.TxHash)
	if err != nil {
		return fail("tx_hash", err)
	}

	utxo := bitcoincash.UTXO{
		Height:          uint32(*r.Height),
		OutPoint:        wire.OutPoint{Hash: *hash, Index: uint32(*r.TxPos)},
		Value:           uint64(*r.Value),
		LockingBytecode: bytes.Clone(lockingBytecode),
	}
	if r.TokenData == nil {
		return utxo, nil
	}

	field, err := r.TokenData.toToken(&utxo)
	if err != nil {
		if field == "" {
			return fail("token_data", err)
		}

		return fail("token_data."+field, err)
	}

	return utxo, nil
}

// toToken validates token data, returns name of the failed field.
func (t *TokenData) toToken(utxo *bitcoincash.UTXO) (string, error) {
	if t.Category == nil {
		return "category", errors.New("missing")
	}

	category, err := parseHash(*t.Category)
	if err != nil {
		return "category", err
	}

	token := &cashtoken.Token{Category: *category}
	if t.Amount == nil {
		return "amount", errors.New("missing")
	}
	if token.Amount, err = strconv.ParseUint(*t.Amount, 10, 64); err != nil {
		return "amount", err
	}

	if t.NFT != nil {
		if t.NFT.Capability == nil {
			return "nft.capability", errors.New("missing")
		}

		token.NFT = new(cashtoken.NFT)
		if token.NFT.Capability, err = cashtoken.ParseCapability(*t.NFT.Capability); err != nil {
			return "nft.capability", err
		}
		if t.NFT.Commitment != "" {
			if token.NFT.Commitment, err = hex.DecodeString(t.NFT.Commitment); err != nil {
				return "nft.commitment", err
			}
		}
	}

	if err = token.Validate(); err != nil {
		return "", err
	}

	utxo.Token = token

	return "", nil
}

// newRecord is a constructor for Record.
func newRecord(utxo bitcoincash.UTXO) Record {
	var (
		height = int64(utxo.Height)
		txHash = utxo.OutPoint.Hash.String()
		txPos  = int64(utxo.OutPoint.Index)
		value  = int64(utxo.Value)
	)

	record := Record{Height: &height, TxHash: &txHash, TxPos: &txPos, Value: &value}
	if utxo.Token != nil {
		var (
			amount   = strconv.FormatUint(utxo.Token.Amount, 10)
			category = utxo.Token.Category.String()
		)

		record.TokenData = &TokenData{Amount: &amount, Category: &category}
		if utxo.Token.NFT != nil {
			capability := utxo.Token.NFT.Capability.String()
			record.TokenData.NFT = &NFTData{
				Capability: &capability,
				Commitment: hex.EncodeToString(utxo.Token.NFT.Commitment),
			}
		}
	}

	return record
}

// parseHash parses hash in display byte order.
func parseHash(s string) (*chainhash.Hash, error) {
	if len(s) != 2*chainhash.HashSize {
		return nil, fmt.Errorf("hash of %d characters", len(s))
	}

	return chainhash.NewHashFromStr(s)
}
