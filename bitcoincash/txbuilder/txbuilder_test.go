// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
	"github.com/BoostyLabs/bchwallet/bitcoincash/coinselect"
	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
	"github.com/BoostyLabs/bchwallet/bitcoincash/keychain"
	"github.com/BoostyLabs/bchwallet/bitcoincash/signer"
	"github.com/BoostyLabs/bchwallet/bitcoincash/txbuilder"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utils"
)

const path = "m/44'/1'/0'/0/0"

type staticDeriver struct {
	key *btcec.PrivateKey
	err error
}

func (d staticDeriver) DerivePrivateKey(string) (*btcec.PrivateKey, error) {
	return d.key, d.err
}

var (
	privateKey, _ = btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x22}, 32))
	senderScript  = utils.MustP2PKHScript(btcutil.Hash160(privateKey.PubKey().SerializeCompressed()))
	recipient     = utils.MustP2PKHScript(bytes.Repeat([]byte{0x33}, 20))
	category      = chainhash.Hash{0xca, 0xfe}
)

func newBuilder(selector coinselect.Selector, deriver signer.KeyDeriver) *txbuilder.TxBuilder {
	return newBuilderWithFeeRate(selector, deriver, fees.ZeroFeeRate)
}

func newBuilderWithFeeRate(selector coinselect.Selector, deriver signer.KeyDeriver, feeRate fees.FeeRate) *txbuilder.TxBuilder {
	return txbuilder.NewTxBuilder(signer.NewSigner(deriver, signer.DefaultHashType), txbuilder.Config{
		Selector:     selector,
		FeeRate:      feeRate,
		RelayFeeRate: fees.DefaultMinRelayFeeRate,
	})
}

func newUTXO(seed byte, index uint32, value uint64) bitcoincash.UTXO {
	return bitcoincash.UTXO{
		Height:          100,
		OutPoint:        wire.OutPoint{Hash: chainhash.Hash{seed}, Index: index},
		Value:           value,
		LockingBytecode: senderScript,
	}
}

func nonToken(values ...uint64) bitcoincash.UnspentUTXOs {
	var utxos bitcoincash.UnspentUTXOs
	for i, value := range values {
		utxos.NonToken = append(utxos.NonToken, newUTXO(byte(i+1), uint32(i), value))
	}

	return utxos
}

func inputValue(t *testing.T, result *txbuilder.Result, utxos []bitcoincash.UTXO) uint64 {
	t.Helper()

	values := make(map[wire.OutPoint]uint64, len(utxos))
	for _, utxo := range utxos {
		values[utxo.OutPoint] = utxo.Value
	}

	var sum uint64
	for _, in := range result.Tx.TxIn {
		value, ok := values[in.PreviousOutPoint]
		require.True(t, ok)
		sum += value
	}

	return sum
}

// requireTx checks invariants shared by every built transaction.
func requireTx(t *testing.T, result *txbuilder.Result, utxos []bitcoincash.UTXO, estimatedSize int) {
	t.Helper()

	tx := result.Tx
	require.EqualValues(t, 2, tx.Version)
	require.EqualValues(t, 0, tx.LockTime)
	for _, in := range tx.TxIn {
		require.EqualValues(t, 0, in.Sequence)
		require.NotEmpty(t, in.SignatureScript)
	}

	var out uint64
	for _, txOut := range tx.TxOut {
		out += uint64(txOut.Value)
	}
	require.Equal(t, inputValue(t, result, utxos), out+result.Fee)

	// fee is paid for the largest possible signatures, real ones may be a few bytes shorter.
	require.EqualValues(t, estimatedSize, result.Fee)
	require.LessOrEqual(t, tx.SerializeSize(), estimatedSize)
	require.GreaterOrEqual(t, tx.SerializeSize(), estimatedSize-4*len(tx.TxIn))

	raw, err := hex.DecodeString(result.RawTx)
	require.NoError(t, err)

	var decoded wire.MsgTx
	require.NoError(t, decoded.Deserialize(bytes.NewReader(raw)))
	require.Equal(t, tx.TxHash(), decoded.TxHash())
}

func TestBuildTransferTx(t *testing.T) {
	builder := newBuilder(coinselect.NewLargestFirst(), staticDeriver{key: privateKey})

	t.Run("change", func(t *testing.T) {
		utxos := nonToken(100000)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 227)

		require.True(t, result.Change)
		require.EqualValues(t, 546, result.Dust)
		require.Len(t, result.Tx.TxOut, 2)
		require.Equal(t, wire.NewTxOut(10000, recipient), result.Tx.TxOut[0])
		require.Equal(t, wire.NewTxOut(100000-10000-227, senderScript), result.Tx.TxOut[1])
	})

	t.Run("excess below dust goes to destination", func(t *testing.T) {
		utxos := nonToken(10500)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 193)

		require.False(t, result.Change)
		require.Equal(t, wire.NewTxOut(10500-193, recipient), result.Tx.TxOut[0])
	})

	t.Run("change below dust after relay fee", func(t *testing.T) {
		utxos := nonToken(10700)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 193)

		require.False(t, result.Change)
		require.Equal(t, wire.NewTxOut(10700-193, recipient), result.Tx.TxOut[0])
	})

	t.Run("whole balance", func(t *testing.T) {
		utxos := nonToken(6000, 4000)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 342)

		require.Len(t, result.Tx.TxIn, 2)
		require.Equal(t, utxos.NonToken[0].OutPoint, result.Tx.TxIn[0].PreviousOutPoint)
		require.Equal(t, wire.NewTxOut(10000-342, recipient), result.Tx.TxOut[0])
	})

	t.Run("whole balance below dust after fee", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 700, UTXOs: nonToken(700),
		})

		var dustErr *txbuilder.DustError
		require.True(t, errors.As(err, &dustErr))
		require.EqualValues(t, 507, dustErr.Amount)
		require.EqualValues(t, 546, dustErr.Dust)
	})

	t.Run("destination below dust", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 545, UTXOs: nonToken(100000),
		})
		require.ErrorIs(t, err, txbuilder.ErrDust)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: nonToken(5000),
		})
		require.ErrorIs(t, err, coinselect.ErrInsufficientFunds)
	})

	t.Run("missing scripts", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{Path: path, Amount: 10000, UTXOs: nonToken(50000)})
		require.Error(t, err)
	})

	t.Run("key derivation failure", func(t *testing.T) {
		locked := newBuilder(coinselect.NewLargestFirst(), keychain.NewLockedDeriver(nil))
		result, err := locked.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: nonToken(50000),
		})
		require.ErrorIs(t, err, keychain.ErrKeyDerivation)
		require.ErrorIs(t, err, keychain.ErrLocked)
		require.Nil(t, result)
	})

	t.Run("branch and bound exact match", func(t *testing.T) {
		bnb := newBuilder(coinselect.NewBranchAndBound(), staticDeriver{key: privateKey})
		utxos := nonToken(3000, 7000, 12000)
		result, err := bnb.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 342)

		require.Equal(t, utxos.NonToken[1].OutPoint, result.Tx.TxIn[0].PreviousOutPoint)
		require.Equal(t, utxos.NonToken[0].OutPoint, result.Tx.TxIn[1].PreviousOutPoint)
		require.Equal(t, wire.NewTxOut(10000-342, recipient), result.Tx.TxOut[0])
	})
}

func TestBuildTransferTxWithFeeRate(t *testing.T) {
	builder := newBuilderWithFeeRate(coinselect.NewLargestFirst(), staticDeriver{key: privateKey}, 1)

	t.Run("change", func(t *testing.T) {
		utxos := nonToken(50000, 60000)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 227)

		require.Equal(t, utxos.NonToken[1].OutPoint, result.Tx.TxIn[0].PreviousOutPoint)
		require.Equal(t, wire.NewTxOut(10000, recipient), result.Tx.TxOut[0])
		require.Equal(t, wire.NewTxOut(60000-10000-227, senderScript), result.Tx.TxOut[1])
	})

	t.Run("no change", func(t *testing.T) {
		utxos := nonToken(10600)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path: path, Destination: recipient, ChangeScript: senderScript, Amount: 10000, UTXOs: utxos,
		})
		require.NoError(t, err)
		requireTx(t, result, utxos.NonToken, 193)

		require.False(t, result.Change)
		require.Equal(t, wire.NewTxOut(10600-193, recipient), result.Tx.TxOut[0])
	})
}

func TestBuildTokenTransferTx(t *testing.T) {
	builder := newBuilder(coinselect.NewLargestFirst(), staticDeriver{key: privateKey})

	tokenUTXO := newUTXO(0x10, 1, 1000)
	tokenUTXO.Token = &cashtoken.Token{Category: category, Amount: 100}
	required := &bitcoincash.UnspentUTXOs{WithToken: []bitcoincash.UTXO{tokenUTXO}}

	t.Run("transfer with token change", func(t *testing.T) {
		utxos := nonToken(50000)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        utxos,
			Required:     required,
			Token:        &txbuilder.TokenOptions{Category: &category, Amount: 30},
		})
		require.NoError(t, err)
		requireTx(t, result, append(utxos.NonToken, tokenUTXO), 446)

		require.EqualValues(t, 651, result.Dust)
		require.Equal(t, tokenUTXO.OutPoint, result.Tx.TxIn[0].PreviousOutPoint)
		require.Len(t, result.Tx.TxOut, 2)

		token, script, err := cashtoken.SplitScript(result.Tx.TxOut[0].PkScript)
		require.NoError(t, err)
		require.Equal(t, recipient, script)
		require.Equal(t, &cashtoken.Token{Category: category, Amount: 30}, token)
		require.EqualValues(t, 1000, result.Tx.TxOut[0].Value)

		token, script, err = cashtoken.SplitScript(result.Tx.TxOut[1].PkScript)
		require.NoError(t, err)
		require.Equal(t, senderScript, script)
		require.Equal(t, &cashtoken.Token{Category: category, Amount: 70}, token)
		require.EqualValues(t, 51000-1000-446, result.Tx.TxOut[1].Value)
	})

	t.Run("transfer whole token amount", func(t *testing.T) {
		utxos := nonToken(50000)
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        utxos,
			Required:     required,
			Token:        &txbuilder.TokenOptions{Category: &category, Amount: 100},
		})
		require.NoError(t, err)
		requireTx(t, result, []bitcoincash.UTXO{tokenUTXO}, 228)

		// token output covers the amount, nothing returns to sender.
		require.Len(t, result.Tx.TxIn, 1)
		require.Len(t, result.Tx.TxOut, 1)
		require.EqualValues(t, 1000-228, result.Tx.TxOut[0].Value)

		token, _, err := cashtoken.SplitScript(result.Tx.TxOut[0].PkScript)
		require.NoError(t, err)
		require.EqualValues(t, 100, token.Amount)
	})

	t.Run("insufficient tokens", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     required,
			Token:        &txbuilder.TokenOptions{Category: &category, Amount: 101},
		})
		require.ErrorIs(t, err, txbuilder.ErrInsufficientTokens)
	})

	t.Run("foreign category", func(t *testing.T) {
		other := chainhash.Hash{0xbe, 0xef}
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     required,
			Token:        &txbuilder.TokenOptions{Category: &other, Amount: 1},
		})
		require.ErrorIs(t, err, txbuilder.ErrInvalidToken)
	})

	t.Run("token outputs without options", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     required,
		})
		require.ErrorIs(t, err, txbuilder.ErrInvalidToken)
	})

	nftUTXO := newUTXO(0x11, 0, 1000)
	nftUTXO.Token = &cashtoken.Token{
		Category: category,
		Amount:   100,
		NFT:      &cashtoken.NFT{Capability: cashtoken.CapabilityMinting, Commitment: []byte{0x01}},
	}
	nftRequired := &bitcoincash.UnspentUTXOs{WithToken: []bitcoincash.UTXO{nftUTXO}}

	t.Run("unsent nft returns with change", func(t *testing.T) {
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     nftRequired,
			Token:        &txbuilder.TokenOptions{Category: &category, Amount: 50},
		})
		require.NoError(t, err)
		require.Len(t, result.Tx.TxOut, 2)

		token, _, err := cashtoken.SplitScript(result.Tx.TxOut[0].PkScript)
		require.NoError(t, err)
		require.Equal(t, &cashtoken.Token{Category: category, Amount: 50}, token)

		token, script, err := cashtoken.SplitScript(result.Tx.TxOut[1].PkScript)
		require.NoError(t, err)
		require.Equal(t, senderScript, script)
		require.Equal(t, &cashtoken.Token{Category: category, Amount: 50, NFT: nftUTXO.Token.NFT}, token)
	})

	t.Run("send nft", func(t *testing.T) {
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     nftRequired,
			Token: &txbuilder.TokenOptions{
				Category: &category,
				Amount:   100,
				NFT:      &cashtoken.NFT{Capability: cashtoken.CapabilityMinting, Commitment: []byte{0x01}},
			},
		})
		require.NoError(t, err)
		requireTx(t, result, []bitcoincash.UTXO{nftUTXO}, 230)

		require.Len(t, result.Tx.TxOut, 1)
		token, _, err := cashtoken.SplitScript(result.Tx.TxOut[0].PkScript)
		require.NoError(t, err)
		require.Equal(t, nftUTXO.Token, token)
	})

	t.Run("mint nft keeps minting nft", func(t *testing.T) {
		minted := &cashtoken.NFT{Capability: cashtoken.CapabilityNone, Commitment: []byte{0x02}}
		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     nftRequired,
			Token:        &txbuilder.TokenOptions{Category: &category, NFT: minted},
		})
		require.NoError(t, err)
		require.Len(t, result.Tx.TxOut, 2)

		token, _, err := cashtoken.SplitScript(result.Tx.TxOut[0].PkScript)
		require.NoError(t, err)
		require.Equal(t, &cashtoken.Token{Category: category, NFT: minted}, token)

		token, _, err = cashtoken.SplitScript(result.Tx.TxOut[1].PkScript)
		require.NoError(t, err)
		require.Equal(t, nftUTXO.Token, token)
	})

	t.Run("nft without minting input", func(t *testing.T) {
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     required,
			Token: &txbuilder.TokenOptions{
				Category: &category,
				Amount:   10,
				NFT:      &cashtoken.NFT{Capability: cashtoken.CapabilityNone, Commitment: []byte{0x02}},
			},
		})
		require.ErrorIs(t, err, txbuilder.ErrInvalidToken)
	})

	t.Run("several unsent nfts", func(t *testing.T) {
		second := newUTXO(0x12, 0, 1000)
		second.Token = &cashtoken.Token{
			Category: category,
			NFT:      &cashtoken.NFT{Capability: cashtoken.CapabilityMutable, Commitment: []byte{0x03}},
		}
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     &bitcoincash.UnspentUTXOs{WithToken: []bitcoincash.UTXO{nftUTXO, second}},
			Token:        &txbuilder.TokenOptions{Category: &category, Amount: 10},
		})
		require.ErrorIs(t, err, txbuilder.ErrInvalidToken)
	})

	t.Run("genesis", func(t *testing.T) {
		genesis := newUTXO(0x20, 0, 2000)
		utxos := nonToken(50000)
		utxos.NonToken = append(utxos.NonToken, genesis)

		result, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        utxos,
			Required:     &bitcoincash.UnspentUTXOs{NonToken: []bitcoincash.UTXO{genesis}},
			Token: &txbuilder.TokenOptions{
				Amount: 1000000,
				NFT:    &cashtoken.NFT{Capability: cashtoken.CapabilityMinting, Commitment: []byte("00")},
			},
		})
		require.NoError(t, err)
		require.Len(t, result.Tx.TxIn, 1)
		require.Equal(t, genesis.OutPoint, result.Tx.TxIn[0].PreviousOutPoint)

		token, _, err := cashtoken.SplitScript(result.Tx.TxOut[0].PkScript)
		require.NoError(t, err)
		require.Equal(t, genesis.OutPoint.Hash, token.Category)
		require.EqualValues(t, 1000000, token.Amount)
		require.Equal(t, cashtoken.CapabilityMinting, token.NFT.Capability)
	})

	t.Run("genesis output is not first", func(t *testing.T) {
		genesis := newUTXO(0x20, 1, 2000)
		_, err := builder.BuildTransferTx(txbuilder.TransferParams{
			Path:         path,
			Destination:  recipient,
			ChangeScript: senderScript,
			Amount:       1000,
			UTXOs:        nonToken(50000),
			Required:     &bitcoincash.UnspentUTXOs{NonToken: []bitcoincash.UTXO{genesis}},
			Token:        &txbuilder.TokenOptions{Amount: 10},
		})
		require.ErrorIs(t, err, txbuilder.ErrInvalidGenesis)
	})
}

func TestBuildP2PKH(t *testing.T) {
	builder := newBuilder(coinselect.NewLargestFirst(), staticDeriver{key: privateKey})

	_, err := builder.BuildP2PKH(path, nil, []*wire.TxOut{wire.NewTxOut(1000, recipient)})
	require.ErrorIs(t, err, txbuilder.ErrNoInputs)

	utxos := nonToken(5000, 6000)
	tx, err := builder.BuildP2PKH(path, utxos.NonToken, []*wire.TxOut{wire.NewTxOut(10000, recipient)})
	require.NoError(t, err)
	require.Len(t, tx.TxIn, 2)

	// size depends only on inputs and outputs layout.
	unsigned := wire.NewMsgTx(2)
	for _, utxo := range utxos.NonToken {
		unsigned.AddTxIn(wire.NewTxIn(&utxo.OutPoint, nil, nil))
	}
	unsigned.AddTxOut(wire.NewTxOut(1, recipient))
	require.Equal(t, 342, txbuilder.EstimateSize(unsigned))

	unsigned.TxOut[0].Value = 1_000_000_000
	require.Equal(t, 342, txbuilder.EstimateSize(unsigned))
	require.LessOrEqual(t, tx.SerializeSize(), txbuilder.EstimateSize(unsigned))
}
