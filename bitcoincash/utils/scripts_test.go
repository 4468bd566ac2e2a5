// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package utils_test

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/bchwallet/bitcoincash/address"
	"github.com/BoostyLabs/bchwallet/bitcoincash/utils"
)

func TestLockingScript(t *testing.T) {
	t.Run("p2pkh from cashaddr", func(t *testing.T) {
		script, err := utils.NewLockingScriptFromString("bchtest:qptnz3u8atavszhaqk037v0fjrtahxmsl5mm45u3pf")
		require.NoError(t, err)
		require.Equal(t, "76a91457314787eafac80afd059f1f31e990d7db9b70fd88ac", hex.EncodeToString(script))

		hash, err := utils.ExtractPubKeyHash(script)
		require.NoError(t, err)
		require.Equal(t, "57314787eafac80afd059f1f31e990d7db9b70fd", hex.EncodeToString(hash))
	})

	t.Run("p2pkh from legacy", func(t *testing.T) {
		script, err := utils.NewLockingScriptFromString("1NM2HFXin4cEQRBLjkNZAS98qLX9JKzjKn")
		require.NoError(t, err)
		require.Equal(t, "76a914ea2407829a5055466b27784cde8cf463167946bf88ac", hex.EncodeToString(script))
	})

	t.Run("p2sh", func(t *testing.T) {
		hash := make([]byte, 20)
		script, err := utils.NewLockingScript(address.New(hash, address.SchemeCashAddr, address.ScriptHash, address.MainNet, false))
		require.NoError(t, err)
		require.Equal(t, "a914"+hex.EncodeToString(hash)+"87", hex.EncodeToString(script))

		_, err = utils.ExtractPubKeyHash(script)
		require.ErrorIs(t, err, utils.ErrNonStandardScript)
	})

	t.Run("p2sh32", func(t *testing.T) {
		hash := make([]byte, 32)
		script, err := utils.NewP2SHScript(hash)
		require.NoError(t, err)
		require.Equal(t, "aa20"+hex.EncodeToString(hash)+"87", hex.EncodeToString(script))
	})

	t.Run("invalid length", func(t *testing.T) {
		_, err := utils.NewP2PKHScript(make([]byte, 32))
		require.Error(t, err)

		_, err = utils.NewP2SHScript(make([]byte, 24))
		require.Error(t, err)

		require.Panics(t, func() { utils.MustP2PKHScript(nil) })
	})
}

func TestUnlockingScript(t *testing.T) {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	signature := make([]byte, 71)
	signature[70] = 0x41

	script, err := utils.NewP2PKHUnlockingScript(signature, privKey.PubKey())
	require.NoError(t, err)
	require.Len(t, script, 1+71+1+33)
	require.EqualValues(t, 71, script[0])
	require.Equal(t, signature, script[1:72])
	require.EqualValues(t, 33, script[72])
	require.Equal(t, privKey.PubKey().SerializeCompressed(), script[73:])

	_, err = utils.NewP2PKHUnlockingScript(nil, privKey.PubKey())
	require.Error(t, err)
}
