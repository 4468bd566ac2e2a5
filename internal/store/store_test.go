// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package store_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/bchwallet/internal/store"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	for name, dir := range map[string]string{"memory": "", "disk": t.TempDir()} {
		t.Run(name, func(t *testing.T) {
			s, err := store.Open(dir)
			require.NoError(t, err)
			defer func() { require.NoError(t, s.Close()) }()

			owner := []byte{0x76, 0xa9, 0x14}

			data, err := s.Unspent(ctx, owner)
			require.NoError(t, err)
			require.Equal(t, []byte("[]"), data)

			require.NoError(t, s.PutUnspent(ctx, owner, []byte(`[{"height":1}]`)))
			require.NoError(t, s.PutUnspent(ctx, []byte{0x01}, []byte(`[{"height":2}]`)))

			data, err = s.Unspent(ctx, owner)
			require.NoError(t, err)
			require.Equal(t, []byte(`[{"height":1}]`), data)

			require.NoError(t, s.PutUnspent(ctx, owner, []byte(`[]`)))
			data, err = s.Unspent(ctx, owner)
			require.NoError(t, err)
			require.Equal(t, []byte(`[]`), data)
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		s, err := store.Open("")
		require.NoError(t, err)
		defer func() { require.NoError(t, s.Close()) }()

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		require.ErrorIs(t, s.PutUnspent(canceled, []byte{1}, []byte("[]")), context.Canceled)
		_, err = s.Unspent(canceled, []byte{1})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestUseLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := btclog.NewBackend(&buf).Logger("STOR")
	logger.SetLevel(btclog.LevelDebug)

	store.UseLogger(logger)
	defer store.DisableLog()

	s, err := store.Open("")
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	require.NoError(t, s.PutUnspent(context.Background(), []byte{0x01}, []byte(`[]`)))
	require.Contains(t, buf.String(), "[DBG] STOR: stored 2 bytes of unspent outputs for 01")
}
