// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sequencereader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/bchwallet/internal/sequencereader"
)

func TestSequenceReader(t *testing.T) {
	seq := []byte{0xef, 1, 2, 3, 4, 5}

	t.Run("Next", func(t *testing.T) {
		sr := sequencereader.New(seq)
		for _, want := range seq {
			require.True(t, sr.HasNext())

			got, err := sr.Next()
			require.NoError(t, err)
			require.Equal(t, want, got)
		}

		require.False(t, sr.HasNext())
		_, err := sr.Next()
		require.ErrorIs(t, err, sequencereader.ErrSequenceEnded)
	})

	t.Run("NextN", func(t *testing.T) {
		sr := sequencereader.New(seq)
		_, _ = sr.Next()

		got, err := sr.NextN(3)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, got)
		require.Equal(t, 4, sr.Position())
		require.Equal(t, 2, sr.Len())

		_, err = sr.NextN(3)
		require.ErrorIs(t, err, sequencereader.ErrSequenceEnded)
		require.Equal(t, 2, sr.Len())

		got, err = sr.NextN(0)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("Rest", func(t *testing.T) {
		sr := sequencereader.New(seq)
		_, _ = sr.NextN(2)

		require.Equal(t, []byte{2, 3, 4, 5}, sr.Rest())
		require.Zero(t, sr.Len())
		require.Empty(t, sr.Rest())
	})

	t.Run("SequenceReader for string type", func(t *testing.T) {
		strSeq := []string{"a", "ab", "abc", "abcd"}
		sr := sequencereader.New[string](strSeq)
		require.EqualValues(t, 4, sr.Len())
		for i := 0; sr.HasNext(); i++ {
			val, err := sr.Next()
			require.NoError(t, err)
			require.EqualValues(t, strSeq[i], val)
		}
		_, err := sr.Next()
		require.Error(t, err)
	})
}
