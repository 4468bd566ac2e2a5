// Copyright (C) 2022 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

func TestNumbers(t *testing.T) {
	t.Run("MustUnsigned", func(t *testing.T) {
		require.EqualValues(t, 0, numbers.MustUnsigned(0))
		require.EqualValues(t, 42, numbers.MustUnsigned(42))
		require.Panics(t, func() { numbers.MustUnsigned(-1) })
	})

	t.Run("MustSigned", func(t *testing.T) {
		require.EqualValues(t, math.MaxInt64, numbers.MustSigned(math.MaxInt64))
		require.Panics(t, func() { numbers.MustSigned(math.MaxInt64 + 1) })
	})

	t.Run("AddUint64", func(t *testing.T) {
		sum, ok := numbers.AddUint64(1, 2)
		require.True(t, ok)
		require.EqualValues(t, 3, sum)

		_, ok = numbers.AddUint64(math.MaxUint64, 1)
		require.False(t, ok)
	})

	t.Run("SaturatingSub", func(t *testing.T) {
		require.EqualValues(t, 5, numbers.SaturatingSub(10, 5))
		require.EqualValues(t, 0, numbers.SaturatingSub(5, 10))
	})
}

func TestCoinConversion(t *testing.T) {
	t.Run("SatoshiToBCH", func(t *testing.T) {
		require.Equal(t, "1", numbers.SatoshiToBCH(100_000_000).String())
		require.Equal(t, "0.00000001", numbers.SatoshiToBCH(1).String())
		require.Equal(t, "0.0001", numbers.SatoshiToBCH(10_000).String())
	})

	t.Run("BCHToSatoshi", func(t *testing.T) {
		tests := []struct {
			in      string
			want    uint64
			wantErr bool
		}{
			{in: "1", want: 100_000_000},
			{in: "0.00000001", want: 1},
			{in: "21000000", want: 2_100_000_000_000_000},
			{in: "0.000000001", wantErr: true},
			{in: "-1", wantErr: true},
			{in: "abc", wantErr: true},
			{in: "100000000000", wantErr: true},
		}

		for _, test := range tests {
			t.Run(test.in, func(t *testing.T) {
				got, err := numbers.BCHToSatoshi(test.in)
				if test.wantErr {
					require.ErrorIs(t, err, numbers.ErrInvalidAmount)
					return
				}

				require.NoError(t, err)
				require.Equal(t, test.want, got)
			})
		}
	})
}
