// Copyright (C) 2022 Creditor Corp. Group.
// See LICENSE for copying information.

package numbers

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// SatoshiDecimals defines how many decimal places one coin has.
const SatoshiDecimals = 8

// ErrInvalidAmount defines invalid coin amount error.
var ErrInvalidAmount = errors.New("invalid amount")

// satoshiPerCoin defines 10^8 as decimal.
var satoshiPerCoin = decimal.New(1, SatoshiDecimals)

// maxSatoshi defines the largest amount representable in a transaction output.
var maxSatoshi = big.NewInt(math.MaxInt64)

// MustUnsigned converts signed amount to unsigned, panics if the amount is negative.
// Negative final amount means broken accounting, never a user input problem.
func MustUnsigned(amount int64) uint64 {
	if amount < 0 {
		panic(fmt.Sprintf("negative amount crossed to unsigned: %d", amount))
	}

	return uint64(amount)
}

// MustSigned converts unsigned amount to signed, panics if the amount overflows int64.
func MustSigned(amount uint64) int64 {
	if amount > math.MaxInt64 {
		panic(fmt.Sprintf("amount overflows int64: %d", amount))
	}

	return int64(amount)
}

// AddUint64 returns a + b and false in case of overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}

// SaturatingSub returns a - b, or 0 if b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}

// SatoshiToBCH converts satoshi amount to whole coins.
func SatoshiToBCH(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -SatoshiDecimals)
}

// BCHToSatoshi parses whole coin amount (e.g. "0.0001") into satoshi.
func BCHToSatoshi(amount string) (uint64, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, errors.Join(ErrInvalidAmount, err)
	}
	if value.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, amount)
	}

	satoshi := value.Mul(satoshiPerCoin)
	if !satoshi.Equal(satoshi.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than %d decimal places in %s", ErrInvalidAmount, SatoshiDecimals, amount)
	}
	if satoshi.BigInt().Cmp(maxSatoshi) > 0 {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, amount)
	}

	return satoshi.BigInt().Uint64(), nil
}
