// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package coinselect

import (
	"sort"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
)

// LargestFirst spends required outputs, then optional outputs sorted by value desc
// until the target and the running fee are covered.
type LargestFirst struct{}

// NewLargestFirst is a constructor for LargestFirst.
func NewLargestFirst() *LargestFirst {
	return &LargestFirst{}
}

// Select implements Selector.
func (s *LargestFirst) Select(required, optional []WeightedUTXO, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) (*Result, error) {
	sorted := append([]WeightedUTXO{}, optional...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UTXO.Value > sorted[j].UTXO.Value
	})

	var (
		selected = make([]bitcoincash.UTXO, 0, len(required)+len(sorted))
		amount   uint64
		fee      uint64
	)
	take := func(weighted WeightedUTXO) {
		fee += feeRate.FeeWeight(TxInBaseWeight + weighted.SatisfactionWeight)
		amount += weighted.UTXO.Value
		selected = append(selected, weighted.UTXO)
	}

	for _, weighted := range required {
		take(weighted)
	}
	for _, weighted := range sorted {
		if amount >= target+fee {
			break
		}

		take(weighted)
	}

	if amount < target+fee {
		return nil, NewInsufficientFundsError(target+fee, amount)
	}

	log.Debugf("largest first: %d inputs, %d sat selected, %d sat fee", len(selected), amount, fee)

	return &Result{
		Selected:  selected,
		FeeAmount: fee,
		Excess:    DecideChange(amount-target-fee, feeRate, drain),
	}, nil
}
