// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package coinselect

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

// TxInBaseWeight defines weight of the input without unlocking data: outpoint (32+4) and sequence (4).
const TxInBaseWeight fees.Weight = (32 + 4 + 4) * fees.WitnessScaleFactor

// Strategy defines coin selection algorithm name.
type Strategy string

const (
	// StrategyBranchAndBound defines branch and bound search with single random draw fallback.
	StrategyBranchAndBound Strategy = "branch-and-bound"
	// StrategyLargestFirst defines greedy selection of the largest outputs.
	StrategyLargestFirst Strategy = "largest-first"
	// StrategySingleRandomDraw defines greedy selection of randomly ordered outputs.
	StrategySingleRandomDraw Strategy = "single-random-draw"
)

// Selector picks inputs to cover the target amount.
type Selector interface {
	// Select returns required outputs plus the subset of optional ones covering target amount and their fees.
	// drain is the prototype of change output used to price and dust-check the change.
	Select(required, optional []WeightedUTXO, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) (*Result, error)
}

// New returns selector implementing the strategy.
func New(strategy Strategy) (Selector, error) {
	switch strategy {
	case StrategyBranchAndBound:
		return NewBranchAndBound(), nil
	case StrategyLargestFirst:
		return NewLargestFirst(), nil
	case StrategySingleRandomDraw:
		return NewSingleRandomDraw(), nil
	default:
		return nil, fmt.Errorf("unknown coin selection strategy %q", strategy)
	}
}

// WeightedUTXO describes output with the weight of its unlocking data.
type WeightedUTXO struct {
	SatisfactionWeight fees.Weight
	UTXO               bitcoincash.UTXO
}

// NewWeightedUTXOs wraps outputs sharing the same unlocking data weight.
func NewWeightedUTXOs(utxos []bitcoincash.UTXO, satisfactionWeight fees.Weight) []WeightedUTXO {
	weighted := make([]WeightedUTXO, len(utxos))
	for i, utxo := range utxos {
		weighted[i] = WeightedUTXO{SatisfactionWeight: satisfactionWeight, UTXO: utxo}
	}

	return weighted
}

// outputGroup adds fee information to an output.
type outputGroup struct {
	weighted       WeightedUTXO
	fee            uint64
	effectiveValue int64 // value minus fee for spending, may be negative.
}

// newOutputGroup is a constructor for outputGroup.
func newOutputGroup(weighted WeightedUTXO, feeRate fees.FeeRate) outputGroup {
	fee := feeRate.FeeWeight(TxInBaseWeight + weighted.SatisfactionWeight)

	return outputGroup{
		weighted:       weighted,
		fee:            fee,
		effectiveValue: numbers.MustSigned(weighted.UTXO.Value) - numbers.MustSigned(fee),
	}
}

// Excess describes what happens to the amount selected above the target and fees.
// Implemented by Change and NoChange.
type Excess interface {
	excess()
}

// Change defines that the excess is worth a change output.
type Change struct {
	Amount uint64 // change output value.
	Fee    uint64 // fee for the change output itself.
}

// NoChange defines that the excess is below dust and should be left as fee or added to the payment.
type NoChange struct {
	DustThreshold   uint64
	RemainingAmount uint64
	ChangeFee       uint64
}

func (Change) excess()   {}
func (NoChange) excess() {}

// Result describes coin selection result.
type Result struct {
	Selected  []bitcoincash.UTXO
	FeeAmount uint64 // sum of the selected inputs fees.
	Excess    Excess
}

// SelectedAmount returns total value of the selected outputs.
func (r *Result) SelectedAmount() uint64 {
	var sum uint64
	for _, utxo := range r.Selected {
		sum += utxo.Value
	}

	return sum
}

// DustThreshold returns the smallest value the output may hold to be relayed.
func DustThreshold(out *wire.TxOut) uint64 {
	return 3*uint64(out.SerializeSize()) + 444
}

// DecideChange decides whether remaining amount is enough to create change output.
func DecideChange(remaining uint64, feeRate fees.FeeRate, drain *wire.TxOut) Excess {
	var (
		changeFee = feeRate.FeeVBytes(uint64(drain.SerializeSize()))
		drainVal  = numbers.SaturatingSub(remaining, changeFee)
		dust      = DustThreshold(drain)
	)
	if drainVal < dust {
		return NoChange{
			DustThreshold:   dust,
			RemainingAmount: remaining,
			ChangeFee:       changeFee,
		}
	}

	return Change{Amount: drainVal, Fee: changeFee}
}

// newResult returns result with required groups put first.
func newResult(required, selected []outputGroup, excess Excess) *Result {
	result := &Result{
		Selected: make([]bitcoincash.UTXO, 0, len(required)+len(selected)),
		Excess:   excess,
	}
	for _, group := range append(append([]outputGroup{}, required...), selected...) {
		result.Selected = append(result.Selected, group.weighted.UTXO)
		result.FeeAmount += group.fee
	}

	return result
}

// effectiveGroups maps outputs to groups. Optional groups with non-positive effective value are dropped.
// Returns groups with sums of their effective values.
func effectiveGroups(required, optional []WeightedUTXO, feeRate fees.FeeRate) (req, opt []outputGroup, reqValue, optValue int64) {
	req = make([]outputGroup, 0, len(required))
	for _, weighted := range required {
		group := newOutputGroup(weighted, feeRate)
		req = append(req, group)
		reqValue += group.effectiveValue
	}

	opt = make([]outputGroup, 0, len(optional))
	for _, weighted := range optional {
		group := newOutputGroup(weighted, feeRate)
		if group.effectiveValue <= 0 {
			log.Tracef("skipping %v: effective value %d", weighted.UTXO.OutPoint, group.effectiveValue)
			continue
		}

		opt = append(opt, group)
		optValue += group.effectiveValue
	}

	return req, opt, reqValue, optValue
}

// checkReachable returns InsufficientFundsError if all groups together can not cover the target.
func checkReachable(req, opt []outputGroup, reqValue, optValue int64, target uint64) error {
	if total := reqValue + optValue; total >= 0 && uint64(total) >= target {
		return nil
	}

	var fee, value uint64
	for _, group := range append(append([]outputGroup{}, req...), opt...) {
		fee += group.fee
		value += group.weighted.UTXO.Value
	}

	return NewInsufficientFundsError(target+fee, value)
}
