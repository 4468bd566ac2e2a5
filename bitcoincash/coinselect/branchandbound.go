// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package coinselect

import (
	"errors"
	"sort"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

const (
	// TotalTries defines iteration budget of branch and bound search.
	TotalTries = 100_000
	// DefaultSizeOfChange defines P2PKH change output size: value (8), script length (1), script (25).
	DefaultSizeOfChange = 8 + 1 + 25
)

// BranchAndBound searches for the input set which avoids change output,
// falls back to single random draw if there is no such set.
// INFO: Def: http://murch.one/wp-content/uploads/2016/11/erhardt2016coinselection.pdf.
type BranchAndBound struct {
	sizeOfChange uint64
	fallback     *SingleRandomDraw
}

// NewBranchAndBound is a constructor for BranchAndBound with P2PKH change.
func NewBranchAndBound() *BranchAndBound {
	return NewBranchAndBoundWithChange(DefaultSizeOfChange, NewSingleRandomDraw())
}

// NewBranchAndBoundWithChange is a constructor for BranchAndBound with custom fallback.
// The change size is used only when Select gets no drain prototype.
func NewBranchAndBoundWithChange(sizeOfChange uint64, fallback *SingleRandomDraw) *BranchAndBound {
	return &BranchAndBound{
		sizeOfChange: sizeOfChange,
		fallback:     fallback,
	}
}

// Select implements Selector.
func (s *BranchAndBound) Select(required, optional []WeightedUTXO, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) (*Result, error) {
	req, opt, reqValue, optValue := effectiveGroups(required, optional, feeRate)
	if err := checkReachable(req, opt, reqValue, optValue, target); err != nil {
		return nil, err
	}

	result, err := s.search(req, opt, reqValue, optValue, feeRate, target, drain)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrNoExactMatch) && !errors.Is(err, ErrBudgetExceeded) {
		return nil, err
	}

	log.Debugf("falling back to single random draw: %v", err)

	return s.fallback.draw(req, opt, reqValue, feeRate, target, drain), nil
}

// SearchExact runs branch and bound search only, without fallback.
// Returns ErrNoExactMatch or ErrBudgetExceeded if no input set lands in [target, target + cost of change].
func (s *BranchAndBound) SearchExact(required, optional []WeightedUTXO, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) (*Result, error) {
	req, opt, reqValue, optValue := effectiveGroups(required, optional, feeRate)
	if err := checkReachable(req, opt, reqValue, optValue, target); err != nil {
		return nil, err
	}

	return s.search(req, opt, reqValue, optValue, feeRate, target, drain)
}

// search runs depth first search over optional groups, inclusion branch first.
func (s *BranchAndBound) search(req, opt []outputGroup, currValue, currAvailable int64, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) (*Result, error) {
	targetValue := numbers.MustSigned(target)
	if currValue > targetValue {
		return newResult(req, nil, DecideChange(numbers.MustUnsigned(currValue-targetValue), feeRate, drain)), nil
	}

	sorted := append([]outputGroup{}, opt...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].effectiveValue > sorted[j].effectiveValue
	})

	var (
		costOfChange  = int64(float64(s.changeSize(drain)) * feeRate.SatPerVByte())
		selection     = make([]bool, 0, len(sorted)) // selection[i] tells whether sorted[i] is included.
		bestSelection []bool
		bestValue     int64
		found         bool
		exhausted     bool
	)

	for tries := 0; tries < TotalTries; tries++ {
		backtrack := false
		switch {
		case currValue+currAvailable < targetValue, currValue > targetValue+costOfChange:
			backtrack = true
		case currValue >= targetValue:
			backtrack = true
			if !found || currValue < bestValue {
				bestSelection = append(bestSelection[:0], selection...)
				bestValue = currValue
				found = true
			}
		}

		if found && bestValue == targetValue {
			break
		}

		if !backtrack {
			group := sorted[len(selection)]
			currAvailable -= group.effectiveValue
			selection = append(selection, true)
			currValue += group.effectiveValue

			continue
		}

		// walk back to the last included group, its omission branch is not traversed yet.
		for len(selection) > 0 && !selection[len(selection)-1] {
			selection = selection[:len(selection)-1]
			currAvailable += sorted[len(selection)].effectiveValue
		}
		if len(selection) == 0 {
			exhausted = true
			break
		}

		selection[len(selection)-1] = false
		currValue -= sorted[len(selection)-1].effectiveValue
	}

	if !found {
		if exhausted {
			return nil, ErrNoExactMatch
		}

		return nil, ErrBudgetExceeded
	}

	selected := make([]outputGroup, 0, len(bestSelection))
	for i, included := range bestSelection {
		if included {
			selected = append(selected, sorted[i])
		}
	}

	log.Debugf("branch and bound: %d of %d optional inputs selected", len(selected), len(sorted))

	return newResult(req, selected, DecideChange(numbers.MustUnsigned(bestValue-targetValue), feeRate, drain)), nil
}

// changeSize returns serialized size of the change output.
func (s *BranchAndBound) changeSize(drain *wire.TxOut) uint64 {
	if drain == nil {
		return s.sizeOfChange
	}

	return uint64(drain.SerializeSize())
}
