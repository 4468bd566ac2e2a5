// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package coinselect

import (
	"math/rand/v2"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

// SingleRandomDraw spends required outputs, then randomly ordered optional outputs until the target is covered.
type SingleRandomDraw struct {
	shuffle func(n int, swap func(i, j int))
}

// NewSingleRandomDraw is a constructor for SingleRandomDraw.
func NewSingleRandomDraw() *SingleRandomDraw {
	return &SingleRandomDraw{shuffle: rand.Shuffle}
}

// NewSingleRandomDrawWithRand is a constructor for SingleRandomDraw with provided randomness source.
func NewSingleRandomDrawWithRand(rnd *rand.Rand) *SingleRandomDraw {
	return &SingleRandomDraw{shuffle: rnd.Shuffle}
}

// Select implements Selector.
func (s *SingleRandomDraw) Select(required, optional []WeightedUTXO, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) (*Result, error) {
	req, opt, reqValue, optValue := effectiveGroups(required, optional, feeRate)
	if err := checkReachable(req, opt, reqValue, optValue, target); err != nil {
		return nil, err
	}

	return s.draw(req, opt, reqValue, feeRate, target, drain), nil
}

// draw accumulates shuffled groups, expects the target to be reachable.
func (s *SingleRandomDraw) draw(req, opt []outputGroup, currValue int64, feeRate fees.FeeRate, target uint64, drain *wire.TxOut) *Result {
	shuffled := append([]outputGroup{}, opt...)
	s.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	targetValue := numbers.MustSigned(target)
	selected := make([]outputGroup, 0, len(shuffled))
	for _, group := range shuffled {
		if currValue >= targetValue {
			break
		}

		currValue += group.effectiveValue
		selected = append(selected, group)
	}

	log.Debugf("single random draw: %d of %d optional inputs selected", len(selected), len(shuffled))

	return newResult(req, selected, DecideChange(numbers.MustUnsigned(currValue-targetValue), feeRate, drain))
}
