// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package fees

import (
	"errors"
	"fmt"
	"math"
)

// WitnessScaleFactor defines how many weight units one virtual byte has.
const WitnessScaleFactor = 4

// Weight defines transaction size in weight units.
type Weight uint64

// WeightFromBytes returns weight of the non-witness data size in bytes.
func WeightFromBytes(size uint64) Weight {
	return Weight(size * WitnessScaleFactor)
}

// VBytesCeil converts weight to virtual bytes rounding up.
func (w Weight) VBytesCeil() uint64 {
	return (uint64(w) + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// VBytesFloor converts weight to virtual bytes rounding down.
func (w Weight) VBytesFloor() uint64 {
	return uint64(w) / WitnessScaleFactor
}

// String returns weight with units.
func (w Weight) String() string {
	return fmt.Sprintf("%d wu", uint64(w))
}

// FeeRate defines fee rate in satoshi per virtual byte.
type FeeRate float64

// ZeroFeeRate defines free of charge fee rate.
const ZeroFeeRate FeeRate = 0

// DefaultMinRelayFeeRate defines default minimal relay fee rate: 1 sat/vB.
const DefaultMinRelayFeeRate FeeRate = 1

// NewFeeRate is a constructor for FeeRate from satoshi per virtual byte.
func NewFeeRate(satPerVByte float64) (FeeRate, error) {
	if math.IsNaN(satPerVByte) || math.IsInf(satPerVByte, 0) || satPerVByte < 0 {
		return 0, fmt.Errorf("invalid fee rate: %v sat/vB", satPerVByte)
	}

	return FeeRate(satPerVByte), nil
}

// FeeRateFromSatPerKWU constructs fee rate from satoshi per kilo weight unit.
func FeeRateFromSatPerKWU(satPerKWU float64) (FeeRate, error) {
	return NewFeeRate(satPerKWU / 250)
}

// FeeRateFromSatPerKVB constructs fee rate from satoshi per kilo virtual byte.
func FeeRateFromSatPerKVB(satPerKVB float64) (FeeRate, error) {
	return NewFeeRate(satPerKVB / 1000)
}

// FeeRateFromBCHPerKVB constructs fee rate from coins per kilo virtual byte.
func FeeRateFromBCHPerKVB(bchPerKVB float64) (FeeRate, error) {
	return NewFeeRate(bchPerKVB * 1e5)
}

// FeeRateFromVBytes returns the rate paid by fee for the given size.
func FeeRateFromVBytes(fee, vbytes uint64) (FeeRate, error) {
	if vbytes == 0 {
		return 0, errors.New("invalid size: 0 vB")
	}

	return NewFeeRate(float64(fee) / float64(vbytes))
}

// SatPerVByte returns the rate as satoshi per virtual byte.
func (r FeeRate) SatPerVByte() float64 {
	return float64(r)
}

// SatPerKWU returns the rate as satoshi per kilo weight unit.
func (r FeeRate) SatPerKWU() float64 {
	return float64(r) * 250
}

// FeeVBytes returns fee for the given virtual size, rounded up.
func (r FeeRate) FeeVBytes(vbytes uint64) uint64 {
	return uint64(math.Ceil(float64(r) * float64(vbytes)))
}

// FeeWeight returns fee for the given weight, the weight is rounded up to virtual bytes.
func (r FeeRate) FeeWeight(w Weight) uint64 {
	return r.FeeVBytes(w.VBytesCeil())
}

// String returns fee rate with units.
func (r FeeRate) String() string {
	return fmt.Sprintf("%v sat/vB", float64(r))
}
