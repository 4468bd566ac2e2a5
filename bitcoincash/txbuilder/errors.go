// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInputs defines that there are no inputs to build transaction from.
	ErrNoInputs = errors.New("no inputs selected")
	// ErrDust defines error class of DustError.
	ErrDust = errors.New("output value below dust threshold")
	// ErrInvalidToken defines inconsistent token transfer parameters.
	ErrInvalidToken = errors.New("invalid token transfer")
	// ErrInvalidGenesis defines that required output can not create the token category.
	ErrInvalidGenesis = errors.New("invalid token genesis output")
	// ErrInsufficientTokens defines that token outputs hold less than requested.
	ErrInsufficientTokens = errors.New("insufficient token balance")
)

// DustError is the error type to describe output below dust threshold.
type DustError struct {
	Amount uint64 // output value, in satoshi.
	Dust   uint64 // dust threshold of the output, in satoshi.
}

// NewDustError is a constructor for DustError.
func NewDustError(amount, dust uint64) *DustError {
	return &DustError{Amount: amount, Dust: dust}
}

// Error returns error description.
func (e *DustError) Error() string {
	return fmt.Sprintf("%v: %d < %d", ErrDust, e.Amount, e.Dust)
}

// Is implements comparator method for [errors] package.
func (e *DustError) Is(target error) bool {
	return target == ErrDust
}
