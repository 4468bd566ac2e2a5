// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package coinselect

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds defines error class of InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoExactMatch defines that branch and bound exhausted the search tree without a match.
	ErrNoExactMatch = errors.New("branch and bound: no exact match")
	// ErrBudgetExceeded defines that branch and bound used all iterations without a match.
	ErrBudgetExceeded = errors.New("branch and bound: total tries exceeded")
)

// InsufficientFundsError is the error type to describe insufficient balance errors with details.
type InsufficientFundsError struct {
	Needed    uint64 // target amount plus fees of the inputs, in satoshi.
	Available uint64 // total value of the inputs, in satoshi.
}

// NewInsufficientFundsError is a constructor for InsufficientFundsError.
func NewInsufficientFundsError(needed, available uint64) *InsufficientFundsError {
	return &InsufficientFundsError{Needed: needed, Available: available}
}

// Error returns error description.
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%v: need %d, have %d", ErrInsufficientFunds, e.Needed, e.Available)
}

// Is implements comparator method for [errors] package.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
