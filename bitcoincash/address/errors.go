// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package address

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChar defines that address contains character outside of the format alphabet.
	ErrInvalidChar = errors.New("invalid character")
	// ErrInvalidLength defines unexpected payload length.
	ErrInvalidLength = errors.New("invalid length")
	// ErrChecksumFailed defines checksum mismatch.
	ErrChecksumFailed = errors.New("checksum failed")
	// ErrInvalidVersion defines unknown version byte or type flags.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrMixedCase defines cashaddr payload with both lower and upper case characters.
	ErrMixedCase = errors.New("mixed case")
	// ErrNoPrefix defines cashaddr without network prefix.
	ErrNoPrefix = errors.New("no prefix")
	// ErrInvalidPrefix defines unknown cashaddr network prefix.
	ErrInvalidPrefix = errors.New("invalid prefix")
	// ErrUnsupportedScheme defines that address can not be represented in requested scheme.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// Error describes address codec failure of the particular scheme.
type Error struct {
	Scheme Scheme
	Err    error
	Detail string
}

// newError is a constructor for Error.
func newError(scheme Scheme, err error, format string, args ...any) *Error {
	return &Error{Scheme: scheme, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Error returns error description.
func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Scheme, e.Err)
	}

	return fmt.Sprintf("%s: %v: %s", e.Scheme, e.Err, e.Detail)
}

// Unwrap returns the error class, e.g. ErrChecksumFailed.
func (e *Error) Unwrap() error {
	return e.Err
}

// DecodeError holds failures of both schemes when an address string matched neither.
type DecodeError struct {
	CashAddr error
	Legacy   error
}

// Error returns error description.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("address is neither cashaddr (%v) nor legacy (%v)", e.CashAddr, e.Legacy)
}

// Unwrap exposes both failures to errors.Is and errors.As.
func (e *DecodeError) Unwrap() []error {
	return []error{e.CashAddr, e.Legacy}
}
