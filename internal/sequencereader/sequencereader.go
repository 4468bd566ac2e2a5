// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package sequencereader

import (
	"errors"
	"fmt"
)

// ErrSequenceEnded defines that the reader has no more elements to return.
var ErrSequenceEnded = errors.New("the sequence is ended")

// SequenceReader defines the simplest reader for sequences.
type SequenceReader[T any] struct {
	s   []T
	idx int
}

// New is a constructor for SequenceReader.
func New[T any](seq []T) *SequenceReader[T] {
	return &SequenceReader[T]{s: seq}
}

// HasNext returns true is sequence is not ended.
func (sr *SequenceReader[T]) HasNext() bool {
	return sr.idx < len(sr.s)
}

// Next returns next element of the sequence.
func (sr *SequenceReader[T]) Next() (T, error) {
	if !sr.HasNext() {
		return *new(T), ErrSequenceEnded
	}

	sr.idx++

	return sr.s[sr.idx-1], nil
}

// NextN returns next n elements of the sequence. Returned slice shares memory with the source.
func (sr *SequenceReader[T]) NextN(n int) ([]T, error) {
	if n < 0 || sr.Len() < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrSequenceEnded, n, sr.Len())
	}

	pIdx := sr.idx
	sr.idx += n

	return sr.s[pIdx:sr.idx], nil
}

// Rest returns all unread elements and moves reader to the end.
func (sr *SequenceReader[T]) Rest() []T {
	rest := sr.s[sr.idx:]
	sr.idx = len(sr.s)

	return rest
}

// Position returns how many elements are already read.
func (sr *SequenceReader[T]) Position() int {
	return sr.idx
}

// Len returns how many items are left.
func (sr *SequenceReader[T]) Len() int {
	return len(sr.s) - sr.idx
}
