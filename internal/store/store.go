// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// unspentPrefix defines key prefix of unspent outputs snapshots.
var unspentPrefix = []byte("unspent/")

// Store keeps listunspent snapshots per owner locking script in badger.
type Store struct {
	db *badger.DB
}

// Open opens the store at dir. Empty dir opens in-memory store.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(loggerWrapper{log}).
		WithLoggingLevel(badger.WARNING)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Store{db: db}, nil
}

// PutUnspent replaces snapshot of the owner outputs.
func (s *Store) PutUnspent(ctx context.Context, owner []byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(unspentKey(owner), data)
	})
	if err != nil {
		return fmt.Errorf("put unspent: %w", err)
	}

	log.Debugf("stored %d bytes of unspent outputs for %x", len(data), owner)

	return nil
}

// Unspent returns snapshot of the owner outputs, empty list if there is none.
func (s *Store) Unspent(ctx context.Context, owner []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(unspentKey(owner))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return []byte("[]"), nil
	case err != nil:
		return nil, fmt.Errorf("get unspent: %w", err)
	}

	return data, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// unspentKey returns key of the owner snapshot.
func unspentKey(owner []byte) []byte {
	return append(append(make([]byte, 0, len(unspentPrefix)+len(owner)), unspentPrefix...), owner...)
}
