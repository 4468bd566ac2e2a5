// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package keychain

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/tyler-smith/go-bip32"
)

var (
	// ErrKeyDerivation defines error class of every failure to obtain a private key.
	ErrKeyDerivation = errors.New("key derivation failed")
	// ErrLocked defines that the seed is not unlocked yet.
	ErrLocked = errors.New("keychain is locked")
)

// HDKeyDeriver derives private keys from BIP39 seed held in memory.
type HDKeyDeriver struct {
	seed []byte
}

// NewHDKeyDeriver is a constructor for HDKeyDeriver.
func NewHDKeyDeriver(seed []byte) (*HDKeyDeriver, error) {
	if len(seed) < 16 || len(seed) > SeedSize {
		return nil, fmt.Errorf("seed must be 16 to %d bytes, got %d", SeedSize, len(seed))
	}

	return &HDKeyDeriver{seed: bytes.Clone(seed)}, nil
}

// DerivePrivateKey returns private key at the BIP32 path.
func (d *HDKeyDeriver) DerivePrivateKey(path string) (*btcec.PrivateKey, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivation, err)
	}

	key, err := bip32.NewMasterKey(d.seed)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivation, fmt.Errorf("create master key: %w", err))
	}
	for _, index := range indexes {
		if key, err = key.NewChildKey(index); err != nil {
			return nil, errors.Join(ErrKeyDerivation, fmt.Errorf("derive child %d: %w", index, err))
		}
	}

	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}

	privateKey, _ := btcec.PrivKeyFromBytes(raw)
	log.Tracef("derived key %x at %s", btcutil.Hash160(privateKey.PubKey().SerializeCompressed()), path)

	return privateKey, nil
}

// LockedDeriver keeps encrypted seed and derives keys only while unlocked.
type LockedDeriver struct {
	mu        sync.Mutex
	encrypted []byte
	deriver   *HDKeyDeriver
}

// NewLockedDeriver is a constructor for LockedDeriver.
func NewLockedDeriver(encrypted []byte) *LockedDeriver {
	return &LockedDeriver{encrypted: bytes.Clone(encrypted)}
}

// Unlock decrypts the seed. Returns ErrWrongPassword if password does not match.
func (d *LockedDeriver) Unlock(password []byte) error {
	seed, err := Decrypt(d.encrypted, password)
	if err != nil {
		return err
	}
	defer clear(seed)

	deriver, err := NewHDKeyDeriver(seed)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.deriver = deriver
	log.Debug("keychain unlocked")

	return nil
}

// Lock wipes decrypted seed from memory.
func (d *LockedDeriver) Lock() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deriver != nil {
		clear(d.deriver.seed)
		d.deriver = nil
	}
}

// DerivePrivateKey returns private key at the path, ErrLocked if seed is not unlocked.
func (d *LockedDeriver) DerivePrivateKey(path string) (*btcec.PrivateKey, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deriver == nil {
		return nil, errors.Join(ErrKeyDerivation, ErrLocked)
	}

	return d.deriver.DerivePrivateKey(path)
}
