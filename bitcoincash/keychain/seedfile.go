// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package keychain

import (
	"fmt"
	"os"
	"path/filepath"
)

// SeedFileName defines name of encrypted seed file inside the data directory.
const SeedFileName = "seed.enc"

// WriteSeedFile encrypts the seed with password and stores it at path, readable by owner only.
func WriteSeedFile(path string, seed, password []byte, params EncryptionParams) error {
	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create seed directory: %w", err)
	}

	return os.WriteFile(path, encrypted, 0o600)
}

// ReadSeedFile loads encrypted seed. Returned deriver is locked.
func ReadSeedFile(path string) (*LockedDeriver, error) {
	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	return NewLockedDeriver(encrypted), nil
}
