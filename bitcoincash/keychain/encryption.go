// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package keychain

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// SaltSize defines length of key derivation salt.
	SaltSize = 32
	// headerSize defines length of salt(32) | memory(4) | iterations(4) | parallelism(1).
	headerSize = SaltSize + 4 + 4 + 1

	// MaxMemory defines the largest accepted Argon2id memory, 2 GiB in KiB.
	MaxMemory = 1 << 21
	// MaxIterations defines the largest accepted number of Argon2id passes.
	MaxIterations = 64
)

var (
	// ErrWrongPassword defines that encrypted seed could not be opened with provided password.
	ErrWrongPassword = errors.New("wrong password")
	// ErrInvalidParams defines Argon2id parameters outside of the accepted bounds.
	ErrInvalidParams = errors.New("invalid encryption params")
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB.
	Iterations  uint32
	Parallelism uint8
}

// DefaultEncryptionParams returns Argon2id parameters for seed files.
func DefaultEncryptionParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

// Validate checks that parameters are non zero and within MaxMemory and MaxIterations.
func (p EncryptionParams) Validate() error {
	switch {
	case p.Memory == 0 || p.Memory > MaxMemory:
		return fmt.Errorf("%w: memory %d KiB, want (0, %d]", ErrInvalidParams, p.Memory, MaxMemory)
	case p.Iterations == 0 || p.Iterations > MaxIterations:
		return fmt.Errorf("%w: %d iterations, want (0, %d]", ErrInvalidParams, p.Iterations, MaxIterations)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: zero parallelism", ErrInvalidParams)
	}

	return nil
}

// Encrypt seals data with password using Argon2id and XChaCha20-Poly1305.
//
//	salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)

	return aead.Seal(out, nonce, data, nil), nil
}

// Decrypt opens data sealed by Encrypt. Returns ErrWrongPassword if authentication fails
// and ErrInvalidParams if the header asks for more work than MaxMemory and MaxIterations allow.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	minSize := headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(encrypted), minSize)
	}

	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[SaltSize:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[SaltSize+4:]),
		Parallelism: encrypted[SaltSize+8],
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	key := deriveKey(password, encrypted[:SaltSize], params)
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := encrypted[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, encrypted[headerSize+chacha20poly1305.NonceSizeX:], nil)
	if err != nil {
		return nil, ErrWrongPassword
	}

	return plaintext, nil
}

// deriveKey derives 32 bytes encryption key from password and salt.
func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}
