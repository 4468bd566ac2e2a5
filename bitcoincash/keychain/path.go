// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package keychain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
)

const (
	// DefaultPath defines BIP44 path of the first external Bitcoin Cash key.
	DefaultPath = "m/44'/145'/0'/0/0"
	// TestnetPath defines BIP44 path of the first external key on test networks.
	TestnetPath = "m/44'/1'/0'/0/0"
)

// ErrInvalidPath defines invalid derivation path error.
var ErrInvalidPath = errors.New("invalid derivation path")

// ParsePath converts path like m/44'/145'/0'/0/0 into child indexes.
// Both ' and h mark hardened child.
func ParsePath(path string) ([]uint32, error) {
	segments := strings.Split(strings.TrimSpace(path), "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, path)
	}

	indexes := make([]uint32, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		var hardened bool
		if trimmed, ok := strings.CutSuffix(segment, "'"); ok {
			segment, hardened = trimmed, true
		} else if trimmed, ok = strings.CutSuffix(segment, "h"); ok {
			segment, hardened = trimmed, true
		}

		index, err := strconv.ParseUint(segment, 10, 32)
		if err != nil || index >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("%w: segment %q of %q", ErrInvalidPath, segment, path)
		}
		if hardened {
			index += uint64(bip32.FirstHardenedChild)
		}

		indexes = append(indexes, uint32(index))
	}

	return indexes, nil
}
