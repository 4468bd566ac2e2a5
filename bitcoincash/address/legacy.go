// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package address

import (
	"errors"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	// base58Alphabet defines legacy address alphabet without visually ambiguous glyphs.
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	// legacyBodyLen defines legacy address payload length.
	legacyBodyLen = 20
	// legacyDecodedLen defines version, payload and checksum length.
	legacyDecodedLen = 1 + legacyBodyLen + 4
)

// EncodeLegacy encodes 20 bytes payload as base58check string, e.g. "1NM2HFXin4cEQRBLjkNZAS98qLX9JKzjKn".
// Longer hashes, e.g. 32 bytes P2SH, are valid only in cashaddr and return ErrUnsupportedScheme.
func EncodeLegacy(body []byte, hashType HashType, network Network) (string, error) {
	switch {
	case len(body) == legacyBodyLen:
	case slices.Contains(sizeClasses[:], len(body)):
		return "", newError(SchemeLegacy, ErrUnsupportedScheme, "%d bytes hash has cashaddr form only", len(body))
	default:
		return "", newError(SchemeLegacy, ErrInvalidLength, "%d bytes payload", len(body))
	}

	params := network.Params()
	if params == nil {
		return "", newError(SchemeLegacy, ErrInvalidVersion, "unknown network %d", network)
	}

	version := params.PubKeyHashAddrID
	if hashType == ScriptHash {
		version = params.ScriptHashAddrID
	}

	return base58.CheckEncode(body, version), nil
}

// DecodeLegacy parses base58check address string.
// Test and regression networks share version bytes, such addresses are reported as TestNet.
func DecodeLegacy(addr string) (*Address, error) {
	if idx := strings.IndexFunc(addr, func(r rune) bool { return !strings.ContainsRune(base58Alphabet, r) }); idx >= 0 {
		return nil, newError(SchemeLegacy, ErrInvalidChar, "%q at position %d", addr[idx], idx)
	}

	if decodedLen := len(base58.Decode(addr)); decodedLen != legacyDecodedLen {
		return nil, newError(SchemeLegacy, ErrInvalidLength, "%d bytes decoded", decodedLen)
	}

	body, version, err := base58.CheckDecode(addr)
	if err != nil {
		if errors.Is(err, base58.ErrChecksum) {
			return nil, newError(SchemeLegacy, ErrChecksumFailed, "")
		}

		return nil, newError(SchemeLegacy, ErrInvalidLength, "%v", err)
	}

	addrType, ok := legacyVersions[version]
	if !ok {
		return nil, newError(SchemeLegacy, ErrInvalidVersion, "%#02x", version)
	}

	return &Address{
		Body:     body,
		Scheme:   SchemeLegacy,
		HashType: addrType.hashType,
		Network:  addrType.network,
	}, nil
}

// legacyType defines what legacy version byte stands for.
type legacyType struct {
	hashType HashType
	network  Network
}

// legacyVersions maps legacy version bytes to network and hash type.
var legacyVersions = map[byte]legacyType{
	MainNet.Params().PubKeyHashAddrID: {PubKeyHash, MainNet},
	MainNet.Params().ScriptHashAddrID: {ScriptHash, MainNet},
	TestNet.Params().PubKeyHashAddrID: {PubKeyHash, TestNet},
	TestNet.Params().ScriptHashAddrID: {ScriptHash, TestNet},
}
