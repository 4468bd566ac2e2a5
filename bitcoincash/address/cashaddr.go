// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package address

import (
	"strings"
	"unicode"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// charset defines cashaddr base32 alphabet.
const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// checksumLen defines how many 5-bit symbols the checksum takes.
const checksumLen = 8

// version byte flags.
const (
	typeMask byte = 0x78
	sizeMask byte = 0x07

	typeP2PKH       byte = 0x00
	typeP2SH        byte = 0x08
	typeP2PKHTokens byte = 0x10
	typeP2SHTokens  byte = 0x18
)

// sizeClasses maps size bits of the version byte to payload length.
var sizeClasses = [8]int{20, 24, 28, 32, 40, 48, 56, 64}

// generators defines polymod generator constants.
var generators = [5]uint64{0x98f2bc8e61, 0x79b76d99e2, 0xf33e5fb3c4, 0xae2eabe2a8, 0x1e4f43e470}

// charsetRev maps ascii code to 5-bit value, -1 for characters outside of alphabet.
var charsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range charset {
		rev[c] = int8(i)
		rev[unicode.ToUpper(c)] = int8(i)
	}

	return rev
}()

// EncodeCashAddr encodes payload as cashaddr string, e.g. "bitcoincash:qr6m7j9njldwwzlg9v7v53unlr4jkmx6eylep8ekg2".
func EncodeCashAddr(body []byte, hashType HashType, network Network, tokenSupport bool) (string, error) {
	prefix := network.Prefix()
	if prefix == "" {
		return "", newError(SchemeCashAddr, ErrInvalidPrefix, "unknown network %d", network)
	}

	size := -1
	for class, length := range sizeClasses {
		if length == len(body) {
			size = class
			break
		}
	}
	if size < 0 {
		return "", newError(SchemeCashAddr, ErrInvalidLength, "%d bytes payload", len(body))
	}

	version := byte(size) | typeFlags(hashType, tokenSupport)
	data, err := bech32.ConvertBits(append([]byte{version}, body...), 8, 5, true)
	if err != nil {
		return "", newError(SchemeCashAddr, ErrInvalidLength, "%v", err)
	}

	checksum := polymod(append(expandPrefix(prefix), append(data, make([]byte, checksumLen)...)...))

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + len(data) + checksumLen)
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, d := range data {
		sb.WriteByte(charset[d])
	}
	for i := checksumLen - 1; i >= 0; i-- {
		sb.WriteByte(charset[(checksum>>(5*uint(i)))&0x1f])
	}

	return sb.String(), nil
}

// DecodeCashAddr parses cashaddr string.
func DecodeCashAddr(addr string) (*Address, error) {
	parts := strings.Split(addr, ":")
	if len(parts) != 2 {
		return nil, newError(SchemeCashAddr, ErrNoPrefix, "")
	}

	prefix, payload := parts[0], parts[1]
	network, ok := networkByPrefix(prefix)
	if !ok {
		return nil, newError(SchemeCashAddr, ErrInvalidPrefix, "%q", prefix)
	}

	if payload == "" {
		return nil, newError(SchemeCashAddr, ErrInvalidLength, "empty payload")
	}
	if strings.ToLower(payload) != payload && strings.ToUpper(payload) != payload {
		return nil, newError(SchemeCashAddr, ErrMixedCase, "")
	}

	data := make([]byte, len(payload))
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c >= 128 || charsetRev[c] < 0 {
			return nil, newError(SchemeCashAddr, ErrInvalidChar, "%q at position %d", rune(c), i)
		}
		data[i] = byte(charsetRev[c])
	}

	if len(data) <= checksumLen {
		return nil, newError(SchemeCashAddr, ErrInvalidLength, "%d symbols", len(data))
	}
	if checksum := polymod(append(expandPrefix(prefix), data...)); checksum != 0 {
		return nil, newError(SchemeCashAddr, ErrChecksumFailed, "residue %#x", checksum)
	}

	decoded, err := bech32.ConvertBits(data[:len(data)-checksumLen], 5, 8, false)
	if err != nil {
		return nil, newError(SchemeCashAddr, ErrInvalidLength, "%v", err)
	}
	if len(decoded) == 0 {
		return nil, newError(SchemeCashAddr, ErrInvalidLength, "no version byte")
	}

	version, body := decoded[0], decoded[1:]
	if version&0x80 != 0 {
		return nil, newError(SchemeCashAddr, ErrInvalidVersion, "reserved bit set in %#02x", version)
	}
	if want := sizeClasses[version&sizeMask]; len(body) != want {
		return nil, newError(SchemeCashAddr, ErrInvalidLength, "%d bytes payload, version %#02x requires %d", len(body), version, want)
	}

	var (
		hashType     HashType
		tokenSupport bool
	)
	switch version & typeMask {
	case typeP2PKH:
		hashType = PubKeyHash
	case typeP2SH:
		hashType = ScriptHash
	case typeP2PKHTokens:
		hashType, tokenSupport = PubKeyHash, true
	case typeP2SHTokens:
		hashType, tokenSupport = ScriptHash, true
	default:
		return nil, newError(SchemeCashAddr, ErrInvalidVersion, "unknown type in %#02x", version)
	}

	return &Address{
		Body:         body,
		Scheme:       SchemeCashAddr,
		HashType:     hashType,
		Network:      network,
		TokenSupport: tokenSupport,
	}, nil
}

// typeFlags returns type bits of the version byte.
func typeFlags(hashType HashType, tokenSupport bool) byte {
	switch {
	case hashType == ScriptHash && tokenSupport:
		return typeP2SHTokens
	case hashType == ScriptHash:
		return typeP2SH
	case tokenSupport:
		return typeP2PKHTokens
	default:
		return typeP2PKH
	}
}

// networkByPrefix matches network by cashaddr prefix.
func networkByPrefix(prefix string) (Network, bool) {
	for _, network := range []Network{MainNet, TestNet, RegTest} {
		if network.Prefix() == prefix {
			return network, true
		}
	}

	return 0, false
}

// expandPrefix returns lower 5 bits of each prefix character followed by a zero separator.
func expandPrefix(prefix string) []byte {
	expanded := make([]byte, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		expanded[i] = prefix[i] & 0x1f
	}

	return expanded
}

// polymod computes 40-bit BCH code checksum over 5-bit values.
func polymod(values []byte) uint64 {
	c := uint64(1)
	for _, d := range values {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		for i, g := range generators {
			if c0&(1<<uint(i)) != 0 {
				c ^= g
			}
		}
	}

	return c ^ 1
}
