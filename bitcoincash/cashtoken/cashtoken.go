// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cashtoken

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/BoostyLabs/bchwallet/internal/sequencereader"
)

// PrefixToken defines the first byte of token prefix in output script field.
const PrefixToken byte = 0xef

const (
	// MaxCommitmentLength defines maximum NFT commitment length in bytes.
	MaxCommitmentLength = 40
	// MaxAmount defines maximum fungible token amount.
	MaxAmount uint64 = math.MaxInt64
)

// token bitfield flags.
const (
	flagReserved            byte = 0x80
	flagHasCommitmentLength byte = 0x40
	flagHasNFT              byte = 0x20
	flagHasAmount           byte = 0x10
	capabilityMask          byte = 0x0f
)

// ErrInvalidPrefix defines malformed token prefix.
var ErrInvalidPrefix = errors.New("invalid token prefix")

// Capability defines what NFT holder is allowed to do.
type Capability byte

const (
	// CapabilityNone defines immutable NFT.
	CapabilityNone Capability = 0
	// CapabilityMutable defines NFT which commitment may be changed.
	CapabilityMutable Capability = 1
	// CapabilityMinting defines NFT which may create new NFTs of the category.
	CapabilityMinting Capability = 2
)

// ParseCapability returns capability by its name.
func ParseCapability(name string) (Capability, error) {
	switch name {
	case "none":
		return CapabilityNone, nil
	case "mutable":
		return CapabilityMutable, nil
	case "minting":
		return CapabilityMinting, nil
	default:
		return 0, fmt.Errorf("unknown nft capability %q", name)
	}
}

// String returns capability name.
func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "none"
	case CapabilityMutable:
		return "mutable"
	case CapabilityMinting:
		return "minting"
	default:
		return fmt.Sprintf("unknown(%d)", byte(c))
	}
}

// NFT describes non-fungible part of the token.
type NFT struct {
	Capability Capability
	Commitment []byte
}

// Token describes tokens attached to an output.
type Token struct {
	Category chainhash.Hash // genesis transaction id.
	Amount   uint64         // fungible amount, 0 if the output holds only NFT.
	NFT      *NFT
}

// Validate checks token consistency.
func (t *Token) Validate() error {
	if t.NFT == nil && t.Amount == 0 {
		return fmt.Errorf("%w: token holds neither nft nor amount", ErrInvalidPrefix)
	}
	if t.Amount > MaxAmount {
		return fmt.Errorf("%w: amount %d exceeds %d", ErrInvalidPrefix, t.Amount, MaxAmount)
	}
	if t.NFT != nil {
		if t.NFT.Capability > CapabilityMinting {
			return fmt.Errorf("%w: capability %d", ErrInvalidPrefix, t.NFT.Capability)
		}
		if len(t.NFT.Commitment) > MaxCommitmentLength {
			return fmt.Errorf("%w: commitment of %d bytes", ErrInvalidPrefix, len(t.NFT.Commitment))
		}
	}

	return nil
}

// Encode returns token prefix.
func (t *Token) Encode() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var bitfield byte
	if t.NFT != nil {
		bitfield |= flagHasNFT | byte(t.NFT.Capability)
		if len(t.NFT.Commitment) > 0 {
			bitfield |= flagHasCommitmentLength
		}
	}
	if t.Amount > 0 {
		bitfield |= flagHasAmount
	}

	prefix := make([]byte, 0, 1+chainhash.HashSize+1+9+MaxCommitmentLength+9)
	prefix = append(prefix, PrefixToken)
	prefix = append(prefix, t.Category[:]...)
	prefix = append(prefix, bitfield)
	if bitfield&flagHasCommitmentLength != 0 {
		prefix = appendCompactSize(prefix, uint64(len(t.NFT.Commitment)))
		prefix = append(prefix, t.NFT.Commitment...)
	}
	if bitfield&flagHasAmount != 0 {
		prefix = appendCompactSize(prefix, t.Amount)
	}

	return prefix, nil
}

// Parse reads token prefix from the beginning of the script field.
// Returns token and remaining locking bytecode.
func Parse(script []byte) (*Token, []byte, error) {
	if len(script) == 0 || script[0] != PrefixToken {
		return nil, nil, fmt.Errorf("%w: missing %#02x", ErrInvalidPrefix, PrefixToken)
	}

	sr := sequencereader.New(script[1:])
	category, err := sr.NextN(chainhash.HashSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: category: %w", ErrInvalidPrefix, err)
	}

	bitfield, err := sr.Next()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bitfield: %w", ErrInvalidPrefix, err)
	}

	var (
		hasNFT     = bitfield&flagHasNFT != 0
		capability = Capability(bitfield & capabilityMask)
		token      = &Token{}
	)
	copy(token.Category[:], category)

	switch {
	case bitfield&flagReserved != 0:
		return nil, nil, fmt.Errorf("%w: reserved bit set in %#02x", ErrInvalidPrefix, bitfield)
	case !hasNFT && bitfield&flagHasAmount == 0:
		return nil, nil, fmt.Errorf("%w: neither nft nor amount in %#02x", ErrInvalidPrefix, bitfield)
	case !hasNFT && bitfield&(flagHasCommitmentLength|capabilityMask) != 0:
		return nil, nil, fmt.Errorf("%w: nft fields without nft in %#02x", ErrInvalidPrefix, bitfield)
	case capability > CapabilityMinting:
		return nil, nil, fmt.Errorf("%w: capability %d", ErrInvalidPrefix, capability)
	}

	if hasNFT {
		token.NFT = &NFT{Capability: capability}
	}

	if bitfield&flagHasCommitmentLength != 0 {
		length, err := readCompactSize(sr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: commitment length: %w", ErrInvalidPrefix, err)
		}
		if length == 0 || length > MaxCommitmentLength {
			return nil, nil, fmt.Errorf("%w: commitment length %d", ErrInvalidPrefix, length)
		}

		commitment, err := sr.NextN(int(length))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: commitment: %w", ErrInvalidPrefix, err)
		}
		token.NFT.Commitment = bytes.Clone(commitment)
	}

	if bitfield&flagHasAmount != 0 {
		token.Amount, err = readCompactSize(sr)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: amount: %w", ErrInvalidPrefix, err)
		}
		if token.Amount == 0 || token.Amount > MaxAmount {
			return nil, nil, fmt.Errorf("%w: amount %d", ErrInvalidPrefix, token.Amount)
		}
	}

	return token, sr.Rest(), nil
}

// SplitScript separates optional token prefix from locking bytecode of the output script field.
func SplitScript(script []byte) (token *Token, lockingBytecode []byte, err error) {
	if len(script) == 0 || script[0] != PrefixToken {
		return nil, script, nil
	}

	return Parse(script)
}

// JoinScript returns output script field: optional token prefix followed by locking bytecode.
func JoinScript(token *Token, lockingBytecode []byte) ([]byte, error) {
	if token == nil {
		return bytes.Clone(lockingBytecode), nil
	}

	prefix, err := token.Encode()
	if err != nil {
		return nil, err
	}

	return append(prefix, lockingBytecode...), nil
}

// appendCompactSize appends bitcoin variable length integer.
func appendCompactSize(b []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(b, byte(v))
	case v <= math.MaxUint16:
		return binary.LittleEndian.AppendUint16(append(b, 0xfd), uint16(v))
	case v <= math.MaxUint32:
		return binary.LittleEndian.AppendUint32(append(b, 0xfe), uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(append(b, 0xff), v)
	}
}

// readCompactSize reads minimally encoded bitcoin variable length integer.
func readCompactSize(sr *sequencereader.SequenceReader[byte]) (uint64, error) {
	first, err := sr.Next()
	if err != nil {
		return 0, err
	}

	var (
		size     int
		minValue uint64
	)
	switch first {
	case 0xfd:
		size, minValue = 2, 0xfd
	case 0xfe:
		size, minValue = 4, math.MaxUint16+1
	case 0xff:
		size, minValue = 8, math.MaxUint32+1
	default:
		return uint64(first), nil
	}

	raw, err := sr.NextN(size)
	if err != nil {
		return 0, err
	}

	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(raw[i])
	}
	if v < minValue {
		return 0, fmt.Errorf("non-minimal compact size %d", v)
	}

	return v, nil
}
