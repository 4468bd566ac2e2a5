// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package address

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network defines the chain an address belongs to.
type Network byte

const (
	// MainNet defines production network.
	MainNet Network = iota
	// TestNet defines public test network.
	TestNet
	// RegTest defines local regression test network.
	RegTest
)

// Prefix returns human-readable cashaddr prefix of the network.
func (n Network) Prefix() string {
	switch n {
	case MainNet:
		return "bitcoincash"
	case TestNet:
		return "bchtest"
	case RegTest:
		return "bchreg"
	default:
		return ""
	}
}

// Params returns chain parameters holding legacy version bytes of the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case MainNet:
		return &chaincfg.MainNetParams
	case TestNet:
		return &chaincfg.TestNet3Params
	case RegTest:
		return &chaincfg.RegressionNetParams
	default:
		return nil
	}
}

// String returns network name.
func (n Network) String() string {
	switch n {
	case MainNet:
		return "main"
	case TestNet:
		return "test"
	case RegTest:
		return "regtest"
	default:
		return fmt.Sprintf("unknown(%d)", byte(n))
	}
}

// ParseNetwork returns network by its name.
func ParseNetwork(name string) (Network, error) {
	switch name {
	case "main", "mainnet":
		return MainNet, nil
	case "test", "testnet":
		return TestNet, nil
	case "regtest":
		return RegTest, nil
	default:
		return 0, fmt.Errorf("unknown network %q", name)
	}
}

// HashType defines what the address payload commits to.
type HashType byte

const (
	// PubKeyHash defines payload as a hash of the public key.
	PubKeyHash HashType = iota
	// ScriptHash defines payload as a hash of the redeem script.
	ScriptHash
)

// String returns hash type name.
func (t HashType) String() string {
	if t == ScriptHash {
		return "script"
	}

	return "key"
}

// Scheme defines address string format.
type Scheme byte

const (
	// SchemeCashAddr defines base32 format with polymod checksum and network prefix.
	SchemeCashAddr Scheme = iota
	// SchemeLegacy defines base58check format.
	SchemeLegacy
)

// String returns scheme name.
func (s Scheme) String() string {
	if s == SchemeLegacy {
		return "legacy"
	}

	return "cashaddr"
}

// Address describes decoded address.
type Address struct {
	Body         []byte // hash of the public key or script.
	Scheme       Scheme
	HashType     HashType
	Network      Network
	TokenSupport bool // signals that the owner wallet handles token outputs. cashaddr only.
}

// New is a constructor for Address.
func New(body []byte, scheme Scheme, hashType HashType, network Network, tokenSupport bool) *Address {
	return &Address{
		Body:         bytes.Clone(body),
		Scheme:       scheme,
		HashType:     hashType,
		Network:      network,
		TokenSupport: tokenSupport,
	}
}

// Encode returns address string in its own scheme.
func (a *Address) Encode() (string, error) {
	if a.Scheme == SchemeLegacy {
		return EncodeLegacy(a.Body, a.HashType, a.Network)
	}

	return EncodeCashAddr(a.Body, a.HashType, a.Network, a.TokenSupport)
}

// CashAddr returns address string in cashaddr scheme.
func (a *Address) CashAddr() (string, error) {
	return EncodeCashAddr(a.Body, a.HashType, a.Network, a.TokenSupport)
}

// Legacy returns address string in legacy scheme. Token support flag is lost.
func (a *Address) Legacy() (string, error) {
	return EncodeLegacy(a.Body, a.HashType, a.Network)
}

// String implements fmt.Stringer.
func (a *Address) String() string {
	s, err := a.Encode()
	if err != nil {
		return fmt.Sprintf("invalid address: %v", err)
	}

	return s
}

// Decode parses address string of any supported scheme, cashaddr is tried first.
// If both schemes fail, returned *DecodeError holds both failures.
func Decode(addr string) (*Address, error) {
	cashAddr, cashErr := DecodeCashAddr(addr)
	if cashErr == nil {
		return cashAddr, nil
	}

	legacy, legacyErr := DecodeLegacy(addr)
	if legacyErr == nil {
		return legacy, nil
	}

	return nil, &DecodeError{CashAddr: cashErr, Legacy: legacyErr}
}
