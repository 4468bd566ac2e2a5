// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package config

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btclog"
	"github.com/spf13/viper"

	"github.com/BoostyLabs/bchwallet/bitcoincash/address"
	"github.com/BoostyLabs/bchwallet/bitcoincash/coinselect"
	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
	"github.com/BoostyLabs/bchwallet/bitcoincash/keychain"
	"github.com/BoostyLabs/bchwallet/bitcoincash/signer"
)

const (
	// EnvPrefix defines prefix of environment variables, e.g. BCHWALLET_NETWORK.
	EnvPrefix = "BCHWALLET"

	// NetworkKey is the network to use: main, test or regtest.
	NetworkKey = "NETWORK"
	// DataDirKey is the directory keeping encrypted seed and unspent outputs store.
	DataDirKey = "DATA_DIR"
	// LogLevelKey is one of trace, debug, info, warn, error, critical, off.
	LogLevelKey = "LOG_LEVEL"
	// DerivationPathKey is the BIP32 path of the wallet key, network default if empty.
	DerivationPathKey = "DERIVATION_PATH"
	// FeeRateKey is the satoshi per byte rate inputs are priced with during coin selection.
	FeeRateKey = "FEE_RATE"
	// RelayFeeRateKey is the satoshi per byte rate applied to the measured transaction size.
	RelayFeeRateKey = "RELAY_FEE_RATE"
	// CoinSelectionKey is the coin selection strategy.
	CoinSelectionKey = "COIN_SELECTION"
	// SighashUTXOsKey defines whether signatures commit to every spent output.
	SighashUTXOsKey = "SIGHASH_UTXOS"
)

// DefaultDataDir defines default data directory.
var DefaultDataDir = btcutil.AppDataDir("bchwallet", false)

// Config defines wallet settings.
type Config struct {
	Network        address.Network
	DataDir        string
	LogLevel       btclog.Level
	DerivationPath string
	FeeRate        fees.FeeRate
	RelayFeeRate   fees.FeeRate
	CoinSelection  coinselect.Strategy
	HashType       signer.HashType
}

// Load reads settings from defaults, optional config file, environment and overrides, in increasing priority.
func Load(configFile string, overrides map[string]any) (*Config, error) {
	vip := viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.AutomaticEnv()

	vip.SetDefault(NetworkKey, address.TestNet.String())
	vip.SetDefault(DataDirKey, DefaultDataDir)
	vip.SetDefault(LogLevelKey, "info")
	vip.SetDefault(DerivationPathKey, "")
	vip.SetDefault(FeeRateKey, 0)
	vip.SetDefault(RelayFeeRateKey, float64(fees.DefaultMinRelayFeeRate))
	vip.SetDefault(CoinSelectionKey, string(coinselect.StrategyBranchAndBound))
	vip.SetDefault(SighashUTXOsKey, true)

	if configFile != "" {
		vip.SetConfigFile(configFile)
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for key, value := range overrides {
		vip.Set(key, value)
	}

	return parse(vip)
}

// parse validates settings.
func parse(vip *viper.Viper) (*Config, error) {
	network, err := address.ParseNetwork(vip.GetString(NetworkKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", NetworkKey, err)
	}

	level, ok := btclog.LevelFromString(vip.GetString(LogLevelKey))
	if !ok {
		return nil, fmt.Errorf("%s: unknown level %q", LogLevelKey, vip.GetString(LogLevelKey))
	}

	path := vip.GetString(DerivationPathKey)
	if path == "" {
		path = keychain.TestnetPath
		if network == address.MainNet {
			path = keychain.DefaultPath
		}
	}
	if _, err = keychain.ParsePath(path); err != nil {
		return nil, fmt.Errorf("%s: %w", DerivationPathKey, err)
	}

	feeRate, err := fees.NewFeeRate(vip.GetFloat64(FeeRateKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FeeRateKey, err)
	}
	relayFeeRate, err := fees.NewFeeRate(vip.GetFloat64(RelayFeeRateKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RelayFeeRateKey, err)
	}

	strategy := coinselect.Strategy(vip.GetString(CoinSelectionKey))
	if _, err = coinselect.New(strategy); err != nil {
		return nil, fmt.Errorf("%s: %w", CoinSelectionKey, err)
	}

	hashType := signer.HashTypeAll | signer.HashTypeForkID
	if vip.GetBool(SighashUTXOsKey) {
		hashType |= signer.HashTypeUTXOs
	}

	dataDir := vip.GetString(DataDirKey)
	if dataDir == "" {
		return nil, fmt.Errorf("%s: empty", DataDirKey)
	}

	return &Config{
		Network:        network,
		DataDir:        dataDir,
		LogLevel:       level,
		DerivationPath: path,
		FeeRate:        feeRate,
		RelayFeeRate:   relayFeeRate,
		CoinSelection:  strategy,
		HashType:       hashType,
	}, nil
}
