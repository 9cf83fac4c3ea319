// Copyright 2021 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package config

import "errors"

type ParachainConfig struct {
	Endpoint             string `mapstructure:"endpoint"`
	MaxWatchedExtrinsics int64  `mapstructure:"maxWatchedExtrinsics"`
	// Seconds to wait for an extrinsic to be finalized
	FinalityTimeout uint `mapstructure:"finality-timeout"`
	// Must be a power of two between 4 and 65536
	MortalEraPeriod uint64 `mapstructure:"mortal-era-period"`
}

type EthereumConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	GasFeeCap uint64 `mapstructure:"gas-fee-cap"`
	GasTipCap uint64 `mapstructure:"gas-tip-cap"`
	GasLimit  uint64 `mapstructure:"gas-limit"`
	// Percentage added on top of the estimated gas
	GasMargin uint64 `mapstructure:"gas-margin"`
	// Seconds to wait for a transaction to be finalized
	FinalityTimeout uint `mapstructure:"finality-timeout"`
}

func (c ParachainConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("parachain endpoint is not set")
	}
	if c.MaxWatchedExtrinsics < 0 {
		return errors.New("maxWatchedExtrinsics must not be negative")
	}
	period := c.MortalEraPeriod
	if period != 0 && (period < 4 || period > 65536 || period&(period-1) != 0) {
		return errors.New("mortal-era-period must be a power of two between 4 and 65536")
	}
	return nil
}

func (c EthereumConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("ethereum endpoint is not set")
	}
	return nil
}
