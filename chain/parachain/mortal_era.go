// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package parachain

import (
	"math/bits"

	"github.com/snowfork/go-substrate-rpc-client/v4/types"
)

// DefaultMortalEraPeriod is used when no period is configured. A period must
// be a power of two between 4 and 65536 (inclusive).
const DefaultMortalEraPeriod = uint64(64)

// NewMortalEra encodes the era of an extrinsic signed at currentBlockNumber
// that stays valid for period blocks.
func NewMortalEra(currentBlockNumber uint64, period uint64) types.ExtrinsicEra {
	if period == 0 {
		period = DefaultMortalEraPeriod
	}

	// sp_runtime::generic::Era::mortal
	phase := currentBlockNumber % period

	quantizeFactor := period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	quantizedPhase := phase / quantizeFactor * quantizeFactor

	trailingZeros := uint16(bits.TrailingZeros64(period))
	encoded := (trailingZeros - 1) | uint16((quantizedPhase/quantizeFactor)<<4)

	return types.ExtrinsicEra{
		IsMortalEra: true,
		AsMortalEra: types.MortalEra{
			First:  byte(encoded),
			Second: byte(encoded >> 8),
		},
	}
}
