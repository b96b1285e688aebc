// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chaincfg"
)

// calcNextRequiredBits implements §5's retarget rule: every
// RetargetInterval blocks, the target is scaled by the ratio of the
// actual time the last interval took to the expected time, clamped to
// [RetargetMinFactor, RetargetMaxFactor] and capped at PowLimit. Blocks
// that don't land on a retarget boundary inherit their parent's bits.
// parent is the tip a new block at parent.height+1 would extend.
func calcNextRequiredBits(params *chaincfg.Params, parent *node) uint32 {
	nextHeight := parent.height + 1
	if params.RetargetInterval <= 0 || nextHeight%params.RetargetInterval != 0 {
		return parent.bits
	}

	firstHeight := nextHeight - params.RetargetInterval
	first := parent.ancestorAt(firstHeight)
	if first == nil {
		return parent.bits
	}

	actualSpan := parent.timestamp.Sub(first.timestamp).Seconds()
	expectedSpan := float64(params.RetargetInterval) * params.TargetBlockTime.Seconds()

	ratio := actualSpan / expectedSpan
	// A non-positive span (clock skew, or a too-short chain) clamps to
	// the floor rather than producing a nonsensical or negative ratio,
	// per the spec's Open Question guidance.
	if actualSpan <= 0 {
		ratio = params.RetargetMinFactor
	}
	if ratio < params.RetargetMinFactor {
		ratio = params.RetargetMinFactor
	}
	if ratio > params.RetargetMaxFactor {
		ratio = params.RetargetMaxFactor
	}

	oldTarget := standalone.CompactToBig(parent.bits)
	newTarget := scaleTarget(oldTarget, ratio)
	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget = params.PowLimit
	}
	if newTarget.Sign() <= 0 {
		newTarget = big.NewInt(1)
	}

	return standalone.BigToCompact(newTarget)
}

// scaleTarget multiplies target by ratio using fixed-point arithmetic
// (ratio scaled by 1e6) so the computation stays in integers rather than
// losing precision converting a big.Int through float64.
func scaleTarget(target *big.Int, ratio float64) *big.Int {
	const precision = 1_000_000
	scaledRatio := big.NewInt(int64(ratio * precision))
	result := new(big.Int).Mul(target, scaledRatio)
	return result.Div(result, big.NewInt(precision))
}
