// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "github.com/0xnohan/Kernel/chaincfg"

// CalcSubsidy returns the block subsidy at height, per §4.6/§5:
// INITIAL_REWARD reduced by REDUCTION_FACTOR at every
// SubsidyHalvingInterval boundary, truncated to an integer once after
// the last reduction, and zero once it falls below one unit. height is assumed non-negative.
func CalcSubsidy(params *chaincfg.Params, height int64) int64 {
	if params.SubsidyHalvingInterval <= 0 {
		return params.InitialSubsidy
	}

	reductions := height / params.SubsidyHalvingInterval
	subsidy := float64(params.InitialSubsidy)
	for i := int64(0); i < reductions; i++ {
		subsidy *= params.SubsidyReductionFactor
		if subsidy < 1 {
			return 0
		}
	}
	return int64(subsidy)
}
