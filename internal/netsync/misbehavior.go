// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"time"

	"github.com/jrick/bitset"
)

// Offense categories tracked per peer, the fixed small universe of flags
// the misbehavior scoreboard needs.
const (
	offenseBadPoW = iota
	offenseBadMerkle
	offenseMalformedFrame
	offenseOrphanTimeout
	numOffenseCategories
)

// misbehaviorWindow is how long a peer's recorded offenses are
// remembered before the scoreboard resets and starts forgiving it again.
const misbehaviorWindow = 10 * time.Minute

// misbehaviorTracker is a per-peer bitset.Bytes of offense categories
// seen within the current rolling window, per §7 ("a peer may be
// dropped after repeated offenses"): a category seen for the second time
// inside the same window marks the peer for disconnection.
type misbehaviorTracker struct {
	flags       bitset.Bytes
	windowStart time.Time
}

func newMisbehaviorTracker() *misbehaviorTracker {
	return &misbehaviorTracker{
		flags:       bitset.NewBytes(numOffenseCategories),
		windowStart: time.Now(),
	}
}

// record reports category as observed and returns true if this is a
// repeat of a category already seen within the current window, meaning
// the caller should disconnect the offending peer.
func (t *misbehaviorTracker) record(category int) bool {
	if time.Since(t.windowStart) > misbehaviorWindow {
		t.flags = bitset.NewBytes(numOffenseCategories)
		t.windowStart = time.Now()
	}
	if t.flags.Get(category) {
		return true
	}
	t.flags.Set(category)
	return false
}
