// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

// MerkleRoot computes the Merkle root over an ordered list of transaction
// identifiers. A single element returns itself. An odd count at any level
// duplicates the last element before pairing. All work happens in natural
// (non-display-reversed) byte order.
func MerkleRoot(ids []Hash) Hash {
	if len(ids) == 0 {
		return Hash{}
	}
	if len(ids) == 1 {
		return ids[0]
	}

	level := make([]Hash, len(ids))
	copy(level, ids)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		next := make([]Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			var buf [HashSize * 2]byte
			copy(buf[:HashSize], level[i][:])
			copy(buf[HashSize:], level[i+1][:])
			next = append(next, HashH(buf[:]))
		}
		level = next
	}

	return level[0]
}
