// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

// CalcSignatureHash computes the signature hash for input idx of tx,
// per §4.2: every input's unlocking script is blanked except the one
// being signed, which is temporarily replaced by the referenced output's
// locking script. The serialized result has the sighash type appended as
// a 4-byte little-endian integer before it is double-SHA256'd.
func CalcSignatureHash(tx *wire.MsgTx, idx int, prevPkScript []byte) (chainhash.Hash, error) {
	txCopy := tx.Copy()
	for i, ti := range txCopy.TxIn {
		if i == idx {
			ti.SignatureScript = prevPkScript
		} else {
			ti.SignatureScript = nil
		}
	}

	buf := txCopy.Serialize()
	var sigHashType [4]byte
	binary.LittleEndian.PutUint32(sigHashType[:], SigHashAllValue)
	buf = append(buf, sigHashType[:]...)

	return chainhash.HashH(buf), nil
}
