// Copyright (c) 2018-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// genesisCoinbaseExtraData is the unlocking-script payload carried by the
// genesis block's sole input. It is not a height push — genesis has no
// parent and is installed directly rather than passing through the
// normal coinbase-height check, the same way the height-0 block in every
// Bitcoin-lineage chain is special-cased.
var genesisCoinbaseExtraData = []byte("Genesis Block")

// buildGenesisBlock assembles the single-coinbase genesis block paying
// subsidy base units to pkHash, with the given header fields. The Merkle
// root is computed from the coinbase transaction actually built here
// rather than taken from an external constant, since it is a pure
// function of the transaction's own serialization.
func buildGenesisBlock(timestamp int64, bits, nonce uint32, pkHash []byte, subsidy int64) *wire.MsgBlock {
	scriptSig, err := pushBytes(genesisCoinbaseExtraData)
	if err != nil {
		panic(err)
	}

	pkScript, err := txscript.PayToPubKeyHashScript(pkHash)
	if err != nil {
		panic(err)
	}

	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: subsidy, PkScript: pkScript})

	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			Timestamp: time.Unix(timestamp, 0).UTC(),
			Bits:      bits,
			Nonce:     nonce,
		},
	}
	block.AddTransaction(coinbase)
	block.Header.MerkleRoot = block.TxHashes()[0]
	return block
}

// pushBytes wraps data in a minimal single data-push script, used only to
// build the genesis block's freeform coinbase input script.
func pushBytes(data []byte) ([]byte, error) {
	if len(data) > 75 {
		return nil, errTooLongForSinglePush
	}
	script := make([]byte, 0, len(data)+1)
	script = append(script, byte(len(data)))
	script = append(script, data...)
	return script, nil
}

var errTooLongForSinglePush = errGenesis("genesis coinbase payload exceeds a single push")

type errGenesis string

func (e errGenesis) Error() string { return string(e) }
