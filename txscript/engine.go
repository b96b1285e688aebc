// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/wire"
)

// stack is the script engine's single data stack. Items are arbitrary
// byte strings; truth is byte-string non-emptiness with not-all-zero
// content, tested only implicitly by CHECKSIG's boolean push.
type stack [][]byte

func (s *stack) push(item []byte) {
	*s = append(*s, item)
}

func (s *stack) pop() ([]byte, error) {
	n := len(*s)
	if n == 0 {
		return nil, fmt.Errorf("txscript: pop from empty stack")
	}
	item := (*s)[n-1]
	*s = (*s)[:n-1]
	return item, nil
}

var (
	trueItem  = []byte{1}
	falseItem = []byte{}
)

// Execute evaluates unlockingScript followed by lockingScript against
// sigHash, the precomputed signature hash for the spending input. It
// returns nil if execution succeeds and leaves a single non-zero item on
// top of the stack, matching §4.2's success criterion. sigCache and tx may
// be nil, in which case CHECKSIG always verifies from scratch.
func Execute(unlockingScript, lockingScript []byte, sigHash chainhash.Hash, sigCache *SigCache, tx *wire.MsgTx) error {
	unlockOps, err := parseScript(unlockingScript)
	if err != nil {
		return fmt.Errorf("txscript: parsing unlocking script: %w", err)
	}
	lockOps, err := parseScript(lockingScript)
	if err != nil {
		return fmt.Errorf("txscript: parsing locking script: %w", err)
	}

	var st stack
	for _, op := range append(append([]parsedOp{}, unlockOps...), lockOps...) {
		if err := execOp(&st, op, sigHash, sigCache, tx); err != nil {
			return err
		}
	}

	if len(st) == 0 {
		return fmt.Errorf("txscript: script left an empty stack")
	}
	top := st[len(st)-1]
	if len(top) == 0 || isAllZero(top) {
		return fmt.Errorf("txscript: final stack top is false")
	}
	return nil
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func execOp(st *stack, op parsedOp, sigHash chainhash.Hash, sigCache *SigCache, tx *wire.MsgTx) error {
	if op.opcode == 0 {
		st.push(op.data)
		return nil
	}

	switch op.opcode {
	case OP_DUP:
		top, err := st.pop()
		if err != nil {
			return fmt.Errorf("txscript: OP_DUP: %w", err)
		}
		st.push(top)
		st.push(top)

	case OP_HASH160:
		top, err := st.pop()
		if err != nil {
			return fmt.Errorf("txscript: OP_HASH160: %w", err)
		}
		st.push(chainutil.Hash160(top))

	case OP_EQUALVERIFY:
		a, err := st.pop()
		if err != nil {
			return fmt.Errorf("txscript: OP_EQUALVERIFY: %w", err)
		}
		b, err := st.pop()
		if err != nil {
			return fmt.Errorf("txscript: OP_EQUALVERIFY: %w", err)
		}
		if !bytesEqual(a, b) {
			return fmt.Errorf("txscript: OP_EQUALVERIFY failed")
		}

	case OP_CHECKSIG:
		pubKeyBytes, err := st.pop()
		if err != nil {
			return fmt.Errorf("txscript: OP_CHECKSIG: %w", err)
		}
		sigBytes, err := st.pop()
		if err != nil {
			return fmt.Errorf("txscript: OP_CHECKSIG: %w", err)
		}
		ok, err := verifySignatureCached(sigCache, tx, sigBytes, pubKeyBytes, sigHash)
		if err != nil {
			return fmt.Errorf("txscript: OP_CHECKSIG: %w", err)
		}
		if ok {
			st.push(trueItem)
		} else {
			st.push(falseItem)
		}

	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnsupportedOpcode, op.opcode)
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// verifySignatureCached behaves like verifySignature but consults sigCache
// first and records newly-verified signatures back into it. sigCache and
// tx may be nil, in which case every call falls through to a fresh
// cryptographic check.
func verifySignatureCached(sigCache *SigCache, tx *wire.MsgTx, sigWithType []byte, pubKeyBytes []byte, sigHash chainhash.Hash) (bool, error) {
	if len(sigWithType) == 0 {
		return false, fmt.Errorf("empty signature")
	}
	sigHashType := sigWithType[len(sigWithType)-1]
	if sigHashType != SigHashAllValue {
		return false, fmt.Errorf("unsupported sighash type 0x%02x", sigHashType)
	}
	sigDER := sigWithType[:len(sigWithType)-1]

	sig, err := ecdsa.ParseDERSignature(sigDER)
	if err != nil {
		return false, fmt.Errorf("parsing signature: %w", err)
	}
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false, fmt.Errorf("parsing public key: %w", err)
	}

	if sigCache != nil && sigCache.Exists(sigHash, sig, pubKey) {
		return true, nil
	}

	valid := sig.Verify(sigHash[:], pubKey)
	if valid && sigCache != nil && tx != nil {
		sigCache.Add(sigHash, sig, pubKey, tx)
	}
	return valid, nil
}
