// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package validate implements the context-free and context-full
// consensus rules of §4.6: transaction shape and spend validity, block
// header validity, and block body validity.
package validate

// ErrorCode identifies a specific consensus rule violation.
type ErrorCode int

const (
	// ErrNoTxInputs indicates a transaction with no inputs.
	ErrNoTxInputs ErrorCode = iota

	// ErrNoTxOutputs indicates a transaction with no outputs.
	ErrNoTxOutputs

	// ErrTxTooBig indicates a transaction whose serialized size exceeds
	// what could ever fit in a block.
	ErrTxTooBig

	// ErrBadTxOutValue indicates a transaction output with a negative
	// amount.
	ErrBadTxOutValue

	// ErrInvalidCoinbase indicates a coinbase transaction that does not
	// match the single-null-input shape.
	ErrInvalidCoinbase

	// ErrMultipleCoinbases indicates a block body with more than one
	// coinbase transaction.
	ErrMultipleCoinbases

	// ErrFirstTxNotCoinbase indicates a block whose first transaction
	// is not a coinbase.
	ErrFirstTxNotCoinbase

	// ErrBadCoinbaseHeight indicates a coinbase scriptSig whose encoded
	// height does not match the block's height.
	ErrBadCoinbaseHeight

	// ErrMissingTxOut indicates a transaction input referencing an
	// output that does not exist in the UTXO set.
	ErrMissingTxOut

	// ErrDoubleSpend indicates a transaction input referencing an
	// output already spent by another entry in the same context
	// (mempool conflict or in-block double-spend).
	ErrDoubleSpend

	// ErrSpendTooHigh indicates a transaction whose output total
	// exceeds its input total.
	ErrSpendTooHigh

	// ErrBadSignature indicates an input whose unlocking script fails
	// to satisfy its referenced locking script.
	ErrBadSignature

	// ErrBadMerkleRoot indicates a block whose computed Merkle root
	// does not match the one recorded in its header.
	ErrBadMerkleRoot

	// ErrBlockTooBig indicates a block whose serialized size exceeds
	// MAX_BLOCK_SIZE.
	ErrBlockTooBig

	// ErrUnknownParent indicates a block header whose previous-block
	// hash is neither the genesis sentinel nor a known indexed block.
	ErrUnknownParent

	// ErrTimeTooOld indicates a block header timestamp not strictly
	// greater than its parent's.
	ErrTimeTooOld

	// ErrTimeTooNew indicates a block header timestamp more than two
	// hours ahead of the validator's clock.
	ErrTimeTooNew

	// ErrHighHash indicates a block header hash that does not satisfy
	// its own target.
	ErrHighHash

	// ErrBadCoinbaseValue indicates a coinbase output amount exceeding
	// subsidy(height) plus the block's collected fees.
	ErrBadCoinbaseValue

	// ErrUnexpectedDifficulty indicates a block header whose bits field
	// does not match the difficulty the retarget rule requires at its
	// height.
	ErrUnexpectedDifficulty
)

var errorCodeStrings = map[ErrorCode]string{
	ErrNoTxInputs:         "ErrNoTxInputs",
	ErrNoTxOutputs:        "ErrNoTxOutputs",
	ErrTxTooBig:           "ErrTxTooBig",
	ErrBadTxOutValue:      "ErrBadTxOutValue",
	ErrInvalidCoinbase:    "ErrInvalidCoinbase",
	ErrMultipleCoinbases:  "ErrMultipleCoinbases",
	ErrFirstTxNotCoinbase: "ErrFirstTxNotCoinbase",
	ErrBadCoinbaseHeight:  "ErrBadCoinbaseHeight",
	ErrMissingTxOut:       "ErrMissingTxOut",
	ErrDoubleSpend:        "ErrDoubleSpend",
	ErrSpendTooHigh:       "ErrSpendTooHigh",
	ErrBadSignature:       "ErrBadSignature",
	ErrBadMerkleRoot:      "ErrBadMerkleRoot",
	ErrBlockTooBig:        "ErrBlockTooBig",
	ErrUnknownParent:      "ErrUnknownParent",
	ErrTimeTooOld:         "ErrTimeTooOld",
	ErrTimeTooNew:         "ErrTimeTooNew",
	ErrHighHash:           "ErrHighHash",
	ErrBadCoinbaseValue:     "ErrBadCoinbaseValue",
	ErrUnexpectedDifficulty: "ErrUnexpectedDifficulty",
}

// String returns the ErrorCode's symbolic name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return "ErrUnknown"
}

// RuleError identifies a rule violation. It carries an ErrorCode so
// callers can programmatically distinguish failure reasons (e.g. a peer
// misbehavior scorer) without parsing the description.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError with the given code and description.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
