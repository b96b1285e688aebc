// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements §4.5's mempool manager: transaction
// admission, conflict detection against both the UTXO set and other
// mempool entries, and fee-ordered block template selection.
package mempool

// ErrorCode identifies a mempool-specific admission failure. Failures
// that are really consensus-rule violations (bad signature, overspend,
// missing outpoint) surface as a validate.RuleError instead; this type
// covers only the rules that are particular to mempool context.
type ErrorCode int

const (
	// ErrMempoolCoinbase indicates an attempt to admit a coinbase
	// transaction into the mempool, per admission rule 1.
	ErrMempoolCoinbase ErrorCode = iota

	// ErrMempoolConflict indicates a transaction that spends an
	// outpoint already spent by a different mempool entry, per
	// admission rule 3. The mempool has no replacement policy: the
	// first entry to claim an outpoint keeps it.
	ErrMempoolConflict
)

var errorCodeStrings = map[ErrorCode]string{
	ErrMempoolCoinbase: "ErrMempoolCoinbase",
	ErrMempoolConflict: "ErrMempoolConflict",
}

// String returns the ErrorCode's symbolic name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return "ErrUnknown"
}

// RuleError identifies a mempool admission failure.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
