// Copyright (c) 2013, 2014 The btcsuite developers
// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainutil provides convenience types and helpers built on top of
// the wire-level primitives: base units, base58check addresses, and
// hash160.
package chainutil

import (
	"errors"
	"math"
	"strconv"
)

// AmountUnit describes a method of converting an Amount to something
// other than the base unit strings.
type AmountUnit int

// These constants define various units used when formatting amounts.
const (
	AmountUnitCoin AmountUnit = iota
	AmountUnitBase
)

// String returns the unit as a string.
func (u AmountUnit) String() string {
	switch u {
	case AmountUnitCoin:
		return "KRN"
	case AmountUnitBase:
		return "base unit"
	default:
		return "unknown unit"
	}
}

// BaseUnitsPerCoin is the number of base units in one coin.
const BaseUnitsPerCoin = 1e8

// MaxAmount is the maximum transaction amount allowed in base units.
const MaxAmount = 21e6 * BaseUnitsPerCoin

// Amount represents a monetary value in base units.
//
// A single Amount is equal to 1e-8 of a coin, matching the base unit
// scaling of the teacher's dcrutil package.
type Amount int64

// round converts a floating point number, which may or may not be
// representing an amount in coins, to an amount in base units.
func round(f float64) Amount {
	if f < 0 {
		return Amount(f*BaseUnitsPerCoin - 0.5)
	}
	return Amount(f*BaseUnitsPerCoin + 0.5)
}

// NewAmount creates an Amount from a floating point value representing an
// amount of coins. NewAmount errors if f is NaN or +-Infinity, but does
// not check that the amount is within the total amount of coins producible
// by the chain.
func NewAmount(f float64) (Amount, error) {
	switch {
	case math.IsNaN(f), math.IsInf(f, 1), math.IsInf(f, -1):
		return 0, errors.New("invalid amount")
	}
	return round(f), nil
}

// ToUnit converts a monetary amount counted in base units to a floating
// point value representing an amount of the given unit.
func (a Amount) ToUnit(u AmountUnit) float64 {
	switch u {
	case AmountUnitCoin:
		return float64(a) / BaseUnitsPerCoin
	case AmountUnitBase:
		return float64(a)
	default:
		return math.NaN()
	}
}

// ToCoin is a convenience function for calling ToUnit with AmountUnitCoin.
func (a Amount) ToCoin() float64 {
	return a.ToUnit(AmountUnitCoin)
}

// String returns the base unit as a human-readable base-10 integer,
// the canonical representation for RPC and explorer responses.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}
