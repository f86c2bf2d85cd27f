// Copyright (c) 2023 Colin McRae

// Package bignumber represents exact rational numbers of unbounded size
package bignumber

import (
	"fmt"
	"math/big"
	"strings"
)

// BigNumber is an exact rational number. Its value is always held in
// canonical form: a positive denominator with no factor in common with
// the numerator. No arithmetic operation on a BigNumber rounds.
//
// Arithmetic follows the conventions of math/big: the receiver is set to
// the result and returned, so calls can be chained and temporaries reused.
type BigNumber struct {
	value big.Rat
}

// NewFromInt64 constructs an instance equal to the provided int64
// and denominator 1
func NewFromInt64(input int64) *BigNumber {
	retVal := &BigNumber{}
	retVal.value.SetInt64(input)
	return retVal
}

// NewFromInt returns a BigNumber with the value of the provided big.Int
// and denominator 1
func NewFromInt(input *big.Int) *BigNumber {
	retVal := &BigNumber{}
	retVal.value.SetInt(input)
	return retVal
}

// NewFromRat returns a BigNumber with the value of the provided big.Rat
func NewFromRat(input *big.Rat) *BigNumber {
	retVal := &BigNumber{}
	retVal.value.Set(input)
	return retVal
}

// NewFromBigNumber returns a BigNumber with the value of the provided input
func NewFromBigNumber(input *BigNumber) *BigNumber {
	retVal := &BigNumber{}
	retVal.value.Set(&input.value)
	return retVal
}

// NewFromString parses a base-10 integer ("-12"), fraction ("3/4",
// "-10/6") or decimal ("2.375") literal. Base prefixes, digit separators,
// exponents and signed denominators are rejected. The result is canonical,
// so "10/6" and "5/3" produce equal values.
func NewFromString(input string) (*BigNumber, error) {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return nil, fmt.Errorf("NewFromString: input must have length > 0")
	}
	if strings.Trim(input, "+-0123456789./") != "" {
		return nil, fmt.Errorf("NewFromString: %q is not a base-10 rational literal", input)
	}
	retVal := &BigNumber{}
	if num, den, isFraction := strings.Cut(input, "/"); isFraction {
		// big.Rat.SetString reads each side of a fraction with base prefixes
		// and would take "010/3" as 8/3
		numerator, ok := new(big.Int).SetString(num, 10)
		if !ok {
			return nil, fmt.Errorf("NewFromString: could not parse numerator of %q", input)
		}
		denominator, ok := new(big.Int).SetString(den, 10)
		if !ok || strings.ContainsAny(den, "+-") {
			return nil, fmt.Errorf("NewFromString: could not parse denominator of %q", input)
		}
		if denominator.Sign() == 0 {
			return nil, fmt.Errorf("NewFromString: zero denominator in %q", input)
		}
		retVal.value.SetFrac(numerator, denominator)
		return retVal, nil
	}
	if _, ok := retVal.value.SetString(input); !ok {
		return nil, fmt.Errorf("NewFromString: could not parse %q as a rational number", input)
	}
	return retVal, nil
}

// Set sets bn to x and returns bn. This is a deep copy
func (bn *BigNumber) Set(x *BigNumber) *BigNumber {
	bn.value.Set(&x.value)
	return bn
}

// SetInt64 sets bn to x and returns bn
func (bn *BigNumber) SetInt64(x int64) *BigNumber {
	bn.value.SetInt64(x)
	return bn
}

// SetInt sets bn to x and returns bn
func (bn *BigNumber) SetInt(x *big.Int) *BigNumber {
	bn.value.SetInt(x)
	return bn
}

// Add sets bn to the sum x+y and returns bn
func (bn *BigNumber) Add(x *BigNumber, y *BigNumber) *BigNumber {
	bn.value.Add(&x.value, &y.value)
	return bn
}

// Sub sets bn to the difference x-y and returns bn
func (bn *BigNumber) Sub(x *BigNumber, y *BigNumber) *BigNumber {
	bn.value.Sub(&x.value, &y.value)
	return bn
}

// Mul sets bn to the product xy and returns bn
func (bn *BigNumber) Mul(x *BigNumber, y *BigNumber) *BigNumber {
	bn.value.Mul(&x.value, &y.value)
	return bn
}

// MulAdd sets bn to bn + xy and returns bn. bn may alias x or y.
func (bn *BigNumber) MulAdd(x *BigNumber, y *BigNumber) *BigNumber {
	var xy big.Rat
	xy.Mul(&x.value, &y.value)
	bn.value.Add(&bn.value, &xy)
	return bn
}

// MulSub sets bn to bn - xy and returns bn. bn may alias x or y.
func (bn *BigNumber) MulSub(x *BigNumber, y *BigNumber) *BigNumber {
	var xy big.Rat
	xy.Mul(&x.value, &y.value)
	bn.value.Sub(&bn.value, &xy)
	return bn
}

// Quo sets bn to the quotient x/y and returns bn. If y is zero, bn is
// unchanged and an error is returned.
func (bn *BigNumber) Quo(x *BigNumber, y *BigNumber) (*BigNumber, error) {
	if y.IsZero() {
		return nil, fmt.Errorf("BigNumber.Quo: division by zero")
	}
	bn.value.Quo(&x.value, &y.value)
	return bn, nil
}

// Inv sets bn to 1/x and returns bn. If x is zero, bn is unchanged and an
// error is returned.
func (bn *BigNumber) Inv(x *BigNumber) (*BigNumber, error) {
	if x.IsZero() {
		return nil, fmt.Errorf("BigNumber.Inv: inverse of zero")
	}
	bn.value.Inv(&x.value)
	return bn, nil
}

// Neg sets bn to -x and returns bn
func (bn *BigNumber) Neg(x *BigNumber) *BigNumber {
	bn.value.Neg(&x.value)
	return bn
}

// Abs sets bn to |x| (the absolute value of x) and returns bn
func (bn *BigNumber) Abs(x *BigNumber) *BigNumber {
	bn.value.Abs(&x.value)
	return bn
}

// Cmp compares bn and y and returns:
//
// -1 if bn <  y
//
//	0 if bn == y
//
// +1 if bn >  y
func (bn *BigNumber) Cmp(y *BigNumber) int {
	return bn.value.Cmp(&y.value)
}

// Sign returns -1, 0 or +1 according to the sign of bn
func (bn *BigNumber) Sign() int {
	return bn.value.Sign()
}

// IsZero reports whether bn == 0
func (bn *BigNumber) IsZero() bool {
	return bn.value.Sign() == 0
}

// IsNegative reports whether bn < 0
func (bn *BigNumber) IsNegative() bool {
	return bn.value.Sign() < 0
}

// IsInt reports whether bn is an integer
func (bn *BigNumber) IsInt() bool {
	return bn.value.IsInt()
}

// AsInt64 returns bn as an int64, if possible; otherwise 0 with an error
// message.
func (bn *BigNumber) AsInt64() (int64, error) {
	if !bn.value.IsInt() {
		return 0, fmt.Errorf("AsInt64: bn = %q is not an integer", bn.value.RatString())
	}
	numerator := bn.value.Num()
	if !numerator.IsInt64() {
		return 0, fmt.Errorf("AsInt64: could not represent bn = %q as an int64", numerator.String())
	}
	return numerator.Int64(), nil
}

// Floor returns the largest integer <= bn
func (bn *BigNumber) Floor() *big.Int {
	// big.Int.Div rounds towards negative infinity for a positive divisor
	// (Euclidean division), and the denominator of a big.Rat is positive.
	return big.NewInt(0).Div(bn.value.Num(), bn.value.Denom())
}

// Ceil returns the smallest integer >= bn
func (bn *BigNumber) Ceil() *big.Int {
	negNumerator := big.NewInt(0).Neg(bn.value.Num())
	retVal := big.NewInt(0).Div(negNumerator, bn.value.Denom())
	return retVal.Neg(retVal)
}

// Numerator returns a copy of the numerator of bn
func (bn *BigNumber) Numerator() *big.Int {
	return big.NewInt(0).Set(bn.value.Num())
}

// Denominator returns a copy of the (positive) denominator of bn
func (bn *BigNumber) Denominator() *big.Int {
	return big.NewInt(0).Set(bn.value.Denom())
}

// BitLen returns the larger of the bit lengths of the numerator and the
// denominator of bn
func (bn *BigNumber) BitLen() int {
	numBits := bn.value.Num().BitLen()
	denBits := bn.value.Denom().BitLen()
	if denBits > numBits {
		return denBits
	}
	return numBits
}

// Rat returns a copy of bn as a big.Rat
func (bn *BigNumber) Rat() *big.Rat {
	return new(big.Rat).Set(&bn.value)
}

// String formats bn as a decimal integer, or as numerator/denominator if bn
// is not an integer
func (bn *BigNumber) String() string {
	return bn.value.RatString()
}

// Equals returns whether bn and x have exactly the same value
func (bn *BigNumber) Equals(x *BigNumber) bool {
	return bn.value.Cmp(&x.value) == 0
}
