package codec

import (
	"fmt"
	"math"
)

// The transport numeric encoding is the mainframe double: one sign bit, a
// 7-bit excess-64 base-16 exponent, and a 56-bit fraction, big-endian. The
// value of a normalized field is (-1)^sign * 0.F(hex) * 16^(exp-64).
//
// IEEEToIBM is exact for finite in-range values (the 56-bit fraction holds
// every 53-bit IEEE significand), so ibm->ieee->ibm and ieee->ibm->ieee
// round trips stay within a relative error of 2^-52; callers comparing
// round-tripped values use tolerance, not bit equality.

// IEEEToIBM converts a host float64 to the 8-byte transport representation.
// Values above the transport exponent range return ErrOverflow; non-zero
// values below it return ErrUnderflowToZero. Neither is silently clamped.
func IEEEToIBM(x float64) ([8]byte, error) {
	var b [8]byte
	if x == 0 {
		return b, nil
	}
	bits := math.Float64bits(x)
	sign := bits >> 63
	exp := int((bits >> 52) & 0x7FF)
	frac := bits & 0x000FFFFFFFFFFFFF

	switch exp {
	case 0x7FF:
		return b, &NumericError{Record: -1, Value: x, Err: fmt.Errorf("not a finite number: %w", ErrOverflow)}
	case 0:
		// Subnormals sit far below 16^-65 and cannot be represented.
		return b, &NumericError{Record: -1, Value: x, Err: ErrUnderflowToZero}
	}

	// x = mant * 2^(unbiased-52) with mant in [2^52, 2^53). Align the binary
	// exponent to a multiple of 4 so the fraction becomes a base-16 digit
	// string: F = mant << s with s in 0..3, x = F * 16^(e-64) / 2^56.
	unbiased := exp - 1023
	mant := frac | (1 << 52)
	s := ((unbiased % 4) + 4) % 4
	e := (unbiased + 260 - s) / 4

	if e > 0x7F {
		return b, &NumericError{Record: -1, Value: x, Err: ErrOverflow}
	}
	if e < 0 {
		return b, &NumericError{Record: -1, Value: x, Err: ErrUnderflowToZero}
	}

	f := mant << uint(s)
	b[0] = byte(sign<<7) | byte(e)
	for i := 0; i < 7; i++ {
		b[1+i] = byte(f >> uint(8*(6-i)))
	}
	return b, nil
}

// IBMToIEEE converts an 8-byte transport numeric field to a host float64.
// Missing-value sentinels must be filtered out first (DecodeField does this);
// here a zero fraction decodes as zero regardless of the exponent byte.
// Rounding of fractions wider than 53 significant bits is round-to-nearest.
func IBMToIEEE(b [8]byte) float64 {
	var f uint64
	for i := 0; i < 7; i++ {
		f = f<<8 | uint64(b[1+i])
	}
	if f == 0 {
		return 0
	}
	e := int(b[0] & 0x7F)
	v := math.Ldexp(float64(f), 4*(e-64)-56)
	if b[0]&0x80 != 0 {
		return -v
	}
	return v
}

// DecodeField decodes one 8-byte numeric field, giving missing sentinels
// priority over numeric interpretation. Exactly one of the two returns is
// meaningful: (code, true) for a sentinel, (value, false) otherwise.
func DecodeField(b [8]byte) (float64, MissingCode, bool, error) {
	code, ok, err := DecodeMissing(b)
	if err != nil {
		return 0, 0, false, err
	}
	if ok {
		return 0, code, true, nil
	}
	return IBMToIEEE(b), 0, false, nil
}
