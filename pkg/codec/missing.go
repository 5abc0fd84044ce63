package codec

import "fmt"

// MissingCode identifies one of the 28 missing-value sentinels a numeric
// field can carry instead of a number. The underlying byte is the sentinel
// character as it appears on the wire: '.' for the standard missing value,
// '_' for the underscore variant, and 'A'..'Z' for the special codes.
type MissingCode byte

const (
	MissingStandard   MissingCode = '.'
	MissingUnderscore MissingCode = '_'
)

// SpecialMissing returns the MissingCode for one of the 26 lettered missing
// values. Lowercase letters are accepted and normalized.
func SpecialMissing(letter byte) (MissingCode, error) {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'Z' {
		return 0, fmt.Errorf("special missing value must be a letter, got %q: %w", letter, ErrUnsupportedMissing)
	}
	return MissingCode(letter), nil
}

// Valid reports whether c is one of the 28 defined codes.
func (c MissingCode) Valid() bool {
	return c == MissingStandard || c == MissingUnderscore || (c >= 'A' && c <= 'Z')
}

// String renders the code the way it is written in source datasets:
// "." for standard, "._" for underscore, ".A".."." + letter for specials.
func (c MissingCode) String() string {
	switch {
	case c == MissingStandard:
		return "."
	case c == MissingUnderscore:
		return "._"
	case c >= 'A' && c <= 'Z':
		return "." + string(rune(c))
	default:
		return fmt.Sprintf("invalid missing code 0x%02X", byte(c))
	}
}

// EncodeMissing returns the 8-byte field pattern for a missing value: the
// sentinel byte followed by seven zero bytes.
func EncodeMissing(c MissingCode) ([8]byte, error) {
	var b [8]byte
	if !c.Valid() {
		return b, fmt.Errorf("encode missing: 0x%02X: %w", byte(c), ErrUnsupportedMissing)
	}
	b[0] = byte(c)
	return b, nil
}

// DecodeMissing inspects an 8-byte numeric field and reports whether it is a
// missing-value sentinel. A first byte in the sentinel range with the
// remaining seven bytes zero is a sentinel; a byte in that range that is not
// one of the 28 defined codes is an error. Fields that are not sentinels are
// left for the numeric converter.
func DecodeMissing(b [8]byte) (MissingCode, bool, error) {
	for _, tail := range b[1:] {
		if tail != 0 {
			return 0, false, nil
		}
	}
	first := b[0]
	if first != byte(MissingStandard) && (first < 'A' || first > byte(MissingUnderscore)) {
		return 0, false, nil
	}
	c := MissingCode(first)
	if !c.Valid() {
		return 0, false, fmt.Errorf("decode missing: 0x%02X: %w", first, ErrUnsupportedMissing)
	}
	return c, true, nil
}
