package dataset

import (
	"fmt"

	"github.com/trialdata/xportio/pkg/codec"
)

// ValueKind tags the variants of Value.
type ValueKind int

const (
	KindNumber ValueKind = iota + 1
	KindMissing
	KindText
)

// Value is one field of a row: a number, a missing-value code, or text.
// Missing codes apply only to numeric columns; a character column carries an
// empty Text value instead. Trailing pad characters are stripped on decode
// and re-applied on encode, so Text never carries its own padding.
type Value struct {
	kind ValueKind
	num  float64
	code codec.MissingCode
	text string
}

// Number makes a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Missing makes a missing value with the given code.
func Missing(code codec.MissingCode) Value { return Value{kind: KindMissing, code: code} }

// Text makes a character value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Kind reports which variant the value carries. The zero Value has kind 0
// and is not valid in a row.
func (v Value) Kind() ValueKind { return v.kind }

// Float returns the numeric payload; ok is false for other variants.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// MissingCode returns the missing code; ok is false for other variants.
func (v Value) MissingCode() (codec.MissingCode, bool) { return v.code, v.kind == KindMissing }

// Str returns the text payload; ok is false for other variants.
func (v Value) Str() (string, bool) { return v.text, v.kind == KindText }

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	case KindMissing:
		return v.code.String()
	case KindText:
		return v.text
	default:
		return "<invalid>"
	}
}

// Equal compares two values exactly: numbers bit-for-bit, missing codes and
// text verbatim.
func (v Value) Equal(o Value) bool { return v == o }

// Row is an ordered sequence of values, one per column, in ordinal order.
// Rows are transient: produced and consumed one at a time by the streaming
// adapter and never retained by the codec.
type Row []Value
