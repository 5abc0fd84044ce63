package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors for the codec. Callers match these with errors.Is; the
// wrapper types below add positional context without hiding the sentinel.
var (
	ErrBadMagic             = errors.New("unrecognized header record signature")
	ErrTruncated            = errors.New("truncated record")
	ErrRecordLengthMismatch = errors.New("declared record length does not match variable widths")
	ErrBadVersion           = errors.New("unsupported transport version")

	ErrNameTooLong        = errors.New("name exceeds version limit")
	ErrLabelTooLong       = errors.New("label exceeds version limit")
	ErrFieldWidthExceeded = errors.New("character field width exceeds version limit")
	ErrTooManyFields      = errors.New("variable count exceeds the namestr header field")
	ErrHeaderFieldTooLong = errors.New("header metadata field exceeds its record slot")
	ErrValueTooWide       = errors.New("value does not fit the column width")
	ErrNonASCII           = errors.New("text contains non-ASCII bytes")

	ErrOverflow           = errors.New("value overflows the transport numeric range")
	ErrUnderflowToZero    = errors.New("value underflows to zero in the transport numeric range")
	ErrUnsupportedMissing = errors.New("sentinel byte is not a defined missing value code")
)

// FormatError reports malformed or truncated structural data. It is fatal to
// the session that produced it and is never retried internally.
type FormatError struct {
	Offset int64  // byte offset of the offending record, -1 if unknown
	Record int64  // observation index, -1 if not in the data region
	Detail string // human-readable description
	Err    error  // underlying sentinel error
}

func (e *FormatError) Error() string {
	msg := e.Detail
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Record >= 0:
		return fmt.Sprintf("transport format error at offset %d (record %d): %s", e.Offset, e.Record, msg)
	case e.Offset >= 0:
		return fmt.Sprintf("transport format error at offset %d: %s", e.Offset, msg)
	default:
		return fmt.Sprintf("transport format error: %s", msg)
	}
}

func (e *FormatError) Unwrap() error { return e.Err }

// formatErr builds a FormatError without positional context; the engine
// decorates offsets and record indexes where it has them.
func formatErr(err error, detail string, args ...interface{}) *FormatError {
	return &FormatError{
		Offset: -1,
		Record: -1,
		Detail: fmt.Sprintf(detail, args...),
		Err:    err,
	}
}

// ValidationError reports a dataset or column description that violates the
// active version's limits. It is raised eagerly during write validation,
// before any bytes are emitted.
type ValidationError struct {
	Column string // column name, empty for dataset-level fields
	Field  string // which attribute failed ("name", "label", "length", ...)
	Limit  int
	Got    int
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("dataset %s: %v (limit %d, got %d)", e.Field, e.Err, e.Limit, e.Got)
	}
	return fmt.Sprintf("column %q %s: %v (limit %d, got %d)", e.Column, e.Field, e.Err, e.Limit, e.Got)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NumericError reports a value that cannot be represented in the transport
// numeric encoding. Row and column context are filled in by the engine.
type NumericError struct {
	Column string
	Record int64
	Value  float64
	Err    error
}

func (e *NumericError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("numeric value %g: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("column %q record %d: numeric value %g: %v", e.Column, e.Record, e.Value, e.Err)
}

func (e *NumericError) Unwrap() error { return e.Err }
