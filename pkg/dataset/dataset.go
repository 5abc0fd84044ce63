// Package dataset holds the typed description of a transport dataset: the
// column schema, the row values, and the missing-value variants. It is the
// boundary type handed to the reader/writer engine; the engine never infers
// schema and the description is immutable during a read or write pass.
package dataset

import (
	"fmt"

	"github.com/trialdata/xportio/pkg/codec"
)

// ColumnKind distinguishes the two variable types of the transport format.
type ColumnKind int

const (
	// Numeric columns always occupy 8 bytes in an observation record.
	Numeric ColumnKind = iota + 1
	// Character columns have a fixed byte width declared per column.
	Character
)

func (k ColumnKind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Character:
		return "character"
	default:
		return "unknown"
	}
}

// VarFormat names a display format or informat attached to a column.
type VarFormat struct {
	Name     string
	Width    int
	Decimals int
}

// Column describes one variable of a dataset.
type Column struct {
	Name     string
	Label    string
	Kind     ColumnKind
	Length   int // byte width in the observation record; 8 for numeric
	Format   VarFormat
	Informat VarFormat
}

// NumericFieldLength is the fixed observation width of a numeric column.
const NumericFieldLength = 8

// Dataset is a named, labeled, ordered collection of columns. Rows are not
// part of the description; they stream through the engine one at a time.
type Dataset struct {
	Name    string
	Label   string
	Version codec.Version
	Columns []Column
}

// RecordLength returns the byte width of one observation record: the sum of
// the column widths in ordinal order.
func (d *Dataset) RecordLength() int {
	total := 0
	for _, c := range d.Columns {
		total += c.Length
	}
	return total
}

// Validate checks the description against its version's limits. It is called
// eagerly by the writer before any bytes are emitted, so a caller never ends
// up with a partially written, non-conformant file.
func (d *Dataset) Validate() error {
	if !d.Version.Valid() {
		return fmt.Errorf("%w: %d", codec.ErrBadVersion, int(d.Version))
	}
	lim := d.Version.Limits()
	if d.Name == "" {
		return &codec.ValidationError{Field: "name", Limit: lim.MaxNameLen, Got: 0, Err: codec.ErrNameTooLong}
	}
	if len(d.Name) > lim.MaxNameLen {
		return &codec.ValidationError{Field: "name", Limit: lim.MaxNameLen, Got: len(d.Name), Err: codec.ErrNameTooLong}
	}
	if len(d.Label) > lim.MemberLabel {
		return &codec.ValidationError{Field: "label", Limit: lim.MemberLabel, Got: len(d.Label), Err: codec.ErrLabelTooLong}
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("dataset %q has no columns", d.Name)
	}
	if len(d.Columns) > lim.MaxFields {
		return &codec.ValidationError{Field: "columns", Limit: lim.MaxFields, Got: len(d.Columns), Err: codec.ErrTooManyFields}
	}

	seen := make(map[string]struct{}, len(d.Columns))
	for i, c := range d.Columns {
		if c.Name == "" {
			return &codec.ValidationError{Column: fmt.Sprintf("#%d", i+1), Field: "name", Limit: lim.MaxNameLen, Got: 0, Err: codec.ErrNameTooLong}
		}
		if len(c.Name) > lim.MaxNameLen {
			return &codec.ValidationError{Column: c.Name, Field: "name", Limit: lim.MaxNameLen, Got: len(c.Name), Err: codec.ErrNameTooLong}
		}
		if len(c.Label) > lim.MaxLabelLen {
			return &codec.ValidationError{Column: c.Name, Field: "label", Limit: lim.MaxLabelLen, Got: len(c.Label), Err: codec.ErrLabelTooLong}
		}
		key := c.Name
		if lim.UpperNames {
			key = upperASCII(key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate column name %q in dataset %q", c.Name, d.Name)
		}
		seen[key] = struct{}{}

		switch c.Kind {
		case Numeric:
			if c.Length != NumericFieldLength {
				return &codec.ValidationError{Column: c.Name, Field: "length", Limit: NumericFieldLength, Got: c.Length, Err: codec.ErrFieldWidthExceeded}
			}
		case Character:
			if c.Length < 1 || c.Length > lim.MaxFieldLen {
				return &codec.ValidationError{Column: c.Name, Field: "length", Limit: lim.MaxFieldLen, Got: c.Length, Err: codec.ErrFieldWidthExceeded}
			}
		default:
			return fmt.Errorf("column %q has unknown kind %d", c.Name, int(c.Kind))
		}
	}
	return nil
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if ch >= 'a' && ch <= 'z' {
			b[i] = ch - ('a' - 'A')
		}
	}
	return string(b)
}
