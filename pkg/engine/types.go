// Package engine orchestrates the record-level codecs into whole-dataset
// read and write sessions over caller-supplied byte streams. A session owns
// its stream exclusively for its lifetime, runs synchronously on the calling
// goroutine, and either fully succeeds or fails at the first detected
// problem; independent sessions on independent streams are safe to run
// concurrently.
package engine

import (
	"io"
	"time"

	"github.com/trialdata/xportio/pkg/dataset"
)

// ProgressFunc reports read/write progress: rows processed so far and bytes
// consumed or produced in the data region. The engine has no scheduling
// model of its own; a caller driving a large pass from a worker task hooks
// this to keep a front end responsive.
type ProgressFunc func(rows, bytes int64)

// ReaderConfig holds configuration for a read session.
type ReaderConfig struct {
	Progress ProgressFunc // optional, called after each decoded row
}

// WriterConfig holds configuration for a write session.
type WriterConfig struct {
	// SASVersion and OS stamp the library and member header records.
	SASVersion string // default "9.4"
	OS         string // default "LINUX"

	// Type is the member type field, "DATA" by default.
	Type string

	// Pad selects the byte used for character fields and trailing blocks.
	// ASCII space by default; NUL can be substituted where a receiving
	// system requires it.
	Pad PadMode

	// Timestamp stamps the created/modified header fields. The current
	// time is used when zero; set it for reproducible output.
	Timestamp time.Time

	Progress ProgressFunc // optional, called after each encoded row
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.SASVersion == "" {
		c.SASVersion = "9.4"
	}
	if c.OS == "" {
		c.OS = "LINUX"
	}
	if c.Type == "" {
		c.Type = "DATA"
	}
	return c
}

// PadMode selects the writer's padding byte.
type PadMode int

const (
	PadSpace PadMode = iota
	PadNUL
)

func (m PadMode) padByte() byte {
	if m == PadNUL {
		return 0x00
	}
	return ' '
}

// RowIterator provides streaming, forward-only access to decoded rows.
type RowIterator interface {
	// Next advances to the next row, returning false at the end of the
	// data region or on error; Err distinguishes the two.
	Next() bool
	Row() dataset.Row
	Err() error
	Close() error
}

// RowSource is the pull-based row supplier consumed by Writer.WriteAll.
// Next returns io.EOF after the last row.
type RowSource interface {
	Next() (dataset.Row, error)
}

// SliceSource adapts an in-memory row slice to a RowSource.
type SliceSource struct {
	rows []dataset.Row
	pos  int
}

// NewSliceSource wraps rows in a RowSource.
func NewSliceSource(rows []dataset.Row) *SliceSource {
	return &SliceSource{rows: rows}
}

func (s *SliceSource) Next() (dataset.Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}
