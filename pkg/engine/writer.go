package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/trialdata/xportio/pkg/codec"
	"github.com/trialdata/xportio/pkg/dataset"
)

// Writer encodes one transport file onto an underlying byte stream. The
// dataset description is validated against its version's limits before a
// single byte is emitted; rows then stream through one observation at a
// time. Close pads the final observation block and flushes. A session
// abandoned before Close leaves a trailing partial block that downstream
// consumers must not treat as a valid file.
type Writer struct {
	bw        *bufio.Writer
	ds        *dataset.Dataset
	recLen    int
	rows      int64
	dataBytes int64
	closed    bool
	pad       byte
	cfg       WriterConfig
}

// NewWriter validates ds and writes the header, namestr and observation
// header regions to w. Timestamps default to the current time when created
// and modified are unset.
func NewWriter(w io.Writer, ds *dataset.Dataset, cfg WriterConfig) (*Writer, error) {
	cfg = cfg.withDefaults()
	pad := cfg.Pad.padByte()
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	now := cfg.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	lib := codec.LibraryInfo{SASVersion: cfg.SASVersion, OS: cfg.OS, Created: now, Modified: now}
	mem := codec.MemberInfo{
		Name:       ds.Name,
		Label:      ds.Label,
		Type:       cfg.Type,
		SASVersion: cfg.SASVersion,
		OS:         cfg.OS,
		Created:    now,
		Modified:   now,
	}

	headers, err := codec.EncodeHeaders(ds.Version, lib, mem)
	if err != nil {
		return nil, err
	}

	var nsBlock bytes.Buffer
	pos := 0
	for i, col := range ds.Columns {
		ns := namestrFromColumn(col, i+1, pos)
		rec, err := codec.EncodeNamestr(ns, ds.Version)
		if err != nil {
			return nil, err
		}
		nsBlock.Write(rec)
		pos += col.Length
	}
	padTo := codec.RoundToBlock(nsBlock.Len())
	for nsBlock.Len() < padTo {
		nsBlock.WriteByte(pad)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(headers); err != nil {
		return nil, err
	}
	if _, err := bw.Write(codec.EncodeNamestrHeader(ds.Version, len(ds.Columns))); err != nil {
		return nil, err
	}
	if _, err := bw.Write(nsBlock.Bytes()); err != nil {
		return nil, err
	}
	recLen := ds.RecordLength()
	if _, err := bw.Write(codec.EncodeObservationHeader(ds.Version, recLen)); err != nil {
		return nil, err
	}

	return &Writer{bw: bw, ds: ds, recLen: recLen, pad: pad, cfg: cfg}, nil
}

func namestrFromColumn(col dataset.Column, number, pos int) codec.Namestr {
	typ := codec.NamestrNumeric
	if col.Kind == dataset.Character {
		typ = codec.NamestrCharacter
	}
	return codec.Namestr{
		Type:     typ,
		Length:   int16(col.Length),
		Number:   int16(number),
		Name:     col.Name,
		Label:    col.Label,
		Format:   codec.FormatSpec{Name: col.Format.Name, Width: int16(col.Format.Width), Decimals: int16(col.Format.Decimals)},
		Informat: codec.FormatSpec{Name: col.Informat.Name, Width: int16(col.Informat.Width), Decimals: int16(col.Informat.Decimals)},
		Position: int32(pos),
	}
}

// WriteRow encodes one observation. Values must match the column kinds and
// widths exactly; the first violation fails the session without emitting the
// offending record.
func (w *Writer) WriteRow(row dataset.Row) error {
	if w.closed {
		return errors.New("write after close")
	}
	if len(row) != len(w.ds.Columns) {
		return fmt.Errorf("row has %d values, dataset has %d columns", len(row), len(w.ds.Columns))
	}

	record := make([]byte, 0, w.recLen)
	for i, col := range w.ds.Columns {
		field, err := w.encodeField(row[i], col)
		if err != nil {
			return err
		}
		record = append(record, field...)
	}

	if _, err := w.bw.Write(record); err != nil {
		return err
	}
	w.rows++
	w.dataBytes += int64(w.recLen)
	if w.cfg.Progress != nil {
		w.cfg.Progress(w.rows, w.dataBytes)
	}
	return nil
}

func (w *Writer) encodeField(v dataset.Value, col dataset.Column) ([]byte, error) {
	switch col.Kind {
	case dataset.Numeric:
		switch v.Kind() {
		case dataset.KindNumber:
			f, _ := v.Float()
			b, err := codec.IEEEToIBM(f)
			if err != nil {
				var ne *codec.NumericError
				if errors.As(err, &ne) {
					ne.Column = col.Name
					ne.Record = w.rows
				}
				return nil, err
			}
			return b[:], nil
		case dataset.KindMissing:
			code, _ := v.MissingCode()
			b, err := codec.EncodeMissing(code)
			if err != nil {
				return nil, fmt.Errorf("column %q record %d: %w", col.Name, w.rows, err)
			}
			return b[:], nil
		default:
			return nil, fmt.Errorf("column %q record %d: %s value in numeric column", col.Name, w.rows, kindName(v.Kind()))
		}
	case dataset.Character:
		s, ok := v.Str()
		if !ok {
			// Character columns have no missing sentinel; absence is the
			// all-pad empty string.
			return nil, fmt.Errorf("column %q record %d: %s value in character column", col.Name, w.rows, kindName(v.Kind()))
		}
		if len(s) > col.Length {
			return nil, &codec.ValidationError{Column: col.Name, Field: "value", Limit: col.Length, Got: len(s), Err: codec.ErrValueTooWide}
		}
		for j := 0; j < len(s); j++ {
			if s[j] >= 0x80 {
				return nil, &codec.ValidationError{Column: col.Name, Field: "value", Limit: 0x7F, Got: int(s[j]), Err: codec.ErrNonASCII}
			}
		}
		field := make([]byte, col.Length)
		copy(field, s)
		for j := len(s); j < col.Length; j++ {
			field[j] = w.pad
		}
		return field, nil
	default:
		return nil, fmt.Errorf("column %q has unknown kind", col.Name)
	}
}

func kindName(k dataset.ValueKind) string {
	switch k {
	case dataset.KindNumber:
		return "numeric"
	case dataset.KindMissing:
		return "missing"
	case dataset.KindText:
		return "character"
	default:
		return "invalid"
	}
}

// WriteAll drains a pull-based row source through the writer.
func (w *Writer) WriteAll(src RowSource) error {
	for {
		row, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
}

// RowsWritten returns the number of observations encoded so far.
func (w *Writer) RowsWritten() int64 { return w.rows }

// Close pads the data region to the 80-byte block boundary and flushes the
// buffer. Files of this format are always composed of whole blocks. Close
// does not close the underlying stream; the caller owns it.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if rem := int(w.dataBytes % codec.BlockSize); rem != 0 {
		pad := bytes.Repeat([]byte{w.pad}, codec.BlockSize-rem)
		if _, err := w.bw.Write(pad); err != nil {
			return err
		}
	}
	return w.bw.Flush()
}
