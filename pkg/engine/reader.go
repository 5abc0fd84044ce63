package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/trialdata/xportio/pkg/codec"
	"github.com/trialdata/xportio/pkg/dataset"
)

// Reader decodes one transport file from an underlying byte stream. The
// constructor consumes the header and namestr regions eagerly; rows are then
// decoded one observation at a time, so memory stays bounded by the record
// length, not the file size.
type Reader struct {
	src        io.Reader
	br         *bufio.Reader
	ds         *dataset.Dataset
	lib        codec.LibraryInfo
	mem        codec.MemberInfo
	namestrs   []codec.Namestr
	recLen     int
	dataOffset int64
	offset     int64
	rows       int64
	dataBytes  int64
	done       bool
	rowBuf     []byte
	cfg        ReaderConfig
}

// NewReader parses the headers and variable descriptors from r and validates
// that the namestr-declared column widths sum to the declared observation
// record length. Stream I/O failures are returned unwrapped; structural
// problems come back as *codec.FormatError.
func NewReader(r io.Reader, cfg ReaderConfig) (*Reader, error) {
	rd := &Reader{src: r, br: bufio.NewReader(r), cfg: cfg}

	libBlock, err := rd.readExact(codec.LibrarySize, "library header")
	if err != nil {
		return nil, err
	}
	version, lib, err := codec.DecodeLibrary(libBlock)
	if err != nil {
		return nil, at(err, 0)
	}
	memberOffset := rd.offset
	memBlock, err := rd.readExact(codec.MemberSize(version), "member header")
	if err != nil {
		return nil, err
	}
	mem, err := codec.DecodeMember(memBlock, version)
	if err != nil {
		return nil, at(err, memberOffset)
	}

	nsHeaderOffset := rd.offset
	nsHeader, err := rd.readExact(codec.BlockSize, "namestr header")
	if err != nil {
		return nil, err
	}
	count, err := codec.DecodeNamestrHeader(nsHeader, version)
	if err != nil {
		return nil, at(err, nsHeaderOffset)
	}
	if count < 1 {
		return nil, &codec.FormatError{Offset: nsHeaderOffset, Record: -1, Err: codec.ErrBadMagic,
			Detail: fmt.Sprintf("namestr header declares %d variables", count)}
	}

	nsOffset := rd.offset
	nsBlock, err := rd.readExact(codec.NamestrBlockSize(count, version), "namestr block")
	if err != nil {
		return nil, err
	}
	size := version.Limits().NamestrSize
	namestrs := make([]codec.Namestr, count)
	columns := make([]dataset.Column, count)
	widthSum := 0
	for i := 0; i < count; i++ {
		ns, err := codec.DecodeNamestr(nsBlock[i*size:], version)
		if err != nil {
			return nil, at(err, nsOffset+int64(i*size))
		}
		if int(ns.Position) != widthSum {
			return nil, &codec.FormatError{Offset: nsOffset + int64(i*size), Record: -1,
				Err:    codec.ErrRecordLengthMismatch,
				Detail: fmt.Sprintf("variable %q declares position %d, widths so far sum to %d", ns.Name, ns.Position, widthSum)}
		}
		namestrs[i] = ns
		columns[i] = columnFromNamestr(ns)
		widthSum += int(ns.Length)
	}

	obsOffset := rd.offset
	obsHeader, err := rd.readExact(codec.BlockSize, "observation header")
	if err != nil {
		return nil, err
	}
	recLen, err := codec.DecodeObservationHeader(obsHeader, version)
	if err != nil {
		return nil, at(err, obsOffset)
	}
	if recLen != widthSum {
		return nil, &codec.FormatError{Offset: obsOffset, Record: -1,
			Err:    codec.ErrRecordLengthMismatch,
			Detail: fmt.Sprintf("observation header declares %d bytes per record, variable widths sum to %d", recLen, widthSum)}
	}

	rd.ds = &dataset.Dataset{Name: mem.Name, Label: mem.Label, Version: version, Columns: columns}
	rd.lib = lib
	rd.mem = mem
	rd.namestrs = namestrs
	rd.recLen = recLen
	rd.dataOffset = rd.offset
	rd.rowBuf = make([]byte, recLen)
	return rd, nil
}

func columnFromNamestr(ns codec.Namestr) dataset.Column {
	kind := dataset.Numeric
	if ns.Type == codec.NamestrCharacter {
		kind = dataset.Character
	}
	return dataset.Column{
		Name:     ns.Name,
		Label:    ns.Label,
		Kind:     kind,
		Length:   int(ns.Length),
		Format:   dataset.VarFormat{Name: ns.Format.Name, Width: int(ns.Format.Width), Decimals: int(ns.Format.Decimals)},
		Informat: dataset.VarFormat{Name: ns.Informat.Name, Width: int(ns.Informat.Width), Decimals: int(ns.Informat.Decimals)},
	}
}

// Dataset returns the description parsed from the header and namestr
// regions. It is immutable for the lifetime of the session.
func (r *Reader) Dataset() *dataset.Dataset { return r.ds }

// Library returns the library-level metadata.
func (r *Reader) Library() codec.LibraryInfo { return r.lib }

// Member returns the member-level metadata.
func (r *Reader) Member() codec.MemberInfo { return r.mem }

// Namestrs returns the raw variable descriptors in file order.
func (r *Reader) Namestrs() []codec.Namestr { return r.namestrs }

// RecordLength returns the validated observation record length.
func (r *Reader) RecordLength() int { return r.recLen }

// DataOffset returns the byte offset of the first observation record. A
// caller holding an io.ReadSeeker can seek here to restart row decoding.
func (r *Reader) DataOffset() int64 { return r.dataOffset }

// RowsRead returns the number of rows decoded so far in this pass.
func (r *Reader) RowsRead() int64 { return r.rows }

// Next decodes the next observation record, returning io.EOF after the last
// row. Trailing block padding is recognized and consumed, never surfaced as
// a row.
func (r *Reader) Next() (dataset.Row, error) {
	if r.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(r.br, r.rowBuf)
	r.offset += int64(n)
	switch {
	case err == io.EOF:
		r.done = true
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		if isPad(r.rowBuf[:n]) && n < codec.BlockSize {
			r.done = true
			return nil, io.EOF
		}
		r.done = true
		return nil, &codec.FormatError{Offset: r.offset - int64(n), Record: r.rows,
			Err: codec.ErrTruncated, Detail: fmt.Sprintf("observation record cut short at %d of %d bytes", n, r.recLen)}
	case err != nil:
		return nil, err
	}

	// A record narrower than one block that is entirely pad may be the
	// trailing padding of the final block rather than an all-blank row.
	// The format cannot distinguish the two; the convention here, shared
	// with other readers of this format, is that an all-pad tail shorter
	// than one block is padding.
	if r.recLen < codec.BlockSize && isPad(r.rowBuf) {
		rest, peekErr := r.br.Peek(codec.BlockSize)
		if peekErr == io.EOF && isPad(rest) && r.recLen+len(rest) < codec.BlockSize {
			r.br.Discard(len(rest))
			r.offset += int64(len(rest))
			r.done = true
			return nil, io.EOF
		}
	}

	row, err := r.decodeRow(r.rowBuf)
	if err != nil {
		r.done = true
		return nil, err
	}
	r.rows++
	r.dataBytes += int64(r.recLen)
	if r.cfg.Progress != nil {
		r.cfg.Progress(r.rows, r.dataBytes)
	}
	return row, nil
}

func (r *Reader) decodeRow(buf []byte) (dataset.Row, error) {
	row := make(dataset.Row, len(r.ds.Columns))
	pos := 0
	for i, col := range r.ds.Columns {
		field := buf[pos : pos+col.Length]
		if col.Kind == dataset.Numeric {
			var fb [8]byte
			copy(fb[:], field)
			v, code, missing, err := codec.DecodeField(fb)
			if err != nil {
				return nil, &codec.FormatError{Offset: r.offset - int64(r.recLen) + int64(pos), Record: r.rows,
					Err: err, Detail: fmt.Sprintf("column %q: %v", col.Name, err)}
			}
			if missing {
				row[i] = dataset.Missing(code)
			} else {
				row[i] = dataset.Number(v)
			}
		} else {
			row[i] = dataset.Text(trimPad(field))
		}
		pos += col.Length
	}
	return row, nil
}

// Rows returns a streaming iterator over the remaining observations. The
// iterator does not own the reader; closing it leaves the session open.
func (r *Reader) Rows() RowIterator {
	return &rowIterator{reader: r}
}

// Restart rewinds the session to the start of the data region. It requires
// the underlying stream to be an io.Seeker; a forward-only stream cannot be
// restarted mid-pass.
func (r *Reader) Restart() error {
	seeker, ok := r.src.(io.Seeker)
	if !ok {
		return errors.New("restart requires a seekable stream")
	}
	if _, err := seeker.Seek(r.dataOffset, io.SeekStart); err != nil {
		return err
	}
	r.br.Reset(r.src)
	r.offset = r.dataOffset
	r.rows = 0
	r.dataBytes = 0
	r.done = false
	return nil
}

// ReadAll decodes every remaining row. It exists for small files and tests;
// large files should use the iterator.
func (r *Reader) ReadAll() ([]dataset.Row, error) {
	var rows []dataset.Row
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func (r *Reader) readExact(n int, what string) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(r.br, buf)
	start := r.offset
	r.offset += int64(got)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, &codec.FormatError{Offset: start, Record: -1, Err: codec.ErrTruncated,
			Detail: fmt.Sprintf("%s needs %d bytes, stream ended after %d", what, n, got)}
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// at attaches a byte offset to a FormatError produced by the record codecs,
// which have no stream position of their own.
func at(err error, offset int64) error {
	var fe *codec.FormatError
	if errors.As(err, &fe) && fe.Offset < 0 {
		fe.Offset = offset
	}
	return err
}

// isPad reports whether b holds only pad bytes. Both ASCII space (the
// documented default) and NUL (the configurable alternative) count, since a
// reader cannot know which policy the producer used.
func isPad(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != 0 {
			return false
		}
	}
	return true
}

func trimPad(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}

type rowIterator struct {
	reader *Reader
	row    dataset.Row
	err    error
}

func (it *rowIterator) Next() bool {
	row, err := it.reader.Next()
	if err == io.EOF {
		return false
	}
	if err != nil {
		it.err = err
		return false
	}
	it.row = row
	return true
}

func (it *rowIterator) Row() dataset.Row { return it.row }

func (it *rowIterator) Err() error { return it.err }

func (it *rowIterator) Close() error {
	// The reader is owned by the caller; nothing to release here.
	return nil
}
