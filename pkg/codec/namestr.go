package codec

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Variable types carried in the namestr type tag.
const (
	NamestrNumeric   int16 = 1
	NamestrCharacter int16 = 2
)

const (
	namestrSizeV5 = 140
	namestrSizeV8 = 360
)

// Namestr is one decoded variable-descriptor record. All integer fields are
// big-endian on the wire; textual fields are space-padded.
type Namestr struct {
	Type     int16 // NamestrNumeric or NamestrCharacter
	Hash     int16 // reserved, always 0
	Length   int16 // field width in the observation record
	Number   int16 // 1-based ordinal position
	Name     string
	Label    string
	Format   FormatSpec
	Justify  int16 // 0 left, 1 right (display format justification)
	Informat FormatSpec
	Position int32 // byte offset of the field within an observation record
}

// FormatSpec describes a display format or informat attached to a variable.
type FormatSpec struct {
	Name     string
	Width    int16
	Decimals int16
}

// EncodeNamestr renders one variable-descriptor record at the fixed size the
// version prescribes. Name and label limits are enforced against the active
// version; the record never silently truncates.
func EncodeNamestr(n Namestr, v Version) ([]byte, error) {
	lim := v.Limits()
	if lim.NamestrSize == 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, int(v))
	}
	if len(n.Name) > lim.MaxNameLen {
		return nil, &ValidationError{Column: n.Name, Field: "name", Limit: lim.MaxNameLen, Got: len(n.Name), Err: ErrNameTooLong}
	}
	if len(n.Label) > lim.MaxLabelLen {
		return nil, &ValidationError{Column: n.Name, Field: "label", Limit: lim.MaxLabelLen, Got: len(n.Label), Err: ErrLabelTooLong}
	}
	name := n.Name
	if lim.UpperNames {
		name = strings.ToUpper(name)
	}

	b := make([]byte, lim.NamestrSize)
	for i := range b {
		b[i] = PadByte
	}
	putInt16 := func(off int, x int16) { binary.BigEndian.PutUint16(b[off:], uint16(x)) }
	putText := func(off, width int, s string) { copy(b[off:off+width], padField(s, width)) }

	putInt16(0, n.Type)
	putInt16(2, n.Hash)
	putInt16(4, n.Length)
	putInt16(6, n.Number)

	off := 8
	putText(off, lim.MaxNameLen, name)
	off += lim.MaxNameLen
	putText(off, lim.MaxLabelLen, n.Label)
	off += lim.MaxLabelLen

	putText(off, 8, n.Format.Name)
	putInt16(off+8, n.Format.Width)
	putInt16(off+10, n.Format.Decimals)
	putInt16(off+12, n.Justify)
	putInt16(off+14, 0) // fill
	putText(off+16, 8, n.Informat.Name)
	putInt16(off+24, n.Informat.Width)
	putInt16(off+26, n.Informat.Decimals)
	binary.BigEndian.PutUint32(b[off+28:], uint32(n.Position))
	return b, nil
}

// DecodeNamestr parses one variable-descriptor record of the version's fixed
// size. Trailing pad is ignored.
func DecodeNamestr(b []byte, v Version) (Namestr, error) {
	var n Namestr
	lim := v.Limits()
	if lim.NamestrSize == 0 {
		return n, fmt.Errorf("%w: %d", ErrBadVersion, int(v))
	}
	if len(b) < lim.NamestrSize {
		return n, formatErr(ErrTruncated, "namestr record needs %d bytes, have %d", lim.NamestrSize, len(b))
	}

	n.Type = int16(binary.BigEndian.Uint16(b[0:]))
	n.Hash = int16(binary.BigEndian.Uint16(b[2:]))
	n.Length = int16(binary.BigEndian.Uint16(b[4:]))
	n.Number = int16(binary.BigEndian.Uint16(b[6:]))
	if n.Type != NamestrNumeric && n.Type != NamestrCharacter {
		return n, formatErr(ErrBadMagic, "namestr type tag %d is neither numeric nor character", n.Type)
	}

	off := 8
	n.Name = trimField(b[off : off+lim.MaxNameLen])
	off += lim.MaxNameLen
	n.Label = trimField(b[off : off+lim.MaxLabelLen])
	off += lim.MaxLabelLen

	n.Format.Name = trimField(b[off : off+8])
	n.Format.Width = int16(binary.BigEndian.Uint16(b[off+8:]))
	n.Format.Decimals = int16(binary.BigEndian.Uint16(b[off+10:]))
	n.Justify = int16(binary.BigEndian.Uint16(b[off+12:]))
	n.Informat.Name = trimField(b[off+16 : off+24])
	n.Informat.Width = int16(binary.BigEndian.Uint16(b[off+24:]))
	n.Informat.Decimals = int16(binary.BigEndian.Uint16(b[off+26:]))
	n.Position = int32(binary.BigEndian.Uint32(b[off+28:]))
	return n, nil
}

// NamestrBlockSize returns the size of the whole namestr region for count
// variables, rounded up to the 80-byte block boundary.
func NamestrBlockSize(count int, v Version) int {
	return RoundToBlock(count * v.Limits().NamestrSize)
}

// RoundToBlock rounds n up to the next multiple of the 80-byte block size.
func RoundToBlock(n int) int {
	if rem := n % BlockSize; rem != 0 {
		return n + BlockSize - rem
	}
	return n
}
