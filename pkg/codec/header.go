package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LibraryInfo carries the library-level metadata from the leading header
// blocks: the version of the producing system, its operating system name,
// and the library creation/modification timestamps.
type LibraryInfo struct {
	SASVersion string
	OS         string
	Created    time.Time
	Modified   time.Time
}

// MemberInfo carries the member-level (dataset-level) metadata: dataset name,
// label and type plus the producing system and timestamps.
type MemberInfo struct {
	Name       string
	Label      string
	Type       string
	SASVersion string
	OS         string
	Created    time.Time
	Modified   time.Time
}

const (
	// LibrarySize is the byte size of the library header block: the
	// identification record plus two library data records.
	LibrarySize = 3 * BlockSize

	memberSizeV5 = 4 * BlockSize
	memberSizeV8 = 4*BlockSize + 4*BlockSize // extra label region under V8

	timestampLayout = "02Jan06:15:04:05"
	timestampWidth  = 16
)

// MemberSize returns the byte size of the member header block for a version.
func MemberSize(v Version) int {
	if v == V8 {
		return memberSizeV8
	}
	return memberSizeV5
}

// formatTimestamp renders a timestamp in the fixed ddMMMyy:hh:mm:ss layout
// with an uppercase month. The zero time renders as a blank field.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return strings.Repeat(" ", timestampWidth)
	}
	return strings.ToUpper(t.Format(timestampLayout))
}

// parseTimestamp is the inverse of formatTimestamp. Blank fields decode as
// the zero time.
func parseTimestamp(b []byte) (time.Time, error) {
	s := strings.TrimRight(string(b), " ")
	if s == "" {
		return time.Time{}, nil
	}
	if len(s) != timestampWidth {
		return time.Time{}, formatErr(ErrTruncated, "timestamp %q is not %d characters", s, timestampWidth)
	}
	// The wire month is uppercase; Go's reference layout is title case.
	norm := s[:2] + strings.ToUpper(s[2:3]) + strings.ToLower(s[3:5]) + s[5:]
	t, err := time.Parse(timestampLayout, norm)
	if err != nil {
		return time.Time{}, formatErr(ErrTruncated, "bad timestamp %q: %v", s, err)
	}
	return t, nil
}

// padField space-pads s to width. The caller has already validated length.
func padField(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// checkHeaderField rejects metadata that would not fit its 8-byte record
// slot. Truncating here would silently alter what a reader gets back.
func checkHeaderField(field, s string) error {
	if len(s) > 8 {
		return &ValidationError{Field: field, Limit: 8, Got: len(s), Err: ErrHeaderFieldTooLong}
	}
	return nil
}

func trimField(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}

func parseSuffixInt(rec []byte, start, width int) (int, error) {
	n, err := strconv.Atoi(strings.TrimLeft(string(rec[start:start+width]), " "))
	if err != nil {
		return 0, formatErr(ErrBadMagic, "bad numeric field in header record: %v", err)
	}
	return n, nil
}

// EncodeLibrary writes the three-record library header block. The producing
// system and OS names must fit their 8-byte slots.
func EncodeLibrary(buf *bytes.Buffer, v Version, info LibraryInfo) error {
	if err := checkHeaderField("sas version", info.SASVersion); err != nil {
		return err
	}
	if err := checkHeaderField("os", info.OS); err != nil {
		return err
	}
	m := v.magics()
	buf.WriteString(m.library)
	buf.WriteString(strings.Repeat("0", 30) + "  ")

	buf.WriteString(padField("SAS", 8))
	buf.WriteString(padField("SAS", 8))
	buf.WriteString(padField("SASLIB", 8))
	buf.WriteString(padField(info.SASVersion, 8))
	buf.WriteString(padField(info.OS, 8))
	buf.WriteString(strings.Repeat(" ", 24))
	buf.WriteString(formatTimestamp(info.Created))

	buf.WriteString(formatTimestamp(info.Modified))
	buf.WriteString(strings.Repeat(" ", 64))
	return nil
}

// DecodeLibrary parses the library header block, sniffing the version from
// the identification record. It needs exactly LibrarySize bytes.
func DecodeLibrary(b []byte) (Version, LibraryInfo, error) {
	var info LibraryInfo
	if len(b) < LibrarySize {
		return 0, info, formatErr(ErrTruncated, "library header needs %d bytes, have %d", LibrarySize, len(b))
	}
	var v Version
	switch {
	case bytes.HasPrefix(b, []byte(magicsV5.library)):
		v = V5
	case bytes.HasPrefix(b, []byte(magicsV8.library)):
		v = V8
	default:
		return 0, info, formatErr(ErrBadMagic, "leading record is not a library header")
	}

	rec1 := b[BlockSize : 2*BlockSize]
	if trimField(rec1[16:24]) != "SASLIB" {
		return 0, info, formatErr(ErrBadMagic, "library data record missing SASLIB tag")
	}
	info.SASVersion = trimField(rec1[24:32])
	info.OS = trimField(rec1[32:40])
	var err error
	if info.Created, err = parseTimestamp(rec1[64:80]); err != nil {
		return 0, info, err
	}
	rec2 := b[2*BlockSize : 3*BlockSize]
	if info.Modified, err = parseTimestamp(rec2[0:16]); err != nil {
		return 0, info, err
	}
	return v, info, nil
}

// EncodeMember writes the member header block: member and descriptor
// identification records, two member data records, and (under V8) the
// dedicated label region. Name, label and system-field limits are enforced
// here so a caller building headers directly gets the same eager failures
// the engine does.
func EncodeMember(buf *bytes.Buffer, v Version, info MemberInfo) error {
	lim := v.Limits()
	if len(info.Name) > lim.MaxNameLen {
		return &ValidationError{Field: "name", Limit: lim.MaxNameLen, Got: len(info.Name), Err: ErrNameTooLong}
	}
	if len(info.Label) > lim.MemberLabel {
		return &ValidationError{Field: "label", Limit: lim.MemberLabel, Got: len(info.Label), Err: ErrLabelTooLong}
	}
	if err := checkHeaderField("sas version", info.SASVersion); err != nil {
		return err
	}
	if err := checkHeaderField("os", info.OS); err != nil {
		return err
	}
	if err := checkHeaderField("type", info.Type); err != nil {
		return err
	}
	name := info.Name
	if lim.UpperNames {
		name = strings.ToUpper(name)
	}

	m := v.magics()
	buf.WriteString(m.member)
	buf.WriteString(fmt.Sprintf("%016d%04d%07d%03d  ", 0, 160, 0, lim.NamestrSize))
	buf.WriteString(m.descriptor)
	buf.WriteString(strings.Repeat("0", 30) + "  ")

	buf.WriteString(padField("SAS", 8))
	if v == V8 {
		buf.WriteString(padField(name, 32))
	} else {
		buf.WriteString(padField(name, 8))
	}
	buf.WriteString(padField("SASDATA", 8))
	buf.WriteString(padField(info.SASVersion, 8))
	buf.WriteString(padField(info.OS, 8))
	if v != V8 {
		buf.WriteString(strings.Repeat(" ", 24))
	}
	buf.WriteString(formatTimestamp(info.Created))

	buf.WriteString(formatTimestamp(info.Modified))
	if v == V8 {
		buf.WriteString(strings.Repeat(" ", 56))
		buf.WriteString(padField(info.Type, 8))
		buf.WriteString(padField(info.Label, 256))
		buf.WriteString(strings.Repeat(" ", 64))
	} else {
		buf.WriteString(strings.Repeat(" ", 16))
		buf.WriteString(padField(info.Label, 40))
		buf.WriteString(padField(info.Type, 8))
	}
	return nil
}

// DecodeMember parses the member header block for the given version. It
// needs exactly MemberSize(v) bytes and cross-checks the namestr record size
// declared in the member identification record against the version's layout.
func DecodeMember(b []byte, v Version) (MemberInfo, error) {
	var info MemberInfo
	lim := v.Limits()
	m := v.magics()
	if len(b) < MemberSize(v) {
		return info, formatErr(ErrTruncated, "member header needs %d bytes, have %d", MemberSize(v), len(b))
	}
	if !bytes.HasPrefix(b, []byte(m.member)) {
		return info, formatErr(ErrBadMagic, "expected member header record")
	}
	declared, err := parseSuffixInt(b[:BlockSize], 48+16+4+7, 3)
	if err != nil {
		return info, err
	}
	if declared != lim.NamestrSize {
		return info, formatErr(ErrBadMagic, "member header declares %d-byte namestr records, %s uses %d", declared, v, lim.NamestrSize)
	}
	if !bytes.HasPrefix(b[BlockSize:], []byte(m.descriptor)) {
		return info, formatErr(ErrBadMagic, "expected descriptor header record")
	}

	rec2 := b[2*BlockSize : 3*BlockSize]
	rec3 := b[3*BlockSize : 4*BlockSize]
	if v == V8 {
		info.Name = trimField(rec2[8:40])
		info.SASVersion = trimField(rec2[48:56])
		info.OS = trimField(rec2[56:64])
		if info.Created, err = parseTimestamp(rec2[64:80]); err != nil {
			return info, err
		}
		if info.Modified, err = parseTimestamp(rec3[0:16]); err != nil {
			return info, err
		}
		info.Type = trimField(rec3[72:80])
		info.Label = trimField(b[4*BlockSize : 4*BlockSize+256])
	} else {
		info.Name = trimField(rec2[8:16])
		info.SASVersion = trimField(rec2[24:32])
		info.OS = trimField(rec2[32:40])
		if info.Created, err = parseTimestamp(rec2[64:80]); err != nil {
			return info, err
		}
		if info.Modified, err = parseTimestamp(rec3[0:16]); err != nil {
			return info, err
		}
		info.Label = trimField(rec3[32:72])
		info.Type = trimField(rec3[72:80])
	}
	return info, nil
}

// EncodeNamestrHeader renders the 80-byte record that precedes the namestr
// block and declares the variable count.
func EncodeNamestrHeader(v Version, count int) []byte {
	rec := v.magics().namestr + fmt.Sprintf("%06d%04d%020d  ", 0, count, 0)
	return []byte(rec)
}

// DecodeNamestrHeader returns the declared variable count.
func DecodeNamestrHeader(b []byte, v Version) (int, error) {
	if len(b) < BlockSize {
		return 0, formatErr(ErrTruncated, "namestr header needs %d bytes, have %d", BlockSize, len(b))
	}
	if !bytes.HasPrefix(b, []byte(v.magics().namestr)) {
		return 0, formatErr(ErrBadMagic, "expected namestr header record")
	}
	return parseSuffixInt(b, 48+6, 4)
}

// EncodeObservationHeader renders the 80-byte record that opens the data
// region and declares the observation record length.
func EncodeObservationHeader(v Version, recordLength int) []byte {
	rec := v.magics().observation + fmt.Sprintf("%06d%010d%014d  ", 0, recordLength, 0)
	return []byte(rec)
}

// DecodeObservationHeader returns the declared observation record length.
func DecodeObservationHeader(b []byte, v Version) (int, error) {
	if len(b) < BlockSize {
		return 0, formatErr(ErrTruncated, "observation header needs %d bytes, have %d", BlockSize, len(b))
	}
	if !bytes.HasPrefix(b, []byte(v.magics().observation)) {
		return 0, formatErr(ErrBadMagic, "expected observation header record")
	}
	return parseSuffixInt(b, 48+6, 10)
}

// EncodeHeaders renders the complete pre-namestr header region: the library
// block followed by the member block. Output length is always a multiple of
// the 80-byte block size.
func EncodeHeaders(v Version, lib LibraryInfo, mem MemberInfo) ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, int(v))
	}
	var buf bytes.Buffer
	if err := EncodeLibrary(&buf, v, lib); err != nil {
		return nil, err
	}
	if err := EncodeMember(&buf, v, mem); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHeaders parses the pre-namestr header region, returning the sniffed
// version alongside the library and member metadata.
func DecodeHeaders(b []byte) (Version, LibraryInfo, MemberInfo, error) {
	v, lib, err := DecodeLibrary(b)
	if err != nil {
		return 0, LibraryInfo{}, MemberInfo{}, err
	}
	mem, err := DecodeMember(b[LibrarySize:], v)
	if err != nil {
		return 0, LibraryInfo{}, MemberInfo{}, err
	}
	return v, lib, mem, nil
}
