package codec

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func sampleLibrary() LibraryInfo {
	return LibraryInfo{
		SASVersion: "9.4",
		OS:         "LINUX",
		Created:    time.Date(2024, time.August, 16, 14, 13, 27, 0, time.UTC),
		Modified:   time.Date(2024, time.August, 17, 9, 0, 5, 0, time.UTC),
	}
}

func sampleMember(name, label string) MemberInfo {
	return MemberInfo{
		Name:       name,
		Label:      label,
		Type:       "DATA",
		SASVersion: "9.4",
		OS:         "LINUX",
		Created:    time.Date(2024, time.August, 16, 14, 13, 27, 0, time.UTC),
		Modified:   time.Date(2024, time.August, 16, 14, 13, 27, 0, time.UTC),
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		version Version
		member  MemberInfo
	}{
		{"v5", V5, sampleMember("AE", "Adverse Events")},
		{"v5 no label", V5, sampleMember("DM", "")},
		{"v8", V8, sampleMember("SUPPQUALLONGNAME", "Supplemental Qualifiers with a label past forty characters")},
		{"v8 mixed case", V8, sampleMember("LabTests", "lab")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lib := sampleLibrary()
			enc, err := EncodeHeaders(tc.version, lib, tc.member)
			if err != nil {
				t.Fatalf("EncodeHeaders failed: %v", err)
			}
			if len(enc)%BlockSize != 0 {
				t.Fatalf("header region is %d bytes, not a multiple of %d", len(enc), BlockSize)
			}
			if len(enc) != LibrarySize+MemberSize(tc.version) {
				t.Fatalf("header region is %d bytes, want %d", len(enc), LibrarySize+MemberSize(tc.version))
			}

			v, gotLib, gotMem, err := DecodeHeaders(enc)
			if err != nil {
				t.Fatalf("DecodeHeaders failed: %v", err)
			}
			if v != tc.version {
				t.Fatalf("decoded version %s, want %s", v, tc.version)
			}
			if gotLib.SASVersion != lib.SASVersion || gotLib.OS != lib.OS ||
				!gotLib.Created.Equal(lib.Created) || !gotLib.Modified.Equal(lib.Modified) {
				t.Fatalf("library info round trip:\n got %+v\nwant %+v", gotLib, lib)
			}
			want := tc.member
			if gotMem.Name != want.Name || gotMem.Label != want.Label || gotMem.Type != want.Type ||
				gotMem.SASVersion != want.SASVersion || gotMem.OS != want.OS ||
				!gotMem.Created.Equal(want.Created) || !gotMem.Modified.Equal(want.Modified) {
				t.Fatalf("member info round trip:\n got %+v\nwant %+v", gotMem, want)
			}
		})
	}
}

func TestEncodeMember_UppercasesLegacyNames(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeMember(&buf, V5, sampleMember("vitals", "Vital Signs")); err != nil {
		t.Fatalf("EncodeMember failed: %v", err)
	}
	got, err := DecodeMember(buf.Bytes(), V5)
	if err != nil {
		t.Fatalf("DecodeMember failed: %v", err)
	}
	if got.Name != "VITALS" {
		t.Fatalf("V5 member name = %q, want uppercase VITALS", got.Name)
	}
}

func TestEncodeMember_LimitViolations(t *testing.T) {
	testCases := []struct {
		name    string
		version Version
		member  MemberInfo
		wantErr error
	}{
		{"v5 long name", V5, sampleMember("VERYLONGNAME", ""), ErrNameTooLong},
		{"v5 long label", V5, sampleMember("DM", string(bytes.Repeat([]byte("x"), 41))), ErrLabelTooLong},
		{"v8 long name", V8, sampleMember(string(bytes.Repeat([]byte("N"), 33)), ""), ErrNameTooLong},
		{"v8 long label", V8, sampleMember("DM", string(bytes.Repeat([]byte("x"), 257))), ErrLabelTooLong},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := EncodeMember(&buf, tc.version, tc.member)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("EncodeMember error = %v, want %v", err, tc.wantErr)
			}
		})
	}

	// The same name that fails under V5 is fine under V8.
	var buf bytes.Buffer
	if err := EncodeMember(&buf, V8, sampleMember("VERYLONGNAME", "")); err != nil {
		t.Fatalf("V8 must accept a 12-character name: %v", err)
	}
}

func TestEncodeHeaders_SystemFieldsMustFit(t *testing.T) {
	// The producing-system and OS names occupy fixed 8-byte slots; anything
	// longer must fail eagerly instead of being truncated on the wire.
	testCases := []struct {
		name   string
		lib    LibraryInfo
		member MemberInfo
	}{
		{"library sas version", LibraryInfo{SASVersion: "9.4.0.1234"}, sampleMember("DM", "")},
		{"library os", LibraryInfo{OS: "LINUX-X86_64"}, sampleMember("DM", "")},
		{"member sas version", sampleLibrary(), MemberInfo{Name: "DM", SASVersion: "9.4.0.1234"}},
		{"member os", sampleLibrary(), MemberInfo{Name: "DM", OS: "LINUX-X86_64"}},
		{"member type", sampleLibrary(), MemberInfo{Name: "DM", Type: "SASDATAMEMBER"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeHeaders(V5, tc.lib, tc.member)
			if !errors.Is(err, ErrHeaderFieldTooLong) {
				t.Fatalf("EncodeHeaders error = %v, want %v", err, ErrHeaderFieldTooLong)
			}
		})
	}
}

func TestDecodeHeaders_BadMagic(t *testing.T) {
	junk := bytes.Repeat([]byte("X"), LibrarySize+memberSizeV5)
	_, _, _, err := DecodeHeaders(junk)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("DecodeHeaders(junk) error = %v, want ErrBadMagic", err)
	}
}

func TestDecodeHeaders_Truncated(t *testing.T) {
	enc, err := EncodeHeaders(V5, sampleLibrary(), sampleMember("DM", ""))
	if err != nil {
		t.Fatalf("EncodeHeaders failed: %v", err)
	}
	for _, cut := range []int{0, 79, BlockSize, LibrarySize, LibrarySize + BlockSize} {
		_, _, _, err := DecodeHeaders(enc[:cut])
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("DecodeHeaders(%d bytes) error = %v, want ErrTruncated", cut, err)
		}
	}
}

func TestNamestrHeaderRoundTrip(t *testing.T) {
	for _, v := range []Version{V5, V8} {
		rec := EncodeNamestrHeader(v, 12)
		if len(rec) != BlockSize {
			t.Fatalf("namestr header is %d bytes", len(rec))
		}
		n, err := DecodeNamestrHeader(rec, v)
		if err != nil {
			t.Fatalf("DecodeNamestrHeader failed: %v", err)
		}
		if n != 12 {
			t.Fatalf("variable count = %d, want 12", n)
		}
	}
}

func TestObservationHeaderRoundTrip(t *testing.T) {
	rec := EncodeObservationHeader(V5, 1234567)
	if len(rec) != BlockSize {
		t.Fatalf("observation header is %d bytes", len(rec))
	}
	n, err := DecodeObservationHeader(rec, V5)
	if err != nil {
		t.Fatalf("DecodeObservationHeader failed: %v", err)
	}
	if n != 1234567 {
		t.Fatalf("record length = %d, want 1234567", n)
	}

	// A V5 observation header is not valid under V8.
	if _, err := DecodeObservationHeader(rec, V8); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("cross-version decode error = %v, want ErrBadMagic", err)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(1997, time.January, 2, 3, 4, 5, 0, time.UTC)
	s := formatTimestamp(ts)
	if s != "02JAN97:03:04:05" {
		t.Fatalf("formatTimestamp = %q", s)
	}
	back, err := parseTimestamp([]byte(s))
	if err != nil {
		t.Fatalf("parseTimestamp failed: %v", err)
	}
	if !back.Equal(ts) {
		t.Fatalf("timestamp round trip: %v != %v", back, ts)
	}

	// Blank fields carry the zero time.
	zero, err := parseTimestamp([]byte("                "))
	if err != nil || !zero.IsZero() {
		t.Fatalf("blank timestamp = (%v, %v)", zero, err)
	}
}
