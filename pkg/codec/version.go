package codec

// Version identifies one of the two supported transport format versions.
// Version selection is explicit and caller-controlled; the codec never
// upgrades or downgrades a version to accommodate over-long fields.
type Version int

const (
	// V5 is the legacy transport version: 8-character names, 40-character
	// labels, character fields up to 200 bytes, 140-byte namestr records.
	V5 Version = 5

	// V8 is the extended transport version: 32-character names,
	// 256-character labels, character fields up to 32767 bytes,
	// 360-byte namestr records.
	V8 Version = 8
)

// Valid reports whether v is a supported transport version.
func (v Version) Valid() bool {
	return v == V5 || v == V8
}

func (v Version) String() string {
	switch v {
	case V5:
		return "V5"
	case V8:
		return "V8"
	default:
		return "V?"
	}
}

// Limits holds the field-width limits for one transport version. Both the
// encode and decode paths consult these; nothing else in the codec hard-codes
// a version-dependent width.
type Limits struct {
	MaxNameLen   int // dataset and variable names
	MaxLabelLen  int // dataset and variable labels
	MaxFieldLen  int // character field width in an observation record
	MaxFields    int // variable count; the namestr-count header has 4 digits
	NamestrSize  int // fixed size of one variable-descriptor record
	MemberLabel  int // member label field width in the member header block
	UpperNames   bool
}

// Limits returns the width limits for the version. Calling it on an invalid
// version returns the zero Limits; callers validate the version first.
func (v Version) Limits() Limits {
	switch v {
	case V5:
		return Limits{
			MaxNameLen:  8,
			MaxLabelLen: 40,
			MaxFieldLen: 200,
			MaxFields:   9999,
			NamestrSize: namestrSizeV5,
			MemberLabel: 40,
			UpperNames:  true,
		}
	case V8:
		return Limits{
			MaxNameLen:  32,
			MaxLabelLen: 256,
			MaxFieldLen: 32767,
			MaxFields:   9999,
			NamestrSize: namestrSizeV8,
			MemberLabel: 256,
			UpperNames:  false,
		}
	default:
		return Limits{}
	}
}

// BlockSize is the record unit of the transport format. Every file is a
// sequence of whole 80-byte blocks; regions that do not fill a block are
// padded to the next boundary.
const BlockSize = 80

// PadByte is the default pad character for textual fields and block padding.
const PadByte = ' '

// headerMagics carries the fixed 48-byte identification prefixes of the
// structural header records for one version.
type headerMagics struct {
	library     string
	member      string
	descriptor  string
	namestr     string
	observation string
}

var magicsV5 = headerMagics{
	library:     "HEADER RECORD*******LIBRARY HEADER RECORD!!!!!!!",
	member:      "HEADER RECORD*******MEMBER  HEADER RECORD!!!!!!!",
	descriptor:  "HEADER RECORD*******DSCRPTR HEADER RECORD!!!!!!!",
	namestr:     "HEADER RECORD*******NAMESTR HEADER RECORD!!!!!!!",
	observation: "HEADER RECORD*******OBS     HEADER RECORD!!!!!!!",
}

var magicsV8 = headerMagics{
	library:     "HEADER RECORD*******LIBV8   HEADER RECORD!!!!!!!",
	member:      "HEADER RECORD*******MEMBV8  HEADER RECORD!!!!!!!",
	descriptor:  "HEADER RECORD*******DSCPTV8 HEADER RECORD!!!!!!!",
	namestr:     "HEADER RECORD*******NAMSTV8 HEADER RECORD!!!!!!!",
	observation: "HEADER RECORD*******OBSV8   HEADER RECORD!!!!!!!",
}

func (v Version) magics() headerMagics {
	if v == V8 {
		return magicsV8
	}
	return magicsV5
}
