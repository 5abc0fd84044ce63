// Package codec implements the record-level encoders and decoders for the
// regulatory transport file format: the 80-byte structural header records,
// the fixed-size variable-descriptor (namestr) records, the mainframe
// floating-point representation, and the missing-value sentinels.
//
// # File structure
//
// A transport file is a sequence of whole 80-byte blocks:
//
//	[Library header block, 3 x 80 bytes]
//	[Member header block, 80-byte records; V8 adds a 320-byte label region]
//	[Namestr header record, 80 bytes]
//	[Namestr block: N fixed-size descriptor records, padded to 80 bytes]
//	[Observation header record, 80 bytes]
//	[Data region: fixed-width observation records, padded to 80 bytes]
//
// Textual header fields are fixed-width ASCII, space-padded, with
// identifiers uppercased under the legacy version. Integer fields inside
// namestr records are big-endian.
//
// # Versions
//
// Two format versions are supported, differing only in field-width limits
// and the namestr record size. V5: names to 8 characters, labels to 40,
// character fields to 200 bytes, 140-byte namestr records. V8: names to 32,
// labels to 256, character fields to 32767 bytes, 360-byte namestr records.
// Version.Limits is the single source of truth for these widths; encode and
// decode both consult it and nothing else branches on the version.
//
// # Numeric representation
//
// Numeric fields are 8-byte mainframe doubles: a sign bit, a 7-bit
// excess-64 base-16 exponent, and a 56-bit fraction. IEEEToIBM and IBMToIEEE
// convert against the host float64. The transport exponent range is narrower
// than IEEE 754: values outside it fail with ErrOverflow or
// ErrUnderflowToZero rather than being clamped.
//
// Twenty-eight missing-value sentinels are overlaid on the same 8 bytes: the
// sentinel character ('.', '_', or 'A'..'Z') in the first byte with the
// remaining seven bytes zero. DecodeField resolves the overlay, giving
// sentinels priority, so no caller ever inspects raw sentinel bytes.
//
// # Concurrency
//
// Everything in this package is a pure function over its inputs and safe to
// call concurrently across independent sessions.
package codec
