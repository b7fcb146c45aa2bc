package format

import "errors"

var (
	// ErrSignatureMismatch indicates the file had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated container")
	// ErrUnsupportedVersion indicates a container version this build cannot read.
	ErrUnsupportedVersion = errors.New("format: unsupported container version")
	// ErrNotFound indicates a requested group or entry was missing.
	ErrNotFound = errors.New("format: entry not found")
	// ErrBadKind indicates an unknown record kind tag in the index stream.
	ErrBadKind = errors.New("format: unknown record kind")
	// ErrBadCodec indicates an unknown payload codec tag.
	ErrBadCodec = errors.New("format: unknown payload codec")
	// ErrBadDType indicates an unknown array element type tag.
	ErrBadDType = errors.New("format: unknown array dtype")
	// ErrValueType indicates a value that cannot be encoded as a payload.
	ErrValueType = errors.New("format: unencodable value type")
)
