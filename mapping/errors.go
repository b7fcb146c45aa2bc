package mapping

import "errors"

var (
	// ErrNotFound indicates a key or one of its sections does not exist.
	ErrNotFound = errors.New("mapping: key not found")
	// ErrMalformedKey indicates an empty key, an empty path segment, or a
	// segment containing a reserved character.
	ErrMalformedKey = errors.New("mapping: malformed key")
	// ErrConflict indicates a path addressed a leaf where a section exists,
	// or a section where a leaf exists.
	ErrConflict = errors.New("mapping: leaf/section conflict")
)
