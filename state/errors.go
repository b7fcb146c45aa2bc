package state

import "errors"

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindNotFound     ErrKind = iota // missing key or section
	ErrKindMalformedKey                // bad key shape or reserved characters
	ErrKindConflict                    // leaf/section path collision
	ErrKindIO                          // backing container I/O failure
	ErrKindLockTimeout                 // cross-process lock not acquired in time
	ErrKindState                       // invalid operation for the current state
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so
// errors.Is(err, state.ErrNotFound) works on wrapped instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels commonly returned by the package.
var (
	// ErrNotFound indicates a missing key or section.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "state: key not found"}
	// ErrMalformedKey indicates a key the store cannot represent.
	ErrMalformedKey = &Error{Kind: ErrKindMalformedKey, Msg: "state: malformed key"}
	// ErrConflict indicates a path naming both a value and a section.
	ErrConflict = &Error{Kind: ErrKindConflict, Msg: "state: leaf/section conflict"}
	// ErrNoFile indicates a persistence operation without a bound filename.
	ErrNoFile = &Error{Kind: ErrKindState, Msg: "state: no state file bound"}
	// ErrLockTimeout indicates the state file is locked by another process.
	ErrLockTimeout = &Error{Kind: ErrKindLockTimeout, Msg: "state: state file locked by another process"}
)

// IsNotFound reports whether err represents a missing key.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
