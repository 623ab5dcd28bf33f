// Package ibderr defines the error taxonomy shared by every layer of the
// tablespace inspector. Each error carries a Kind so callers at the session
// boundary can decide whether to abort the whole run, skip one object, or
// keep going.
package ibderr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the session driver should react to it.
type Kind int

const (
	// InvalidArgument covers bad file paths, unreadable files, and
	// nonsensical page numbers supplied by the caller.
	InvalidArgument Kind = iota
	// UnsupportedSpace means the tablespace itself cannot be inspected
	// (compressed, encrypted, temporary, or invalid flags). Aborts the
	// session.
	UnsupportedSpace
	// UnsupportedObject means one table or index cannot be decoded, but
	// the session continues with the remaining objects.
	UnsupportedObject
	// CorruptPage means a page failed a structural invariant.
	CorruptPage
	// CorruptRecord means a single record failed a structural invariant.
	CorruptRecord
	// CorruptSDI means the dictionary payload itself is broken.
	CorruptSDI
	// Internal marks an asserted invariant violation: a bug, not bad
	// input. The session terminates.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case UnsupportedSpace:
		return "UnsupportedSpace"
	case UnsupportedObject:
		return "UnsupportedObject"
	case CorruptPage:
		return "CorruptPage"
	case CorruptRecord:
		return "CorruptRecord"
	case CorruptSDI:
		return "CorruptSDI"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with a Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error from a format string.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to Internal when err was not
// produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
