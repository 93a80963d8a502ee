package kvq

import (
	"encoding/hex"
	"errors"
)

// Sentinel errors forming the core error taxonomy. Callers should check
// these with [errors.Is]; use [errors.As] against *[Error] to read the
// Table/Key context attached at the point of failure.
var (
	// ErrBadArgument reports invalid inputs, e.g. fuzzyBytes > len(key) or
	// mismatched batch lengths.
	ErrBadArgument = errors.New("kvq: bad argument")

	// ErrNotFound reports a GetExact miss. Optional read variants
	// (GetExactIfExists, GetLeq, ...) never return this error; they report
	// absence via their bool/ok return instead.
	ErrNotFound = errors.New("kvq: not found")

	// ErrCodec reports a From-bytes decode failure, including truncated rows.
	ErrCodec = errors.New("kvq: codec")

	// ErrBackend reports an underlying store I/O or lock failure. Callers
	// may retry operations that fail with ErrBackend.
	ErrBackend = errors.New("kvq: backend")
)

// Error is the uniform error type returned by kvq and its subpackages.
// It attaches structured context (Table, Key) to one of the sentinel
// errors above, so failures are both errors.Is-comparable and carry
// enough detail for logs and debugging.
//
//	var kerr *kvq.Error
//	if errors.As(err, &kerr) {
//	    log.Printf("table=%s key=%x: %v", kerr.Table, kerr.Key, kerr.Err)
//	}
type Error struct {
	// Err is the sentinel this error wraps (e.g. ErrNotFound).
	Err error

	// Table is the table name involved, if any.
	Table string

	// Key is the raw key bytes involved, if any.
	Key []byte

	// Cause is an optional underlying error (e.g. a sqlite driver error).
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()

	if e.Table != "" {
		msg += " table=" + e.Table
	}

	if e.Key != nil {
		msg += " key=" + hex.EncodeToString(e.Key)
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap lets errors.Is(err, kvq.ErrNotFound) etc. see through to the
// sentinel. The Cause, if any, is reachable via errors.Is/As as well
// because Unwrap returns a joined error when both are set.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}

	return []error{e.Err}
}

// WithTable returns a copy of e with Table set.
func (e *Error) WithTable(table string) *Error {
	cp := *e
	cp.Table = table

	return &cp
}

// WithKey returns a copy of e with Key set.
func (e *Error) WithKey(key []byte) *Error {
	cp := *e
	cp.Key = key

	return &cp
}

// wrapf builds an *Error around sentinel, optionally wrapping cause.
func wrapf(sentinel error, cause error) *Error {
	return &Error{Err: sentinel, Cause: cause}
}

// NotFound constructs an ErrNotFound error for key.
func NotFound(key []byte) error {
	return wrapf(ErrNotFound, nil).WithKey(key)
}

// BadArgument constructs an ErrBadArgument error with a cause message.
func BadArgument(cause error) error {
	return wrapf(ErrBadArgument, cause)
}

// Backend constructs an ErrBackend error wrapping cause.
func Backend(cause error) error {
	return wrapf(ErrBackend, cause)
}

// CodecErr constructs an ErrCodec error wrapping cause.
func CodecErr(cause error) error {
	return wrapf(ErrCodec, cause)
}
