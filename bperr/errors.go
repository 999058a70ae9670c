// Package bperr defines the shared error-kind taxonomy used by the pool
// and store packages, in the style of the teacher's buffer_pool/errors.go:
// a handful of sentinel errors plus an operation-wrapping error type that
// preserves both the failing op name and the underlying cause.
package bperr

import "errors"

var (
	// ErrPoolExhausted is returned when the block pool's free list is empty
	// and a maintenance pass does not replenish it.
	ErrPoolExhausted = errors.New("bplib: pool exhausted")

	// ErrInvalidBlock covers a bad type tag, a bad magic number on a generic
	// block cast, or a corrupt intrusive-list link.
	ErrInvalidBlock = errors.New("bplib: invalid block")

	// ErrFailedOS covers lock creation/use failures.
	ErrFailedOS = errors.New("bplib: os-level failure")

	// ErrFailedMem covers allocation failures for the reclaim cache or a
	// payload buffer.
	ErrFailedMem = errors.New("bplib: memory allocation failed")

	// ErrFailedStore covers I/O errors, short reads/writes, and a missing
	// cache entry on release.
	ErrFailedStore = errors.New("bplib: store operation failed")

	// ErrTimeout is returned by a blocking store call that did not complete
	// within its deadline.
	ErrTimeout = errors.New("bplib: timeout")
)

// OpError wraps an error kind with the operation that produced it, mirroring
// the teacher's BufferPoolError{Op, Err}.
type OpError struct {
	Op  string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Kind
}

// Wrap builds an *OpError reporting that op failed with the given kind,
// optionally chaining the lower-level cause.
func Wrap(op string, kind error, cause error) error {
	return &OpError{Op: op, Kind: kind, Err: cause}
}

func IsPoolExhausted(err error) bool { return errors.Is(err, ErrPoolExhausted) }
func IsInvalidBlock(err error) bool  { return errors.Is(err, ErrInvalidBlock) }
func IsFailedOS(err error) bool      { return errors.Is(err, ErrFailedOS) }
func IsFailedMem(err error) bool     { return errors.Is(err, ErrFailedMem) }
func IsFailedStore(err error) bool   { return errors.Is(err, ErrFailedStore) }
func IsTimeout(err error) bool       { return errors.Is(err, ErrTimeout) }
