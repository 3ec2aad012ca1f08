package object

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned when no object exists under a hash.
	ErrObjectNotFound = errors.New("object not found")
	// ErrCorruptObject is returned for malformed envelopes, trees and commits.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrIOFailure wraps failures of the underlying storage medium.
	ErrIOFailure = errors.New("storage i/o failure")
	// ErrAmbiguousHash is returned when an abbreviated hash matches more than
	// one object.
	ErrAmbiguousHash = errors.New("ambiguous object hash")
)

// HashMismatchError reports stored bytes that do not hash to the key they are
// stored under. Store.Read panics with this value instead of returning it:
// the store is corrupt beyond what callers can recover from.
type HashMismatchError struct {
	Want Hash
	Got  Hash
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("object store corrupt: object %s hashes to %s", e.Want, e.Got)
}

// TypeMismatchError is returned by the typed read helpers when an object
// exists but is of a different kind.
type TypeMismatchError struct {
	Hash Hash
	Got  Kind
	Want Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("object %s: type mismatch: got %q, want %q", e.Hash, e.Got, e.Want)
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptObject, fmt.Sprintf(format, args...))
}
