package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/gitelle/pkg/refs"
)

var (
	// ErrNotARepository is returned by Open when no metadata directory is
	// found.
	ErrNotARepository = errors.New("not a gitelle repository (or any parent up to /)")
	// ErrAlreadyExists is returned by Init when the metadata directory exists.
	ErrAlreadyExists = errors.New("repository already exists")
	// ErrRefNotFound is returned when a revision names neither a branch nor
	// a commit.
	ErrRefNotFound = errors.New("reference not found")
	// ErrEmptyMessage is returned when committing with a blank message.
	ErrEmptyMessage = errors.New("empty commit message")
	// ErrNothingToCommit is returned when the index matches HEAD.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrCheckoutFailed is returned when checkout could not write every file.
	ErrCheckoutFailed = errors.New("checkout failed")
	// ErrInvalidAuthor is returned for author strings that cannot be encoded.
	ErrInvalidAuthor = errors.New("invalid author")
)

// CheckoutFailedError lists the paths checkout did not write. The index and
// HEAD are unchanged when it is returned.
type CheckoutFailedError struct {
	Paths []string
	Err   error
}

func (e *CheckoutFailedError) Error() string {
	return fmt.Sprintf("%s: %d path(s) not written (%s): %v",
		ErrCheckoutFailed, len(e.Paths), strings.Join(e.Paths, ", "), e.Err)
}

func (e *CheckoutFailedError) Unwrap() error { return e.Err }

func (e *CheckoutFailedError) Is(target error) bool {
	return target == ErrCheckoutFailed
}

func isDangling(err error) bool {
	return errors.Is(err, refs.ErrDanglingReference)
}
