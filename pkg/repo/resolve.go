package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/refs"
)

// ResolveCommit resolves a revision to a commit hash. A revision is "HEAD",
// a branch name, or a full or abbreviated commit hash, tried in that order.
func (r *Repo) ResolveCommit(rev string) (object.Hash, error) {
	h, _, err := r.resolveRevision(rev)
	return h, err
}

// resolveRevision resolves rev and reports whether it named a branch.
func (r *Repo) resolveRevision(rev string) (object.Hash, bool, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", false, fmt.Errorf("resolve: %w: empty revision", ErrRefNotFound)
	}

	if rev == "HEAD" {
		h, err := r.Refs.ResolveHead()
		if err != nil {
			if isDangling(err) {
				return "", false, fmt.Errorf("resolve HEAD: %w: no commits yet", ErrRefNotFound)
			}
			return "", false, fmt.Errorf("resolve HEAD: %w", err)
		}
		return h, false, nil
	}

	if refs.ValidateBranchName(rev) == nil {
		h, err := r.Refs.Branch(rev)
		switch {
		case err == nil:
			return h, true, nil
		case !errors.Is(err, refs.ErrBranchNotFound):
			return "", false, fmt.Errorf("resolve %q: %w", rev, err)
		}
	}

	h, err := r.Store.ResolvePrefix(rev)
	if err != nil {
		if errors.Is(err, object.ErrObjectNotFound) {
			return "", false, fmt.Errorf("resolve %q: %w", rev, ErrRefNotFound)
		}
		return "", false, fmt.Errorf("resolve %q: %w", rev, err)
	}
	if _, err := r.Store.ReadCommit(h); err != nil {
		var tm *object.TypeMismatchError
		if errors.As(err, &tm) {
			return "", false, fmt.Errorf("resolve %q: %w: %s is a %s", rev, ErrRefNotFound, h.Short(), tm.Got)
		}
		return "", false, fmt.Errorf("resolve %q: %w", rev, err)
	}
	return h, false, nil
}
