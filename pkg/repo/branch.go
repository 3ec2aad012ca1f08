package repo

import (
	"fmt"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/refs"
)

// BranchInfo describes one branch for listings.
type BranchInfo struct {
	Name    string
	Hash    object.Hash
	Current bool
	Subject string // first line of the tip commit's message
}

// CreateBranch creates a new branch pointing at the commit HEAD resolves to.
// Before the first commit there is nothing to point at and it fails with
// refs.ErrDanglingReference.
func (r *Repo) CreateBranch(name string) error {
	h, err := r.Refs.ResolveHead()
	if err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return r.Refs.CreateBranch(name, h)
}

// DeleteBranch removes a branch. The current branch cannot be deleted.
func (r *Repo) DeleteBranch(name string) error {
	return r.Refs.DeleteBranch(name)
}

// CurrentBranch returns the branch HEAD is attached to, or "" when detached.
func (r *Repo) CurrentBranch() (string, error) {
	name, attached, err := r.Refs.CurrentBranch()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if !attached {
		return "", nil
	}
	return name, nil
}

// Branches lists every branch with its tip commit, sorted by name.
func (r *Repo) Branches() ([]BranchInfo, error) {
	names, err := r.Refs.ListBranches()
	if err != nil {
		return nil, err
	}
	current, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}

	out := make([]BranchInfo, 0, len(names))
	for _, name := range names {
		h, err := r.Refs.Branch(name)
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		info := BranchInfo{Name: name, Hash: h, Current: name == current}
		if c, err := r.Store.ReadCommit(h); err == nil {
			info.Subject = subject(c.Message)
		}
		out = append(out, info)
	}
	return out, nil
}

// Reflog returns up to limit recorded moves of ref ("HEAD" or a branch),
// newest first.
func (r *Repo) Reflog(ref string, limit int) ([]refs.ReflogEntry, error) {
	return r.Refs.Reflog(ref, limit)
}
