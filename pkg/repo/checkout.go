package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/gitelle/pkg/index"
	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/refs"
	"github.com/odvcencio/gitelle/pkg/worktree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Checkout switches the working directory to the state of the target.
// The target can be "HEAD", a branch name or a full or abbreviated commit
// hash.
//
// Algorithm:
//  1. Resolve target: try as branch name first, then as a commit hash.
//  2. Read the target commit and walk its tree.
//  3. Make room: remove files from the HEAD tree that the target does not
//     contain and that sit where a target file or directory goes.
//  4. Write every file of the target tree to the working directory. If a
//     write fails, stop and report the paths not written; the index and
//     HEAD are left as they were.
//  5. Remove the remaining files of the HEAD tree that the target does not
//     contain. Untracked files and staged files that were never committed
//     are left alone.
//  6. Rewrite the index from the target tree, keeping staged entries for
//     paths outside both trees.
//  7. Update HEAD (symbolic for a branch, the hash for a detached checkout).
func (r *Repo) Checkout(target string) error {
	target = strings.TrimSpace(target)

	// 1. Resolve target.
	targetHash, isBranch, err := r.resolveRevision(target)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	ref := refs.Direct(targetHash)
	switch {
	case isBranch:
		ref = refs.Symbolic(target)
	case target == "HEAD":
		// Checking out HEAD keeps it attached to its branch.
		if ref, err = r.Refs.Head(); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}

	// 2. Read the target commit and walk its tree.
	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: read commit %s: %w", targetHash.Short(), err)
	}
	var targetFiles []object.TreeFile
	inTarget := make(map[string]bool)
	for f, err := range object.WalkTree(r.Store, commit.TreeHash) {
		if err != nil {
			return fmt.Errorf("checkout: walk target tree: %w", err)
		}
		targetFiles = append(targetFiles, f)
		inTarget[f.Path] = true
	}

	headFiles, err := r.headTree()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	idx, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	var stale []string
	for path := range headFiles {
		if !inTarget[path] {
			stale = append(stale, path)
		}
	}
	sort.Strings(stale)

	// 3. Make room for the target tree.
	if err := r.clearObstructions(targetFiles, stale, inTarget); err != nil {
		return fmt.Errorf("checkout %s: %w", target, &CheckoutFailedError{Paths: treePaths(targetFiles), Err: err})
	}

	// 4. Write all files from the target tree.
	for i, f := range targetFiles {
		if err := r.writeWorkFile(f); err != nil {
			r.log.Debug("checkout aborted", zap.String("path", f.Path), zap.Error(err))
			return fmt.Errorf("checkout %s: %w", target, &CheckoutFailedError{Paths: treePaths(targetFiles[i:]), Err: err})
		}
	}
	r.log.Debug("checkout wrote files", zap.Int("files", len(targetFiles)))

	// 5. Remove stale committed files.
	var removeErr error
	for _, path := range stale {
		removeErr = multierr.Append(removeErr, r.removeWorkFile(path))
	}
	r.log.Debug("checkout removed stale files", zap.Int("files", len(stale)))

	// 6. Rewrite the index.
	entries := make([]index.Entry, 0, len(targetFiles))
	for _, f := range targetFiles {
		e := index.Entry{Path: f.Path, Hash: f.Hash, Mode: object.NormalizeFileMode(f.Mode)}
		info, err := r.fs.Stat(filepath.Join(r.RootDir, filepath.FromSlash(f.Path)))
		if err == nil {
			e.Size = info.Size()
			e.ModTime = info.ModTime().UnixNano()
		}
		entries = append(entries, e)
	}
	kept := 0
	for _, e := range idx.Entries() {
		if _, committed := headFiles[e.Path]; committed || inTarget[e.Path] {
			continue
		}
		entries = append(entries, e)
		kept++
	}
	if err := idx.Replace(entries); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := idx.Write(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	r.log.Debug("checkout index", zap.Int("entries", len(entries)), zap.Int("kept_staged", kept))

	// 7. Update HEAD.
	if err := r.Refs.SetHead(ref, "checkout: moving to "+target); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	r.log.Debug("checkout done", zap.Stringer("head", ref), zap.String("commit", string(targetHash)))

	if removeErr != nil {
		return fmt.Errorf("checkout: %w", removeErr)
	}
	return nil
}

// CheckoutNewBranch creates a branch at HEAD and checks it out.
func (r *Repo) CheckoutNewBranch(name string) error {
	if err := r.CreateBranch(name); err != nil {
		return fmt.Errorf("checkout -b: %w", err)
	}
	return r.Checkout(name)
}

// clearObstructions removes stale committed files that stand in the way of
// the target tree: a file "a" when the target has "a/b", and every file
// below "a/" when the target has a file "a".
func (r *Repo) clearObstructions(targetFiles []object.TreeFile, stale []string, inTarget map[string]bool) error {
	isStale := make(map[string]bool, len(stale))
	for _, p := range stale {
		isStale[p] = true
	}

	var errs error
	for _, f := range targetFiles {
		for dir := parentPath(f.Path); dir != ""; dir = parentPath(dir) {
			if isStale[dir] {
				errs = multierr.Append(errs, r.removeWorkFile(dir))
			}
		}
	}
	for _, p := range stale {
		for dir := parentPath(p); dir != ""; dir = parentPath(dir) {
			if inTarget[dir] {
				errs = multierr.Append(errs, r.removeWorkFile(p))
				break
			}
		}
	}
	return errs
}

// removeWorkFile deletes a file from the working tree and prunes the
// directories it leaves empty. A file that is already gone is not an error.
func (r *Repo) removeWorkFile(path string) error {
	abs := filepath.Join(r.RootDir, filepath.FromSlash(path))
	if err := r.fs.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w: %w", path, object.ErrIOFailure, err)
	}
	r.removeEmptyParents(filepath.Dir(abs))
	return nil
}

// writeWorkFile writes one blob to the working tree with the permissions
// implied by its mode.
func (r *Repo) writeWorkFile(f object.TreeFile) error {
	abs := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
	if err := r.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir for %q: %w: %w", f.Path, object.ErrIOFailure, err)
	}
	if info, err := r.fs.Stat(abs); err == nil && info.IsDir() {
		return fmt.Errorf("write %q: %w: path is a directory", f.Path, object.ErrIOFailure)
	}
	blob, err := r.Store.ReadBlob(f.Hash)
	if err != nil {
		return fmt.Errorf("read blob for %q: %w", f.Path, err)
	}

	perm := worktree.PermFromMode(f.Mode)
	fh, err := r.fs.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("write %q: %w: %w", f.Path, object.ErrIOFailure, err)
	}
	if _, err := fh.Write(blob.Data); err != nil {
		fh.Close()
		return fmt.Errorf("write %q: %w: %w", f.Path, object.ErrIOFailure, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close %q: %w: %w", f.Path, object.ErrIOFailure, err)
	}
	// OpenFile keeps the old permissions of an existing file.
	if err := r.fs.Chmod(abs, perm); err != nil {
		return fmt.Errorf("chmod %q: %w: %w", f.Path, object.ErrIOFailure, err)
	}
	return nil
}

func parentPath(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}

func treePaths(files []object.TreeFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}
