package index

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/worktree"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Add stages repo-relative paths. A file is read, written to the object store
// as a blob and upserted; a directory is expanded to the files beneath it that
// the ignore rules do not exclude. "" or "." stages the whole working tree.
//
// A path that fails is reported as a *PathError and does not stop the others.
// The returned error combines every per-path failure; use multierr.Errors to
// inspect them individually. Add does not write the index file.
func (idx *Index) Add(paths []string) error {
	if idx.opts.Store == nil {
		return errors.New("index add: no object store configured")
	}
	var errs error
	for _, p := range paths {
		errs = multierr.Append(errs, idx.addPath(p))
	}
	return errs
}

func (idx *Index) addPath(p string) error {
	p = filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
	if p == "." {
		p = ""
	}
	if p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return &PathError{Path: p, Err: fmt.Errorf("%w: outside the working tree", ErrInvalidPath)}
	}

	var errs error
	for rel, err := range worktree.Walk(idx.fs, idx.opts.Root, p, idx.opts.Ignore) {
		if err != nil {
			if errors.Is(err, worktree.ErrNotExist) {
				return multierr.Append(errs, &PathError{Path: p, Err: ErrPathNotFound})
			}
			return multierr.Append(errs, &PathError{Path: p, Err: err})
		}
		errs = multierr.Append(errs, idx.stageFile(rel))
	}
	return errs
}

func (idx *Index) stageFile(rel string) error {
	if err := checkPath(rel); err != nil {
		return &PathError{Path: rel, Err: err}
	}
	abs := filepath.Join(idx.opts.Root, filepath.FromSlash(rel))

	info, err := idx.fs.Stat(abs)
	if err != nil {
		return &PathError{Path: rel, Err: fmt.Errorf("stat: %w: %w", object.ErrIOFailure, err)}
	}
	data, err := afero.ReadFile(idx.fs, abs)
	if err != nil {
		return &PathError{Path: rel, Err: fmt.Errorf("read: %w: %w", object.ErrIOFailure, err)}
	}
	h, err := idx.opts.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return &PathError{Path: rel, Err: err}
	}

	idx.entries[rel] = Entry{
		Path:    rel,
		Hash:    h,
		Mode:    worktree.ModeFromFileInfo(info),
		Size:    int64(len(data)),
		ModTime: info.ModTime().UnixNano(),
	}
	return nil
}
