package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitelle/pkg/index"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Add stages the given paths (files or directories, absolute or relative to
// the current directory). Paths that fail are reported together; the index
// is still written with every path that succeeded.
func (r *Repo) Add(paths []string) error {
	idx, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rels = append(rels, r.repoRelPath(p))
	}
	addErr := idx.Add(rels)

	if err := idx.Write(); err != nil {
		return fmt.Errorf("add: %w", multierr.Append(addErr, err))
	}
	r.log.Debug("staged paths", zap.Strings("paths", rels), zap.Int("entries", idx.Len()))
	if addErr != nil {
		return fmt.Errorf("add: %w", addErr)
	}
	return nil
}

// Remove unstages the given paths. Unless cached is set the files are also
// deleted from the working tree. A directory removes every staged path
// beneath it.
func (r *Repo) Remove(paths []string, cached bool) error {
	idx, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}

	var errs error
	var removed []string
	for _, p := range paths {
		rel := r.repoRelPath(p)
		targets := matchStaged(idx, rel)
		if len(targets) == 0 {
			errs = multierr.Append(errs, &index.PathError{Path: rel, Err: index.ErrNotStaged})
			continue
		}
		for _, t := range targets {
			if err := idx.Remove(t); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			removed = append(removed, t)
		}
	}

	if !cached {
		for _, t := range removed {
			abs := filepath.Join(r.RootDir, filepath.FromSlash(t))
			if err := r.fs.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = multierr.Append(errs, &index.PathError{Path: t, Err: err})
				continue
			}
			r.removeEmptyParents(filepath.Dir(abs))
		}
	}

	if err := idx.Write(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("rm: %w", errs)
	}
	return nil
}

// matchStaged returns rel itself when it is staged, otherwise every staged
// path under the directory rel.
func matchStaged(idx *index.Index, rel string) []string {
	if idx.Has(rel) {
		return []string{rel}
	}
	var out []string
	for _, p := range idx.Paths() {
		if rel == "" || strings.HasPrefix(p, rel+"/") {
			out = append(out, p)
		}
	}
	return out
}

// repoRelPath converts a path (absolute, or relative to the current
// directory) into a forward-slash path relative to the repository root.
// A relative path that does not resolve inside the repository is taken to be
// repo-relative already.
func (r *Repo) repoRelPath(p string) string {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return filepath.ToSlash(filepath.Clean(p))
		}
		return cleanRel(rel)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return cleanRel(p)
	}
	rel, err := filepath.Rel(r.RootDir, filepath.Join(cwd, p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return cleanRel(p)
	}
	return cleanRel(rel)
}

func cleanRel(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	if p == "." {
		return ""
	}
	return p
}

// removeEmptyParents removes empty directories up to, but not including,
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for dir != r.RootDir && strings.HasPrefix(dir, r.RootDir+string(filepath.Separator)) {
		empty, err := afero.IsEmpty(r.fs, dir)
		if err != nil || !empty {
			return
		}
		if err := r.fs.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
