package worktree

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotExist is returned by Walk when the start path does not exist.
var ErrNotExist = errors.New("path does not exist")

// Walk lazily lists the regular files under start, a repo-relative directory
// ("" for the whole tree), as forward-slash paths relative to root. Files are
// produced depth-first in name order. Ignored directories are not entered and
// ignored files are skipped; symlinks and other special files are skipped.
//
// A failure is yielded once and ends the walk.
func Walk(fs afero.Fs, root, start string, ig *Ignore) iter.Seq2[string, error] {
	if ig == nil {
		ig = NewIgnore(nil)
	}
	start = filepath.ToSlash(filepath.Clean(filepath.FromSlash(start)))
	if start == "." {
		start = ""
	}

	return func(yield func(string, error) bool) {
		if start != "" {
			info, err := fs.Stat(filepath.Join(root, filepath.FromSlash(start)))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					yield("", fmt.Errorf("walk %q: %w", start, ErrNotExist))
				} else {
					yield("", fmt.Errorf("walk %q: %w", start, err))
				}
				return
			}
			if !info.IsDir() {
				if info.Mode().IsRegular() && !ig.Match(start, false) {
					yield(start, nil)
				}
				return
			}
			if ig.Match(start, true) {
				return
			}
		}

		// Each stack slot holds the pending entries of one directory, already
		// sorted by name. The next entry is always popped from the top slot.
		type frame struct {
			dir     string
			entries []os.FileInfo
		}
		var stack []*frame

		push := func(dir string) error {
			infos, err := afero.ReadDir(fs, filepath.Join(root, filepath.FromSlash(dir)))
			if err != nil {
				return fmt.Errorf("walk: read dir %q: %w", dir, err)
			}
			stack = append(stack, &frame{dir: dir, entries: infos})
			return nil
		}
		if err := push(start); err != nil {
			yield("", err)
			return
		}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if len(top.entries) == 0 {
				stack = stack[:len(stack)-1]
				continue
			}
			info := top.entries[0]
			top.entries = top.entries[1:]

			rel := info.Name()
			if top.dir != "" {
				rel = top.dir + "/" + rel
			}

			if info.IsDir() {
				if ig.Match(rel, true) {
					continue
				}
				if err := push(rel); err != nil {
					yield("", err)
					return
				}
				continue
			}
			if !info.Mode().IsRegular() || ig.Match(rel, false) {
				continue
			}
			if !yield(rel, nil) {
				return
			}
		}
	}
}

// Files collects Walk over the whole working tree into a set.
func Files(fs afero.Fs, root string, ig *Ignore) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for p, err := range Walk(fs, root, "", ig) {
		if err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, nil
}
