package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/afero"
)

// FileChange is one changed path. A nil Before or After means the file is
// absent on that side.
type FileChange struct {
	Path   string
	Before []byte
	After  []byte
}

// Diff returns the content changes between two of the three trees. With
// staged set it compares the HEAD tree to the index; otherwise the index to
// the working tree. Untracked files are not included. Changes are sorted by
// path.
func (r *Repo) Diff(staged bool) ([]FileChange, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	var changes []FileChange
	if staged {
		headFiles, err := r.headTree()
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		seen := make(map[string]bool, idx.Len())
		for _, e := range idx.Entries() {
			seen[e.Path] = true
			hf, ok := headFiles[e.Path]
			if ok && hf.Hash == e.Hash {
				continue
			}
			ch := FileChange{Path: e.Path}
			if ok {
				if ch.Before, err = r.blobData(hf.Hash); err != nil {
					return nil, fmt.Errorf("diff: %w", err)
				}
			}
			if ch.After, err = r.blobData(e.Hash); err != nil {
				return nil, fmt.Errorf("diff: %w", err)
			}
			changes = append(changes, ch)
		}
		for path, hf := range headFiles {
			if seen[path] {
				continue
			}
			before, err := r.blobData(hf.Hash)
			if err != nil {
				return nil, fmt.Errorf("diff: %w", err)
			}
			changes = append(changes, FileChange{Path: path, Before: before})
		}
	} else {
		for _, e := range idx.Entries() {
			work, err := afero.ReadFile(r.fs, filepath.Join(r.RootDir, filepath.FromSlash(e.Path)))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("diff: read %q: %w: %w", e.Path, object.ErrIOFailure, err)
			}
			if work != nil && object.HashObject(object.KindBlob, work) == e.Hash {
				continue
			}
			before, err := r.blobData(e.Hash)
			if err != nil {
				return nil, fmt.Errorf("diff: %w", err)
			}
			changes = append(changes, FileChange{Path: e.Path, Before: before, After: work})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// blobData returns the content of a blob, never nil.
func (r *Repo) blobData(h object.Hash) ([]byte, error) {
	b, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	if b.Data == nil {
		return []byte{}, nil
	}
	return b.Data, nil
}
