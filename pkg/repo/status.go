package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/odvcencio/gitelle/pkg/index"
	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/worktree"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileStatus represents the state of a file in one comparison.
type FileStatus int

const (
	StatusClean     FileStatus = iota // unchanged between the compared areas
	StatusNew                         // in the index, not in the HEAD tree
	StatusModified                    // in the index, different from HEAD
	StatusDeleted                     // in HEAD but not in the index, or in the index but not on disk
	StatusUntracked                   // on disk but not in the index
	StatusDirty                       // staged, but the working copy differs from the index
)

// StatusEntry records the status of a single path.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // index vs HEAD tree
	WorkStatus  FileStatus // working tree vs index
}

// Report is the result of Status.
type Report struct {
	Branch   string      // current branch; empty when detached
	Detached bool        // HEAD holds a commit hash
	Head     object.Hash // empty before the first commit
	Entries  []StatusEntry
}

// Staged returns paths whose index snapshot differs from or is absent in the
// HEAD tree.
func (rep *Report) Staged() []string {
	return rep.filter(func(e StatusEntry) bool {
		return e.IndexStatus == StatusNew || e.IndexStatus == StatusModified
	})
}

// Unstaged returns paths whose working copy differs from the index and that
// are not already staged. A path staged and then edited again is reported
// only by Staged, so Staged, Unstaged and Untracked never overlap.
func (rep *Report) Unstaged() []string {
	return rep.filter(func(e StatusEntry) bool {
		return e.WorkStatus == StatusDirty && e.IndexStatus == StatusClean
	})
}

// Untracked returns paths on disk that are not in the index and not ignored.
func (rep *Report) Untracked() []string {
	return rep.filter(func(e StatusEntry) bool { return e.WorkStatus == StatusUntracked })
}

// Removed returns paths in the HEAD tree that were dropped from the index.
func (rep *Report) Removed() []string {
	return rep.filter(func(e StatusEntry) bool { return e.IndexStatus == StatusDeleted })
}

// Missing returns staged paths that no longer exist on disk.
func (rep *Report) Missing() []string {
	return rep.filter(func(e StatusEntry) bool { return e.WorkStatus == StatusDeleted })
}

// Clean reports whether nothing is staged, modified, missing or untracked.
func (rep *Report) Clean() bool {
	for _, e := range rep.Entries {
		if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
			return false
		}
	}
	return true
}

func (rep *Report) filter(keep func(StatusEntry) bool) []string {
	out := []string{}
	for _, e := range rep.Entries {
		if keep(e) {
			out = append(out, e.Path)
		}
	}
	return out
}

// Status compares the working tree, the index and the HEAD tree.
//
//  1. Read the index and the HEAD tree (empty before the first commit).
//  2. Walk the working tree, skipping ignored paths.
//  3. Compare each index entry to the HEAD tree and to its working copy.
//     Size and mtime only short-cut the comparison; anything that does not
//     match, or was modified too recently to trust, is re-hashed.
//  4. Report files on disk that are not in the index, and not ignored, as
//     untracked. Ignore rules never hide a tracked file.
//
// Entries verified clean by hashing get their stat data refreshed in the
// index so the next Status can skip them.
func (r *Repo) Status() (*Report, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	ig, err := r.Ignore()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	workFiles, err := worktree.Files(r.fs, r.RootDir, ig)
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	rep := &Report{}
	head, err := r.Refs.Head()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	if head.Symbolic {
		rep.Branch = head.Target
	} else {
		rep.Detached = true
	}
	headHash, _, err := r.headCommit()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	rep.Head = headHash
	headFiles, err := r.headTree()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := make(map[string]*StatusEntry)
	refresh := false

	for _, se := range idx.Entries() {
		entry := &StatusEntry{Path: se.Path}
		result[se.Path] = entry

		hf, inHead := headFiles[se.Path]
		switch {
		case !inHead:
			entry.IndexStatus = StatusNew
		case hf.Hash != se.Hash || object.NormalizeFileMode(hf.Mode) != se.Mode:
			entry.IndexStatus = StatusModified
		default:
			entry.IndexStatus = StatusClean
		}

		// Tracked files are compared even when an ignore rule matches them.
		ws, refreshed, err := r.compareWorktree(idx, se)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		entry.WorkStatus = ws
		refresh = refresh || refreshed
	}

	for path := range workFiles {
		if _, staged := result[path]; !staged {
			result[path] = &StatusEntry{Path: path, IndexStatus: StatusUntracked, WorkStatus: StatusUntracked}
		}
	}
	for path := range headFiles {
		if idx.Has(path) {
			continue
		}
		entry, ok := result[path]
		if !ok {
			entry = &StatusEntry{Path: path, WorkStatus: StatusClean}
			result[path] = entry
		}
		entry.IndexStatus = StatusDeleted
	}

	rep.Entries = make([]StatusEntry, 0, len(result))
	for _, e := range result {
		rep.Entries = append(rep.Entries, *e)
	}
	sort.Slice(rep.Entries, func(i, j int) bool { return rep.Entries[i].Path < rep.Entries[j].Path })

	if refresh {
		if err := idx.Write(); err != nil {
			return nil, fmt.Errorf("status: refresh index: %w", err)
		}
	}
	r.log.Debug("status", zap.Int("entries", len(rep.Entries)), zap.Bool("index_refreshed", refresh))
	return rep, nil
}

// compareWorktree compares the working copy of se with the index. The
// boolean result reports whether the index entry's stat data was refreshed.
func (r *Repo) compareWorktree(idx *index.Index, se index.Entry) (FileStatus, bool, error) {
	abs := filepath.Join(r.RootDir, filepath.FromSlash(se.Path))
	info, err := r.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return StatusDeleted, false, nil
		}
		return 0, false, fmt.Errorf("stat %q: %w: %w", se.Path, object.ErrIOFailure, err)
	}
	if !info.Mode().IsRegular() {
		return StatusDeleted, false, nil
	}
	workMode := worktree.ModeFromFileInfo(info)
	if statMatches(se, info, workMode) {
		return StatusClean, false, nil
	}

	data, err := afero.ReadFile(r.fs, abs)
	if err != nil {
		return 0, false, fmt.Errorf("read %q: %w: %w", se.Path, object.ErrIOFailure, err)
	}
	if object.HashObject(object.KindBlob, data) != se.Hash || workMode != se.Mode {
		return StatusDirty, false, nil
	}

	if se.Size == info.Size() && se.ModTime == info.ModTime().UnixNano() {
		return StatusClean, false, nil
	}
	se.Size = info.Size()
	se.ModTime = info.ModTime().UnixNano()
	if err := idx.Upsert(se); err != nil {
		return 0, false, err
	}
	return StatusClean, true, nil
}

// racyWindow is how recent an mtime has to be for the stat comparison to be
// distrusted: a same-size write inside the filesystem's timestamp
// granularity would otherwise go unnoticed.
const racyWindow = 2 * time.Second

// now is replaced in tests.
var now = time.Now

func statMatches(se index.Entry, info os.FileInfo, workMode string) bool {
	if se.Mode != workMode || se.Size != info.Size() {
		return false
	}
	mtime := info.ModTime()
	if t := now(); mtime.After(t) || t.Sub(mtime) < racyWindow {
		return false
	}
	// Coarse timestamps cannot tell edits within the same second apart.
	if mtime.Nanosecond() == 0 {
		return false
	}
	return se.ModTime == mtime.UnixNano()
}

// ShortCode returns the two-column code used by "status -s": the first
// column describes the index against HEAD, the second the working tree
// against the index.
func (e StatusEntry) ShortCode() string {
	if e.WorkStatus == StatusUntracked && e.IndexStatus != StatusDeleted {
		return "? "
	}
	x := byte(' ')
	switch e.IndexStatus {
	case StatusNew:
		x = 'A'
	case StatusModified:
		x = 'M'
	case StatusDeleted:
		x = 'D'
	}
	y := byte(' ')
	switch e.WorkStatus {
	case StatusDirty:
		y = 'M'
	case StatusDeleted:
		y = 'D'
	}
	return string([]byte{x, y})
}
