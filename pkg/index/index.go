// Package index implements the staging area: the set of blob snapshots the
// next commit will be built from.
package index

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/worktree"
	"github.com/spf13/afero"
)

var (
	// ErrPathNotFound is returned when a path to stage does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotStaged is returned when removing a path that is not in the index.
	ErrNotStaged = errors.New("path not staged")
	// ErrCorruptIndex is returned when the index file cannot be parsed.
	ErrCorruptIndex = errors.New("corrupt index")
	// ErrInvalidPath is returned for paths the index cannot record.
	ErrInvalidPath = errors.New("invalid path")
)

// PathError records a failure to stage one path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Entry is the staged state of a single file.
type Entry struct {
	Path    string // repo-relative, forward slashes
	Hash    object.Hash
	Mode    string
	Size    int64
	ModTime int64 // unix nanoseconds
}

// Options configures where an Index reads working-tree files from.
type Options struct {
	Root   string           // working-tree root
	Store  *object.Store    // receives blobs written by Add
	Ignore *worktree.Ignore // applied when expanding directories
}

// Index is the in-memory form of the index file. It is not safe for
// concurrent use.
type Index struct {
	fs      afero.Fs
	path    string
	opts    Options
	entries map[string]Entry
}

// Load reads the index file at indexPath. A missing file yields an empty
// index.
func Load(fs afero.Fs, indexPath string, opts Options) (*Index, error) {
	idx := &Index{
		fs:      fs,
		path:    indexPath,
		opts:    opts,
		entries: make(map[string]Entry),
	}
	data, err := afero.ReadFile(fs, indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, fmt.Errorf("load index: %w: %w", object.ErrIOFailure, err)
	}
	entries, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	idx.entries = entries
	return idx, nil
}

func parse(data []byte) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("%w: line %d: want 5 fields, got %d", ErrCorruptIndex, lineNo, len(fields))
		}
		e := Entry{Path: fields[0], Hash: object.Hash(fields[1]), Mode: fields[2]}
		if err := object.ValidatePath(e.Path); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptIndex, lineNo, err)
		}
		if !object.ValidHash(string(e.Hash)) {
			return nil, fmt.Errorf("%w: line %d: bad hash %q", ErrCorruptIndex, lineNo, e.Hash)
		}
		if e.Mode != object.TreeModeFile && e.Mode != object.TreeModeExecutable {
			return nil, fmt.Errorf("%w: line %d: bad mode %q", ErrCorruptIndex, lineNo, e.Mode)
		}
		var err error
		if e.Size, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
			return nil, fmt.Errorf("%w: line %d: bad size %q", ErrCorruptIndex, lineNo, fields[3])
		}
		if e.ModTime, err = strconv.ParseInt(fields[4], 10, 64); err != nil {
			return nil, fmt.Errorf("%w: line %d: bad mtime %q", ErrCorruptIndex, lineNo, fields[4])
		}
		if _, dup := entries[e.Path]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate path %q", ErrCorruptIndex, lineNo, e.Path)
		}
		entries[e.Path] = e
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return entries, nil
}

// Write atomically replaces the index file with the current entries.
func (idx *Index) Write() error {
	var buf bytes.Buffer
	for _, e := range idx.Entries() {
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%d\t%d\n", e.Path, e.Hash, e.Mode, e.Size, e.ModTime)
	}

	dir := filepath.Dir(idx.path)
	tmp, err := afero.TempFile(idx.fs, dir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write index: tmpfile: %w: %w", object.ErrIOFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		idx.fs.Remove(tmpName)
		return fmt.Errorf("write index: %w: %w", object.ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		idx.fs.Remove(tmpName)
		return fmt.Errorf("write index: close: %w: %w", object.ErrIOFailure, err)
	}
	if err := idx.fs.Rename(tmpName, idx.path); err != nil {
		idx.fs.Remove(tmpName)
		return fmt.Errorf("write index: rename: %w: %w", object.ErrIOFailure, err)
	}
	return nil
}

// Entries returns a copy of all entries sorted by path.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Entry returns the entry for path.
func (idx *Index) Entry(path string) (Entry, bool) {
	e, ok := idx.entries[path]
	return e, ok
}

// Has reports whether path is staged.
func (idx *Index) Has(path string) bool {
	_, ok := idx.entries[path]
	return ok
}

// Paths returns the staged paths in sorted order.
func (idx *Index) Paths() []string {
	out := make([]string, 0, len(idx.entries))
	for p := range idx.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of staged paths.
func (idx *Index) Len() int { return len(idx.entries) }

// Upsert inserts or replaces the entry for e.Path.
func (idx *Index) Upsert(e Entry) error {
	if err := checkPath(e.Path); err != nil {
		return &PathError{Path: e.Path, Err: err}
	}
	e.Mode = object.NormalizeFileMode(e.Mode)
	idx.entries[e.Path] = e
	return nil
}

// Remove drops path from the index.
func (idx *Index) Remove(path string) error {
	if _, ok := idx.entries[path]; !ok {
		return &PathError{Path: path, Err: ErrNotStaged}
	}
	delete(idx.entries, path)
	return nil
}

// Replace discards every entry and stages entries instead.
func (idx *Index) Replace(entries []Entry) error {
	next := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if err := checkPath(e.Path); err != nil {
			return &PathError{Path: e.Path, Err: err}
		}
		e.Mode = object.NormalizeFileMode(e.Mode)
		next[e.Path] = e
	}
	idx.entries = next
	return nil
}

// TreeFiles returns the staged files in the form object.BuildTree takes.
func (idx *Index) TreeFiles() []object.TreeFile {
	out := make([]object.TreeFile, 0, len(idx.entries))
	for _, e := range idx.Entries() {
		out = append(out, object.TreeFile{Path: e.Path, Hash: e.Hash, Mode: e.Mode})
	}
	return out
}

func checkPath(p string) error {
	if err := object.ValidatePath(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if strings.ContainsAny(p, "\t\n\r") {
		return fmt.Errorf("%w: %q contains a tab or newline", ErrInvalidPath, p)
	}
	return nil
}
