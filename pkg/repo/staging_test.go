package repo

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/odvcencio/gitelle/pkg/index"
)

// Test 1: Add accepts absolute paths and directories.
func TestAdd_AbsoluteAndDirectory(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, "src/a.go", "a")
	writeFile(t, r, "src/b.go", "b")
	writeFile(t, r, "top.txt", "t")

	if err := r.Add([]string{filepath.Join(testRoot, "src")}); err != nil {
		t.Fatalf("Add(abs dir): %v", err)
	}
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if got := idx.Paths(); !equalStrings(got, []string{"src/a.go", "src/b.go"}) {
		t.Errorf("index = %v", got)
	}
}

// Test 2: a missing path is reported but the rest are staged and saved.
func TestAdd_MissingPath(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, "ok.txt", "ok")

	err := r.Add([]string{"missing.txt", "ok.txt"})
	if !errors.Is(err, index.ErrPathNotFound) {
		t.Fatalf("Add error = %v, want ErrPathNotFound", err)
	}
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if !idx.Has("ok.txt") {
		t.Error("ok.txt not staged")
	}
}

// Test 3: Remove deletes from disk unless cached, and prunes directories.
func TestRemove(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"keep.txt": "k", "dir/a.txt": "a", "dir/b.txt": "b"})

	if err := r.Remove([]string{"keep.txt"}, true); err != nil {
		t.Fatalf("Remove cached: %v", err)
	}
	if !exists(t, r, "keep.txt") {
		t.Error("cached remove deleted the file")
	}

	if err := r.Remove([]string{"dir"}, false); err != nil {
		t.Fatalf("Remove dir: %v", err)
	}
	if exists(t, r, "dir") {
		t.Error("dir/ not pruned")
	}

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("index = %v, want empty", idx.Paths())
	}

	if err := r.Remove([]string{"nothing.txt"}, false); !errors.Is(err, index.ErrNotStaged) {
		t.Errorf("Remove(unstaged) error = %v, want ErrNotStaged", err)
	}
}
