package repo

import (
	"path/filepath"
	"testing"
	"time"
)

func mustStatus(t *testing.T, r *Repo) *Report {
	t.Helper()
	rep, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	return rep
}

func statusEntryForPath(rep *Report, path string) *StatusEntry {
	for i := range rep.Entries {
		if rep.Entries[i].Path == path {
			return &rep.Entries[i]
		}
	}
	return nil
}

func assertPartition(t *testing.T, rep *Report) {
	t.Helper()
	seen := make(map[string]string)
	for name, set := range map[string][]string{
		"staged":    rep.Staged(),
		"unstaged":  rep.Unstaged(),
		"untracked": rep.Untracked(),
	} {
		for _, p := range set {
			if other, ok := seen[p]; ok {
				t.Errorf("%q is both %s and %s", p, other, name)
			}
			seen[p] = name
		}
	}
}

// Test 1: a fresh repository has nothing to report.
func TestStatus_EmptyRepo(t *testing.T) {
	r := newTestRepo(t)
	rep := mustStatus(t, r)

	if len(rep.Staged()) != 0 || len(rep.Unstaged()) != 0 || len(rep.Untracked()) != 0 {
		t.Fatalf("status = (%v, %v, %v), want all empty", rep.Staged(), rep.Unstaged(), rep.Untracked())
	}
	if !rep.Clean() {
		t.Error("Clean() = false for empty repo")
	}
	if rep.Branch != "main" || rep.Detached || rep.Head != "" {
		t.Errorf("report head = (%q, %v, %q)", rep.Branch, rep.Detached, rep.Head)
	}
}

// Test 2: add a file, then Status shows it as staged only.
func TestStatus_StagedNew(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, "a.txt", "hello")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rep := mustStatus(t, r)
	if got := rep.Staged(); !equalStrings(got, []string{"a.txt"}) {
		t.Errorf("Staged = %v, want [a.txt]", got)
	}
	if len(rep.Unstaged()) != 0 || len(rep.Untracked()) != 0 {
		t.Errorf("Unstaged = %v, Untracked = %v, want empty", rep.Unstaged(), rep.Untracked())
	}
	e := statusEntryForPath(rep, "a.txt")
	if e.IndexStatus != StatusNew || e.WorkStatus != StatusClean {
		t.Errorf("a.txt = (%d, %d), want (StatusNew, StatusClean)", e.IndexStatus, e.WorkStatus)
	}
	if e.ShortCode() != "A " {
		t.Errorf("ShortCode = %q, want %q", e.ShortCode(), "A ")
	}
}

// Test 3: a file never added is untracked; ignored files are not reported.
func TestStatus_UntrackedAndIgnored(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, ".gitelleignore", "*.log\nbuild/\n")
	writeFile(t, r, "notes.txt", "n")
	writeFile(t, r, "debug.log", "d")
	writeFile(t, r, "build/out.bin", "b")

	rep := mustStatus(t, r)
	if got := rep.Untracked(); !equalStrings(got, []string{".gitelleignore", "notes.txt"}) {
		t.Errorf("Untracked = %v", got)
	}
	if code := statusEntryForPath(rep, "notes.txt").ShortCode(); code != "? " {
		t.Errorf("ShortCode = %q, want %q", code, "? ")
	}
}

// Test 4: a committed file edited on disk is unstaged.
func TestStatus_ModifiedAfterCommit(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "hello", "b.txt": "keep"})
	writeFile(t, r, "a.txt", "hello, world")

	rep := mustStatus(t, r)
	if got := rep.Unstaged(); !equalStrings(got, []string{"a.txt"}) {
		t.Errorf("Unstaged = %v, want [a.txt]", got)
	}
	if len(rep.Staged()) != 0 {
		t.Errorf("Staged = %v, want empty", rep.Staged())
	}
	if code := statusEntryForPath(rep, "a.txt").ShortCode(); code != " M" {
		t.Errorf("ShortCode = %q, want %q", code, " M")
	}
	if rep.Head == "" {
		t.Error("Head is empty after commit")
	}
}

// Test 5: a path staged and then edited again is reported only as staged.
func TestStatus_StagedThenEditedIsDisjoint(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "one"})
	writeFile(t, r, "a.txt", "two")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	writeFile(t, r, "a.txt", "three")
	writeFile(t, r, "new.txt", "n")

	rep := mustStatus(t, r)
	assertPartition(t, rep)
	if got := rep.Staged(); !equalStrings(got, []string{"a.txt"}) {
		t.Errorf("Staged = %v, want [a.txt]", got)
	}
	if len(rep.Unstaged()) != 0 {
		t.Errorf("Unstaged = %v, want empty", rep.Unstaged())
	}
	e := statusEntryForPath(rep, "a.txt")
	if e.IndexStatus != StatusModified || e.WorkStatus != StatusDirty {
		t.Errorf("a.txt = (%d, %d), want (StatusModified, StatusDirty)", e.IndexStatus, e.WorkStatus)
	}
	if e.ShortCode() != "MM" {
		t.Errorf("ShortCode = %q, want MM", e.ShortCode())
	}
}

// Test 6: removed and missing files are reported outside the partition.
func TestStatus_RemovedAndMissing(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"gone.txt": "g", "cached.txt": "c", "lost.txt": "l"})

	if err := r.Remove([]string{"gone.txt"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := r.Remove([]string{"cached.txt"}, true); err != nil {
		t.Fatalf("Remove cached: %v", err)
	}
	if err := r.fs.Remove(filepath.Join(testRoot, "lost.txt")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	rep := mustStatus(t, r)
	assertPartition(t, rep)
	if got := rep.Removed(); !equalStrings(got, []string{"cached.txt", "gone.txt"}) {
		t.Errorf("Removed = %v", got)
	}
	if got := rep.Missing(); !equalStrings(got, []string{"lost.txt"}) {
		t.Errorf("Missing = %v", got)
	}
	if got := rep.Untracked(); !equalStrings(got, []string{"cached.txt"}) {
		t.Errorf("Untracked = %v, want [cached.txt]", got)
	}
	if code := statusEntryForPath(rep, "gone.txt").ShortCode(); code != "D " {
		t.Errorf("gone.txt ShortCode = %q", code)
	}
	if code := statusEntryForPath(rep, "lost.txt").ShortCode(); code != " D" {
		t.Errorf("lost.txt ShortCode = %q", code)
	}
}

// Test 7: a same-size edit with the recorded mtime is still caught while
// the mtime is recent.
func TestStatus_RacyEditDetected(t *testing.T) {
	r := newTestRepo(t)
	writeFile(t, r, "a.txt", "aaaa")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	staged, _ := idx.Entry("a.txt")

	writeFile(t, r, "a.txt", "bbbb")
	mtime := time.Unix(0, staged.ModTime)
	if err := r.fs.Chtimes(filepath.Join(testRoot, "a.txt"), mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	rep := mustStatus(t, r)
	if e := statusEntryForPath(rep, "a.txt"); e.WorkStatus != StatusDirty {
		t.Errorf("WorkStatus = %d, want StatusDirty", e.WorkStatus)
	}
}

// Test 8: a touched but unchanged file is clean, and its stat data is
// refreshed in the index.
func TestStatus_RefreshesStatData(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "same"})

	touched := time.Date(2024, 1, 2, 3, 4, 5, 678, time.UTC)
	if err := r.fs.Chtimes(filepath.Join(testRoot, "a.txt"), touched, touched); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	rep := mustStatus(t, r)
	if !rep.Clean() {
		t.Fatalf("status not clean: %+v", rep.Entries)
	}
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	e, _ := idx.Entry("a.txt")
	if e.ModTime != touched.UnixNano() {
		t.Errorf("index mtime = %d, want %d", e.ModTime, touched.UnixNano())
	}

	// The refreshed entry now passes the stat check without re-hashing.
	info, err := r.fs.Stat(filepath.Join(testRoot, "a.txt"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !statMatches(e, info, e.Mode) {
		t.Error("refreshed entry does not match its stat data")
	}
}

// Test 9: an executable bit flipped on disk makes the file dirty.
func TestStatus_DirtyWhenExecutableBitChanges(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"run.sh": "#!/bin/sh\n"})
	if err := r.fs.Chmod(filepath.Join(testRoot, "run.sh"), 0o755); err != nil {
		t.Fatalf("Chmod: %v", err)
	}

	rep := mustStatus(t, r)
	if got := rep.Unstaged(); !equalStrings(got, []string{"run.sh"}) {
		t.Errorf("Unstaged = %v, want [run.sh]", got)
	}
}

// Test 10: a tracked file matched by an ignore rule is compared like any
// other tracked file instead of being reported missing.
func TestStatus_IgnoredTrackedFile(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "log", map[string]string{"build.log": "output"})
	writeFile(t, r, ".gitelleignore", "*.log\n")

	rep := mustStatus(t, r)
	if len(rep.Missing()) != 0 {
		t.Errorf("Missing = %v, want empty", rep.Missing())
	}
	e := statusEntryForPath(rep, "build.log")
	if e == nil {
		t.Fatal("no entry for build.log")
	}
	if e.WorkStatus != StatusClean {
		t.Errorf("WorkStatus = %v, want clean", e.WorkStatus)
	}
	if code := e.ShortCode(); code == " D" {
		t.Errorf("ShortCode = %q, build.log reported deleted", code)
	}

	writeFile(t, r, "build.log", "new output")
	rep = mustStatus(t, r)
	if got := rep.Unstaged(); !equalStrings(got, []string{"build.log"}) {
		t.Errorf("Unstaged = %v, want [build.log]", got)
	}
}

// Test 11: a directory sitting where a tracked file belongs counts as missing.
func TestStatus_DirectoryInPlaceOfFile(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"docs": "plain"})
	if err := r.fs.Remove(filepath.Join(testRoot, "docs")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	writeFile(t, r, "docs/x.txt", "x")

	rep := mustStatus(t, r)
	if got := rep.Missing(); !equalStrings(got, []string{"docs"}) {
		t.Errorf("Missing = %v, want [docs]", got)
	}
	if got := rep.Untracked(); !equalStrings(got, []string{"docs/x.txt"}) {
		t.Errorf("Untracked = %v, want [docs/x.txt]", got)
	}
}
