package repo

import (
	"errors"
	"testing"

	"github.com/odvcencio/gitelle/pkg/refs"
)

// Test 1: branching before the first commit fails.
func TestCreateBranch_BeforeFirstCommit(t *testing.T) {
	r := newTestRepo(t)
	if err := r.CreateBranch("feature"); !errors.Is(err, refs.ErrDanglingReference) {
		t.Fatalf("CreateBranch error = %v, want ErrDanglingReference", err)
	}
}

// Test 2: branches list with their tips and the current marker.
func TestBranches_List(t *testing.T) {
	r := newTestRepo(t)
	h := commitFiles(t, r, "first commit", map[string]string{"a.txt": "a"})
	if err := r.CreateBranch("feature/x"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.CreateBranch("feature/x"); !errors.Is(err, refs.ErrBranchExists) {
		t.Errorf("duplicate CreateBranch error = %v, want ErrBranchExists", err)
	}

	branches, err := r.Branches()
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("Branches = %+v, want 2", branches)
	}
	if branches[0].Name != "feature/x" || branches[0].Current {
		t.Errorf("branches[0] = %+v", branches[0])
	}
	if branches[1].Name != "main" || !branches[1].Current || string(branches[1].Hash) != h {
		t.Errorf("branches[1] = %+v", branches[1])
	}
	if branches[1].Subject != "first commit" {
		t.Errorf("Subject = %q", branches[1].Subject)
	}
}

// Test 3: the current branch cannot be deleted; others can.
func TestDeleteBranch(t *testing.T) {
	r := newTestRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "a"})
	if err := r.CreateBranch("feature"); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	if err := r.DeleteBranch("main"); !errors.Is(err, refs.ErrCannotDeleteCurrentBranch) {
		t.Errorf("DeleteBranch(main) error = %v, want ErrCannotDeleteCurrentBranch", err)
	}
	if err := r.DeleteBranch("feature"); err != nil {
		t.Fatalf("DeleteBranch(feature): %v", err)
	}
	if err := r.DeleteBranch("feature"); !errors.Is(err, refs.ErrBranchNotFound) {
		t.Errorf("second DeleteBranch error = %v, want ErrBranchNotFound", err)
	}
}

// Test 4: the HEAD reflog records commits and checkouts.
func TestReflog_HeadMoves(t *testing.T) {
	r := newTestRepo(t)
	first := commitFiles(t, r, "first", map[string]string{"a.txt": "a"})
	if err := r.CheckoutNewBranch("dev"); err != nil {
		t.Fatalf("CheckoutNewBranch: %v", err)
	}
	second := commitFiles(t, r, "second", map[string]string{"b.txt": "b"})

	entries, err := r.Reflog("HEAD", 0)
	if err != nil {
		t.Fatalf("Reflog: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("HEAD reflog has %d entries, want 3: %+v", len(entries), entries)
	}
	if string(entries[0].NewHash) != second || entries[0].Reason != "commit: second" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Reason != "checkout: moving to dev" || string(entries[1].NewHash) != first {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if resolveOrEmpty(t, r, "dev") != second {
		t.Error("dev did not advance")
	}
}

func resolveOrEmpty(t *testing.T, r *Repo, rev string) string {
	t.Helper()
	h, err := r.ResolveCommit(rev)
	if err != nil {
		return ""
	}
	return string(h)
}

// Test 5: revisions resolve through HEAD, branches and hash prefixes.
func TestResolveCommit(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.ResolveCommit("HEAD"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("ResolveCommit(HEAD) before commit error = %v, want ErrRefNotFound", err)
	}
	h := commitFiles(t, r, "first", map[string]string{"a.txt": "a"})

	for _, rev := range []string{"HEAD", "main", h, h[:8]} {
		got, err := r.ResolveCommit(rev)
		if err != nil {
			t.Errorf("ResolveCommit(%q): %v", rev, err)
			continue
		}
		if string(got) != h {
			t.Errorf("ResolveCommit(%q) = %s, want %s", rev, got, h)
		}
	}
}
