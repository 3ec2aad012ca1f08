package refs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const metaDir = "/work/.gitelle"

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s := NewStore(fs, metaDir, nil)
	require.NoError(t, s.Init("main"))
	return s, fs
}

func commitHash(c string) object.Hash {
	return object.HashObject(object.KindCommit, []byte(c))
}

// Test 1: init attaches HEAD to the default branch, which has no commits.
func TestInitHead(t *testing.T) {
	s, fs := newTestStore(t)

	raw, err := afero.ReadFile(fs, filepath.Join(metaDir, "HEAD"))
	require.NoError(t, err)
	require.Equal(t, "ref: refs/heads/main\n", string(raw))

	head, err := s.Head()
	require.NoError(t, err)
	require.Equal(t, Symbolic("main"), head)

	_, err = s.ResolveHead()
	require.ErrorIs(t, err, ErrDanglingReference)

	branches, err := s.ListBranches()
	require.NoError(t, err)
	require.Empty(t, branches)

	name, attached, err := s.CurrentBranch()
	require.NoError(t, err)
	require.True(t, attached)
	require.Equal(t, "main", name)
}

// Test 2: the first update creates the branch and HEAD resolves through it.
func TestUpdateBranchResolvesHead(t *testing.T) {
	s, fs := newTestStore(t)
	h := commitHash("one")
	require.NoError(t, s.UpdateBranch("main", h, "commit (initial): one"))

	raw, err := afero.ReadFile(fs, filepath.Join(metaDir, "refs", "heads", "main"))
	require.NoError(t, err)
	require.Equal(t, string(h)+"\n", string(raw))

	got, err := s.ResolveHead()
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.True(t, s.BranchExists("main"))
}

// Test 3: the bare "ref: <name>" form of HEAD is accepted.
func TestHeadBareSymbolicForm(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(metaDir, "HEAD"), []byte("ref: dev\n"), 0o644))

	head, err := s.Head()
	require.NoError(t, err)
	require.Equal(t, Symbolic("dev"), head)
}

// Test 4: create, list and delete branches, including nested names.
func TestBranchLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	h := commitHash("base")
	require.NoError(t, s.UpdateBranch("main", h))
	require.NoError(t, s.CreateBranch("feature/x", h))
	require.NoError(t, s.CreateBranch("dev", h))

	require.ErrorIs(t, s.CreateBranch("dev", h), ErrBranchExists)

	branches, err := s.ListBranches()
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "feature/x", "main"}, branches)

	require.NoError(t, s.DeleteBranch("feature/x"))
	require.ErrorIs(t, s.DeleteBranch("feature/x"), ErrBranchNotFound)
	require.ErrorIs(t, s.DeleteBranch("nope"), ErrBranchNotFound)

	branches, err = s.ListBranches()
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "main"}, branches)
}

// Test 5: the branch HEAD is attached to cannot be deleted.
func TestDeleteCurrentBranch(t *testing.T) {
	s, _ := newTestStore(t)
	h := commitHash("c")
	require.NoError(t, s.UpdateBranch("main", h))
	require.ErrorIs(t, s.DeleteBranch("main"), ErrCannotDeleteCurrentBranch)

	// Once detached, the former current branch can go.
	require.NoError(t, s.SetHead(Direct(h)))
	require.NoError(t, s.DeleteBranch("main"))
}

// Test 6: detached HEAD holds the hash directly.
func TestDetachedHead(t *testing.T) {
	s, fs := newTestStore(t)
	h := commitHash("detached")
	require.NoError(t, s.SetHead(Direct(h)))

	raw, err := afero.ReadFile(fs, filepath.Join(metaDir, "HEAD"))
	require.NoError(t, err)
	require.Equal(t, string(h)+"\n", string(raw))

	got, err := s.ResolveHead()
	require.NoError(t, err)
	require.Equal(t, h, got)

	_, attached, err := s.CurrentBranch()
	require.NoError(t, err)
	require.False(t, attached)
}

// Test 7: invalid names and hashes are rejected.
func TestValidation(t *testing.T) {
	s, _ := newTestStore(t)
	h := commitHash("v")

	for _, name := range []string{"", "HEAD", "-x", "a..b", "a b", "a/", "/a", "x.lock", ".hidden", "a/.b", "a:b", "a~1"} {
		require.ErrorIs(t, s.CreateBranch(name, h), ErrInvalidBranchName, "name %q", name)
	}
	require.ErrorIs(t, s.CreateBranch("ok", "abc"), ErrInvalidHash)
	require.ErrorIs(t, s.SetHead(Direct("not-a-hash")), ErrInvalidHash)
	require.NoError(t, ValidateBranchName("release/v1.2"))
}

// Test 8: a corrupt HEAD is reported.
func TestCorruptHead(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(metaDir, "HEAD"), []byte("garbage\n"), 0o644))
	_, err := s.Head()
	require.ErrorIs(t, err, ErrCorruptRef)
}

// Test 9: reflog records branch and HEAD moves newest first.
func TestReflog(t *testing.T) {
	s, _ := newTestStore(t)
	ts := time.Unix(1700000000, 0)
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = time.Now })

	h1, h2 := commitHash("1"), commitHash("2")
	require.NoError(t, s.UpdateBranch("main", h1, "commit (initial): first"))
	require.NoError(t, s.UpdateBranch("main", h2, "commit: second"))

	entries, err := s.Reflog("main", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, h2, entries[0].NewHash)
	require.Equal(t, h1, entries[0].OldHash)
	require.Equal(t, "commit: second", entries[0].Reason)
	require.Equal(t, ZeroHash, entries[1].OldHash)
	require.Equal(t, int64(1700000000), entries[1].Timestamp)
	require.Equal(t, "refs/heads/main", entries[1].Ref)

	headLog, err := s.Reflog("HEAD", 1)
	require.NoError(t, err)
	require.Len(t, headLog, 1)
	require.Equal(t, h2, headLog[0].NewHash)

	none, err := s.Reflog("other", 0)
	require.NoError(t, err)
	require.Empty(t, none)
}
