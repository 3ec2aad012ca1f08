// Package refs stores HEAD and branch references.
package refs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// ErrDanglingReference is returned when a symbolic ref names a branch
	// that has no commits yet.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrBranchExists is returned when creating a branch that already exists.
	ErrBranchExists = errors.New("branch already exists")
	// ErrBranchNotFound is returned when a branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")
	// ErrCannotDeleteCurrentBranch is returned when deleting the branch HEAD
	// is attached to.
	ErrCannotDeleteCurrentBranch = errors.New("cannot delete the current branch")
	// ErrInvalidBranchName is returned for names that cannot be used as refs.
	ErrInvalidBranchName = errors.New("invalid branch name")
	// ErrInvalidHash is returned when a ref would store something other than
	// a full commit hash.
	ErrInvalidHash = errors.New("invalid hash")
	// ErrCorruptRef is returned when a ref file cannot be parsed.
	ErrCorruptRef = errors.New("corrupt ref")
)

const (
	headFile    = "HEAD"
	headsPrefix = "refs/heads/"
	symPrefix   = "ref: "
)

// Ref is the value of HEAD or a branch. A symbolic ref holds a branch name;
// a direct ref holds a commit hash.
type Ref struct {
	Symbolic bool
	Target   string
}

// Symbolic returns a ref attached to branch.
func Symbolic(branch string) Ref {
	return Ref{Symbolic: true, Target: branch}
}

// Direct returns a ref holding h.
func Direct(h object.Hash) Ref {
	return Ref{Target: string(h)}
}

func (r Ref) String() string {
	if r.Symbolic {
		return symPrefix + headsPrefix + r.Target
	}
	return r.Target
}

// Store reads and writes refs below a metadata directory. Writes replace
// whole files atomically; concurrent writers are not coordinated and the last
// one wins.
type Store struct {
	fs  afero.Fs
	dir string
	log *zap.Logger
}

// NewStore returns a Store rooted at dir. A nil logger disables logging.
func NewStore(fs afero.Fs, dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{fs: fs, dir: dir, log: log}
}

// Init writes HEAD attached to defaultBranch. The branch itself is created
// by its first commit.
func (s *Store) Init(defaultBranch string) error {
	if err := ValidateBranchName(defaultBranch); err != nil {
		return fmt.Errorf("init refs: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Join(s.dir, "refs", "heads"), 0o755); err != nil {
		return fmt.Errorf("init refs: %w: %w", object.ErrIOFailure, err)
	}
	if err := s.writeFile(headFile, Symbolic(defaultBranch).String()+"\n"); err != nil {
		return fmt.Errorf("init refs: %w", err)
	}
	return nil
}

// Head returns the current value of HEAD.
func (s *Store) Head() (Ref, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, headFile))
	if err != nil {
		return Ref{}, fmt.Errorf("read HEAD: %w: %w", object.ErrIOFailure, err)
	}
	content := strings.TrimSpace(string(data))

	if target, ok := strings.CutPrefix(content, symPrefix); ok {
		target = strings.TrimPrefix(strings.TrimSpace(target), headsPrefix)
		if err := ValidateBranchName(target); err != nil {
			return Ref{}, fmt.Errorf("read HEAD: %w: %v", ErrCorruptRef, err)
		}
		return Symbolic(target), nil
	}
	if !object.ValidHash(content) {
		return Ref{}, fmt.Errorf("read HEAD: %w: %q", ErrCorruptRef, content)
	}
	return Direct(object.Hash(content)), nil
}

// SetHead replaces HEAD. A symbolic target must be a valid branch name but
// need not exist yet; a direct target must be a full hash.
func (s *Store) SetHead(ref Ref, reason ...string) error {
	if ref.Symbolic {
		if err := ValidateBranchName(ref.Target); err != nil {
			return fmt.Errorf("set HEAD: %w", err)
		}
	} else if !object.ValidHash(ref.Target) {
		return fmt.Errorf("set HEAD: %w: %q", ErrInvalidHash, ref.Target)
	}

	oldHash := s.resolveQuiet(headFile)
	if err := s.writeFile(headFile, ref.String()+"\n"); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	s.log.Debug("set HEAD", zap.Stringer("ref", ref))

	newHash := s.resolveQuiet(headFile)
	if err := s.appendReflog(headFile, oldHash, newHash, reasonOr(reason, "checkout")); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// Resolve follows ref to a commit hash. A symbolic ref takes exactly one hop
// through its branch.
func (s *Store) Resolve(ref Ref) (object.Hash, error) {
	if !ref.Symbolic {
		if !object.ValidHash(ref.Target) {
			return "", fmt.Errorf("resolve: %w: %q", ErrInvalidHash, ref.Target)
		}
		return object.Hash(ref.Target), nil
	}

	h, err := s.readBranch(ref.Target)
	if err != nil {
		if errors.Is(err, ErrBranchNotFound) {
			return "", fmt.Errorf("resolve %q: %w", ref.Target, ErrDanglingReference)
		}
		return "", fmt.Errorf("resolve %q: %w", ref.Target, err)
	}
	return h, nil
}

// ResolveHead resolves HEAD to a commit hash. Before the first commit on the
// current branch it returns ErrDanglingReference.
func (s *Store) ResolveHead() (object.Hash, error) {
	head, err := s.Head()
	if err != nil {
		return "", err
	}
	return s.Resolve(head)
}

// resolveQuiet returns the hash HEAD or a branch currently points at, or ""
// when there is none.
func (s *Store) resolveQuiet(name string) object.Hash {
	if name == headFile {
		h, err := s.ResolveHead()
		if err != nil {
			return ""
		}
		return h
	}
	h, err := s.readBranch(name)
	if err != nil {
		return ""
	}
	return h
}

// writeFile atomically replaces the file at rel (relative to the metadata
// directory) via temp file + rename.
func (s *Store) writeFile(rel, content string) error {
	target := filepath.Join(s.dir, filepath.FromSlash(rel))
	dir := filepath.Dir(target)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: mkdir: %w: %w", rel, object.ErrIOFailure, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".ref-tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: tmpfile: %w: %w", rel, object.ErrIOFailure, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w: %w", rel, object.ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: close: %w: %w", rel, object.ErrIOFailure, err)
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: rename: %w: %w", rel, object.ErrIOFailure, err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func reasonOr(reason []string, fallback string) string {
	if len(reason) > 0 && strings.TrimSpace(reason[0]) != "" {
		return reason[0]
	}
	return fallback
}
