package refs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ValidateBranchName rejects names that cannot be stored under refs/heads.
// Slash-separated names such as "feature/x" are allowed.
func ValidateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBranchName)
	}
	if name == headFile || strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".lock") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
	}
	for _, r := range name {
		if r <= ' ' || r == 0x7f || strings.ContainsRune(`~^:?*[\`, r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidBranchName, name, r)
		}
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
		}
	}
	return nil
}

func branchPath(name string) string {
	return headsPrefix + name
}

// readBranch returns the hash stored for branch name.
func (s *Store) readBranch(name string) (object.Hash, error) {
	if err := ValidateBranchName(name); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, filepath.FromSlash(branchPath(name)))
	info, err := s.fs.Stat(p)
	if err != nil && !isNotExist(err) {
		return "", fmt.Errorf("branch %q: %w: %w", name, object.ErrIOFailure, err)
	}
	// A directory of nested branches is not itself a branch.
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("branch %q: %w", name, ErrBranchNotFound)
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return "", fmt.Errorf("branch %q: %w: %w", name, object.ErrIOFailure, err)
	}
	h := strings.TrimSpace(string(data))
	if !object.ValidHash(h) {
		return "", fmt.Errorf("branch %q: %w: %q", name, ErrCorruptRef, h)
	}
	return object.Hash(h), nil
}

// Branch returns the commit a branch points at.
func (s *Store) Branch(name string) (object.Hash, error) {
	return s.readBranch(name)
}

// BranchExists reports whether a branch has been created.
func (s *Store) BranchExists(name string) bool {
	_, err := s.readBranch(name)
	return err == nil
}

// CreateBranch creates a branch pointing at h.
func (s *Store) CreateBranch(name string, h object.Hash) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if !object.ValidHash(string(h)) {
		return fmt.Errorf("create branch %q: %w: %q", name, ErrInvalidHash, h)
	}
	if s.BranchExists(name) {
		return fmt.Errorf("create branch %q: %w", name, ErrBranchExists)
	}
	if err := s.writeBranch(name, h, "branch: created"); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// UpdateBranch points a branch at h, creating it if needed. It is how a
// commit advances the current branch.
func (s *Store) UpdateBranch(name string, h object.Hash, reason ...string) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	if !object.ValidHash(string(h)) {
		return fmt.Errorf("update branch %q: %w: %q", name, ErrInvalidHash, h)
	}
	if err := s.writeBranch(name, h, reasonOr(reason, "update")); err != nil {
		return fmt.Errorf("update branch %q: %w", name, err)
	}
	return nil
}

func (s *Store) writeBranch(name string, h object.Hash, reason string) error {
	ref := branchPath(name)
	oldHash := s.resolveQuiet(name)
	headOld := s.resolveQuiet(headFile)

	if err := s.writeFile(ref, string(h)+"\n"); err != nil {
		return err
	}
	s.log.Debug("update ref",
		zap.String("ref", ref),
		zap.String("old", string(oldHash)),
		zap.String("new", string(h)),
	)

	if err := s.appendReflog(ref, oldHash, h, reason); err != nil {
		return err
	}
	// Moving the branch HEAD is attached to moves HEAD too.
	if head, err := s.Head(); err == nil && head.Symbolic && head.Target == name {
		if err := s.appendReflog(headFile, headOld, h, reason); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBranch removes a branch and its reflog.
func (s *Store) DeleteBranch(name string) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if !s.BranchExists(name) {
		return fmt.Errorf("delete branch %q: %w", name, ErrBranchNotFound)
	}
	head, err := s.Head()
	if err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	if head.Symbolic && head.Target == name {
		return fmt.Errorf("delete branch %q: %w", name, ErrCannotDeleteCurrentBranch)
	}

	refFile := filepath.Join(s.dir, filepath.FromSlash(branchPath(name)))
	if err := s.fs.Remove(refFile); err != nil {
		return fmt.Errorf("delete branch %q: %w: %w", name, object.ErrIOFailure, err)
	}
	s.pruneEmptyParents(filepath.Dir(refFile), filepath.Join(s.dir, "refs", "heads"))

	logFile := filepath.Join(s.dir, "logs", filepath.FromSlash(branchPath(name)))
	if err := s.fs.Remove(logFile); err == nil {
		s.pruneEmptyParents(filepath.Dir(logFile), filepath.Join(s.dir, "logs", "refs", "heads"))
	}
	s.log.Debug("delete ref", zap.String("ref", branchPath(name)))
	return nil
}

// ListBranches returns every branch name in sorted order.
func (s *Store) ListBranches() ([]string, error) {
	headsDir := filepath.Join(s.dir, "refs", "heads")
	var names []string
	err := afero.Walk(s.fs, headsDir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(headsDir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list branches: %w: %w", object.ErrIOFailure, err)
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch returns the branch HEAD is attached to. The boolean is false
// when HEAD is detached.
func (s *Store) CurrentBranch() (string, bool, error) {
	head, err := s.Head()
	if err != nil {
		return "", false, err
	}
	if !head.Symbolic {
		return "", false, nil
	}
	return head.Target, true, nil
}

// pruneEmptyParents removes empty directories from dir up to, but not
// including, stop.
func (s *Store) pruneEmptyParents(dir, stop string) {
	for dir != stop && strings.HasPrefix(dir, stop) {
		empty, err := afero.IsEmpty(s.fs, dir)
		if err != nil || !empty {
			return
		}
		if err := s.fs.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
