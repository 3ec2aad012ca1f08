package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/worktree"
	"go.uber.org/zap"
)

// Init creates a new repository at path: objects/, refs/heads/, logs/,
// config.toml and HEAD attached to the default branch. It fails with
// ErrAlreadyExists if a .gitelle/ directory already exists.
func Init(path string, opts ...Option) (*Repo, error) {
	o := buildOptions(opts)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	r := newRepo(abs, o)

	if _, err := o.fs.Stat(r.MetaDir); err == nil {
		return nil, fmt.Errorf("init: %w at %s", ErrAlreadyExists, r.MetaDir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("init: %w: %w", object.ErrIOFailure, err)
	}

	dirs := []string{
		filepath.Join(r.MetaDir, "objects"),
		filepath.Join(r.MetaDir, "refs", "heads"),
		filepath.Join(r.MetaDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := o.fs.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w: %w", d, object.ErrIOFailure, err)
		}
	}

	branch := o.defaultBranch
	if branch == "" {
		branch = DefaultBranch
	}
	if err := r.WriteConfig(&Config{Core: CoreConfig{DefaultBranch: branch}}); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.Refs.Init(branch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r.log.Info("initialized repository", zap.String("root", r.RootDir), zap.String("branch", branch))
	return r, nil
}

// Open searches upward from path for a .gitelle/ directory and opens the
// repository it belongs to.
func Open(path string, opts ...Option) (*Repo, error) {
	o := buildOptions(opts)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		info, err := o.fs.Stat(filepath.Join(cur, worktree.MetaDir))
		if err == nil && info.IsDir() {
			return newRepo(cur, o), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: %w", ErrNotARepository)
		}
		cur = parent
	}
}
