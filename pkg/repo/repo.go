package repo

import (
	"fmt"
	"path/filepath"

	"github.com/odvcencio/gitelle/pkg/index"
	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/refs"
	"github.com/odvcencio/gitelle/pkg/worktree"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Repo represents an opened repository. It bundles the object store, the
// reference store and the paths the index and working tree live at; every
// operation goes through a Repo value.
type Repo struct {
	RootDir string        // working directory root
	MetaDir string        // .gitelle/ directory
	Store   *object.Store // content-addressed object store
	Refs    *refs.Store   // HEAD and branches

	fs  afero.Fs
	log *zap.Logger
}

type options struct {
	fs            afero.Fs
	log           *zap.Logger
	defaultBranch string
}

// Option configures Init and Open.
type Option func(*options)

// WithFS runs the repository on fs instead of the OS filesystem.
func WithFS(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the logger for repository operations.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDefaultBranch sets the branch HEAD is attached to by Init. It takes
// precedence over the default_branch setting.
func WithDefaultBranch(name string) Option {
	return func(o *options) { o.defaultBranch = name }
}

func buildOptions(opts []Option) options {
	o := options{fs: afero.NewOsFs(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

func newRepo(root string, o options) *Repo {
	meta := filepath.Join(root, worktree.MetaDir)
	return &Repo{
		RootDir: root,
		MetaDir: meta,
		Store:   object.NewStoreFS(o.fs, meta),
		Refs:    refs.NewStore(o.fs, meta, o.log),
		fs:      o.fs,
		log:     o.log,
	}
}

// FS returns the filesystem the repository lives on.
func (r *Repo) FS() afero.Fs { return r.fs }

func (r *Repo) indexPath() string {
	return filepath.Join(r.MetaDir, "index")
}

// ReadIndex loads the index, configured to stage from the working tree.
func (r *Repo) ReadIndex() (*index.Index, error) {
	ig, err := r.Ignore()
	if err != nil {
		return nil, err
	}
	idx, err := index.Load(r.fs, r.indexPath(), index.Options{
		Root:   r.RootDir,
		Store:  r.Store,
		Ignore: ig,
	})
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return idx, nil
}

// Ignore returns the working tree's ignore rules.
func (r *Repo) Ignore() (*worktree.Ignore, error) {
	return worktree.LoadIgnore(r.fs, r.RootDir)
}

// headCommit returns the commit HEAD resolves to, or nil before the first
// commit on the current branch.
func (r *Repo) headCommit() (object.Hash, *object.Commit, error) {
	h, err := r.Refs.ResolveHead()
	if err != nil {
		if isDangling(err) {
			return "", nil, nil
		}
		return "", nil, err
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return "", nil, fmt.Errorf("read HEAD commit %s: %w", h.Short(), err)
	}
	return h, c, nil
}

// headTree flattens the HEAD commit's tree; it is empty before the first
// commit.
func (r *Repo) headTree() (map[string]object.TreeFile, error) {
	_, c, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return map[string]object.TreeFile{}, nil
	}
	files, err := object.FlattenTree(r.Store, c.TreeHash)
	if err != nil {
		return nil, fmt.Errorf("read HEAD tree: %w", err)
	}
	return files, nil
}
