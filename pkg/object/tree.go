package object

import (
	"fmt"
	"iter"
	"sort"
	"strings"
)

// TreeFile is a single file in a flattened tree.
type TreeFile struct {
	Path string // forward-slash, repo-relative
	Hash Hash   // blob hash
	Mode string
}

type buildDir struct {
	files   map[string]TreeFile
	subdirs map[string]struct{}
}

// BuildTree converts a flat list of files into a hierarchy of Tree objects,
// writes every tree to the store and returns the root tree hash.
//
// Directories are written bottom-up from a worklist ordered by depth, so the
// result depends only on the set of (path, hash, mode) triples and never on
// the order of files.
func BuildTree(s *Store, files []TreeFile) (Hash, error) {
	dirs := map[string]*buildDir{"": newBuildDir()}
	getDir := func(p string) *buildDir {
		d, ok := dirs[p]
		if !ok {
			d = newBuildDir()
			dirs[p] = d
		}
		return d
	}

	for _, f := range files {
		if err := ValidatePath(f.Path); err != nil {
			return "", fmt.Errorf("build tree: %w", err)
		}
		parent, name := splitPath(f.Path)
		pd := getDir(parent)
		if _, dup := pd.files[name]; dup {
			return "", fmt.Errorf("build tree: duplicate path %q", f.Path)
		}
		pd.files[name] = f

		// Register every ancestor directory with its parent.
		for dir := parent; dir != ""; {
			up, base := splitPath(dir)
			getDir(up).subdirs[base] = struct{}{}
			dir = up
		}
	}

	order := make([]string, 0, len(dirs))
	for p := range dirs {
		order = append(order, p)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := pathDepth(order[i]), pathDepth(order[j])
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})

	written := make(map[string]Hash, len(order))
	for _, p := range order {
		d := dirs[p]
		entries := make([]TreeEntry, 0, len(d.files)+len(d.subdirs))
		for name, f := range d.files {
			if _, clash := d.subdirs[name]; clash {
				return "", fmt.Errorf("build tree: %q is both a file and a directory", joinPath(p, name))
			}
			entries = append(entries, TreeEntry{
				Name: name,
				Mode: NormalizeFileMode(f.Mode),
				Kind: KindBlob,
				Hash: f.Hash,
			})
		}
		for name := range d.subdirs {
			entries = append(entries, TreeEntry{
				Name: name,
				Mode: TreeModeDir,
				Kind: KindTree,
				Hash: written[joinPath(p, name)],
			})
		}

		h, err := s.WriteTree(&Tree{Entries: entries})
		if err != nil {
			return "", fmt.Errorf("write tree (prefix=%q): %w", p, err)
		}
		written[p] = h
	}
	return written[""], nil
}

func newBuildDir() *buildDir {
	return &buildDir{
		files:   make(map[string]TreeFile),
		subdirs: make(map[string]struct{}),
	}
}

// WalkTree lazily expands a tree into its files, depth-first in name order.
// The sequence is a pure function of the hash and can be ranged over any
// number of times. A read failure is yielded once and ends the walk.
func WalkTree(s *Store, root Hash) iter.Seq2[TreeFile, error] {
	type frame struct {
		prefix  string
		entries []TreeEntry
		next    int
	}

	return func(yield func(TreeFile, error) bool) {
		tr, err := s.ReadTree(root)
		if err != nil {
			yield(TreeFile{}, fmt.Errorf("walk tree: read %s: %w", root, err))
			return
		}
		stack := []*frame{{entries: tr.Entries}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next >= len(top.entries) {
				stack = stack[:len(stack)-1]
				continue
			}
			e := top.entries[top.next]
			top.next++

			fullPath := joinPath(top.prefix, e.Name)
			if e.IsDir() {
				sub, err := s.ReadTree(e.Hash)
				if err != nil {
					yield(TreeFile{}, fmt.Errorf("walk tree: read %s (%s): %w", e.Hash, fullPath, err))
					return
				}
				stack = append(stack, &frame{prefix: fullPath, entries: sub.Entries})
				continue
			}
			if !yield(TreeFile{Path: fullPath, Hash: e.Hash, Mode: e.Mode}, nil) {
				return
			}
		}
	}
}

// FlattenTree collects WalkTree into a map keyed by path.
func FlattenTree(s *Store, root Hash) (map[string]TreeFile, error) {
	out := make(map[string]TreeFile)
	for f, err := range WalkTree(s, root) {
		if err != nil {
			return nil, err
		}
		out[f.Path] = f
	}
	return out, nil
}

// EmptyTreeHash is the hash of the tree with no entries.
var EmptyTreeHash = HashObject(KindTree, nil)

// ValidatePath checks that p is a clean, relative, forward-slash path.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}
	if strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return fmt.Errorf("path %q must be relative and name a file", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("path %q is not clean", p)
		}
		if strings.ContainsRune(seg, 0) {
			return fmt.Errorf("path %q contains NUL", p)
		}
	}
	return nil
}

// NormalizeFileMode maps any non-executable mode to the regular file mode.
func NormalizeFileMode(mode string) string {
	if mode == TreeModeExecutable {
		return TreeModeExecutable
	}
	return TreeModeFile
}

func splitPath(p string) (dir, base string) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func pathDepth(p string) int {
	if p == "" {
		return -1
	}
	return strings.Count(p, "/")
}
