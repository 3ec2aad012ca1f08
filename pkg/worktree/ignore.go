package worktree

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

const (
	// MetaDir is the repository metadata directory at the working-tree root.
	MetaDir = ".gitelle"
	// IgnoreFile holds ignore patterns, one per line, at the working-tree root.
	IgnoreFile = ".gitelleignore"
)

// Ignore decides whether a working-tree path is excluded from tracking.
// The metadata directory is always ignored.
type Ignore struct {
	patterns []ignorePattern

	// Patterns grouped by how they are matched.
	dirPrefix    map[string][]int
	exactBase    map[string][]int
	exactPath    map[string][]int
	wildcardBase []int
	wildcardPath []int
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool // contains a slash: matched against the full path
	regex    *regexp.Regexp
}

// LoadIgnore reads IgnoreFile from root. A missing file yields the built-in
// rules only.
func LoadIgnore(fs afero.Fs, root string) (*Ignore, error) {
	data, err := afero.ReadFile(fs, filepath.Join(root, IgnoreFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewIgnore(nil), nil
		}
		return nil, fmt.Errorf("load ignore rules: %w", err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load ignore rules: %w", err)
	}
	return NewIgnore(lines), nil
}

// NewIgnore builds an Ignore from pattern lines in .gitignore syntax: blank
// lines and # comments are skipped, a leading ! negates, a trailing / matches
// directories only, and ** spans path segments.
func NewIgnore(lines []string) *Ignore {
	ig := &Ignore{
		patterns: []ignorePattern{
			{pattern: MetaDir, dirOnly: true},
			{pattern: ".git", dirOnly: true},
		},
	}
	for _, line := range lines {
		if p, ok := parsePattern(line); ok {
			ig.patterns = append(ig.patterns, p)
		}
	}
	ig.compile()
	return ig
}

func parsePattern(line string) (ignorePattern, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignorePattern{}, false
	}

	var p ignorePattern
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignorePattern{}, false
	}

	p.anchored = strings.Contains(line, "/")
	p.pattern = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p, true
}

func (ig *Ignore) compile() {
	ig.dirPrefix = make(map[string][]int)
	ig.exactBase = make(map[string][]int)
	ig.exactPath = make(map[string][]int)

	for idx, p := range ig.patterns {
		literal := p.regex == nil && !strings.ContainsAny(p.pattern, "*?[")
		switch {
		case p.dirOnly && literal:
			ig.dirPrefix[p.pattern] = append(ig.dirPrefix[p.pattern], idx)
			if !p.anchored {
				ig.exactBase[p.pattern] = append(ig.exactBase[p.pattern], idx)
			}
		case literal && p.anchored:
			ig.exactPath[p.pattern] = append(ig.exactPath[p.pattern], idx)
		case literal:
			ig.exactBase[p.pattern] = append(ig.exactBase[p.pattern], idx)
		case p.anchored:
			ig.wildcardPath = append(ig.wildcardPath, idx)
		default:
			ig.wildcardBase = append(ig.wildcardBase, idx)
		}
	}
}

// Match reports whether the repo-relative, forward-slash path is ignored.
// isDir tells whether the path names a directory, which dir-only patterns
// require. The last matching pattern wins.
func (ig *Ignore) Match(p string, isDir bool) bool {
	p = strings.Trim(filepath.ToSlash(p), "/")
	if p == "" {
		return false
	}
	base := path.Base(p)

	last := -1
	ignored := false
	apply := func(idx int) {
		pat := ig.patterns[idx]
		if pat.dirOnly && !isDir {
			return
		}
		if idx > last {
			last = idx
			ignored = !pat.negated
		}
	}

	// A literal directory pattern also covers everything beneath it.
	if idxs, ok := ig.dirPrefix[p]; ok {
		for _, idx := range idxs {
			apply(idx)
		}
	}
	for i := 0; i < len(p); i++ {
		if p[i] != '/' {
			continue
		}
		for _, idx := range ig.dirPrefix[p[:i]] {
			if idx > last {
				last = idx
				ignored = !ig.patterns[idx].negated
			}
		}
	}

	for _, idx := range ig.exactPath[p] {
		apply(idx)
	}
	for _, idx := range ig.exactBase[base] {
		apply(idx)
	}
	for _, idx := range ig.wildcardPath {
		if ig.patterns[idx].match(p) {
			apply(idx)
		}
	}
	for _, idx := range ig.wildcardBase {
		if ig.patterns[idx].match(base) {
			apply(idx)
		}
	}
	return ignored
}

func (p ignorePattern) match(target string) bool {
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	ok, _ := path.Match(p.pattern, target)
	return ok
}

func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				// "**/" matches zero or more whole segments.
				b.WriteString("(?:.*/)?")
				i += 2
			} else {
				b.WriteString(".*")
				i++
			}
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			if strings.ContainsRune(`.+()|[]{}^$\`, rune(ch)) {
				b.WriteByte('\\')
			}
			b.WriteByte(ch)
		}
	}
	b.WriteString("$")
	return b.String()
}
