package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

const testRoot = "/work"

// newTestRepo initializes a repository on an in-memory filesystem.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	return newTestRepoFS(t, afero.NewMemMapFs())
}

func newTestRepoFS(t *testing.T, fs afero.Fs) *Repo {
	t.Helper()
	r, err := Init(testRoot, WithFS(fs))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeFile(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	p := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := r.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := afero.WriteFile(r.fs, p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func readFile(t *testing.T, r *Repo, rel string) string {
	t.Helper()
	data, err := afero.ReadFile(r.fs, filepath.Join(r.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func exists(t *testing.T, r *Repo, rel string) bool {
	t.Helper()
	_, err := r.fs.Stat(filepath.Join(r.RootDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", rel, err)
	}
	return err == nil
}

// commitFiles writes and stages files, then commits them.
func commitFiles(t *testing.T, r *Repo, message string, files map[string]string) string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for rel, content := range files {
		writeFile(t, r, rel, content)
		paths = append(paths, rel)
	}
	if err := r.Add(paths); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h, err := r.Commit(message, "Test <test@example.com>")
	if err != nil {
		t.Fatalf("Commit(%q): %v", message, err)
	}
	return string(h)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
