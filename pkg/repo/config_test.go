package repo

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// Test 1: user settings persist in config.toml.
func TestConfig_SetUser(t *testing.T) {
	r := newTestRepo(t)
	if err := r.SetUser("Ada Lovelace", "ada@example.com"); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if got := cfg.User.Identity(); got != "Ada Lovelace <ada@example.com>" {
		t.Errorf("Identity = %q", got)
	}
	if cfg.Core.DefaultBranch != "main" {
		t.Errorf("default_branch = %q, want main", cfg.Core.DefaultBranch)
	}

	raw, err := afero.ReadFile(r.fs, filepath.Join(r.MetaDir, "config.toml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	for _, want := range []string{"[core]", "default_branch = \"main\"", "[user]", "name = \"Ada Lovelace\""} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("config.toml missing %q:\n%s", want, raw)
		}
	}
}

// Test 2: a missing config file yields defaults; a malformed one fails.
func TestConfig_MissingAndMalformed(t *testing.T) {
	r := newTestRepo(t)
	path := filepath.Join(r.MetaDir, "config.toml")
	if err := r.fs.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Core.DefaultBranch != DefaultBranch || cfg.User.Identity() != "" {
		t.Errorf("defaults = %+v", cfg)
	}

	if err := afero.WriteFile(r.fs, path, []byte("[core\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := r.ReadConfig(); err == nil {
		t.Error("ReadConfig accepted malformed TOML")
	}
}

// Test 3: identities that cannot be encoded are rejected.
func TestConfig_SetUserValidation(t *testing.T) {
	r := newTestRepo(t)
	if err := r.SetUser("", "x@example.com"); err == nil {
		t.Error("SetUser accepted an empty name")
	}
	if err := r.SetUser("a\nb", ""); err == nil {
		t.Error("SetUser accepted a newline")
	}
	if got := (UserConfig{Name: "solo"}).Identity(); got != "solo" {
		t.Errorf("Identity without email = %q", got)
	}
}
