package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/afero"
)

// DefaultBranch is used when neither an option nor the config names one.
const DefaultBranch = "main"

// Config stores repository-local settings in .gitelle/config.toml.
type Config struct {
	Core CoreConfig `toml:"core"`
	User UserConfig `toml:"user"`
}

// CoreConfig holds repository behavior settings.
type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

// UserConfig identifies the committer.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// Identity formats the user as "name <email>", or "" when no name is set.
func (u UserConfig) Identity() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return ""
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		return fmt.Sprintf("%s <%s>", name, email)
	}
	return name
}

func (r *Repo) configPath() string {
	return filepath.Join(r.MetaDir, "config.toml")
}

// ReadConfig reads .gitelle/config.toml. A missing file yields defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := &Config{Core: CoreConfig{DefaultBranch: DefaultBranch}}
	data, err := afero.ReadFile(r.fs, r.configPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w: %w", object.ErrIOFailure, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(cfg.Core.DefaultBranch) == "" {
		cfg.Core.DefaultBranch = DefaultBranch
	}
	return cfg, nil
}

// WriteConfig atomically writes .gitelle/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := afero.TempFile(r.fs, r.MetaDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w: %w", object.ErrIOFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		r.fs.Remove(tmpName)
		return fmt.Errorf("write config: write: %w: %w", object.ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		r.fs.Remove(tmpName)
		return fmt.Errorf("write config: close: %w: %w", object.ErrIOFailure, err)
	}
	if err := r.fs.Rename(tmpName, r.configPath()); err != nil {
		r.fs.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w: %w", object.ErrIOFailure, err)
	}
	return nil
}

// SetUser stores the committer identity used when no author is given.
func (r *Repo) SetUser(name, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("set user: name is required")
	}
	if strings.ContainsAny(name+email, "\n<>") {
		return fmt.Errorf("set user: %w: name and email may not contain newlines or angle brackets", ErrInvalidAuthor)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.User = UserConfig{Name: name, Email: strings.TrimSpace(email)}
	return r.WriteConfig(cfg)
}
