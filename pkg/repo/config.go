package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

const (
	defaultUserName  = "grit"
	defaultUserEmail = "grit@localhost"
	defaultBranch    = "main"
)

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
}

// UserConfig is the identity recorded in commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig controls snapshotting.
type CoreConfig struct {
	// Exclude lists entry names skipped at every level of the working tree
	// walk, in addition to .git.
	Exclude       []string `toml:"exclude"`
	DefaultBranch string   `toml:"default_branch"`
}

// DefaultConfig returns the settings used when grit.toml is absent.
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{Name: defaultUserName, Email: defaultUserEmail},
		Core: CoreConfig{
			Exclude:       []string{"target"},
			DefaultBranch: defaultBranch,
		},
	}
}

func (c *Config) fillDefaults() {
	if c.User.Name == "" {
		c.User.Name = defaultUserName
	}
	if c.User.Email == "" {
		c.User.Email = defaultUserEmail
	}
	if c.Core.DefaultBranch == "" {
		c.Core.DefaultBranch = defaultBranch
	}
}

// ExcludedNames returns the set of names the tree walk skips.
func (c *Config) ExcludedNames() map[string]struct{} {
	names := map[string]struct{}{GitDirName: {}}
	for _, n := range c.Core.Exclude {
		names[n] = struct{}{}
	}
	return names
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GitDir, "grit.toml")
}

// ReadConfig reads .git/grit.toml. A missing file yields DefaultConfig.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(r.configPath(), cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// WriteConfig atomically writes .git/grit.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := writeFileAtomic(r.configPath(), buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it into
// place.
func writeFileAtomic(path string, data []byte) (retErr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("tmpfile: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if retErr != nil {
			os.Remove(tmpName)
		}
	}()

	_, err = tmp.Write(data)
	err = multierr.Append(err, tmp.Sync())
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
