package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// GitDirName is the repository metadata directory. It is never snapshotted.
const GitDirName = ".git"

var (
	ErrRepoExists = errors.New("repository already exists")
	ErrNotRepo    = errors.New("not a repository (or any parent up to /)")
)

// Init creates a new repository at path: .git/objects, .git/refs/heads, a
// HEAD pointing at the default branch and a default grit.toml. Returns
// ErrRepoExists if a .git/ directory already exists.
func Init(path string, opts ...Option) (*Repo, error) {
	gitDir := filepath.Join(path, GitDirName)

	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: %w at %s", ErrRepoExists, gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	r := newRepo(path, gitDir, opts)
	cfg := DefaultConfig()
	if err := r.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.Config = cfg

	head := fmt.Sprintf("ref: refs/heads/%s\n", cfg.Core.DefaultBranch)
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(head), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r.logger.Debug("initialized repository")
	return r, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository. Returns ErrNotRepo if no .git/ directory is found.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, GitDirName)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			r := newRepo(cur, gitDir, opts)
			cfg, err := r.ReadConfig()
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			r.Config = cfg
			return r, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s: %w", abs, ErrNotRepo)
		}
		cur = parent
	}
}
