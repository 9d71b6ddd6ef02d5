package repo

import (
	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config

	logger *zap.Logger
}

// Option configures a Repo at Init or Open time.
type Option func(*Repo)

// WithLogger sets the logger shared by the repository and its object store.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repo) {
		r.logger = logger
	}
}

func newRepo(root, gitDir string, opts []Option) *Repo {
	r := &Repo{
		RootDir: root,
		GitDir:  gitDir,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Store = object.NewStore(gitDir, object.WithLogger(r.logger))
	return r
}
