package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

var ErrNothingToCommit = errors.New("nothing to commit")

// Identity names the person recorded in a commit.
type Identity struct {
	Name  string
	Email string
}

// CommitOptions supplies the identity and clock a commit is stamped with.
// A zero Committer falls back to Author; a nil Now uses time.Now.
type CommitOptions struct {
	Author    Identity
	Committer Identity
	Now       func() time.Time
}

// DefaultCommitOptions uses the configured user and the wall clock.
func (r *Repo) DefaultCommitOptions() CommitOptions {
	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	id := Identity{Name: cfg.User.Name, Email: cfg.User.Email}
	return CommitOptions{Author: id, Committer: id, Now: time.Now}
}

func (o CommitOptions) signatures() (author, committer object.Signature) {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	when := now()
	c := o.Committer
	if c == (Identity{}) {
		c = o.Author
	}
	author = object.Signature{Name: o.Author.Name, Email: o.Author.Email, When: when}
	committer = object.Signature{Name: c.Name, Email: c.Email, When: when}
	return author, committer
}

// CommitTree writes a commit object for tree with an optional parent
// (object.ZeroHash for none). Both must already be stored with the right
// kind.
func (r *Repo) CommitTree(tree, parent object.Hash, message string, opts CommitOptions) (object.Hash, error) {
	if err := r.expectType(tree, object.TypeTree); err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: tree: %w", err)
	}
	if !parent.IsZero() {
		if err := r.expectType(parent, object.TypeCommit); err != nil {
			return object.ZeroHash, fmt.Errorf("commit-tree: parent: %w", err)
		}
	}

	author, committer := opts.signatures()
	c := &object.CommitObj{
		TreeHash:  tree,
		Parent:    parent,
		Author:    author,
		Committer: committer,
		Message:   message,
	}
	h, err := r.Store.WriteBytes(object.TypeCommit, object.MarshalCommit(c))
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit-tree: write commit: %w", err)
	}
	return h, nil
}

func (r *Repo) expectType(h object.Hash, want object.ObjectType) error {
	typ, _, err := r.ObjectInfo(h)
	if err != nil {
		return err
	}
	if typ != want {
		return fmt.Errorf("object %s: %w: got %s, want %s", h, object.ErrUnsupported, typ, want)
	}
	return nil
}

// Commit snapshots the working directory and records it on the current
// branch.
//
//  1. Write the root tree (ErrNothingToCommit when empty)
//  2. Resolve HEAD to get the parent commit (absent on the first commit)
//  3. Write the commit
//  4. Update the branch HEAD points at, or HEAD itself when detached
func (r *Repo) Commit(message string, opts CommitOptions) (object.Hash, error) {
	treeHash, ok, err := r.WriteTree(r.RootDir)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}
	if !ok {
		return object.ZeroHash, fmt.Errorf("commit: %w", ErrNothingToCommit)
	}

	parent, err := r.ResolveRef("HEAD")
	if err != nil {
		if !errors.Is(err, object.ErrNotFound) {
			return object.ZeroHash, fmt.Errorf("commit: %w", err)
		}
		parent = object.ZeroHash
	}

	commitHash, err := r.CommitTree(treeHash, parent, message, opts)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: read HEAD: %w", err)
	}
	ref := "HEAD"
	if strings.HasPrefix(head, "refs/") {
		ref = head
	}
	if err := r.UpdateRefCAS(ref, commitHash, parent); err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	r.logger.Debug("committed",
		zap.Stringer("commit", commitHash),
		zap.Stringer("tree", treeHash),
		zap.String("ref", ref),
	)
	return commitHash, nil
}
