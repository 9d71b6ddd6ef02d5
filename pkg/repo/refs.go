package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

var ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Head reads .git/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))

	if ref, ok := strings.CutPrefix(content, "ref: "); ok {
		return ref, nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object hash. A missing ref file
// yields an error matching object.ErrNotFound.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  2. If name starts with "refs/", read .git/<name>.
//  3. Otherwise, try "refs/heads/<name>".
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return object.ZeroHash, err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		h, err := object.ParseHash(head)
		if err != nil {
			return object.ZeroHash, fmt.Errorf("resolve ref HEAD: %w", err)
		}
		return h, nil
	}

	refPath := filepath.Join(r.GitDir, "refs", "heads", name)
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.GitDir, filepath.FromSlash(name))
	}

	h, ok, err := readRefHash(refPath)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, err)
	}
	if !ok {
		return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, object.ErrNotFound)
	}
	return h, nil
}

// UpdateRef writes a hash to the named ref file under .git/.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref file (e.g. "refs/heads/main"
// or "HEAD") under .git/ using temp file + rename. Writers are serialized by
// an advisory lock on .git/refs.lock. If expectedOld is provided, the update
// only succeeds when the current ref hash matches it; object.ZeroHash expects
// the ref to be absent.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}

	refPath := filepath.Join(r.GitDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lock, err := r.lockRefs()
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	defer lock.Unlock()

	oldHash, _, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return fmt.Errorf(
			"update ref %q: %w (expected %s, found %s)",
			name,
			ErrRefCASMismatch,
			expectedOld[0],
			oldHash,
		)
	}

	if err := writeFileAtomic(refPath, []byte(h.String()+"\n")); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	r.logger.Debug("ref updated",
		zap.String("ref", name),
		zap.Stringer("old", oldHash),
		zap.Stringer("new", h),
	)
	return nil
}

func (r *Repo) lockRefs() (*flock.Flock, error) {
	lockPath := filepath.Join(r.GitDir, "refs.lock")
	ctx, cancel := context.WithTimeout(context.Background(), refLockWaitLimit)
	defer cancel()

	fl := flock.New(lockPath)
	ok, err := fl.TryLockContext(ctx, refLockRetryDelay)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
	}
	return fl, nil
}

// readRefHash returns the hash stored at refPath. A missing file reports
// ok=false with the zero hash.
func readRefHash(refPath string) (h object.Hash, ok bool, err error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.ZeroHash, false, nil
		}
		return object.ZeroHash, false, err
	}
	h, err = object.ParseHash(strings.TrimSpace(string(data)))
	if err != nil {
		return object.ZeroHash, false, err
	}
	return h, true, nil
}
