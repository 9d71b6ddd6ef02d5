package repo

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/multierr"
)

// openFileObject opens path as a blob whose size is taken from fstat.
func openFileObject(path string) (*object.Object, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return object.NewObject(object.TypeBlob, info.Size(), f), f, nil
}

// HashFile computes the blob hash of the file at path without storing it.
func HashFile(path string) (_ object.Hash, retErr error) {
	o, f, err := openFileObject(path)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("hash file: %w", err)
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()
	h, err := object.Digest(o)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("hash file %s: %w", path, err)
	}
	return h, nil
}

// WriteFile stores the file at path as a blob and returns its hash.
func (r *Repo) WriteFile(path string) (object.Hash, error) {
	h, err := r.writeFileBlob(path)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("hash file %s: %w", path, err)
	}
	return h, nil
}

func (r *Repo) writeFileBlob(path string) (_ object.Hash, retErr error) {
	o, f, err := openFileObject(path)
	if err != nil {
		return object.ZeroHash, err
	}
	defer func() {
		retErr = multierr.Append(retErr, f.Close())
	}()
	return r.Store.Write(o)
}

// ObjectInfo returns the kind and declared size of a stored object.
func (r *Repo) ObjectInfo(h object.Hash) (object.ObjectType, int64, error) {
	o, err := r.Store.Open(h)
	if err != nil {
		return "", 0, err
	}
	return o.Type, o.Size, o.Close()
}

// CatFile copies the content of a blob to w. Other kinds cannot be printed
// and fail with object.ErrUnsupported.
func (r *Repo) CatFile(h object.Hash, w io.Writer) (retErr error) {
	o, err := r.Store.Open(h)
	if err != nil {
		return fmt.Errorf("cat-file: %w", err)
	}
	defer func() {
		retErr = multierr.Append(retErr, o.Close())
	}()
	if o.Type != object.TypeBlob {
		return fmt.Errorf("cat-file %s: %w: cannot print a %s", h, object.ErrUnsupported, o.Type)
	}
	if _, err := io.Copy(w, o); err != nil {
		return fmt.Errorf("cat-file %s: %w", h, err)
	}
	return nil
}

// TreeListing is one entry of a listed tree. Type is only set when the
// listing resolves child kinds.
type TreeListing struct {
	object.TreeEntry
	Type object.ObjectType
}

// ListTree parses the tree h lazily and calls fn for each entry in stored
// order. With resolveTypes set, each child object is opened to report its
// kind. Listing stops at the first error from parsing, resolution or fn.
func (r *Repo) ListTree(h object.Hash, resolveTypes bool, fn func(TreeListing) error) (retErr error) {
	o, err := r.Store.Open(h)
	if err != nil {
		return fmt.Errorf("ls-tree: %w", err)
	}
	defer func() {
		retErr = multierr.Append(retErr, o.Close())
	}()
	if o.Type != object.TypeTree {
		return fmt.Errorf("ls-tree %s: %w: object is a %s, not a tree", h, object.ErrUnsupported, o.Type)
	}

	for e, err := range object.NewTreeReader(o).All() {
		if err != nil {
			return fmt.Errorf("ls-tree %s: %w", h, err)
		}
		item := TreeListing{TreeEntry: e}
		if resolveTypes {
			typ, _, err := r.ObjectInfo(e.Hash)
			if err != nil {
				return fmt.Errorf("ls-tree %s: entry %q: %w", h, e.Name, err)
			}
			item.Type = typ
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

// FormatTreeListing renders an entry the way ls-tree prints it:
// "<mode padded to 6> <type> <hash>    <name>", or only the name.
func FormatTreeListing(item TreeListing, nameOnly bool) string {
	if nameOnly {
		return item.Name
	}
	mode := item.Mode
	if len(mode) < 6 {
		mode = strings.Repeat("0", 6-len(mode)) + mode
	}
	return fmt.Sprintf("%s %s %s    %s", mode, item.Type, item.Hash, item.Name)
}
