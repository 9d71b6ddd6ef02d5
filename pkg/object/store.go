package object

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Objects are zlib-compressed "type len\0content" envelopes named by the
// SHA-1 of the uncompressed envelope.
type Store struct {
	root   string
	logger *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{root: root, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	hex := h.String()
	return filepath.Join(s.root, "objects", hex[:2], hex[2:])
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Open locates the object, inflates it and parses its header. The returned
// Object streams exactly the declared number of content bytes and must be
// closed by the caller.
func (s *Store) Open(h Hash) (*Object, error) {
	const op = "object read"
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Op: op, Target: h.String(), Kind: ErrNotFound, Err: err}
		}
		return nil, wrapError(op, h.String(), err)
	}
	dr, err := newDecompressedReader(f)
	if err != nil {
		f.Close()
		return nil, wrapError(op, h.String(), err)
	}
	objType, size, err := parseHeader(dr.Reader)
	if err != nil {
		err = multierr.Combine(err, dr.Close(), f.Close())
		return nil, wrapError(op, h.String(), err)
	}
	return &Object{
		Type: objType,
		Size: size,
		r:    &sizedReader{r: dr, n: size},
		closer: closerFunc(func() error {
			return multierr.Append(dr.Close(), f.Close())
		}),
	}, nil
}

// Read retrieves an object by hash, returning its type and full content.
func (s *Store) Read(h Hash) (_ ObjectType, _ []byte, retErr error) {
	o, err := s.Open(h)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, o.Close())
	}()
	data, err := o.ReadAll()
	if err != nil {
		return "", nil, wrapError("object read", h.String(), err)
	}
	return o.Type, data, nil
}

// Write stores an object and returns its content hash. The envelope is
// streamed through the hashing compressor into a uniquely named temp file
// under objects/, which is renamed into place once complete. The content
// reader must yield exactly o.Size bytes.
//
// If an object already exists under the digest it is kept only when it
// reads back intact; a different kind or size fails with ErrHashCollision
// and a damaged object is replaced.
func (s *Store) Write(o *Object) (_ Hash, retErr error) {
	const op = "object write"
	dir := filepath.Join(s.root, "objects")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ZeroHash, wrapError(op, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "tmp_obj_*")
	if err != nil {
		return ZeroHash, wrapError(op, dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if retErr != nil {
			if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
				retErr = multierr.Append(retErr, err)
			}
		}
	}()

	h, err := encode(tmp, o)
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return ZeroHash, wrapError(op, tmpName, err)
	}

	keep, err := s.verifyExisting(h, o)
	if err != nil {
		return ZeroHash, err
	}
	if keep {
		if err := os.Remove(tmpName); err != nil {
			return ZeroHash, wrapError(op, tmpName, err)
		}
		s.logger.Debug("object exists", zap.Stringer("hash", h), zap.Stringer("type", o.Type))
		return h, nil
	}

	dest := s.objectPath(h)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ZeroHash, wrapError(op, h.String(), err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return ZeroHash, wrapError(op, h.String(), err)
	}

	s.logger.Debug("object written",
		zap.Stringer("hash", h),
		zap.Stringer("type", o.Type),
		zap.Int64("size", o.Size),
	)
	return h, nil
}

// verifyExisting reports whether the object stored under h can stand in for
// o. Missing or damaged objects report false so the caller overwrites them.
func (s *Store) verifyExisting(h Hash, o *Object) (bool, error) {
	existing, err := s.Open(h)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("replacing unreadable object", zap.Stringer("hash", h), zap.Error(err))
		}
		return false, nil
	}

	if existing.Type != o.Type || existing.Size != o.Size {
		closeErr := existing.Close()
		return false, &Error{
			Op:     "object write",
			Target: h.String(),
			Kind:   ErrHashCollision,
			Err: multierr.Append(
				fmt.Errorf("stored %s %d, writing %s %d", existing.Type, existing.Size, o.Type, o.Size),
				closeErr,
			),
		}
	}

	// A damaged stream may also fail to close; it is replaced either way.
	got, err := Digest(existing)
	err = multierr.Append(err, existing.Close())
	if err != nil || got != h {
		s.logger.Warn("replacing damaged object",
			zap.Stringer("hash", h),
			zap.Stringer("rehash", got),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// WriteBytes stores an in-memory object.
func (s *Store) WriteBytes(objType ObjectType, data []byte) (Hash, error) {
	return s.Write(BytesObject(objType, data))
}

// Digest computes the hash o would be stored under without writing it.
func Digest(o *Object) (Hash, error) {
	h, err := encode(io.Discard, o)
	if err != nil {
		return ZeroHash, wrapError("object hash", o.Type.String(), err)
	}
	return h, nil
}

// encode writes the compressed envelope of o to w and returns its digest.
func encode(w io.Writer, o *Object) (Hash, error) {
	hw := NewHashWriter(w)
	if _, err := io.WriteString(hw, header(o.Type, o.Size)); err != nil {
		return ZeroHash, err
	}
	// Copy one byte past Size so an over-long stream is detected.
	n, err := io.Copy(hw, io.LimitReader(o, o.Size+1))
	if err != nil {
		return ZeroHash, err
	}
	if n != o.Size {
		return ZeroHash, fmt.Errorf("%w: declared %d, got %d", ErrCorruptContent, o.Size, n)
	}
	return hw.Sum()
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
