package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Object is a kind-tagged content stream of exactly Size bytes. Objects
// returned by Store.Open must be closed.
type Object struct {
	Type ObjectType
	Size int64

	r      io.Reader
	closer io.Closer
}

// NewObject wraps a content reader that will yield exactly size bytes.
func NewObject(objType ObjectType, size int64, r io.Reader) *Object {
	return &Object{Type: objType, Size: size, r: r}
}

// BytesObject builds an in-memory object from data.
func BytesObject(objType ObjectType, data []byte) *Object {
	return NewObject(objType, int64(len(data)), bytes.NewReader(data))
}

// Read reads object content. It never yields more than Size bytes.
func (o *Object) Read(p []byte) (int, error) {
	return o.r.Read(p)
}

// Close releases the backing file, if any.
func (o *Object) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// ReadAll reads the whole content.
func (o *Object) ReadAll() ([]byte, error) {
	// Size comes from an untrusted header; cap the preallocation.
	w := bytes.NewBuffer(make([]byte, 0, min(o.Size, 1<<20)))
	if _, err := io.Copy(w, o); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// parseHeader consumes "type len\0" from br.
func parseHeader(br *bufio.Reader) (ObjectType, int64, error) {
	line, err := br.ReadBytes(0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", 0, fmt.Errorf("%w: missing NUL terminator", ErrCorruptHeader)
		}
		return "", 0, err
	}
	line = line[:len(line)-1]
	if !utf8.Valid(line) {
		return "", 0, fmt.Errorf("%w: header is not valid UTF-8", ErrCorruptHeader)
	}
	tag, sizeStr, ok := strings.Cut(string(line), " ")
	if !ok {
		return "", 0, fmt.Errorf("%w: no space in %q", ErrCorruptHeader, line)
	}
	size, err := strconv.ParseUint(sizeStr, 10, 63)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid size %q", ErrCorruptHeader, sizeStr)
	}
	objType, err := ParseObjectType(tag)
	if err != nil {
		return "", 0, err
	}
	return objType, int64(size), nil
}

// sizedReader yields exactly n bytes from r. Trailing bytes beyond n are never
// read; running out early is reported as ErrCorruptContent.
type sizedReader struct {
	r io.Reader
	n int64
}

func (s *sizedReader) Read(p []byte) (int, error) {
	if s.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > s.n {
		p = p[:s.n]
	}
	n, err := s.r.Read(p)
	s.n -= int64(n)
	if errors.Is(err, io.EOF) {
		if s.n > 0 {
			return n, fmt.Errorf("%w: %d bytes missing", ErrCorruptContent, s.n)
		}
		err = nil
	}
	return n, err
}
