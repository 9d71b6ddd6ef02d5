package object

import (
	"bufio"
	"hash"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pjbgf/sha1cd"
)

// HashWriter compresses everything written to it into the underlying writer
// while hashing the uncompressed bytes. Call Sum once all bytes are written;
// it flushes the compressor before returning the digest.
type HashWriter struct {
	zw     *zlib.Writer
	hasher hash.Hash
	closed bool
}

// NewHashWriter wraps w. Passing io.Discard hashes without keeping output.
func NewHashWriter(w io.Writer) *HashWriter {
	return &HashWriter{
		zw:     zlib.NewWriter(w),
		hasher: sha1cd.New(),
	}
}

func (hw *HashWriter) Write(p []byte) (int, error) {
	n, err := hw.zw.Write(p)
	hw.hasher.Write(p[:n])
	return n, err
}

// Sum finishes the compressed stream and returns the digest of every byte
// written. Further writes fail.
func (hw *HashWriter) Sum() (Hash, error) {
	var h Hash
	if !hw.closed {
		hw.closed = true
		if err := hw.zw.Close(); err != nil {
			return h, err
		}
	}
	copy(h[:], hw.hasher.Sum(nil))
	return h, nil
}

// decompressedReader is the buffered view over an inflated object file. It
// supports ReadBytes for delimiter-terminated fields and io.ReadFull for
// fixed-width ones.
type decompressedReader struct {
	*bufio.Reader
	zr io.ReadCloser
}

func newDecompressedReader(r io.Reader) (*decompressedReader, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &decompressedReader{Reader: bufio.NewReader(zr), zr: zr}, nil
}

func (d *decompressedReader) Close() error {
	return d.zr.Close()
}
