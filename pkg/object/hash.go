package object

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/pjbgf/sha1cd"
)

// HashSize is the length in bytes of an object digest.
const HashSize = 20

// Hash is the SHA-1 digest of an object's envelope "type len\0content".
type Hash [HashSize]byte

// ZeroHash is the all-zero digest, used to mean "no object".
var ZeroHash Hash

// String returns the 40-character lowercase hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero digest.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// ParseHash decodes a 40-character hex digest.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidHash, s, len(s), 2*HashSize)
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("%w: %q: %v", ErrInvalidHash, s, err)
	}
	return h, nil
}

// HashObject computes the digest of the envelope "type len\0content" without
// storing anything.
func HashObject(objType ObjectType, data []byte) Hash {
	hw := sha1cd.New()
	io.WriteString(hw, header(objType, int64(len(data))))
	hw.Write(data)
	var h Hash
	copy(h[:], hw.Sum(nil))
	return h
}

func header(objType ObjectType, size int64) string {
	return fmt.Sprintf("%s %d\x00", objType, size)
}
