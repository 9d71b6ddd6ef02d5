package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// CompareTreeEntries orders entries the way git does: names compare as raw
// bytes, and a directory name behaves as if it ended in '/'. So "a" (dir)
// sorts before "a0" but after "a.txt".
func CompareTreeEntries(a, b TreeEntry) int {
	return compareTreeNames(a.Name, a.IsDir(), b.Name, b.IsDir())
}

func compareTreeNames(a string, aDir bool, b string, bDir bool) int {
	n := min(len(a), len(b))
	if c := strings.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	if len(a) == len(b) {
		return 0
	}
	// Past the shared prefix, -1 stands for "no byte".
	ca, cb := nextTreeByte(a, n, aDir), nextTreeByte(b, n, bDir)
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	default:
		return 0
	}
}

func nextTreeByte(name string, i int, isDir bool) int {
	if i < len(name) {
		return int(name[i])
	}
	if isDir {
		return '/'
	}
	return -1
}

// SortTreeEntries sorts entries in place into canonical tree order.
func SortTreeEntries(entries []TreeEntry) {
	slices.SortFunc(entries, CompareTreeEntries)
}

// MarshalTree serializes entries in canonical order. Each entry is
//
//	<mode> <name>\0<20 raw digest bytes>
//
// with no separator between entries.
func MarshalTree(entries []TreeEntry) []byte {
	sorted := slices.Clone(entries)
	SortTreeEntries(sorted)

	var buf bytes.Buffer
	for _, e := range sorted {
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes()
}

// TreeReader parses tree content one entry at a time.
type TreeReader struct {
	br *bufio.Reader
}

// NewTreeReader reads entries from tree content r.
func NewTreeReader(r io.Reader) *TreeReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &TreeReader{br: br}
}

// Next returns the next entry, or io.EOF once the content is exhausted at an
// entry boundary.
func (tr *TreeReader) Next() (TreeEntry, error) {
	var e TreeEntry
	line, err := tr.br.ReadBytes(0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return e, io.EOF
			}
			return e, fmt.Errorf("%w: missing NUL after %q", ErrCorruptEntry, line)
		}
		return e, err
	}
	line = line[:len(line)-1]
	if !utf8.Valid(line) {
		return e, fmt.Errorf("%w: mode and name are not valid UTF-8", ErrCorruptEntry)
	}
	mode, name, ok := strings.Cut(string(line), " ")
	if !ok {
		return e, fmt.Errorf("%w: no space in %q", ErrCorruptEntry, line)
	}
	if _, err := io.ReadFull(tr.br, e.Hash[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return e, fmt.Errorf("%w: truncated digest for %q", ErrCorruptEntry, name)
		}
		return e, err
	}
	e.Mode = mode
	e.Name = name
	return e, nil
}

// All yields every remaining entry. Iteration stops after the first error.
func (tr *TreeReader) All() iter.Seq2[TreeEntry, error] {
	return func(yield func(TreeEntry, error) bool) {
		for {
			e, err := tr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// UnmarshalTree parses complete tree content.
func UnmarshalTree(data []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	for e, err := range NewTreeReader(bytes.NewReader(data)).All() {
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H     (optional)
//	author A <email> unix +zone
//	committer C <email> unix +zone
//
//	message
//
// The message is always followed by a newline.
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	if !c.Parent.IsZero() {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", formatSignature(c.Author))
	fmt.Fprintf(&buf, "committer %s\n", formatSignature(c.Committer))
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func formatSignature(s Signature) string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}
