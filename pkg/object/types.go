package object

import (
	"fmt"
	"time"
)

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// ParseObjectType maps a header tag to its ObjectType. Any tag other than
// blob, tree or commit is rejected with ErrUnknownKind.
func ParseObjectType(tag string) (ObjectType, error) {
	switch t := ObjectType(tag); t {
	case TypeBlob, TypeTree, TypeCommit:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
}

func (t ObjectType) String() string {
	return string(t)
}

const (
	// Tree mode constants as stored in tree entries (no zero padding).
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
)

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// Signature identifies who made a commit and when.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitObj represents a commit pointing to a tree with metadata. Parent is
// the zero Hash for a root commit; merge commits are not supported.
type CommitObj struct {
	TreeHash  Hash
	Parent    Hash
	Author    Signature
	Committer Signature
	Message   string
}
