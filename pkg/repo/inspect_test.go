package repo

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func TestHashFile_MatchesWriteFile(t *testing.T) {
	r := initRepo(t)
	p := filepath.Join(r.RootDir, "a.txt")
	writeFile(t, p, "hi\n", 0o644)

	h, err := HashFile(p)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if h.String() != "45b983be36b73c0788dc9cbcb76cbb80fc7bd5de" {
		t.Errorf("HashFile = %s", h)
	}
	if r.Store.Has(h) {
		t.Error("HashFile persisted the blob")
	}

	w, err := r.WriteFile(p)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if w != h {
		t.Errorf("WriteFile = %s, want %s", w, h)
	}
	if !r.Store.Has(h) {
		t.Error("WriteFile did not persist the blob")
	}
}

func TestCatFile(t *testing.T) {
	r := initRepo(t)
	h, err := r.Store.WriteBytes(object.TypeBlob, []byte("hello\n"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	var buf bytes.Buffer
	if err := r.CatFile(h, &buf); err != nil {
		t.Fatalf("CatFile: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("CatFile = %q", buf.String())
	}

	typ, size, err := r.ObjectInfo(h)
	if err != nil {
		t.Fatalf("ObjectInfo: %v", err)
	}
	if typ != object.TypeBlob || size != 6 {
		t.Errorf("ObjectInfo = %s %d", typ, size)
	}
}

func TestCatFile_NonBlobUnsupported(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), "hi\n", 0o644)
	tree, _, err := r.WriteTree(r.RootDir)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	var buf bytes.Buffer
	err = r.CatFile(tree, &buf)
	if !errors.Is(err, object.ErrUnsupported) {
		t.Fatalf("CatFile(tree) error = %v, want ErrUnsupported", err)
	}
	if buf.Len() != 0 {
		t.Errorf("CatFile(tree) wrote %q", buf.String())
	}
}

func TestCatFile_NotFound(t *testing.T) {
	r := initRepo(t)
	err := r.CatFile(testHash("nope"), &bytes.Buffer{})
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("CatFile error = %v, want ErrNotFound", err)
	}
}

func listTree(t *testing.T, r *Repo, h object.Hash, nameOnly bool) []string {
	t.Helper()
	var lines []string
	err := r.ListTree(h, !nameOnly, func(item TreeListing) error {
		lines = append(lines, FormatTreeListing(item, nameOnly))
		return nil
	})
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	return lines
}

func TestListTree(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), "hi\n", 0o644)
	writeFile(t, filepath.Join(r.RootDir, "dir", "with space.txt"), "x", 0o644)
	tree, _, err := r.WriteTree(r.RootDir)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	names := listTree(t, r, tree, true)
	if strings.Join(names, ",") != "a.txt,dir" {
		t.Errorf("name-only = %v", names)
	}

	full := listTree(t, r, tree, false)
	if len(full) != 2 {
		t.Fatalf("full listing = %v", full)
	}
	if full[0] != "100644 blob 45b983be36b73c0788dc9cbcb76cbb80fc7bd5de    a.txt" {
		t.Errorf("line 0 = %q", full[0])
	}
	if !strings.HasPrefix(full[1], "040000 tree ") || !strings.HasSuffix(full[1], "    dir") {
		t.Errorf("line 1 = %q", full[1])
	}

	sub, err := object.ParseHash(strings.Fields(full[1])[2])
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	subNames := listTree(t, r, sub, true)
	if len(subNames) != 1 || subNames[0] != "with space.txt" {
		t.Errorf("subtree names = %v", subNames)
	}
}

func TestListTree_NotATree(t *testing.T) {
	r := initRepo(t)
	h, err := r.Store.WriteBytes(object.TypeBlob, []byte("x"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	err = r.ListTree(h, false, func(TreeListing) error { return nil })
	if !errors.Is(err, object.ErrUnsupported) {
		t.Fatalf("ListTree(blob) error = %v, want ErrUnsupported", err)
	}
}

func TestListTree_CorruptEntry(t *testing.T) {
	r := initRepo(t)
	h, err := r.Store.WriteBytes(object.TypeTree, []byte("100644 broken"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	err = r.ListTree(h, false, func(TreeListing) error { return nil })
	if !errors.Is(err, object.ErrCorruptEntry) {
		t.Fatalf("ListTree error = %v, want ErrCorruptEntry", err)
	}
}

func TestListTree_StopsOnCallbackError(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a"), "a", 0o644)
	writeFile(t, filepath.Join(r.RootDir, "b"), "b", 0o644)
	tree, _, err := r.WriteTree(r.RootDir)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	stop := errors.New("stop")
	calls := 0
	err = r.ListTree(tree, false, func(TreeListing) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}
