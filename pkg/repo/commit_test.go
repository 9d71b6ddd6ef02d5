package repo

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/grit/pkg/object"
)

func fixedOptions() CommitOptions {
	return CommitOptions{
		Author: Identity{Name: "Test User", Email: "test@example.com"},
		Now: func() time.Time {
			return time.Unix(1715157556, 0).UTC()
		},
	}
}

func readCommitText(t *testing.T, r *Repo, h object.Hash) string {
	t.Helper()
	typ, data, err := r.Store.Read(h)
	if err != nil {
		t.Fatalf("Read(%s): %v", h, err)
	}
	if typ != object.TypeCommit {
		t.Fatalf("Read(%s) type = %s, want commit", h, typ)
	}
	return string(data)
}

func TestCommitTree_RootCommit(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), "hi\n", 0o644)
	tree, _, err := r.WriteTree(r.RootDir)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	h, err := r.CommitTree(tree, object.ZeroHash, "init", fixedOptions())
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}

	got := readCommitText(t, r, h)
	want := "tree " + tree.String() + "\n" +
		"author Test User <test@example.com> 1715157556 +0000\n" +
		"committer Test User <test@example.com> 1715157556 +0000\n" +
		"\n" +
		"init\n"
	if got != want {
		t.Errorf("commit =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(got, "parent ") {
		t.Error("root commit has a parent line")
	}
}

func TestCommitTree_Deterministic(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), "hi\n", 0o644)
	tree, _, err := r.WriteTree(r.RootDir)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	h1, err := r.CommitTree(tree, object.ZeroHash, "same", fixedOptions())
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	h2, err := r.CommitTree(tree, object.ZeroHash, "same", fixedOptions())
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	if h1 != h2 {
		t.Errorf("same inputs produced %s and %s", h1, h2)
	}
}

func TestCommitTree_SeparateCommitter(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a.txt"), "hi\n", 0o644)
	tree, _, err := r.WriteTree(r.RootDir)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	opts := fixedOptions()
	opts.Committer = Identity{Name: "Bot", Email: "bot@example.com"}

	h, err := r.CommitTree(tree, object.ZeroHash, "msg", opts)
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	got := readCommitText(t, r, h)
	if !strings.Contains(got, "\ncommitter Bot <bot@example.com> ") {
		t.Errorf("committer missing in\n%s", got)
	}
	if !strings.Contains(got, "\nauthor Test User <test@example.com> ") {
		t.Errorf("author missing in\n%s", got)
	}
}

func TestCommitTree_ValidatesReferences(t *testing.T) {
	r := initRepo(t)
	blob, err := r.Store.WriteBytes(object.TypeBlob, []byte("x"))
	if err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	_, err = r.CommitTree(testHash("missing"), object.ZeroHash, "m", fixedOptions())
	if !errors.Is(err, object.ErrNotFound) {
		t.Errorf("missing tree: error = %v, want ErrNotFound", err)
	}
	_, err = r.CommitTree(blob, object.ZeroHash, "m", fixedOptions())
	if !errors.Is(err, object.ErrUnsupported) {
		t.Errorf("blob as tree: error = %v, want ErrUnsupported", err)
	}
}

func TestCommit_FirstAndSecond(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "main.go"), "package main\n", 0o644)

	first, err := r.Commit("first", fixedOptions())
	if err != nil {
		t.Fatalf("Commit(first): %v", err)
	}
	if strings.Contains(readCommitText(t, r, first), "parent ") {
		t.Error("first commit has a parent")
	}
	head, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatalf("ResolveRef(HEAD): %v", err)
	}
	if head != first {
		t.Errorf("HEAD = %s, want %s", head, first)
	}

	writeFile(t, filepath.Join(r.RootDir, "main.go"), "package main\n\nfunc main() {}\n", 0o644)
	second, err := r.Commit("second", fixedOptions())
	if err != nil {
		t.Fatalf("Commit(second): %v", err)
	}
	text := readCommitText(t, r, second)
	if !strings.Contains(text, "\nparent "+first.String()+"\n") {
		t.Errorf("second commit missing parent line:\n%s", text)
	}
	branch, err := r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef(main): %v", err)
	}
	if branch != second {
		t.Errorf("main = %s, want %s", branch, second)
	}

	// HEAD keeps pointing at the branch.
	ref, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if ref != "refs/heads/main" {
		t.Errorf("Head() = %q after commit", ref)
	}
}

func TestCommit_DetachedHEAD(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a"), "a", 0o644)
	first, err := r.Commit("first", fixedOptions())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := r.UpdateRef("HEAD", first); err != nil {
		t.Fatalf("detach HEAD: %v", err)
	}

	writeFile(t, filepath.Join(r.RootDir, "b"), "b", 0o644)
	second, err := r.Commit("second", fixedOptions())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head != second.String() {
		t.Errorf("detached HEAD = %q, want %s", head, second)
	}
	main, err := r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef(main): %v", err)
	}
	if main != first {
		t.Errorf("main moved to %s while detached", main)
	}
}

func TestCommit_NothingToCommit(t *testing.T) {
	r := initRepo(t)
	_, err := r.Commit("empty", fixedOptions())
	if !errors.Is(err, ErrNothingToCommit) {
		t.Fatalf("Commit error = %v, want ErrNothingToCommit", err)
	}
}

func TestCommit_CASDetectsMovedBranch(t *testing.T) {
	r := initRepo(t)
	writeFile(t, filepath.Join(r.RootDir, "a"), "a", 0o644)
	if _, err := r.Commit("first", fixedOptions()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Another writer moves the branch between parent resolution and the ref
	// update; simulate by moving it from inside the clock callback.
	moved := testHash("moved")
	opts := fixedOptions()
	clock := opts.Now
	opts.Now = func() time.Time {
		if err := r.UpdateRef("refs/heads/main", moved); err != nil {
			t.Errorf("UpdateRef: %v", err)
		}
		return clock()
	}

	writeFile(t, filepath.Join(r.RootDir, "b"), "b", 0o644)
	_, err := r.Commit("second", opts)
	if !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("Commit error = %v, want ErrRefCASMismatch", err)
	}
	got, err := r.ResolveRef("main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if got != moved {
		t.Errorf("main = %s, want moved hash %s", got, moved)
	}
}

func TestDefaultCommitOptions_UsesConfig(t *testing.T) {
	r := initRepo(t)
	r.Config.User = UserConfig{Name: "Ada", Email: "ada@example.com"}
	opts := r.DefaultCommitOptions()
	if opts.Author != (Identity{Name: "Ada", Email: "ada@example.com"}) {
		t.Errorf("Author = %+v", opts.Author)
	}
	if opts.Now == nil {
		t.Error("Now is nil")
	}
}
