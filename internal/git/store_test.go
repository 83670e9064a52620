package git

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_ResolvesGitDir(t *testing.T) {
	t.Parallel()

	store, dir := newDiskStore(t)
	if store.RepoPath() != dir {
		t.Fatalf("want repo path %s, got %s", dir, store.RepoPath())
	}
	if store.GitDir() != filepath.Join(dir, ".git") {
		t.Fatalf("unexpected git dir: %s", store.GitDir())
	}
}

func TestOpen_FromSubdirectory(t *testing.T) {
	t.Parallel()

	store, dir := newDiskStore(t)
	sub := filepath.Join(dir, "pkg", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested, err := Open(sub)
	if err != nil {
		t.Fatalf("Open from subdirectory: %v", err)
	}
	if nested.GitDir() != store.GitDir() {
		t.Fatalf("want git dir %s, got %s", store.GitDir(), nested.GitDir())
	}
}

func TestReadGitDirPointer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".git")
	if err := os.WriteFile(path, []byte("gitdir: ../main/.git/worktrees/wt\n"), 0o644); err != nil {
		t.Fatalf("write pointer: %v", err)
	}
	target, err := readGitDirPointer(path)
	if err != nil {
		t.Fatalf("readGitDirPointer: %v", err)
	}
	if target != "../main/.git/worktrees/wt" {
		t.Fatalf("unexpected target: %q", target)
	}

	if err := os.WriteFile(path, []byte("not a pointer\n"), 0o644); err != nil {
		t.Fatalf("rewrite pointer: %v", err)
	}
	if _, err := readGitDirPointer(path); err == nil {
		t.Fatalf("expected error for a malformed pointer file")
	}
}

func TestResolveRevision(t *testing.T) {
	t.Parallel()

	store, repo := newMemStore(t)
	c1 := commitFiles(t, repo, map[string]string{"a.txt": "one\n"}, "first")
	c2 := commitFiles(t, repo, map[string]string{"a.txt": "two\n"}, "second")

	tests := []struct {
		expr string
		want string
	}{
		{expr: "HEAD", want: c2.String()},
		{expr: "HEAD~1", want: c1.String()},
		{expr: "master", want: c2.String()},
		{expr: c1.String(), want: c1.String()},
	}
	for _, tc := range tests {
		h, err := store.ResolveRevision(tc.expr)
		if err != nil {
			t.Fatalf("ResolveRevision(%q): %v", tc.expr, err)
		}
		if h.String() != tc.want {
			t.Fatalf("ResolveRevision(%q): want %s, got %s", tc.expr, tc.want, h)
		}
	}

	if _, err := store.ResolveRevision("no-such-branch"); err == nil {
		t.Fatalf("expected error for unknown revision")
	}
}

func TestUpstream(t *testing.T) {
	t.Parallel()

	store, repo := newMemStore(t)
	c1 := commitFiles(t, repo, map[string]string{"a.txt": "one\n"}, "first")

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if _, ok, err := store.Upstream(head); err != nil || ok {
		t.Fatalf("unconfigured branch should have no upstream: ok=%v err=%v", ok, err)
	}

	setUpstream(t, repo, "master", c1)
	upstream, ok, err := store.Upstream(head)
	if err != nil {
		t.Fatalf("Upstream: %v", err)
	}
	if !ok || upstream.Hash() != c1 {
		t.Fatalf("unexpected upstream: ok=%v ref=%+v", ok, upstream)
	}
	if upstream.Name().String() != "refs/remotes/origin/master" {
		t.Fatalf("unexpected tracking ref: %s", upstream.Name())
	}
}

func TestReadTree(t *testing.T) {
	t.Parallel()

	store, repo := newMemStore(t)
	c1 := commitFiles(t, repo, map[string]string{"dir/a.txt": "one\n"}, "first")

	tree, err := store.ReadTree(c1)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	f, err := tree.File("dir/a.txt")
	if err != nil {
		t.Fatalf("tree file: %v", err)
	}
	content, err := f.Contents()
	if err != nil {
		t.Fatalf("contents: %v", err)
	}
	if content != "one\n" {
		t.Fatalf("unexpected contents: %q", content)
	}
}
