package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// newMemStore builds a Store over an in-memory repository. State and
// sequencer lookups see no git directory and report nothing in flight.
func newMemStore(t *testing.T) (*Store, *gitlib.Repository) {
	t.Helper()
	repo, err := gitlib.Init(memory.NewStorage(), memfs.New())
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	return newStore(repo), repo
}

// newDiskStore builds a Store over a real repository in a temp directory,
// for tests that need the git directory or the working tree on disk.
func newDiskStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	if _, err := gitlib.PlainInit(dir, false); err != nil {
		t.Fatalf("init repository: %v", err)
	}
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	return store, dir
}

func testSignature() *object.Signature {
	return &object.Signature{
		Name:  "Test Author",
		Email: "author@example.com",
		When:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// commitFiles writes and stages the given files in the repository's
// worktree filesystem, then commits.
func commitFiles(t *testing.T, repo *gitlib.Repository, files map[string]string, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("open worktree: %v", err)
	}
	for name, content := range files {
		f, err := wt.Filesystem.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	hash, err := wt.Commit(msg, &gitlib.CommitOptions{
		Author:            testSignature(),
		Committer:         testSignature(),
		AllowEmptyCommits: true,
	})
	if err != nil {
		t.Fatalf("commit %q: %v", msg, err)
	}
	return hash
}

// writeDiskFile writes a working tree file for a disk-backed store.
func writeDiskFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
