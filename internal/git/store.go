package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Store is the single capability surface over the repository object
// database: ref resolution, commit/tree lookup, revision walking and
// merge-base computation. Commits and trees are addressed by hash and
// re-resolved on demand; the Store owns nothing beyond the open repo.
//
// A Store assumes no concurrent writer mutates refs or the working tree
// during a single call. CLI invocations hold the process as sole writer.
type Store struct {
	repo   *gitlib.Repository
	path   string
	gitDir string
}

func Open(repoPath string) (*Store, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root, gitDir, err := resolveDirs(abs)
	if err != nil {
		return nil, err
	}
	return &Store{repo: repo, path: root, gitDir: gitDir}, nil
}

// newStore wraps an already-open repository. Used by tests with in-memory
// storage, where there is no on-disk git directory.
func newStore(repo *gitlib.Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) RepoPath() string {
	return s.path
}

// GitDir returns the resolved git directory, following a `gitdir:` pointer
// file when the repository is a linked worktree.
func (s *Store) GitDir() string {
	return s.gitDir
}

func resolveDirs(start string) (root, gitDir string, err error) {
	dir := start
	for {
		candidate := filepath.Join(dir, gitlib.GitDirName)
		info, statErr := os.Stat(candidate)
		if statErr == nil {
			if info.IsDir() {
				return dir, candidate, nil
			}
			target, readErr := readGitDirPointer(candidate)
			if readErr != nil {
				return "", "", readErr
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(dir, target)
			}
			return dir, target, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("no git directory found from %s", start)
		}
		dir = parent
	}
}

func readGitDirPointer(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("unexpected git directory pointer in %s", path)
	}
	return strings.TrimSpace(target), nil
}

func (s *Store) Head() (*plumbing.Reference, error) {
	return s.repo.Head()
}

// ResolveRef resolves a reference name to the hash it points at, following
// symbolic references. A missing ref surfaces as the plumbing not-found
// error, never as an empty hash.
func (s *Store) ResolveRef(name string) (plumbing.Hash, error) {
	ref, err := s.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", name, err)
	}
	return ref.Hash(), nil
}

// ResolveRevision resolves a revision expression (branch, tag, hash,
// HEAD~n, ...) to a commit hash.
func (s *Store) ResolveRevision(expr string) (plumbing.Hash, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(expr))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", expr, err)
	}
	return *h, nil
}

func (s *Store) ReadCommit(h plumbing.Hash) (*object.Commit, error) {
	return s.repo.CommitObject(h)
}

// ReadTree returns the root tree of the commit at h.
func (s *Store) ReadTree(h plumbing.Hash) (*object.Tree, error) {
	commit, err := s.repo.CommitObject(h)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

// Upstream resolves the remote-tracking reference configured for the given
// local branch reference, from branch.<name>.remote and branch.<name>.merge.
// Returns false when the branch has no upstream configured.
func (s *Store) Upstream(ref *plumbing.Reference) (*plumbing.Reference, bool, error) {
	if !ref.Name().IsBranch() {
		return nil, false, nil
	}
	cfg, err := s.repo.Config()
	if err != nil {
		return nil, false, fmt.Errorf("read repository config: %w", err)
	}
	branch, ok := cfg.Branches[ref.Name().Short()]
	if !ok || branch.Remote == "" || branch.Merge == "" {
		return nil, false, nil
	}
	trackingName := plumbing.NewRemoteReferenceName(branch.Remote, branch.Merge.Short())
	upstream, err := s.repo.Reference(trackingName, true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolve %s: %w", trackingName, err)
	}
	return upstream, true, nil
}
