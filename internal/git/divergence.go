package git

import (
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DivergenceSet holds the commits unique to each side of a local/remote
// pair. Ahead is reachable from local but not remote, Behind the reverse.
// Both lists are newest-first and disjoint.
type DivergenceSet struct {
	Ahead  []*object.Commit
	Behind []*object.Commit
}

// MergeBase returns the best common ancestor of a and b. When the two tips
// have no common ancestor at all, ErrUnrelatedHistories is returned; callers
// must not conflate that with "no divergence".
func (s *Store) MergeBase(a, b plumbing.Hash) (plumbing.Hash, error) {
	left, err := s.repo.CommitObject(a)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("read commit %s: %w", a, err)
	}
	right, err := s.repo.CommitObject(b)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("read commit %s: %w", b, err)
	}
	bases, err := left.MergeBase(right)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("merge base of %s and %s: %w", a, b, err)
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("%s and %s: %w", a, b, ErrUnrelatedHistories)
	}
	return bases[0].Hash, nil
}

// Walk enumerates commits reachable from tip, pruning traversal at every
// hash in prunedFrom. Each commit is visited at most once, newest-first.
func (s *Store) Walk(tip plumbing.Hash, prunedFrom []plumbing.Hash) ([]*object.Commit, error) {
	start, err := s.repo.CommitObject(tip)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", tip, err)
	}
	var commits []*object.Commit
	iter := object.NewCommitPreorderIter(start, nil, prunedFrom)
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk from %s: %w", tip, err)
	}
	return commits, nil
}

// AheadBehind computes the divergence between two tips. The merge base is
// resolved first so unrelated histories surface as an error; each side then
// excludes the full closure of the other tip, the rev-list two-dot
// semantics. Pruning at the base alone is not enough: a merge commit can
// reach ancestors of the base through its other parent, and those must not
// count. Store lookup failures are fatal and propagated; the result is
// deterministic for a fixed repository state.
func (s *Store) AheadBehind(local, remote plumbing.Hash) (*DivergenceSet, error) {
	if local == remote {
		return &DivergenceSet{}, nil
	}
	base, err := s.MergeBase(local, remote)
	if err != nil {
		return nil, err
	}
	slog.Debug("ahead/behind walk",
		slog.String("local", local.String()),
		slog.String("remote", remote.String()),
		slog.String("base", base.String()),
	)
	localSeen, err := s.reachableFrom(local)
	if err != nil {
		return nil, err
	}
	remoteSeen, err := s.reachableFrom(remote)
	if err != nil {
		return nil, err
	}
	ahead, err := s.Walk(local, remoteSeen)
	if err != nil {
		return nil, err
	}
	behind, err := s.Walk(remote, localSeen)
	if err != nil {
		return nil, err
	}
	return &DivergenceSet{Ahead: ahead, Behind: behind}, nil
}

// reachableFrom returns every commit hash reachable from tip.
func (s *Store) reachableFrom(tip plumbing.Hash) ([]plumbing.Hash, error) {
	commits, err := s.Walk(tip, nil)
	if err != nil {
		return nil, err
	}
	hashes := make([]plumbing.Hash, len(commits))
	for i, c := range commits {
		hashes[i] = c.Hash
	}
	return hashes, nil
}

// FastForwardable reports whether moving local to remote requires no
// history rewrite, i.e. remote is a descendant of local.
func (s *Store) FastForwardable(local, remote plumbing.Hash) (bool, error) {
	if local == remote {
		return true, nil
	}
	base, err := s.MergeBase(local, remote)
	if err != nil {
		return false, err
	}
	return base == local, nil
}
