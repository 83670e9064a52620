package git

import (
	"fmt"
	"io"
	"log/slog"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// PullAnalysis is the decision gating a pull: either nothing to do, a
// plain fast-forward, or real divergence the caller has to resolve.
type PullAnalysis int

const (
	PullUpToDate PullAnalysis = iota
	PullFastForward
	PullDiverged
)

func (a PullAnalysis) String() string {
	switch a {
	case PullFastForward:
		return "fast-forward"
	case PullDiverged:
		return "diverged"
	default:
		return "up to date"
	}
}

// Fetch updates the remote-tracking refs for remoteName. Already-up-to-date
// is not an error.
func (s *Store) Fetch(remoteName string, progress io.Writer) error {
	err := s.repo.Fetch(&gitlib.FetchOptions{
		RemoteName: remoteName,
		Progress:   progress,
	})
	if err == gitlib.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", remoteName, err)
	}
	return nil
}

// AnalyzePull compares the current branch against its upstream and decides
// whether the pull can fast-forward. ErrUnrelatedHistories propagates when
// the tips share no ancestor.
func (s *Store) AnalyzePull() (PullAnalysis, *DivergenceSet, error) {
	head, err := s.repo.Head()
	if err != nil {
		return 0, nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	upstream, ok, err := s.Upstream(head)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, fmt.Errorf("branch %s has no upstream", head.Name().Short())
	}
	div, err := s.AheadBehind(head.Hash(), upstream.Hash())
	if err != nil {
		return 0, nil, err
	}
	switch {
	case len(div.Behind) == 0:
		return PullUpToDate, div, nil
	case len(div.Ahead) == 0:
		return PullFastForward, div, nil
	default:
		return PullDiverged, div, nil
	}
}

// FastForward moves the current branch ref to target and refreshes the
// working tree. Callers must have established via AnalyzePull that no
// history rewrite is involved.
func (s *Store) FastForward(target plumbing.Hash) error {
	head, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return fmt.Errorf("HEAD is not on a branch")
	}
	slog.Debug("fast-forward",
		slog.String("ref", head.Name().String()),
		slog.String("target", target.String()),
	)
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(head.Name(), target)); err != nil {
		return fmt.Errorf("update %s: %w", head.Name(), err)
	}
	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.Reset(&gitlib.ResetOptions{Mode: gitlib.HardReset, Commit: target}); err != nil {
		return fmt.Errorf("checkout %s: %w", target, err)
	}
	return nil
}
