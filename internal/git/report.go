package git

import (
	"fmt"
	"io"
	"log/slog"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Report is the consistent point-in-time picture behind the read-side
// commands: where the branch stands relative to its upstream, the
// classified working-copy changes, and any operation left mid-flight.
// Synthesized in one call; consumed by the rendering layer.
type Report struct {
	Branch   string
	Detached bool
	Unborn   bool

	Head    plumbing.Hash
	Title   string
	Signed  bool
	HasHead bool

	// Divergence is nil when the branch has no configured upstream.
	Divergence *DivergenceSet

	Entries   []StatusEntry
	State     RepoState
	Sequencer []SequencerOp
}

// BuildReport synthesizes the full status report. Errors from any of the
// underlying analyses propagate unmodified; there is no partial report.
func (s *Store) BuildReport(opts ClassifyOptions) (*Report, error) {
	report := &Report{}

	head, err := s.repo.Head()
	switch err {
	case nil:
		report.HasHead = true
		report.Head = head.Hash()
		if head.Name() == plumbing.HEAD {
			report.Detached = true
		} else {
			report.Branch = head.Name().Short()
		}
		commit, err := s.repo.CommitObject(head.Hash())
		if err != nil {
			return nil, fmt.Errorf("read HEAD commit: %w", err)
		}
		report.Title = Title(commit)
		report.Signed = IsSigned(commit)
	case plumbing.ErrReferenceNotFound:
		report.Unborn = true
	default:
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	if report.HasHead && !report.Detached {
		upstream, ok, err := s.Upstream(head)
		if err != nil {
			return nil, err
		}
		if ok {
			report.Divergence, err = s.AheadBehind(head.Hash(), upstream.Hash())
			if err != nil {
				return nil, err
			}
		}
	}

	report.Entries, err = s.Classify(opts)
	if err != nil {
		return nil, err
	}

	report.State = s.State()
	if report.State == StateRebase {
		report.Sequencer, err = s.Sequencer()
		if err != nil {
			return nil, err
		}
	}
	slog.Debug("report built",
		slog.String("branch", report.Branch),
		slog.Int("entries", len(report.Entries)),
		slog.String("state", report.State.String()),
	)
	return report, nil
}

// List walks commits from HEAD, newest-first, up to limit. A limit of zero
// or less means no bound.
func (s *Store) List(limit int) ([]*object.Commit, error) {
	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := s.repo.Log(&gitlib.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()

	var commits []*object.Commit
	for limit <= 0 || len(commits) < limit {
		commit, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate commits: %w", err)
		}
		commits = append(commits, commit)
	}
	return commits, nil
}
