package git

import (
	"fmt"
	"io"
	"log/slog"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// RefUpdate is one advertised ref update: the remote's current tip (Src),
// the proposed new tip (Dst) and the ref being moved.
type RefUpdate struct {
	Src     plumbing.Hash
	Dst     plumbing.Hash
	RefName string
}

// CheckNegotiation is the lost-update guard run before a push proceeds.
// When an expected oid is supplied (the pusher's belief about the remote's
// current tip), the push is rejected unless some advertised update departs
// from exactly that oid, or every advertised source is the zero oid (the
// ref does not exist remotely yet, so this is a create, not an overwrite).
func CheckNegotiation(expected *plumbing.Hash, updates []RefUpdate) error {
	if expected == nil {
		return nil
	}
	allZero := true
	for _, u := range updates {
		if u.Src == *expected {
			return nil
		}
		if !u.Src.IsZero() {
			allZero = false
		}
	}
	if allZero {
		return nil
	}
	return fmt.Errorf("%w (expected %s)", ErrNegotiationRejected, expected)
}

type PushOpts struct {
	Force    bool
	Progress io.Writer
}

type PushResult struct {
	Remote   string
	Branch   string
	UpToDate bool
}

// Push updates the upstream of the current branch after running the
// negotiation guard against the remote's advertised refs. A rejected
// negotiation is fatal to the attempt and never retried here.
func (s *Store) Push(opts PushOpts) (*PushResult, error) {
	head, err := s.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return nil, fmt.Errorf("HEAD is not on a branch")
	}
	branch := head.Name().Short()

	upstream, ok, err := s.Upstream(head)
	if err != nil {
		return nil, err
	}
	remoteName := "origin"
	if ok {
		remoteName, err = s.branchRemote(branch)
		if err != nil {
			return nil, err
		}
	} else {
		auto, err := s.pushAutoSetupRemote()
		if err != nil {
			return nil, err
		}
		if !auto {
			return nil, fmt.Errorf("branch %s has no upstream (enable push.autoSetupRemote to create one)", branch)
		}
		upstream, err = s.setTrackingBranch(remoteName, branch, head.Hash())
		if err != nil {
			return nil, err
		}
	}

	expected := upstream.Hash()
	updates, err := s.advertisedUpdates(remoteName, branch, head.Hash())
	if err != nil {
		return nil, err
	}
	if !opts.Force {
		if err := CheckNegotiation(&expected, updates); err != nil {
			return nil, err
		}
	}

	refspec := fmt.Sprintf("%s:%s", head.Name(), plumbing.NewBranchReferenceName(branch))
	if opts.Force {
		refspec = "+" + refspec
	}
	slog.Debug("pushing",
		slog.String("remote", remoteName),
		slog.String("refspec", refspec),
	)
	err = s.repo.Push(&gitlib.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(refspec)},
		Progress:   opts.Progress,
	})
	if err == gitlib.NoErrAlreadyUpToDate {
		return &PushResult{Remote: remoteName, Branch: branch, UpToDate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("push %s: %w", refspec, err)
	}
	return &PushResult{Remote: remoteName, Branch: branch}, nil
}

// advertisedUpdates lists the remote's refs and shapes the proposed update
// for the branch. A ref the remote does not advertise maps to a zero
// source, i.e. a create.
func (s *Store) advertisedUpdates(remoteName, branch string, dst plumbing.Hash) ([]RefUpdate, error) {
	remote, err := s.repo.Remote(remoteName)
	if err != nil {
		return nil, fmt.Errorf("find remote %s: %w", remoteName, err)
	}
	refs, err := remote.List(&gitlib.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list remote %s: %w", remoteName, err)
	}
	target := plumbing.NewBranchReferenceName(branch)
	update := RefUpdate{Src: plumbing.ZeroHash, Dst: dst, RefName: target.String()}
	for _, ref := range refs {
		if ref.Name() == target {
			update.Src = ref.Hash()
			break
		}
	}
	return []RefUpdate{update}, nil
}

func (s *Store) branchRemote(branch string) (string, error) {
	cfg, err := s.repo.Config()
	if err != nil {
		return "", fmt.Errorf("read repository config: %w", err)
	}
	if b, ok := cfg.Branches[branch]; ok && b.Remote != "" {
		return b.Remote, nil
	}
	return "origin", nil
}

func (s *Store) pushAutoSetupRemote() (bool, error) {
	cfg, err := s.repo.Config()
	if err != nil {
		return false, fmt.Errorf("read repository config: %w", err)
	}
	return cfg.Raw.Section("push").Option("autoSetupRemote") == "true", nil
}

// setTrackingBranch creates the remote-tracking ref at the branch's current
// target and records the upstream in the repository config.
func (s *Store) setTrackingBranch(remoteName, branch string, target plumbing.Hash) (*plumbing.Reference, error) {
	tracking := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remoteName, branch), target)
	if err := s.repo.Storer.SetReference(tracking); err != nil {
		return nil, fmt.Errorf("create tracking ref: %w", err)
	}
	cfg, err := s.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("read repository config: %w", err)
	}
	cfg.Branches[branch] = &config.Branch{
		Name:   branch,
		Remote: remoteName,
		Merge:  plumbing.NewBranchReferenceName(branch),
	}
	if err := s.repo.SetConfig(cfg); err != nil {
		return nil, fmt.Errorf("write repository config: %w", err)
	}
	return tracking, nil
}
