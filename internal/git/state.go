package git

import (
	"os"
	"path/filepath"
)

// RepoState identifies a multi-step operation left mid-flight, detected
// from the control files the sequencer machinery leaves under the git
// directory.
type RepoState int

const (
	StateNone RepoState = iota
	StateMerge
	StateRebase
	StateCherryPick
	StateRevert
	StateBisect
)

func (s RepoState) String() string {
	switch s {
	case StateMerge:
		return "merge"
	case StateRebase:
		return "rebase"
	case StateCherryPick:
		return "cherry-pick"
	case StateRevert:
		return "revert"
	case StateBisect:
		return "bisect"
	default:
		return "none"
	}
}

// State reports the in-progress operation, if any. Rebase is checked first:
// a rebase that stopped on a conflicting pick can leave MERGE_HEAD-like
// droppings that must not shadow it.
func (s *Store) State() RepoState {
	if s.gitDir == "" {
		return StateNone
	}
	checks := []struct {
		marker string
		state  RepoState
	}{
		{"rebase-merge", StateRebase},
		{"rebase-apply", StateRebase},
		{"MERGE_HEAD", StateMerge},
		{"CHERRY_PICK_HEAD", StateCherryPick},
		{"REVERT_HEAD", StateRevert},
		{"BISECT_LOG", StateBisect},
	}
	for _, c := range checks {
		if _, err := os.Stat(filepath.Join(s.gitDir, c.marker)); err == nil {
			return c.state
		}
	}
	return StateNone
}
