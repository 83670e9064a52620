package git

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// SequencerKind is the verb of one rebase todo operation.
type SequencerKind int

const (
	Pick SequencerKind = iota
	Reword
	Edit
	Squash
	Fixup
	Exec
)

func (k SequencerKind) String() string {
	switch k {
	case Pick:
		return "pick"
	case Reword:
		return "reword"
	case Edit:
		return "edit"
	case Squash:
		return "squash"
	case Fixup:
		return "fixup"
	case Exec:
		return "exec"
	default:
		return "unknown"
	}
}

// SequencerOp is one remaining step of an in-progress rebase. Exec
// operations target no commit and carry the shell command as message.
type SequencerOp struct {
	Target  plumbing.Hash
	Kind    SequencerKind
	Message string
}

// sequencerTodoPath is where the rebase machinery persists the remaining
// steps, relative to the git directory.
const sequencerTodoPath = "rebase-merge/git-rebase-todo"

// ReadSequencer parses a rebase todo file into its ordered operation list.
// Empty lines, comments and indented continuations are skipped; any other
// malformed line fails the whole read. File order is authoritative.
func ReadSequencer(path string) ([]SequencerOp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ops []SequencerOp
	for i, line := range strings.Split(string(data), "\n") {
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, " ") {
			continue
		}
		op, err := parseSequencerLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSequencer, i+1, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Sequencer reads the repository's own rebase todo file. Returns an empty
// list when no rebase is in flight.
func (s *Store) Sequencer() ([]SequencerOp, error) {
	if s.gitDir == "" {
		return nil, nil
	}
	ops, err := ReadSequencer(filepath.Join(s.gitDir, filepath.FromSlash(sequencerTodoPath)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return ops, err
}

func parseSequencerLine(line string) (SequencerOp, error) {
	verb, rest, _ := strings.Cut(line, " ")
	kind, err := parseSequencerVerb(verb)
	if err != nil {
		return SequencerOp{}, err
	}

	// exec lines carry a shell command, not a commit.
	if kind == Exec {
		if rest == "" {
			return SequencerOp{}, fmt.Errorf("exec without a command")
		}
		return SequencerOp{Kind: Exec, Message: rest}, nil
	}

	id, message, ok := strings.Cut(rest, " ")
	if !ok || message == "" {
		return SequencerOp{}, fmt.Errorf("expected 3 components")
	}
	target, err := parseObjectID(id)
	if err != nil {
		return SequencerOp{}, err
	}
	return SequencerOp{Target: target, Kind: kind, Message: message}, nil
}

func parseSequencerVerb(verb string) (SequencerKind, error) {
	switch verb {
	case "p", "pick":
		return Pick, nil
	case "r", "reword":
		return Reword, nil
	case "e", "edit":
		return Edit, nil
	case "s", "squash":
		return Squash, nil
	case "f", "fixup":
		return Fixup, nil
	case "x", "exec":
		return Exec, nil
	default:
		return 0, fmt.Errorf("invalid operation %q", verb)
	}
}

// parseObjectID decodes a full or abbreviated hex object id, left-aligned
// into the hash as the todo file stores abbreviated ids.
func parseObjectID(s string) (plumbing.Hash, error) {
	if len(s) == 0 || len(s) > 2*len(plumbing.Hash{}) {
		return plumbing.ZeroHash, fmt.Errorf("invalid object id %q", s)
	}
	padded := s
	if len(padded)%2 == 1 {
		padded += "0"
	}
	raw, err := hex.DecodeString(padded)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("invalid object id %q", s)
	}
	var h plumbing.Hash
	copy(h[:], raw)
	return h, nil
}
