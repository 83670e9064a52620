package git

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTodo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "git-rebase-todo")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write todo: %v", err)
	}
	return path
}

func TestReadSequencer(t *testing.T) {
	t.Parallel()

	path := writeTodo(t, "pick abc123 fix: bug\nexec make test\n")
	ops, err := ReadSequencer(path)
	if err != nil {
		t.Fatalf("ReadSequencer: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].Kind != Pick || ops[0].Message != "fix: bug" {
		t.Fatalf("unexpected first op: %+v", ops[0])
	}
	if !strings.HasPrefix(ops[0].Target.String(), "abc123") {
		t.Fatalf("expected target abbreviation abc123, got %s", ops[0].Target)
	}
	if ops[1].Kind != Exec || ops[1].Message != "make test" {
		t.Fatalf("unexpected exec op: %+v", ops[1])
	}
	if !ops[1].Target.IsZero() {
		t.Fatalf("exec op should target no commit, got %s", ops[1].Target)
	}
}

func TestReadSequencer_SkipsNoise(t *testing.T) {
	t.Parallel()

	path := writeTodo(t, "# Rebase abc..def onto abc\n\n  continuation\npick abc123 keep me\n")
	ops, err := ReadSequencer(path)
	if err != nil {
		t.Fatalf("ReadSequencer: %v", err)
	}
	if len(ops) != 1 || ops[0].Message != "keep me" {
		t.Fatalf("expected the single pick to survive, got %+v", ops)
	}
}

func TestReadSequencer_MalformedFailsWholeRead(t *testing.T) {
	t.Parallel()

	path := writeTodo(t, "pick abc123 ok\nbogus abc123 msg\npick def456 also ok\n")
	ops, err := ReadSequencer(path)
	if !errors.Is(err, ErrMalformedSequencer) {
		t.Fatalf("expected ErrMalformedSequencer, got %v", err)
	}
	if ops != nil {
		t.Fatalf("a malformed line must fail the whole read, got %+v", ops)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error should name the offending line: %v", err)
	}
}

func TestParseSequencerLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line     string
		wantKind SequencerKind
		wantMsg  string
		wantErr  bool
	}{
		{line: "pick abc123 message", wantKind: Pick, wantMsg: "message"},
		{line: "p abc123 short verb", wantKind: Pick, wantMsg: "short verb"},
		{line: "r abc123 reworded", wantKind: Reword, wantMsg: "reworded"},
		{line: "edit abc123 stop here", wantKind: Edit, wantMsg: "stop here"},
		{line: "s abc123 fold up", wantKind: Squash, wantMsg: "fold up"},
		{line: "fixup abc123 fold silently", wantKind: Fixup, wantMsg: "fold silently"},
		{line: "x make lint", wantKind: Exec, wantMsg: "make lint"},
		{line: "exec go test ./...", wantKind: Exec, wantMsg: "go test ./..."},
		{line: "pick abc123", wantErr: true},
		{line: "pick", wantErr: true},
		{line: "exec", wantErr: true},
		{line: "drop abc123 unsupported verb", wantErr: true},
		{line: "pick nothex message", wantErr: true},
	}
	for _, tc := range tests {
		op, err := parseSequencerLine(tc.line)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %+v", tc.line, op)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if op.Kind != tc.wantKind || op.Message != tc.wantMsg {
			t.Fatalf("%q: want kind=%v msg=%q, got %+v", tc.line, tc.wantKind, tc.wantMsg, op)
		}
	}
}

func TestParseObjectID(t *testing.T) {
	t.Parallel()

	h, err := parseObjectID("abc123")
	if err != nil {
		t.Fatalf("parseObjectID: %v", err)
	}
	if !strings.HasPrefix(h.String(), "abc123") {
		t.Fatalf("expected left-aligned abbreviation, got %s", h)
	}

	// Odd-length abbreviations are valid in todo files.
	h, err = parseObjectID("abc")
	if err != nil {
		t.Fatalf("parseObjectID odd length: %v", err)
	}
	if !strings.HasPrefix(h.String(), "abc0") {
		t.Fatalf("expected zero-padded abbreviation, got %s", h)
	}

	for _, bad := range []string{"", "zz", strings.Repeat("a", 41)} {
		if _, err := parseObjectID(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestSequencer_NoRebaseInFlight(t *testing.T) {
	t.Parallel()

	store, _ := newDiskStore(t)
	ops, err := store.Sequencer()
	if err != nil {
		t.Fatalf("Sequencer: %v", err)
	}
	if ops != nil {
		t.Fatalf("expected no operations, got %+v", ops)
	}
}

func TestSequencer_ReadsFromGitDir(t *testing.T) {
	t.Parallel()

	store, _ := newDiskStore(t)
	todoDir := filepath.Join(store.GitDir(), "rebase-merge")
	if err := os.MkdirAll(todoDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	todo := "pick abc123 first\npick def456 second\n"
	if err := os.WriteFile(filepath.Join(todoDir, "git-rebase-todo"), []byte(todo), 0o644); err != nil {
		t.Fatalf("write todo: %v", err)
	}

	ops, err := store.Sequencer()
	if err != nil {
		t.Fatalf("Sequencer: %v", err)
	}
	if len(ops) != 2 || ops[0].Message != "first" || ops[1].Message != "second" {
		t.Fatalf("unexpected operations: %+v", ops)
	}
}
