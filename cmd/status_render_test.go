package cmd

import (
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
)

func renderToString(t *testing.T, n termui.Node) string {
	t.Helper()
	var b strings.Builder
	if err := termui.Render(&b, n, termui.NewTheme(termui.ThemeLight, false)); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestStatusDocument_CleanBranch(t *testing.T) {
	t.Parallel()

	report := &gitstore.Report{
		Branch:  "main",
		HasHead: true,
		Title:   "feat: something",
	}
	got := renderToString(t, statusDocument(report, termui.NewTheme(termui.ThemeLight, false)))
	if !strings.Contains(got, "On: main") {
		t.Fatalf("missing branch line:\n%s", got)
	}
	if !strings.Contains(got, "feat: something") {
		t.Fatalf("missing head title:\n%s", got)
	}
	if !strings.Contains(got, "No changes") {
		t.Fatalf("missing clean-tree marker:\n%s", got)
	}
}

func TestBranchLine_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		report *gitstore.Report
		want   string
	}{
		{name: "unborn", report: &gitstore.Report{Unborn: true}, want: "On: [no branch]"},
		{name: "detached", report: &gitstore.Report{Detached: true, HasHead: true}, want: "On: [detached]"},
		{name: "branch", report: &gitstore.Report{Branch: "dev", HasHead: true}, want: "On: dev"},
	}
	for _, tc := range tests {
		got := renderToString(t, branchLine(tc.report))
		if !strings.Contains(got, tc.want) {
			t.Fatalf("%s: want %q in %q", tc.name, tc.want, got)
		}
	}
}

func TestRemoteIndicators(t *testing.T) {
	t.Parallel()

	commit := &object.Commit{}
	tests := []struct {
		name          string
		ahead, behind int
		want          string
	}{
		{name: "in sync", want: ""},
		{name: "ahead only", ahead: 2, want: "↑ 2"},
		{name: "behind only", behind: 3, want: "↓ 3"},
		{name: "both", ahead: 1, behind: 4, want: "↑ 1 ↓ 4"},
	}
	for _, tc := range tests {
		div := &gitstore.DivergenceSet{}
		for i := 0; i < tc.ahead; i++ {
			div.Ahead = append(div.Ahead, commit)
		}
		for i := 0; i < tc.behind; i++ {
			div.Behind = append(div.Behind, commit)
		}
		got := renderToString(t, remoteIndicators(div))
		if got != tc.want {
			t.Fatalf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}

	if got := renderToString(t, remoteIndicators(nil)); got != "" {
		t.Fatalf("no upstream should render nothing, got %q", got)
	}
}

func TestChangeGroups(t *testing.T) {
	t.Parallel()

	entries := []gitstore.StatusEntry{
		{Path: "staged.go", Location: gitstore.Index, Change: gitstore.Modified},
		{Path: "new.go", From: "old.go", Location: gitstore.WorkingTree, Change: gitstore.Renamed},
		{Path: "gone.go", Location: gitstore.WorkingTree, Change: gitstore.Deleted},
	}
	groups := changeGroups(entries)
	if len(groups) != 2 {
		t.Fatalf("expected staged and unstaged groups, got %d", len(groups))
	}
	got := renderToString(t, termui.Lines(groups...))
	for _, want := range []string{
		"Staged Changes (1)",
		"~ staged.go",
		"Unstaged Changes (2)",
		"> old.go -> new.go",
		"- gone.go",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestChangeIndicator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind gitstore.ChangeKind
		want string
	}{
		{kind: gitstore.New, want: "+"},
		{kind: gitstore.Modified, want: "~"},
		{kind: gitstore.Renamed, want: ">"},
		{kind: gitstore.Deleted, want: "-"},
		{kind: gitstore.TypeChanged, want: "T"},
		{kind: gitstore.Unknown, want: "?"},
	}
	for _, tc := range tests {
		if got, _ := changeIndicator(tc.kind); got != tc.want {
			t.Fatalf("%v: want %q, got %q", tc.kind, tc.want, got)
		}
	}
}

func TestStateNode_RebaseWithSequencer(t *testing.T) {
	t.Parallel()

	report := &gitstore.Report{
		State: gitstore.StateRebase,
		Sequencer: []gitstore.SequencerOp{
			{Kind: gitstore.Pick, Target: plumbing.NewHash("0123456789abcdef0123456789abcdef01234567"), Message: "fix: bug"},
			{Kind: gitstore.Exec, Message: "make test"},
		},
	}
	got := renderToString(t, stateNode(report))
	for _, want := range []string{
		"Rebase (2)",
		"pick 012345 fix: bug",
		"exec make test",
		"Fix conflicts and run 'git rebase --continue'",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestStateNode_Merge(t *testing.T) {
	t.Parallel()

	report := &gitstore.Report{State: gitstore.StateMerge}
	got := renderToString(t, stateNode(report))
	if got != "Merge in progress" {
		t.Fatalf("unexpected state line: %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{in: "merge", want: "Merge"},
		{in: "cherry-pick", want: "Cherry-pick"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := titleCase(tc.in); got != tc.want {
			t.Fatalf("%q: want %q, got %q", tc.in, tc.want, got)
		}
	}
}
