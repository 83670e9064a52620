package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
	"github.com/ameijboom/glance/internal/watch"
)

type statusOpts struct {
	watch   bool
	ignored bool
}

func newStatusCmd(root *rootOpts) *cobra.Command {
	opts := statusOpts{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show where the branch stands and what changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(root, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the repository changes")
	cmd.Flags().BoolVar(&opts.ignored, "ignored", false, "also list ignored files")
	return cmd
}

func runStatus(root *rootOpts, opts statusOpts) error {
	store, err := openStore(root)
	if err != nil {
		return err
	}
	th := theme(root)
	co := classifyOptions(root)
	co.IncludeIgnored = opts.ignored

	render := func() error {
		report, err := store.BuildReport(co)
		if err != nil {
			return err
		}
		return termui.Render(os.Stdout, statusDocument(report, th), th)
	}

	if !opts.watch {
		return render()
	}

	clearAndRender := func() {
		fmt.Print("\x1b[2J\x1b[H")
		if err := render(); err != nil {
			fmt.Fprintf(os.Stderr, "glance: %v\n", err)
		}
	}
	clearAndRender()
	watcher, err := watch.New(store.RepoPath(), clearAndRender)
	if err != nil {
		return err
	}
	defer watcher.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	return nil
}

// statusDocument assembles the report into the renderer's node tree.
func statusDocument(report *gitstore.Report, th termui.Theme) termui.Node {
	var doc []termui.Node
	doc = append(doc, branchLine(report))

	if report.State != gitstore.StateNone {
		doc = append(doc, stateNode(report))
	}
	if changes := changeGroups(report.Entries); len(changes) > 0 {
		doc = append(doc, changes...)
	} else {
		doc = append(doc, termui.Text("No changes").WithStyle(termui.StyleDimmed))
	}
	if commits := divergenceGroups(report.Divergence); len(commits) > 0 {
		doc = append(doc, termui.Empty())
		doc = append(doc, commits...)
	}
	doc = append(doc, termui.Empty())
	return termui.Lines(doc...)
}

func branchLine(report *gitstore.Report) termui.Node {
	var parts []termui.Node
	switch {
	case report.Unborn:
		return termui.Text("On: [no branch]").WithStyle(termui.StyleWarning)
	case report.Detached:
		parts = append(parts, termui.Text("On: [detached]").WithStyle(termui.StyleWarning))
	default:
		parts = append(parts,
			termui.Text("On: "),
			termui.Text(report.Branch).WithStyle(termui.StyleBranch),
		)
	}
	if indicators := remoteIndicators(report.Divergence); indicators.Kind != termui.NodeEmpty {
		parts = append(parts, termui.Spacer(), indicators)
	}
	if report.Title != "" {
		parts = append(parts, termui.Spacer(), termui.Text(report.Title).WithStyle(termui.StyleDimmed))
	}
	return termui.Block(parts...)
}

func remoteIndicators(div *gitstore.DivergenceSet) termui.Node {
	if div == nil {
		return termui.Empty()
	}
	ahead, behind := len(div.Ahead), len(div.Behind)
	switch {
	case ahead == 0 && behind == 0:
		return termui.Empty()
	case behind == 0:
		return termui.Block(
			termui.IconNode(termui.IconArrowUp).WithStyle(termui.StyleSuccess),
			termui.Text(fmt.Sprintf(" %d", ahead)),
		)
	case ahead == 0:
		return termui.Block(
			termui.IconNode(termui.IconArrowDown).WithStyle(termui.StyleError),
			termui.Text(fmt.Sprintf(" %d", behind)),
		)
	default:
		return termui.Block(
			termui.IconNode(termui.IconArrowUp).WithStyle(termui.StyleSuccess),
			termui.Text(fmt.Sprintf(" %d ", ahead)),
			termui.IconNode(termui.IconArrowDown).WithStyle(termui.StyleError),
			termui.Text(fmt.Sprintf(" %d", behind)),
		)
	}
}

func stateNode(report *gitstore.Report) termui.Node {
	if report.State == gitstore.StateRebase && len(report.Sequencer) > 0 {
		lines := make([]termui.Node, 0, len(report.Sequencer)+1)
		for _, op := range report.Sequencer {
			line := []termui.Node{
				termui.Text("  "),
				termui.Text(op.Kind.String()).WithStyle(termui.StyleRemote),
				termui.Spacer(),
			}
			if op.Kind != gitstore.Exec {
				line = append(line, termui.Text(op.Target.String()[:6]).WithStyle(termui.StyleDimmed), termui.Spacer())
			}
			line = append(line, termui.Text(op.Message))
			lines = append(lines, termui.Block(line...))
		}
		lines = append(lines, termui.Block(
			termui.Text("  "),
			termui.Text("Fix conflicts and run 'git rebase --continue'").WithStyle(termui.StyleDimmed),
		))
		return termui.Group("Rebase", len(report.Sequencer), termui.Lines(lines...))
	}
	return termui.Text(fmt.Sprintf("%s in progress", titleCase(report.State.String()))).
		WithStyle(termui.StyleWarning)
}

func changeGroups(entries []gitstore.StatusEntry) []termui.Node {
	var staged, unstaged []termui.Node
	for _, e := range entries {
		line := changeLine(e)
		if e.Location == gitstore.Index {
			staged = append(staged, line)
		} else {
			unstaged = append(unstaged, line)
		}
	}
	var groups []termui.Node
	if len(staged) > 0 {
		groups = append(groups, termui.Group("Staged Changes", len(staged), termui.Lines(staged...)))
	}
	if len(unstaged) > 0 {
		groups = append(groups, termui.Group("Unstaged Changes", len(unstaged), termui.Lines(unstaged...)))
	}
	return groups
}

func changeLine(e gitstore.StatusEntry) termui.Node {
	indicator, style := changeIndicator(e.Change)
	path := e.Path
	if e.Change == gitstore.Renamed && e.From != "" {
		path = e.From + " -> " + e.Path
	}
	return termui.Block(
		termui.Text("  "),
		termui.Text(indicator).WithStyle(style),
		termui.Spacer(),
		termui.Text(path),
	)
}

func changeIndicator(kind gitstore.ChangeKind) (string, termui.Style) {
	switch kind {
	case gitstore.New:
		return "+", termui.StyleSuccess
	case gitstore.Modified:
		return "~", termui.StyleWarning
	case gitstore.Renamed:
		return ">", termui.StyleWarning
	case gitstore.Deleted:
		return "-", termui.StyleError
	case gitstore.TypeChanged:
		return "T", termui.StyleWarning
	default:
		return "?", termui.StyleDimmed
	}
}

func divergenceGroups(div *gitstore.DivergenceSet) []termui.Node {
	if div == nil {
		return nil
	}
	var groups []termui.Node
	sides := []struct {
		name    string
		commits []*object.Commit
	}{
		{"Unmerged into remote", div.Ahead},
		{"Unpulled from remote", div.Behind},
	}
	for _, side := range sides {
		if len(side.commits) == 0 {
			continue
		}
		lines := make([]termui.Node, 0, len(side.commits))
		for _, commit := range side.commits {
			signed := termui.Text(" ")
			if gitstore.IsSigned(commit) {
				signed = termui.IconNode(termui.IconLock).WithStyle(termui.StyleSuccess)
			}
			lines = append(lines, termui.Block(
				signed,
				termui.Spacer(),
				termui.Text(gitstore.ShortHash(commit)).WithStyle(termui.StyleDimmed),
				termui.Spacer(),
				termui.Text(gitstore.Title(commit)),
			))
		}
		groups = append(groups, termui.Group(side.name, len(side.commits), termui.Lines(lines...)))
	}
	return groups
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
