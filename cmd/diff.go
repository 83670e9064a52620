package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
)

func newDiffCmd(root *rootOpts) *cobra.Command {
	var (
		staged           bool
		stat             bool
		pathspec         string
		ignoreWhitespace bool
	)
	cmd := &cobra.Command{
		Use:   "diff [base [target]]",
		Short: "Show changes between snapshots",
		Long: `Show changes in the working copy, or between two revisions.

Without arguments the index is compared against the working tree
(--staged compares HEAD against the index instead). With one or two
revisions the commit trees are compared, with rename detection.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			opts := gitstore.DefaultDiffOptions()
			opts.Pathspec = pathspec
			opts.IgnoreWhitespace = ignoreWhitespace
			if root.cfg.RenameThreshold > 0 {
				opts.RenameScore = root.cfg.RenameThreshold
			}

			patch, err := resolvePatch(store, args, staged, opts)
			if err != nil {
				return err
			}
			th := theme(root)
			if stat {
				return renderStats(patch, th)
			}
			return renderPatch(patch, th)
		},
	}
	cmd.Flags().BoolVar(&staged, "staged", false, "diff HEAD against the index")
	cmd.Flags().BoolVar(&stat, "stat", false, "show per-file counts instead of the patch")
	cmd.Flags().StringVarP(&pathspec, "path", "p", "", "restrict the diff to matching paths")
	cmd.Flags().BoolVarP(&ignoreWhitespace, "ignore-whitespace", "b", false, "ignore whitespace when comparing lines")
	return cmd
}

func resolvePatch(store *gitstore.Store, args []string, staged bool, opts gitstore.DiffOptions) (*gitstore.Patch, error) {
	if len(args) == 0 {
		return store.WorktreeDiff(staged, opts)
	}
	base, err := store.ResolveRevision(args[0])
	if err != nil {
		return nil, err
	}
	target := base
	if len(args) == 2 {
		target, err = store.ResolveRevision(args[1])
		if err != nil {
			return nil, err
		}
	} else {
		// Single revision: diff it against HEAD.
		target, err = store.ResolveRevision("HEAD")
		if err != nil {
			return nil, err
		}
	}
	return store.Diff(base, target, opts)
}

func renderPatch(patch *gitstore.Patch, th termui.Theme) error {
	currentPath := ""
	for {
		line, err := patch.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if path, ok := termui.DiffPath(line.Text); ok {
			currentPath = path
		}
		node := patchLineNode(line, currentPath, th)
		if err := termui.Renderln(os.Stdout, node, th); err != nil {
			return err
		}
	}
}

func patchLineNode(line gitstore.PatchLine, path string, th termui.Theme) termui.Node {
	switch line.Origin {
	case gitstore.OriginFileHeader:
		return termui.Text(line.Text).WithStyle(termui.StyleBold)
	case gitstore.OriginHunkHeader:
		return termui.Text(line.Text).WithStyle(termui.StyleRemote)
	case gitstore.OriginAddition:
		return termui.Text("+" + line.Text).WithStyle(termui.StyleSuccess)
	case gitstore.OriginDeletion:
		return termui.Text("-" + line.Text).WithStyle(termui.StyleError)
	default:
		return termui.Text(" " + th.HighlightLine(path, line.Text))
	}
}

func renderStats(patch *gitstore.Patch, th termui.Theme) error {
	stats, err := patch.Stats()
	if err != nil {
		return err
	}
	for _, file := range stats.Files {
		name := file.Path
		if file.From != "" {
			name = file.From + " -> " + file.Path
		}
		line := termui.Block(
			termui.Text(" "),
			termui.Text(name),
			termui.Spacer(),
			termui.Text(fmt.Sprintf("+%d", file.Insertions)).WithStyle(termui.StyleSuccess),
			termui.Spacer(),
			termui.Text(fmt.Sprintf("-%d", file.Deletions)).WithStyle(termui.StyleError),
		)
		if err := termui.Renderln(os.Stdout, line, th); err != nil {
			return err
		}
	}
	summary := termui.Text(fmt.Sprintf("%d file(s) changed, %d insertion(s), %d deletion(s)",
		len(stats.Files), stats.Insertions, stats.Deletions))
	return termui.Renderln(os.Stdout, summary, th)
}
