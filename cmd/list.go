package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
)

func newListCmd(root *rootOpts) *cobra.Command {
	var (
		short bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show commit logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = root.cfg.Limit
			}
			commits, err := store.List(limit)
			if err != nil {
				return err
			}
			th := theme(root)
			for _, commit := range commits {
				signed := termui.Text("  ")
				if gitstore.IsSigned(commit) {
					signed = termui.Block(
						termui.IconNode(termui.IconLock).WithStyle(termui.StyleSuccess),
						termui.Spacer(),
					)
				}
				line := termui.Block(
					signed,
					termui.Text(gitstore.ShortHash(commit)).WithStyle(termui.StyleWarning),
					termui.Spacer(),
					termui.Text(gitstore.Title(commit)),
				)
				if err := termui.Renderln(os.Stdout, line, th); err != nil {
					return err
				}
				if short {
					continue
				}
				details := termui.Lines(
					termui.Text(fmt.Sprintf("Date: %s", commit.Committer.When.Format("2006-01-02 15:04"))).
						WithStyle(termui.StyleDimmed),
					termui.Text(fmt.Sprintf("Author: %s <%s>", commit.Author.Name, commit.Author.Email)).
						WithStyle(termui.StyleDimmed),
					termui.Empty(),
				)
				if err := termui.Renderln(os.Stdout, details, th); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "one line per commit")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of commits to show")
	return cmd
}
