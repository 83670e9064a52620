package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
)

func newPushCmd(root *rootOpts) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the current branch to its upstream",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			th := theme(root)

			monitor := gitstore.NewProgressMonitor(os.Stderr)
			result, err := store.Push(gitstore.PushOpts{
				Force:    force,
				Progress: monitor,
			})
			monitor.Close()
			if err != nil {
				return err
			}

			fmt.Fprint(os.Stderr, monitor.Reply())

			var line termui.Node
			if result.UpToDate {
				line = termui.Block(
					termui.IconNode(termui.IconCheck).WithStyle(termui.StyleSuccess),
					termui.Spacer(),
					termui.Text("up to date"),
				)
			} else {
				line = termui.Block(
					termui.IconNode(termui.IconCheck).WithStyle(termui.StyleSuccess),
					termui.Spacer(),
					termui.Text("pushed to"),
					termui.Spacer(),
					termui.Text(result.Remote).WithStyle(termui.StyleRemote),
					termui.Text("/"),
					termui.Text(result.Branch).WithStyle(termui.StyleBranch),
				)
			}
			return termui.Renderln(os.Stdout, line, th)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite the remote branch")
	return cmd
}
