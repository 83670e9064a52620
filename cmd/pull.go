package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
)

func newPullCmd(root *rootOpts) *cobra.Command {
	var remote string
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch and fast-forward the current branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(root)
			if err != nil {
				return err
			}
			th := theme(root)

			monitor := gitstore.NewProgressMonitor(os.Stderr)
			err = store.Fetch(remote, monitor)
			monitor.Close()
			if err != nil {
				return err
			}

			analysis, div, err := store.AnalyzePull()
			if err != nil {
				return err
			}
			switch analysis {
			case gitstore.PullUpToDate:
				return termui.Renderln(os.Stdout, termui.Block(
					termui.IconNode(termui.IconCheck).WithStyle(termui.StyleSuccess),
					termui.Spacer(),
					termui.Text("up to date"),
				), th)
			case gitstore.PullFastForward:
				target := div.Behind[0].Hash
				if err := store.FastForward(target); err != nil {
					return err
				}
				return termui.Renderln(os.Stdout, termui.Block(
					termui.IconNode(termui.IconCheck).WithStyle(termui.StyleSuccess),
					termui.Spacer(),
					termui.Text(fmt.Sprintf("fast-forwarded %d commit(s)", len(div.Behind))),
				), th)
			default:
				return fmt.Errorf("branches diverged (%d ahead, %d behind); merge or rebase first",
					len(div.Ahead), len(div.Behind))
			}
		},
	}
	cmd.Flags().StringVarP(&remote, "remote", "r", "origin", "remote to fetch from")
	return cmd
}
