// Package cmd defines the Cobra command tree for the glance CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ameijboom/glance/internal/buildinfo"
	"github.com/ameijboom/glance/internal/config"
	gitstore "github.com/ameijboom/glance/internal/git"
	termui "github.com/ameijboom/glance/internal/term"
)

type rootOpts struct {
	dir     string
	mode    string
	verbose bool

	cfg config.Config
}

// Run executes the CLI.
func Run() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	cmd := &cobra.Command{
		Use:           "glance",
		Short:         "A small git porcelain focused on what to do next",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		// Bare invocation behaves like status.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, statusOpts{})
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "repository directory")
	cmd.PersistentFlags().StringVar(&opts.mode, "mode", "", "color mode: auto, light, or dark")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	cmd.AddCommand(
		newStatusCmd(opts),
		newListCmd(opts),
		newDiffCmd(opts),
		newPullCmd(opts),
		newPushCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			version := buildinfo.Version()
			if rev := buildinfo.Revision(); rev != "" {
				fmt.Printf("glance %s (%s)\n", version, rev)
				return
			}
			fmt.Printf("glance %s\n", version)
		},
	}
}

func openStore(opts *rootOpts) (*gitstore.Store, error) {
	return gitstore.Open(opts.dir)
}

// theme resolves the effective theme: flag over config file, color only
// when stdout is a terminal.
func theme(opts *rootOpts) termui.Theme {
	mode := opts.cfg.Color
	if opts.mode != "" {
		mode = opts.mode
	}
	color := term.IsTerminal(int(os.Stdout.Fd()))
	return termui.NewTheme(termui.ThemePreferenceFromString(mode), color)
}

func classifyOptions(opts *rootOpts) gitstore.ClassifyOptions {
	co := gitstore.DefaultClassifyOptions()
	co.IncludeUntracked = opts.cfg.Untracked
	co.RenameThreshold = float64(opts.cfg.RenameThreshold) / 100
	return co
}
