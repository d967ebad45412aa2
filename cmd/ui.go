package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mylab/figlab/internal/tui"
)

func newUICmd(g *globals) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the interactive terminal interface",
		Long: `Opens a full-screen interface with a Generate tab and a Gallery tab.

The terminal belongs to the interface while it runs, so logs are discarded
unless --log-file is given.`,
		Example: `  figlab ui
  figlab ui --server http://figs.internal:8299 --log-file figlab.log -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			setupLogging(logOut, g.verbose)

			ctrl, _ := g.controller()
			model := tui.New(cmd.Context(), ctrl, g.cfg.Server, g.cfg.Folder)
			return tui.Run(cmd.Context(), model)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file")

	return cmd
}
