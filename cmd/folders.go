package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFoldersCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List the folders known to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _ := g.controller()
			folders, err := ctrl.ListFolders(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range folders {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}
