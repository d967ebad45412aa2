package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mylab/figlab/internal/export"
	"github.com/mylab/figlab/internal/ui"
)

func newGalleryCmd(g *globals) *cobra.Command {
	var exportPath string

	cmd := &cobra.Command{
		Use:   "gallery [folder]",
		Short: "List the generated images of a folder",
		Long: `Lists the images of a folder, newest first, with the time each was taken.

The listing can also be written to a JSON, YAML or Parquet file with --export.`,
		Example: `  # List the cats folder
  figlab gallery cats

  # Save the listing as parquet
  figlab gallery cats --export cats.parquet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := g.cfg.Folder
			if len(args) == 1 {
				folder = args[0]
			}

			ctrl, _ := g.controller()
			page := ctrl.Page()
			listing, err := ctrl.LoadGallery(cmd.Context(), folder)
			if err != nil {
				return statusError(page.GalleryStatus.Status(), err)
			}

			out := cmd.OutOrStdout()
			for _, tile := range page.Gallery.Tiles() {
				if tile.Kind != ui.TileGallery {
					fmt.Fprintln(out, tile.Hint)
					continue
				}
				taken := tile.Caption
				if taken == "" {
					taken = "-"
				}
				fmt.Fprintf(out, "%-16s  %-40s  %s\n", taken, tile.Alt, g.imageURL(tile.Src))
			}

			if exportPath != "" {
				if err := export.WriteListing(exportPath, folder, listing); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d images to %s\n", len(listing.Images), exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write the listing to a .json, .yaml or .parquet file")

	return cmd
}
