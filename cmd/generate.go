package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mylab/figlab/internal/app"
)

func newGenerateCmd(g *globals) *cobra.Command {
	var prompt string
	var folder string
	var size string
	var refs []string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an image from a prompt and optional reference images",
		Long: `Submits a prompt to the backend and waits for the generated image.

Up to 5 reference images (PNG, JPEG, GIF or WebP, at most 10MB each) can be
attached. Extra files beyond the fifth are ignored with a warning; files with
an unsupported type or size are skipped.`,
		Example: `  # Generate into the "cats" folder
  figlab generate --prompt "a cat in a spacesuit" --folder cats

  # Use reference images and the 4K size
  figlab generate -p "same cat, watercolor" -f cats --size 4K --ref ref1.png --ref ref2.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("folder") {
				folder = g.cfg.Folder
			}
			if !cmd.Flags().Changed("size") {
				size = g.cfg.ImageSize
			}

			ctrl, _ := g.controller()
			page := ctrl.Page()
			if len(refs) > 0 {
				selected := ctrl.SelectFiles(refs)
				if len(selected) < len(refs) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using %d of %d reference images\n", len(selected), len(refs))
				}
			}

			err := ctrl.SubmitGenerate(cmd.Context(), app.GenerateForm{
				Prompt:    prompt,
				Folder:    folder,
				ImageSize: size,
			})
			if err != nil {
				return statusError(page.GenerateStatus.Status(), err)
			}

			if msg := page.GenerateStatus.Status().Text; msg != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}
			if tile, ok := page.Preview.At(0); ok {
				fmt.Fprintln(cmd.OutOrStdout(), g.imageURL(tile.Src))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Image description")
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Folder to save the image into")
	cmd.Flags().StringVar(&size, "size", app.ImageSize2K, "Image size (2K or 4K)")
	cmd.Flags().StringSliceVar(&refs, "ref", nil, "Reference image path (repeatable, max 5)")

	return cmd
}
