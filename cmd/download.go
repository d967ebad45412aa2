package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mylab/figlab/internal/api"
	"github.com/mylab/figlab/internal/app"
)

// parallelDownloads bounds concurrent archive requests
const parallelDownloads = 2

func newDownloadCmd(g *globals) *cobra.Command {
	var all bool
	var dir string

	cmd := &cobra.Command{
		Use:   "download [folder...]",
		Short: "Download the original images of folders as zip archives",
		Long: `Downloads {folder}_originals.zip for each folder into the download directory.

With several folders, or --all, archives are fetched two at a time.`,
		Example: `  # Download one folder
  figlab download cats

  # Download every folder into ./archives
  figlab download --all --dir ./archives`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dir") {
				g.cfg.DownloadDir = dir
			}
			ctrl, client := g.controller()
			ctx := cmd.Context()

			folders := args
			if all {
				listed, err := ctrl.ListFolders(ctx)
				if err != nil {
					return err
				}
				folders = listed
			}
			if len(folders) == 0 && g.cfg.Folder != "" {
				folders = []string{g.cfg.Folder}
			}

			switch len(folders) {
			case 0:
				return fmt.Errorf("no folder given (pass a folder name or --all)")
			case 1:
				path, err := ctrl.DownloadOriginals(ctx, folders[0])
				if err != nil {
					return statusError(ctrl.Page().GalleryStatus.Status(), err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			paths, err := downloadAll(ctx, client, g.cfg.DownloadDir, folders)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Download every folder")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to save archives into (defaults to config download_dir)")

	return cmd
}

// downloadAll fetches each folder's archive with bounded concurrency. It keeps
// going past failures and returns the saved paths with the first error.
func downloadAll(ctx context.Context, client *api.Client, dir string, folders []string) ([]string, error) {
	limiter := rate.NewLimiter(rate.Every(250*time.Millisecond), parallelDownloads)

	var mu sync.Mutex
	var saved []string

	var eg errgroup.Group
	eg.SetLimit(parallelDownloads)
	for _, folder := range folders {
		eg.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			data, err := client.FetchOriginalsArchive(ctx, folder)
			if err != nil {
				slog.Error("Download failed", "folder", folder, "err", err)
				return fmt.Errorf("failed to download %s: %w", folder, err)
			}
			path, err := app.SaveArchive(dir, folder, data)
			if err != nil {
				return err
			}

			mu.Lock()
			saved = append(saved, path)
			mu.Unlock()
			slog.Info("Archive saved", "folder", folder, "path", path, "bytes", len(data))
			return nil
		})
	}

	err := eg.Wait()
	return saved, err
}
