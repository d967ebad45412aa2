package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mylab/figlab/internal/handlers"
	"github.com/mylab/figlab/internal/storage"
)

func newServeCmd(g *globals) *cobra.Command {
	var port int
	var root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local dev server implementing the backend API",
		Long: `Starts a dev server that implements the generation, gallery, download and
folder endpoints over a local directory.

Images are drawn by a deterministic placeholder generator and stored as
{root}/{folder}/image_{folder}_{YYYYMMDD_HHMM}.png with a JPEG preview.`,
		Example: `  # Start server on default port 8299
  figlab serve

  # Start server on custom port and directory
  figlab serve --port 3000 --root ./renders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = g.cfg.Serve.Port
			}
			if !cmd.Flags().Changed("root") {
				root = g.cfg.Serve.Root
			}

			handler := handlers.New(storage.New(root), nil)

			addr := fmt.Sprintf(":%d", port)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("figlab dev server available", "addr", addr, "url", "http://localhost"+addr, "root", root)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8299, "Port to listen on")
	cmd.Flags().StringVar(&root, "root", "./fig_out", "Directory holding generated images")

	return cmd
}
