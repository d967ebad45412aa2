package cmd

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mylab/figlab/internal/api"
	"github.com/mylab/figlab/internal/app"
	"github.com/mylab/figlab/internal/config"
	"github.com/mylab/figlab/internal/ui"
)

// globals holds the persistent flags and the configuration they resolve to
type globals struct {
	configPath string
	server     string
	verbose    bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "figlab",
		Short: "Client for an image generation service",
		Long: `figlab submits image generation requests with reference images, browses
generated images per folder, and downloads the original renders as zip archives.

It works against any backend serving the /api/generate, /api/gallery,
/api/download-originals and /api/folders endpoints, including the bundled
dev server started with "figlab serve".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			setupLogging(os.Stderr, g.verbose)

			explicit := cmd.Flags().Changed("config")
			cfg, err := config.Load(g.configPath, explicit)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.Server = g.server
			}
			g.cfg = cfg

			slog.Debug("Configuration loaded", "server", cfg.Server, "folder", cfg.Folder, "image_size", cfg.ImageSize)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultFile, "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&g.server, "server", config.DefaultServer, "Backend base URL")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newGenerateCmd(g))
	cmd.AddCommand(newGalleryCmd(g))
	cmd.AddCommand(newDownloadCmd(g))
	cmd.AddCommand(newFoldersCmd(g))
	cmd.AddCommand(newUICmd(g))
	cmd.AddCommand(newServeCmd(g))

	return cmd
}

func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// controller builds a client session against the configured backend
func (g *globals) controller() (*app.Controller, *api.Client) {
	client := api.New(g.cfg.Server)
	page := ui.NewPage(g.cfg.ToastDuration)
	return app.New(client, page, app.Options{DownloadDir: g.cfg.DownloadDir}), client
}

// imageURL turns a server-relative image path into an absolute URL
func (g *globals) imageURL(path string) string {
	return api.New(g.cfg.Server).BaseURL + path
}

// statusError reports the final status text of a failed action
func statusError(status ui.Status, err error) error {
	if status.Kind == ui.StatusError && status.Text != "" {
		return errors.New(status.Text)
	}
	return err
}
