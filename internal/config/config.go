package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultServer      = "http://localhost:8299"
	DefaultImageSize   = "2K"
	DefaultDownloadDir = "."
	DefaultRoot        = "./fig_out"
	DefaultPort        = 8299
	DefaultFile        = "figlab.yaml"
)

// Config holds client and dev server settings
type Config struct {
	Server        string        `yaml:"server"`
	Folder        string        `yaml:"folder"`
	ImageSize     string        `yaml:"image_size"`
	DownloadDir   string        `yaml:"download_dir"`
	ToastDuration time.Duration `yaml:"toast_duration"`

	Serve ServeConfig `yaml:"serve"`
}

// ServeConfig holds dev server settings
type ServeConfig struct {
	Port int    `yaml:"port"`
	Root string `yaml:"root"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:        DefaultServer,
		ImageSize:     DefaultImageSize,
		DownloadDir:   DefaultDownloadDir,
		ToastDuration: 3 * time.Second,
		Serve: ServeConfig{
			Port: DefaultPort,
			Root: DefaultRoot,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is only an error when explicit is set.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FIGLAB_SERVER"); v != "" {
		c.Server = v
	}
	if v := os.Getenv("FIGLAB_FOLDER"); v != "" {
		c.Folder = v
	}
	if v := os.Getenv("FIGLAB_IMAGE_SIZE"); v != "" {
		c.ImageSize = v
	}
	if v := os.Getenv("FIGLAB_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv("FIGLAB_ROOT"); v != "" {
		c.Serve.Root = v
	}
	if v := os.Getenv("FIGLAB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FIGLAB_PORT %q: %w", v, err)
		}
		c.Serve.Port = port
	}
	return nil
}

// Validate checks the values a command cannot work without
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.ImageSize != "2K" && c.ImageSize != "4K" {
		return fmt.Errorf("invalid image size %q (supported: 2K, 4K)", c.ImageSize)
	}
	if c.Serve.Port <= 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Serve.Port)
	}
	return nil
}
