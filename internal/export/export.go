package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/mylab/figlab/internal/models"
	"github.com/mylab/figlab/internal/ui"
)

// Row is one exported gallery image
type Row struct {
	Folder    string `json:"folder" yaml:"folder" parquet:"folder"`
	Filename  string `json:"filename" yaml:"filename" parquet:"filename"`
	Path      string `json:"path" yaml:"path" parquet:"path"`
	Timestamp string `json:"timestamp" yaml:"timestamp" parquet:"timestamp"`
	Taken     string `json:"taken" yaml:"taken" parquet:"taken"`
}

// Rows flattens a gallery listing
func Rows(folder string, listing *models.GalleryListing) []Row {
	rows := make([]Row, 0, len(listing.Images))
	for _, img := range listing.Images {
		rows = append(rows, Row{
			Folder:    folder,
			Filename:  img.Filename,
			Path:      img.JPGPath,
			Timestamp: img.Timestamp,
			Taken:     ui.FormatTimestamp(img.Timestamp),
		})
	}
	return rows
}

// WriteListing saves the listing to path, picking the format from the extension
func WriteListing(path, folder string, listing *models.GalleryListing) error {
	rows := Rows(folder, listing)

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = writeJSON(path, rows)
	case ".yaml", ".yml":
		err = writeYAML(path, rows)
	case ".parquet":
		err = writeParquet(path, rows)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: .json, .yaml, .parquet)", ext)
	}
	if err != nil {
		return err
	}

	slog.Info("Gallery exported", "path", path, "rows", len(rows))
	return nil
}

func writeJSON(path string, rows []Row) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func writeYAML(path string, rows []Row) error {
	data, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func writeParquet(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
