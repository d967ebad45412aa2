package files

import (
	"os"
	"path/filepath"
	"testing"
)

// smallest valid PNG signature + IHDR start; enough for content sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestStat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		data     []byte
		wantType string
	}{
		{name: "png by extension", filename: "a.png", data: pngHeader, wantType: "image/png"},
		{name: "jpg by extension", filename: "b.JPG", data: []byte("x"), wantType: "image/jpeg"},
		{name: "gif by extension", filename: "c.gif", data: []byte("x"), wantType: "image/gif"},
		{name: "sniffed without extension", filename: "noext", data: pngHeader, wantType: "image/png"},
		{name: "plain text", filename: "notes.txt", data: []byte("hello"), wantType: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.filename)
			if err := os.WriteFile(path, tt.data, 0644); err != nil {
				t.Fatal(err)
			}

			ref, err := Stat(path)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if ref.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, ref.Type)
			}
			if ref.Size != int64(len(tt.data)) {
				t.Errorf("Expected size %d, got %d", len(tt.data), ref.Size)
			}
			if ref.Name != tt.filename {
				t.Errorf("Expected name %s, got %s", tt.filename, ref.Name)
			}
		})
	}
}

func TestStatErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Stat(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := Stat(dir); err == nil {
		t.Error("Expected error for directory")
	}
}
