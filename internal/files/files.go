package files

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Reference is a client-side file handle picked as a reference image
type Reference struct {
	Name string
	Type string // MIME type
	Size int64
	Path string
}

// Open opens the referenced file for reading
func (r Reference) Open() (io.ReadCloser, error) {
	return os.Open(r.Path)
}

// Stat builds a Reference for the file at path, resolving its MIME type from
// the extension and falling back to content sniffing.
func Stat(path string) (Reference, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Reference{}, fmt.Errorf("%s is a directory", path)
	}

	mimeType, err := detectType(path)
	if err != nil {
		return Reference{}, err
	}

	return Reference{
		Name: filepath.Base(path),
		Type: mimeType,
		Size: info.Size(),
		Path: path,
	}, nil
}

func detectType(path string) (string, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType, nil
		}
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if err != nil {
		return "application/octet-stream", nil
	}
	return mediaType, nil
}
