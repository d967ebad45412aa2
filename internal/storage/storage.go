package storage

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mylab/figlab/internal/models"
)

// StampLayout is the timestamp embedded in generated file names
const StampLayout = "20060102_1504"

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrImageNotFound  = errors.New("image not found")
	ErrNoOriginals    = errors.New("folder has no originals")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeName reduces a user-supplied name to a safe single path segment
func SanitizeName(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// SanitizeFolder is SanitizeName with dots flattened, so folders never look like files
func SanitizeFolder(name string) string {
	return strings.ReplaceAll(SanitizeName(name), ".", "_")
}

// Library stores generated images as root/{folder}/image_{folder}_{stamp}.{png,jpg}
type Library struct {
	root string
	mu   sync.RWMutex
}

func New(root string) *Library {
	return &Library{root: root}
}

func (l *Library) Root() string {
	return l.root
}

func (l *Library) dir(folder string) string {
	return filepath.Join(l.root, folder)
}

// Folders lists the folder names under the root, sorted
func (l *Library) Folders() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries, err := os.ReadDir(l.root)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read library root: %w", err)
	}

	folders := []string{}
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, e.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

func (l *Library) exists(folder string) bool {
	info, err := os.Stat(l.dir(folder))
	return err == nil && info.IsDir()
}

// list returns the names of files with ext in folder, newest name first
func (l *Library) list(folder, ext string) ([]string, error) {
	if !l.exists(folder) {
		return nil, ErrFolderNotFound
	}
	matches, err := filepath.Glob(filepath.Join(l.dir(folder), "*"+ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", ext, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Images lists the JPG previews of folder, newest name first
func (l *Library) Images(folder string) ([]models.GalleryImage, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names, err := l.list(folder, ".jpg")
	if err != nil {
		return nil, err
	}

	images := make([]models.GalleryImage, 0, len(names))
	for _, name := range names {
		images = append(images, models.GalleryImage{
			JPGPath:   "/api/image/" + folder + "/" + name,
			Filename:  name,
			Timestamp: TimestampFromName(name),
		})
	}
	return images, nil
}

// TimestampFromName extracts "YYYYMMDD_HHMM" from image_{folder}_{date}_{time}.jpg.
// Names with fewer than three "_" parts have no timestamp.
func TimestampFromName(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2] + "_" + strings.TrimSuffix(parts[len(parts)-1], ".jpg")
}

// ImagePath resolves a stored file, refusing anything outside the folder
func (l *Library) ImagePath(folder, filename string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	name := SanitizeName(filename)
	if name == "" {
		return "", ErrImageNotFound
	}
	path := filepath.Join(l.dir(folder), name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrImageNotFound
	}
	return path, nil
}

// WriteOriginals streams a deflate zip of the folder's PNG originals to w
func (l *Library) WriteOriginals(w io.Writer, folder string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names, err := l.list(folder, ".png")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return ErrNoOriginals
	}

	zw := zip.NewWriter(w)
	for _, name := range names {
		if err := addToZip(zw, filepath.Join(l.dir(folder), name), name); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// CountOriginals reports how many PNG originals folder holds
func (l *Library) CountOriginals(folder string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names, err := l.list(folder, ".png")
	return len(names), err
}

func addToZip(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

// Save writes the original PNG and the JPG preview of one generation and
// returns the JPG file name.
func (l *Library) Save(folder string, at time.Time, png, jpg []byte) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir(folder), 0755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	base := fmt.Sprintf("image_%s_%s", folder, at.Format(StampLayout))
	if err := os.WriteFile(filepath.Join(l.dir(folder), base+".png"), png, 0644); err != nil {
		return "", fmt.Errorf("failed to save original: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.dir(folder), base+".jpg"), jpg, 0644); err != nil {
		return "", fmt.Errorf("failed to save preview: %w", err)
	}
	return base + ".jpg", nil
}
