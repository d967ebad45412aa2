package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mylab/figlab/internal/api"
	"github.com/mylab/figlab/internal/files"
	"github.com/mylab/figlab/internal/models"
	"github.com/mylab/figlab/internal/ui"
)

const (
	// MaxFiles is the most reference images one generation accepts
	MaxFiles = 5
	// MaxFileSizeMB is the per-file size ceiling for reference images
	MaxFileSizeMB = 10
	// GalleryPlaceholders is how many filler tiles show while a listing loads
	GalleryPlaceholders = 8
)

// Image sizes understood by the backend
const (
	ImageSize2K = "2K"
	ImageSize4K = "4K"
)

// Transport is the backend the controller talks to
type Transport interface {
	SubmitGeneration(ctx context.Context, req api.GenerateRequest) (*models.GenerateResult, error)
	FetchGallery(ctx context.Context, folder string) (*models.GalleryListing, error)
	FetchOriginalsArchive(ctx context.Context, folder string) ([]byte, error)
	ListFolders(ctx context.Context) (*models.FolderList, error)
}

// Options configures a Controller
type Options struct {
	// DownloadDir receives {folder}_originals.zip archives
	DownloadDir string
}

// GenerateForm holds the generate section inputs
type GenerateForm struct {
	Prompt    string
	Folder    string
	ImageSize string
}

// Controller wires UI events to the transport and the page. It owns the
// only mutable session state: the reference selection and per-action state.
type Controller struct {
	transport   Transport
	page        *ui.Page
	downloadDir string

	mu       sync.Mutex
	selected []files.Reference
	states   map[Action]State
}

// New creates the controller for one session
func New(transport Transport, page *ui.Page, opts Options) *Controller {
	dir := opts.DownloadDir
	if dir == "" {
		dir = "."
	}
	return &Controller{
		transport:   transport,
		page:        page,
		downloadDir: dir,
		states:      make(map[Action]State),
	}
}

// Page returns the view model the controller renders into
func (c *Controller) Page() *ui.Page {
	return c.page
}

// State reports the lifecycle state of an action
func (c *Controller) State(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[a]
}

// Selected returns a copy of the current reference selection
func (c *Controller) Selected() []files.Reference {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]files.Reference(nil), c.selected...)
}

// ActivateTab switches the visible section
func (c *Controller) ActivateTab(name string) error {
	return c.page.Tabs.Activate(name)
}

// begin moves an action to Submitting unless it is already in flight
func (c *Controller) begin(a Action, button *ui.Button) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[a] == StateSubmitting {
		return false
	}
	c.states[a] = StateSubmitting
	button.SetLoading(true)
	return true
}

func (c *Controller) finish(a Action, button *ui.Button, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.states[a] = StateFailed
	} else {
		c.states[a] = StateSucceeded
	}
	button.SetLoading(false)
}

// SelectFiles replaces the reference selection. Only the first MaxFiles
// paths are considered; each is checked for type then size, and rejected
// ones are reported individually with a toast.
func (c *Controller) SelectFiles(paths []string) []files.Reference {
	page := c.page
	page.FilePreview.Clear()
	c.setSelected(nil)

	if len(paths) == 0 {
		return nil
	}

	var dropped []string
	if len(paths) > MaxFiles {
		dropped = paths[MaxFiles:]
		paths = paths[:MaxFiles]
		slog.Warn("Reference selection truncated", "limit", MaxFiles, "dropped", dropped)
	}

	var accepted []files.Reference
	for i, path := range paths {
		ref, err := files.Stat(path)
		if err != nil {
			slog.Warn("Unable to read reference file", "path", path, "err", err)
			page.Toast.Show(fmt.Sprintf("%s could not be read", filepath.Base(path)), ui.ToastError)
			continue
		}
		if !ui.IsAllowedType(ref) {
			page.Toast.Show(fmt.Sprintf("%s is not a supported image format", ref.Name), ui.ToastError)
			continue
		}
		if !ui.IsWithinSizeLimit(ref, MaxFileSizeMB) {
			page.Toast.Show(fmt.Sprintf("%s exceeds the %dMB limit", ref.Name, MaxFileSizeMB), ui.ToastError)
			continue
		}

		accepted = append(accepted, ref)
		page.FilePreview.Append(ui.PreviewTile(ref, i))
	}

	c.setSelected(accepted)

	if len(accepted) > 0 {
		msg := fmt.Sprintf("Selected %d image(s)", len(accepted))
		if len(dropped) > 0 {
			msg += fmt.Sprintf(", %d over the limit of %d ignored", len(dropped), MaxFiles)
		}
		page.Toast.Show(msg, ui.ToastSuccess)
	}

	return append([]files.Reference(nil), accepted...)
}

// RemoveFile drops the i-th selected reference and its preview
func (c *Controller) RemoveFile(i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.selected) {
		c.mu.Unlock()
		return fmt.Errorf("no selected file at position %d", i)
	}
	next := make([]files.Reference, 0, len(c.selected)-1)
	next = append(next, c.selected[:i]...)
	next = append(next, c.selected[i+1:]...)
	c.selected = next
	c.mu.Unlock()

	return c.page.FilePreview.Remove(i)
}

func (c *Controller) setSelected(refs []files.Reference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = refs
}

// SubmitGenerate validates the form and runs one generation round trip
func (c *Controller) SubmitGenerate(ctx context.Context, form GenerateForm) error {
	page := c.page
	prompt := strings.TrimSpace(form.Prompt)
	folder := strings.TrimSpace(form.Folder)
	size := form.ImageSize
	if size == "" {
		size = ImageSize2K
	}

	if prompt == "" {
		return c.reject(&page.GenerateStatus, "prompt", "Please enter a prompt")
	}
	if folder == "" {
		return c.reject(&page.GenerateStatus, "folder", "Please enter a folder name")
	}

	if !c.begin(ActionGenerate, &page.GenerateButton) {
		return ErrBusy
	}

	err := c.generate(ctx, prompt, folder, size)
	c.finish(ActionGenerate, &page.GenerateButton, err)
	return err
}

func (c *Controller) generate(ctx context.Context, prompt, folder, size string) error {
	page := c.page
	page.GenerateStatus.ShowLoading("Generating image, please wait...")
	page.Preview.Replace(ui.GeneratingTile())

	refs := c.Selected()
	slog.Info("Submitting generation", "folder", folder, "size", size, "references", len(refs))

	result, err := c.transport.SubmitGeneration(ctx, api.GenerateRequest{
		Prompt:     prompt,
		Folder:     folder,
		ImageSize:  size,
		References: refs,
	})
	if err == nil && !result.Success {
		err = errors.New(nonEmpty(result.Error, "generation failed"))
	}
	if err != nil {
		slog.Error("Generation failed", "folder", folder, "err", err)
		page.GenerateStatus.ShowError("Generation failed: " + errorMessage(err))
		page.Toast.Show("Image generation failed", ui.ToastError)
		page.Preview.Replace(ui.FailedTile())
		return err
	}

	slog.Info("Generation succeeded", "folder", folder, "path", result.JPGPath)
	page.Preview.Replace(ui.ResultTile(result.JPGPath))
	page.GenerateStatus.ShowSuccess(result.Message)
	page.Toast.Show("Image generated successfully!", ui.ToastSuccess)

	c.setSelected(nil)
	page.FilePreview.Clear()
	return nil
}

// LoadGallery fetches and renders the listing of a folder
func (c *Controller) LoadGallery(ctx context.Context, folder string) (*models.GalleryListing, error) {
	page := c.page
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return nil, c.reject(&page.GalleryStatus, "folder", "Please enter a folder name")
	}

	if !c.begin(ActionLoadGallery, &page.LoadButton) {
		return nil, ErrBusy
	}

	listing, err := c.loadGallery(ctx, folder)
	c.finish(ActionLoadGallery, &page.LoadButton, err)
	return listing, err
}

func (c *Controller) loadGallery(ctx context.Context, folder string) (*models.GalleryListing, error) {
	page := c.page
	page.GalleryStatus.ShowLoading("Loading gallery...")

	placeholders := make([]ui.Tile, GalleryPlaceholders)
	for i := range placeholders {
		placeholders[i] = ui.PlaceholderTile()
	}
	page.Gallery.Replace(placeholders...)

	listing, err := c.transport.FetchGallery(ctx, folder)
	if err == nil && !listing.Success {
		err = errors.New(nonEmpty(listing.Error, "load failed"))
	}
	if err != nil {
		slog.Error("Gallery load failed", "folder", folder, "err", err)
		msg := errorMessage(err)
		page.GalleryStatus.ShowError("Load failed: " + msg)
		page.Toast.Show("Failed to load gallery", ui.ToastError)
		page.Gallery.Replace(ui.ErrorStateTile(msg))
		return nil, err
	}

	if len(listing.Images) == 0 {
		page.Gallery.Replace(ui.EmptyStateTile("This folder has no images"))
		page.GalleryStatus.ShowInfo(nonEmpty(listing.Message, "Folder is empty"))
		return listing, nil
	}

	tiles := make([]ui.Tile, 0, len(listing.Images))
	for _, img := range listing.Images {
		tiles = append(tiles, ui.GalleryTile(img))
	}
	page.Gallery.Replace(tiles...)
	page.GalleryStatus.ShowSuccess(listing.Message)
	page.Toast.Show(fmt.Sprintf("Loaded %d images", listing.Count), ui.ToastSuccess)

	slog.Info("Gallery loaded", "folder", folder, "count", listing.Count)
	return listing, nil
}

// DownloadOriginals saves the folder's original archive as {folder}_originals.zip
// in the download directory and returns the written path.
func (c *Controller) DownloadOriginals(ctx context.Context, folder string) (string, error) {
	page := c.page
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return "", c.reject(&page.GalleryStatus, "folder", "Please enter a folder name")
	}

	if !c.begin(ActionDownload, &page.DownloadButton) {
		return "", ErrBusy
	}

	path, err := c.download(ctx, folder)
	c.finish(ActionDownload, &page.DownloadButton, err)
	return path, err
}

func (c *Controller) download(ctx context.Context, folder string) (string, error) {
	page := c.page
	page.GalleryStatus.ShowLoading("Preparing download...")

	path, err := c.fetchArchive(ctx, folder)
	if err != nil {
		slog.Error("Download failed", "folder", folder, "err", err)
		page.GalleryStatus.ShowError("Download failed: " + errorMessage(err))
		page.Toast.Show("Download failed", ui.ToastError)
		return "", err
	}

	page.GalleryStatus.ShowSuccess("Download saved to " + path)
	page.Toast.Show("Originals downloaded", ui.ToastSuccess)
	return path, nil
}

func (c *Controller) fetchArchive(ctx context.Context, folder string) (string, error) {
	data, err := c.transport.FetchOriginalsArchive(ctx, folder)
	if err != nil {
		return "", err
	}
	return SaveArchive(c.downloadDir, folder, data)
}

// ArchiveName is the file name an originals archive is saved under
func ArchiveName(folder string) string {
	return folder + "_originals.zip"
}

// SaveArchive writes data to dir/{folder}_originals.zip. Path separators in
// the folder name are flattened so the archive always lands inside dir.
func SaveArchive(dir, folder string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	name := strings.NewReplacer("/", "_", "\\", "_").Replace(ArchiveName(folder))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save archive: %w", err)
	}

	slog.Info("Archive saved", "folder", folder, "path", path, "bytes", len(data))
	return path, nil
}

// OpenGalleryImage shows the i-th gallery tile in the lightbox
func (c *Controller) OpenGalleryImage(i int) bool {
	tile, ok := c.page.Gallery.At(i)
	if !ok || !tile.Opens() {
		return false
	}
	c.page.Lightbox.Open(tile.Src, tile.Alt)
	return true
}

// CloseLightbox handles the close button
func (c *Controller) CloseLightbox() {
	c.page.Lightbox.Close()
}

// LightboxClick handles a click on the lightbox overlay
func (c *Controller) LightboxClick(target ui.ClickTarget) bool {
	return c.page.Lightbox.Dismiss(target)
}

// HandleKey handles document-level key presses
func (c *Controller) HandleKey(key string) bool {
	return c.page.Lightbox.HandleKey(key)
}

// ListFolders returns the folder names known to the backend
func (c *Controller) ListFolders(ctx context.Context) ([]string, error) {
	folders, err := c.transport.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	return folders.Folders, nil
}

func (c *Controller) reject(box *ui.StatusBox, field, message string) error {
	box.ShowError(message)
	return &ValidationError{Field: field, Message: message}
}

// errorMessage prefers the server-supplied text of a RequestError
func errorMessage(err error) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
