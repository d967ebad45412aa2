package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mylab/figlab/internal/api"
	"github.com/mylab/figlab/internal/models"
	"github.com/mylab/figlab/internal/ui"
)

type fakeTransport struct {
	mu sync.Mutex

	generateCalls []api.GenerateRequest
	galleryCalls  []string
	archiveCalls  []string

	generateResult *models.GenerateResult
	generateErr    error
	generateGate   chan struct{} // when set, SubmitGeneration blocks until closed

	listing     *models.GalleryListing
	galleryErr  error
	galleryGate chan struct{} // when set, FetchGallery blocks until closed

	archive    []byte
	archiveErr error

	folders *models.FolderList
}

func (f *fakeTransport) SubmitGeneration(ctx context.Context, req api.GenerateRequest) (*models.GenerateResult, error) {
	f.mu.Lock()
	f.generateCalls = append(f.generateCalls, req)
	gate := f.generateGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.generateResult, f.generateErr
}

func (f *fakeTransport) FetchGallery(ctx context.Context, folder string) (*models.GalleryListing, error) {
	f.mu.Lock()
	f.galleryCalls = append(f.galleryCalls, folder)
	gate := f.galleryGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.listing, f.galleryErr
}

func (f *fakeTransport) FetchOriginalsArchive(ctx context.Context, folder string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archiveCalls = append(f.archiveCalls, folder)
	return f.archive, f.archiveErr
}

func (f *fakeTransport) ListFolders(ctx context.Context) (*models.FolderList, error) {
	return f.folders, nil
}

func (f *fakeTransport) generateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.generateCalls)
}

func (f *fakeTransport) galleryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.galleryCalls)
}

// waitFor polls until the transport has received n requests of a kind
func waitFor(t *testing.T, count func() int, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d requests, got %d", n, count())
		}
		time.Sleep(time.Millisecond)
	}
}

func newController(t *testing.T, tr *fakeTransport) *Controller {
	t.Helper()
	return New(tr, ui.NewPage(time.Hour), Options{DownloadDir: t.TempDir()})
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSelectFilesTruncatesToFirstFive(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 7; i++ {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("ref%d.png", i), 10))
	}

	c := newController(t, &fakeTransport{})
	accepted := c.SelectFiles(paths)

	if len(accepted) != MaxFiles {
		t.Fatalf("Expected %d files, got %d", MaxFiles, len(accepted))
	}
	for i, ref := range c.Selected() {
		if want := fmt.Sprintf("ref%d.png", i); ref.Name != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, ref.Name)
		}
	}
	if n := c.Page().FilePreview.Len(); n != MaxFiles {
		t.Errorf("Expected %d previews, got %d", MaxFiles, n)
	}

	toast, visible := c.Page().Toast.Current()
	if !visible || toast.Kind != ui.ToastSuccess {
		t.Errorf("Expected success toast, got %+v", toast)
	}
}

func TestSelectFilesRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.webp", 100)
	text := writeFile(t, dir, "notes.txt", 100)
	huge := writeFile(t, dir, "huge.png", MaxFileSizeMB*1024*1024+1)
	missing := filepath.Join(dir, "missing.png")

	c := newController(t, &fakeTransport{})
	accepted := c.SelectFiles([]string{text, good, huge, missing})

	if len(accepted) != 1 || accepted[0].Name != "good.webp" {
		t.Fatalf("Expected only good.webp accepted, got %+v", accepted)
	}

	tiles := c.Page().FilePreview.Tiles()
	if len(tiles) != 1 || tiles[0].Index != 1 || !tiles[0].Removable {
		t.Errorf("Unexpected previews %+v", tiles)
	}
}

func TestSelectFilesReplacesPriorSelection(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, &fakeTransport{})

	c.SelectFiles([]string{writeFile(t, dir, "a.png", 1), writeFile(t, dir, "b.png", 1)})
	c.SelectFiles([]string{writeFile(t, dir, "c.gif", 1)})

	selected := c.Selected()
	if len(selected) != 1 || selected[0].Name != "c.gif" {
		t.Errorf("Expected selection replaced by c.gif, got %+v", selected)
	}
	if c.Page().FilePreview.Len() != 1 {
		t.Errorf("Expected previews replaced, got %d", c.Page().FilePreview.Len())
	}

	c.SelectFiles(nil)
	if len(c.Selected()) != 0 || c.Page().FilePreview.Len() != 0 {
		t.Error("Empty selection must clear everything")
	}
}

func TestRemoveFile(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, &fakeTransport{})
	c.SelectFiles([]string{writeFile(t, dir, "a.png", 1), writeFile(t, dir, "b.png", 1), writeFile(t, dir, "c.png", 1)})

	if err := c.RemoveFile(1); err != nil {
		t.Fatal(err)
	}

	selected := c.Selected()
	if len(selected) != 2 || selected[0].Name != "a.png" || selected[1].Name != "c.png" {
		t.Errorf("Unexpected selection %+v", selected)
	}
	tiles := c.Page().FilePreview.Tiles()
	if len(tiles) != 2 || tiles[1].Alt != "c.png" {
		t.Errorf("Unexpected previews %+v", tiles)
	}

	if err := c.RemoveFile(5); err == nil {
		t.Error("Expected error removing out of range")
	}
}

func TestSubmitGenerateValidation(t *testing.T) {
	tests := []struct {
		name  string
		form  GenerateForm
		field string
	}{
		{name: "empty prompt", form: GenerateForm{Prompt: "", Folder: "cats"}, field: "prompt"},
		{name: "blank prompt", form: GenerateForm{Prompt: "   ", Folder: "cats"}, field: "prompt"},
		{name: "empty folder", form: GenerateForm{Prompt: "a cat", Folder: " "}, field: "folder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{}
			c := newController(t, tr)

			err := c.SubmitGenerate(context.Background(), tt.form)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("Expected validation error on %s, got %v", tt.field, err)
			}
			if tr.generateCount() != 0 {
				t.Error("Validation failure must not issue a request")
			}
			if s := c.Page().GenerateStatus.Status(); s.Kind != ui.StatusError || s.Text == "" {
				t.Errorf("Expected error status with message, got %+v", s)
			}
			if c.State(ActionGenerate) != StateIdle {
				t.Errorf("Validation must not change state, got %s", c.State(ActionGenerate))
			}
		})
	}
}

func TestSubmitGenerateSuccess(t *testing.T) {
	dir := t.TempDir()
	tr := &fakeTransport{generateResult: &models.GenerateResult{Success: true, JPGPath: "/api/image/cats/x.jpg", Message: "saved"}}
	c := newController(t, tr)
	c.SelectFiles([]string{writeFile(t, dir, "a.png", 1)})

	err := c.SubmitGenerate(context.Background(), GenerateForm{Prompt: " a cat ", Folder: " cats "})
	if err != nil {
		t.Fatalf("SubmitGenerate() error = %v", err)
	}

	req := tr.generateCalls[0]
	if req.Prompt != "a cat" || req.Folder != "cats" || req.ImageSize != ImageSize2K || len(req.References) != 1 {
		t.Errorf("Unexpected request %+v", req)
	}

	page := c.Page()
	preview := page.Preview.Tiles()
	if len(preview) != 1 || preview[0].Kind != ui.TileResult || preview[0].Src != "/api/image/cats/x.jpg" {
		t.Errorf("Unexpected preview %+v", preview)
	}
	if s := page.GenerateStatus.Status(); s.Kind != ui.StatusSuccess || s.Text != "saved" {
		t.Errorf("Unexpected status %+v", s)
	}
	if len(c.Selected()) != 0 || page.FilePreview.Len() != 0 {
		t.Error("Selection must be cleared after success")
	}
	if page.GenerateButton.Disabled() {
		t.Error("Button must be re-enabled")
	}
	if c.State(ActionGenerate) != StateSucceeded {
		t.Errorf("Expected succeeded, got %s", c.State(ActionGenerate))
	}
}

func TestSubmitGenerateFailure(t *testing.T) {
	tests := []struct {
		name    string
		tr      *fakeTransport
		wantMsg string
	}{
		{
			name:    "non-2xx response",
			tr:      &fakeTransport{generateErr: &api.RequestError{Op: "generate", StatusCode: http.StatusInternalServerError, Message: "model offline"}},
			wantMsg: "Generation failed: model offline",
		},
		{
			name:    "success false in body",
			tr:      &fakeTransport{generateResult: &models.GenerateResult{Success: false, Error: "quota"}},
			wantMsg: "Generation failed: quota",
		},
		{
			name:    "success false without message",
			tr:      &fakeTransport{generateResult: &models.GenerateResult{Success: false}},
			wantMsg: "Generation failed: generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			c := newController(t, tt.tr)
			c.SelectFiles([]string{writeFile(t, dir, "a.png", 1)})

			if err := c.SubmitGenerate(context.Background(), GenerateForm{Prompt: "p", Folder: "f"}); err == nil {
				t.Fatal("Expected error")
			}

			page := c.Page()
			preview := page.Preview.Tiles()
			if len(preview) != 1 || preview[0].Src != ui.ErrorImage {
				t.Errorf("Expected error placeholder, got %+v", preview)
			}
			if s := page.GenerateStatus.Status(); s.Kind != ui.StatusError || s.Text != tt.wantMsg {
				t.Errorf("Unexpected status %+v", s)
			}
			if page.GenerateButton.Disabled() {
				t.Error("Button must be re-enabled after failure")
			}
			if c.State(ActionGenerate) != StateFailed {
				t.Errorf("Expected failed, got %s", c.State(ActionGenerate))
			}
			if len(c.Selected()) != 1 {
				t.Error("Selection must survive a failed generation")
			}
			if toast, _ := page.Toast.Current(); toast.Kind != ui.ToastError {
				t.Errorf("Expected error toast, got %+v", toast)
			}
		})
	}
}

func TestSubmitGenerateBusy(t *testing.T) {
	gate := make(chan struct{})
	tr := &fakeTransport{
		generateGate:   gate,
		generateResult: &models.GenerateResult{Success: true, JPGPath: "/x.jpg"},
	}
	c := newController(t, tr)

	done := make(chan error, 1)
	go func() {
		done <- c.SubmitGenerate(context.Background(), GenerateForm{Prompt: "p", Folder: "f"})
	}()

	waitFor(t, tr.generateCount, 1)

	if !c.Page().GenerateButton.Disabled() {
		t.Error("Button must be disabled while submitting")
	}
	if s := c.Page().GenerateStatus.Status(); s.Kind != ui.StatusLoading {
		t.Errorf("Expected loading status, got %+v", s)
	}
	if err := c.SubmitGenerate(context.Background(), GenerateForm{Prompt: "p", Folder: "f"}); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("First submit failed: %v", err)
	}
	if n := tr.generateCount(); n != 1 {
		t.Errorf("Expected exactly 1 request, got %d", n)
	}
}

func TestLoadGallery(t *testing.T) {
	images := []models.GalleryImage{
		{JPGPath: "/api/image/cats/b.jpg", Filename: "b.jpg", Timestamp: "20240116_0900"},
		{JPGPath: "/api/image/cats/a.jpg", Filename: "a.jpg", Timestamp: "20240115_1430"},
	}

	t.Run("with images", func(t *testing.T) {
		tr := &fakeTransport{listing: &models.GalleryListing{Success: true, Images: images, Count: 2, Message: "found 2"}}
		c := newController(t, tr)

		if _, err := c.LoadGallery(context.Background(), " cats "); err != nil {
			t.Fatal(err)
		}
		if tr.galleryCalls[0] != "cats" {
			t.Errorf("Expected trimmed folder, got %q", tr.galleryCalls[0])
		}

		tiles := c.Page().Gallery.Tiles()
		if len(tiles) != 2 || tiles[0].Caption != "2024-01-16 09:00" {
			t.Errorf("Unexpected tiles %+v", tiles)
		}
		if s := c.Page().GalleryStatus.Status(); s.Kind != ui.StatusSuccess || s.Text != "found 2" {
			t.Errorf("Unexpected status %+v", s)
		}
		if toast, _ := c.Page().Toast.Current(); toast.Message != "Loaded 2 images" {
			t.Errorf("Unexpected toast %+v", toast)
		}
	})

	t.Run("empty folder", func(t *testing.T) {
		tr := &fakeTransport{listing: &models.GalleryListing{Success: true, Images: []models.GalleryImage{}, Count: 0, Message: "folder cats has no images"}}
		c := newController(t, tr)

		if _, err := c.LoadGallery(context.Background(), "cats"); err != nil {
			t.Fatal(err)
		}
		tiles := c.Page().Gallery.Tiles()
		if len(tiles) != 1 || tiles[0].Kind != ui.TileEmpty {
			t.Errorf("Expected exactly one empty-state tile, got %+v", tiles)
		}
		if s := c.Page().GalleryStatus.Status(); s.Kind != ui.StatusInfo || s.Text != "folder cats has no images" {
			t.Errorf("Expected info status, got %+v", s)
		}
	})

	t.Run("empty folder without message", func(t *testing.T) {
		c := newController(t, &fakeTransport{listing: &models.GalleryListing{Success: true}})
		if _, err := c.LoadGallery(context.Background(), "cats"); err != nil {
			t.Fatal(err)
		}
		if s := c.Page().GalleryStatus.Status(); s.Text != "Folder is empty" {
			t.Errorf("Expected fallback info text, got %+v", s)
		}
	})

	t.Run("request error", func(t *testing.T) {
		tr := &fakeTransport{galleryErr: &api.RequestError{Op: "gallery", StatusCode: 404, Message: "folder cats does not exist"}}
		c := newController(t, tr)

		if _, err := c.LoadGallery(context.Background(), "cats"); err == nil {
			t.Fatal("Expected error")
		}
		tiles := c.Page().Gallery.Tiles()
		if len(tiles) != 1 || tiles[0].Kind != ui.TileError || tiles[0].Hint != "folder cats does not exist" {
			t.Errorf("Expected one error tile, got %+v", tiles)
		}
		if s := c.Page().GalleryStatus.Status(); s.Kind != ui.StatusError {
			t.Errorf("Expected error status, got %+v", s)
		}
		if c.Page().LoadButton.Disabled() {
			t.Error("Load button must be re-enabled")
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		tr := &fakeTransport{}
		c := newController(t, tr)
		_, err := c.LoadGallery(context.Background(), "")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		if len(tr.galleryCalls) != 0 {
			t.Error("No request expected")
		}
	})
}

func TestLoadGalleryShowsPlaceholdersWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	tr := &fakeTransport{
		galleryGate: gate,
		listing: &models.GalleryListing{Success: true, Count: 1, Images: []models.GalleryImage{
			{JPGPath: "/api/image/cats/a.jpg", Filename: "a.jpg", Timestamp: "20240115_1430"},
		}},
	}
	c := newController(t, tr)

	done := make(chan error, 1)
	go func() {
		_, err := c.LoadGallery(context.Background(), "cats")
		done <- err
	}()

	// placeholders go up before the request is sent
	waitFor(t, tr.galleryCount, 1)

	page := c.Page()
	tiles := page.Gallery.Tiles()
	if len(tiles) != GalleryPlaceholders {
		t.Fatalf("Expected %d placeholder tiles, got %d", GalleryPlaceholders, len(tiles))
	}
	for i, tile := range tiles {
		if tile.Kind != ui.TilePlaceholder {
			t.Errorf("Tile %d: expected placeholder, got %v", i, tile.Kind)
		}
	}
	if !page.LoadButton.Disabled() {
		t.Error("Load button must be disabled while loading")
	}
	if s := page.GalleryStatus.Status(); s.Kind != ui.StatusLoading {
		t.Errorf("Expected loading status, got %+v", s)
	}
	if _, err := c.LoadGallery(context.Background(), "cats"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("LoadGallery() error = %v", err)
	}
	if n := tr.galleryCount(); n != 1 {
		t.Errorf("Expected exactly 1 request, got %d", n)
	}
	if tiles := page.Gallery.Tiles(); len(tiles) != 1 || tiles[0].Kind == ui.TilePlaceholder {
		t.Errorf("Expected placeholders replaced by the listing, got %+v", tiles)
	}
	if page.LoadButton.Disabled() {
		t.Error("Load button must be re-enabled")
	}
}

func TestDownloadOriginals(t *testing.T) {
	tr := &fakeTransport{archive: []byte("PK\x03\x04")}
	c := newController(t, tr)

	path, err := c.DownloadOriginals(context.Background(), "cats")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "cats_originals.zip" {
		t.Errorf("Unexpected archive name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "PK\x03\x04" {
		t.Errorf("Unexpected archive content %q (%v)", data, err)
	}
	if s := c.Page().GalleryStatus.Status(); s.Kind != ui.StatusSuccess {
		t.Errorf("Unexpected status %+v", s)
	}

	tr.archiveErr = &api.RequestError{Op: "download originals", StatusCode: 404, Message: "no originals"}
	if _, err := c.DownloadOriginals(context.Background(), "cats"); err == nil {
		t.Fatal("Expected error")
	}
	if s := c.Page().GalleryStatus.Status(); s.Kind != ui.StatusError || s.Text != "Download failed: no originals" {
		t.Errorf("Unexpected status %+v", s)
	}
	if c.Page().DownloadButton.Disabled() {
		t.Error("Download button must be re-enabled")
	}
}

func TestSaveArchiveFlattensSeparators(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveArchive(dir, "a/b", []byte("zip"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir || filepath.Base(path) != "a_b_originals.zip" {
		t.Errorf("Unexpected path %s", path)
	}
}

func TestLightboxWiring(t *testing.T) {
	tr := &fakeTransport{listing: &models.GalleryListing{Success: true, Count: 1, Images: []models.GalleryImage{
		{JPGPath: "/api/image/cats/a.jpg", Filename: "a.jpg", Timestamp: "20240115_1430"},
	}}}
	c := newController(t, tr)
	if _, err := c.LoadGallery(context.Background(), "cats"); err != nil {
		t.Fatal(err)
	}

	dismissals := []struct {
		name    string
		dismiss func()
	}{
		{"close button", c.CloseLightbox},
		{"backdrop", func() { c.LightboxClick(ui.TargetBackdrop) }},
		{"escape", func() { c.HandleKey("esc") }},
	}

	for _, d := range dismissals {
		t.Run(d.name, func(t *testing.T) {
			if !c.OpenGalleryImage(0) {
				t.Fatal("Expected gallery tile to open")
			}
			v := c.Page().Lightbox.View()
			if !v.Active || v.Src != "/api/image/cats/a.jpg" || v.Caption != "a.jpg" {
				t.Fatalf("Unexpected lightbox %+v", v)
			}

			c.LightboxClick(ui.TargetContent)
			if !c.Page().Lightbox.Active() {
				t.Fatal("Content click must keep the lightbox open")
			}

			d.dismiss()
			if c.Page().Lightbox.Active() {
				t.Error("Expected lightbox closed")
			}
		})
	}

	if c.OpenGalleryImage(3) {
		t.Error("Out of range tile must not open")
	}
}

func TestActivateTab(t *testing.T) {
	c := newController(t, &fakeTransport{})
	if err := c.ActivateTab(ui.TabGallery); err != nil {
		t.Fatal(err)
	}
	if !c.Page().Tabs.IsActive(ui.TabGallery) || c.Page().Tabs.IsActive(ui.TabGenerate) {
		t.Error("Expected only gallery active")
	}
}
