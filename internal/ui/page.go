package ui

import (
	"sync"
	"time"
)

// Tab names
const (
	TabGenerate = "generate"
	TabGallery  = "gallery"
)

// Button mirrors a trigger that is disabled while its action is pending
type Button struct {
	mu      sync.RWMutex
	loading bool
}

func (b *Button) SetLoading(loading bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = loading
}

// Disabled reports whether the button is in its loading state
func (b *Button) Disabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loading
}

// Page is the view model of one client session
type Page struct {
	Tabs *Tabs

	GenerateStatus StatusBox
	Preview        Grid // holds at most one tile
	FilePreview    Grid
	GenerateButton Button

	GalleryStatus  StatusBox
	Gallery        Grid
	LoadButton     Button
	DownloadButton Button

	Toast    *Toaster
	Lightbox Lightbox
}

// NewPage creates an idle page with the generate tab active
func NewPage(toastTTL time.Duration) *Page {
	return &Page{
		Tabs:  NewTabs(TabGenerate, TabGallery),
		Toast: NewToaster(toastTTL),
	}
}
