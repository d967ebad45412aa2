package ui

import (
	"fmt"
	"sync"

	"github.com/mylab/figlab/internal/files"
	"github.com/mylab/figlab/internal/models"
)

// Static assets referenced by rendered tiles
const (
	PlaceholderImage = "/static/images/Placeholder.jpg"
	ErrorImage       = "/static/images/Error_image.jpg"
)

// TileKind tells the renderer what a tile represents
type TileKind int

const (
	TilePreview TileKind = iota
	TileGallery
	TilePlaceholder
	TileEmpty
	TileError
	TileResult
)

// Tile is one rendered image cell
type Tile struct {
	Kind      TileKind
	Src       string
	Alt       string
	Caption   string // secondary line under the image
	Hint      string // text shown instead of or under the image
	Dimmed    bool
	Removable bool
	Index     int // position in the original selection for preview tiles
}

// Opens reports whether activating the tile shows it in the lightbox
func (t Tile) Opens() bool {
	return t.Kind == TileGallery
}

// PreviewTile is a removable thumbnail for a selected reference file
func PreviewTile(f files.Reference, index int) Tile {
	return Tile{
		Kind:      TilePreview,
		Src:       f.Path,
		Alt:       f.Name,
		Removable: true,
		Index:     index,
	}
}

// GalleryTile is a clickable cell for a generated image
func GalleryTile(img models.GalleryImage) Tile {
	return Tile{
		Kind:    TileGallery,
		Src:     img.JPGPath,
		Alt:     img.Filename,
		Caption: FormatTimestamp(img.Timestamp),
	}
}

// PlaceholderTile fills the grid while a listing loads
func PlaceholderTile() Tile {
	return Tile{Kind: TilePlaceholder, Src: PlaceholderImage, Alt: "Loading", Dimmed: true}
}

// EmptyStateTile is shown when a folder has no images
func EmptyStateTile(message string) Tile {
	return Tile{Kind: TileEmpty, Src: PlaceholderImage, Alt: "Empty", Hint: message}
}

// ErrorStateTile is shown when a listing failed
func ErrorStateTile(message string) Tile {
	return Tile{Kind: TileError, Src: ErrorImage, Alt: "Error", Hint: message}
}

// GeneratingTile occupies the result preview while a generation is running
func GeneratingTile() Tile {
	return Tile{Kind: TilePlaceholder, Src: PlaceholderImage, Alt: "Generating", Hint: "Generating image, please wait..."}
}

// ResultTile shows a freshly generated image
func ResultTile(path string) Tile {
	return Tile{Kind: TileResult, Src: path, Alt: "Generated image"}
}

// FailedTile replaces the result preview after a failed generation
func FailedTile() Tile {
	return Tile{Kind: TileError, Src: ErrorImage, Alt: "Generation failed", Hint: "Generation failed, please try again", Dimmed: true}
}

// Grid is an ordered, concurrency-safe tile container
type Grid struct {
	mu    sync.RWMutex
	tiles []Tile
}

// Replace swaps the whole content of the grid
func (g *Grid) Replace(tiles ...Tile) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tiles = append([]Tile(nil), tiles...)
}

func (g *Grid) Append(t Tile) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tiles = append(g.tiles, t)
}

func (g *Grid) Clear() {
	g.Replace()
}

// Remove deletes the tile at position i
func (g *Grid) Remove(i int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.tiles) {
		return fmt.Errorf("tile %d out of range (%d tiles)", i, len(g.tiles))
	}
	g.tiles = append(g.tiles[:i], g.tiles[i+1:]...)
	return nil
}

// Tiles returns a copy of the grid content
func (g *Grid) Tiles() []Tile {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Tile(nil), g.tiles...)
}

// At returns the tile at position i
func (g *Grid) At(i int) (Tile, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if i < 0 || i >= len(g.tiles) {
		return Tile{}, false
	}
	return g.tiles[i], true
}

func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tiles)
}
