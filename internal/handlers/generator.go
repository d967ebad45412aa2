package handlers

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
)

// Reference is an uploaded reference image
type Reference struct {
	Name string
	Data []byte
}

// Job is one validated generation request
type Job struct {
	Prompt     string
	Folder     string
	ImageSize  string
	References []Reference
}

// Generator turns a job into an image. The dev server ships a placeholder;
// a model-backed generator satisfies the same interface.
type Generator interface {
	Generate(ctx context.Context, job Job) (image.Image, error)
}

// PlaceholderGenerator draws a gradient whose colors derive from the prompt,
// so the same prompt always yields the same image.
type PlaceholderGenerator struct {
	Side int
}

func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{Side: 256}
}

func (g *PlaceholderGenerator) Generate(ctx context.Context, job Job) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	side := max(g.Side, 2)
	if job.ImageSize == "4K" {
		side *= 2
	}

	for _, ref := range job.References {
		width, height, err := getImageDimensions(ref.Data)
		if err != nil {
			slog.Warn("Failed to get reference dimensions", "name", ref.Name, "error", err)
			continue
		}
		slog.Debug("Reference image", "name", ref.Name, "width", width, "height", height)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(job.Prompt))
	sum := h.Sum32()
	from := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 255}
	to := color.RGBA{R: 255 - from.R, G: 255 - from.G, B: 255 - from.B, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			t := (x + y) * 255 / (2 * (side - 1))
			img.Set(x, y, color.RGBA{
				R: mix(from.R, to.R, t),
				G: mix(from.G, to.G, t),
				B: mix(from.B, to.B, t),
				A: 255,
			})
		}
	}
	return img, nil
}

func mix(a, b uint8, t int) uint8 {
	return uint8((int(a)*(255-t) + int(b)*t) / 255)
}

// encodeImage renders the original PNG and its JPEG preview
func encodeImage(img image.Image) ([]byte, []byte, error) {
	var pngBuf, jpgBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := jpeg.Encode(&jpgBuf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return pngBuf.Bytes(), jpgBuf.Bytes(), nil
}

func getImageDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
