package ui

import "github.com/mylab/figlab/internal/files"

const bytesPerMB = 1024 * 1024

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedType reports whether the file's MIME type is an accepted image type
func IsAllowedType(f files.Reference) bool {
	return allowedTypes[f.Type]
}

// IsWithinSizeLimit reports whether the file is at most maxMB megabytes
func IsWithinSizeLimit(f files.Reference, maxMB int) bool {
	return f.Size <= int64(maxMB)*bytesPerMB
}
