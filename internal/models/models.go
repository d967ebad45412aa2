package models

import (
	"encoding/json"
	"fmt"
)

// GenerateResult is the response of POST /api/generate
type GenerateResult struct {
	Success bool   `json:"success"`
	JPGPath string `json:"jpg_path,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GalleryImage is one generated image in a folder listing
type GalleryImage struct {
	JPGPath   string `json:"jpg_path"`
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"` // YYYYMMDD_HHMM
}

// GalleryListing is the response of GET /api/gallery/{folder}
type GalleryListing struct {
	Success bool           `json:"success"`
	Images  []GalleryImage `json:"images"`
	Count   int            `json:"count"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// FolderList is the response of GET /api/folders
type FolderList struct {
	Success bool     `json:"success"`
	Folders []string `json:"folders"`
	Error   string   `json:"error,omitempty"`
}

// UnmarshalJSON accepts both the {success, folders} envelope and a bare array of names.
func (f *FolderList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*f = FolderList{Success: true, Folders: names}
		return nil
	}

	type envelope FolderList
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode folder list: %w", err)
	}
	*f = FolderList(env)
	if f.Folders == nil {
		f.Folders = []string{}
	}
	return nil
}

// ErrorResponse is the JSON body the backend sends with non-2xx statuses
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
