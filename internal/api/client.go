package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/mylab/figlab/internal/files"
	"github.com/mylab/figlab/internal/models"
)

// Generic messages used when the server gives no usable error text
const (
	msgGenerateFailed = "generation request failed"
	msgGalleryFailed  = "failed to load gallery"
	msgDownloadFailed = "download failed"
	msgFoldersFailed  = "failed to list folders"
)

// Client talks to the figlab backend. Every call is a single round trip:
// no retries, no timeouts, no caching.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the backend at baseURL
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// GenerateRequest holds the fields of a generation submit
type GenerateRequest struct {
	Prompt     string
	Folder     string
	ImageSize  string
	References []files.Reference
}

// RequestError is returned for network failures and non-2xx responses
type RequestError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// SubmitGeneration posts the prompt and reference images as a multipart form
func (c *Client) SubmitGeneration(ctx context.Context, req GenerateRequest) (*models.GenerateResult, error) {
	body, contentType, err := encodeGenerateForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	data, err := c.do(httpReq, "generate", msgGenerateFailed, true)
	if err != nil {
		return nil, err
	}

	var result models.GenerateResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}
	return &result, nil
}

// FetchGallery lists the generated images of a folder
func (c *Client) FetchGallery(ctx context.Context, folder string) (*models.GalleryListing, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/gallery/"+url.PathEscape(folder), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	data, err := c.do(httpReq, "gallery", msgGalleryFailed, true)
	if err != nil {
		return nil, err
	}

	var listing models.GalleryListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode gallery response: %w", err)
	}
	return &listing, nil
}

// FetchOriginalsArchive downloads the zip of original PNGs for a folder
func (c *Client) FetchOriginalsArchive(ctx context.Context, folder string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/download-originals/"+url.PathEscape(folder), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(httpReq, "download originals", msgDownloadFailed, true)
}

// ListFolders returns the folder names known to the backend
func (c *Client) ListFolders(ctx context.Context) (*models.FolderList, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/folders", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	data, err := c.do(httpReq, "folders", msgFoldersFailed, false)
	if err != nil {
		return nil, err
	}

	var folders models.FolderList
	if err := json.Unmarshal(data, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders response: %w", err)
	}
	return &folders, nil
}

// do sends the request and returns the body of a 2xx response. Non-2xx
// responses become a RequestError whose message comes from the JSON error
// body when serverMessage is set, or the generic fallback otherwise.
func (c *Client) do(req *http.Request, op, fallback string, serverMessage bool) ([]byte, error) {
	slog.Debug("Sending request", "op", op, "method", req.Method, "url", req.URL.String())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	slog.Debug("Received response", "op", op, "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fallback
		if serverMessage {
			var errResp models.ErrorResponse
			if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
				message = errResp.Error
			}
		}
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Message: message}
	}

	return data, nil
}

func encodeGenerateForm(req GenerateRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"prompt", req.Prompt},
		{"folder_type", req.Folder},
		{"image_size", req.ImageSize},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}

	for _, ref := range req.References {
		if err := writeReference(w, ref); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeReference(w *multipart.Writer, ref files.Reference) error {
	contentType := ref.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="reference_images[]"; filename="%s"`, quoteEscaper.Replace(ref.Name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", ref.Name, err)
	}

	f, err := ref.Open()
	if err != nil {
		return fmt.Errorf("failed to open reference %s: %w", ref.Name, err)
	}
	defer f.Close()

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read reference %s: %w", ref.Name, err)
	}
	return nil
}

// IsRequestError reports whether err is (or wraps) a RequestError
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
