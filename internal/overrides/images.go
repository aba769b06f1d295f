package overrides

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FileStoreImages resolves image overrides from an external file store. The
// store is searched for a file whose name contains the model number; the
// first match wins and its bytes replace all supplier-sourced images.
type FileStoreImages struct {
	baseURL string
	token   string
	folder  string
	client  *http.Client
	logger  *slog.Logger
}

// NewFileStoreImages constructs the resolver.
func NewFileStoreImages(baseURL, token, folder string, logger *slog.Logger) *FileStoreImages {
	return &FileStoreImages{
		baseURL: baseURL,
		token:   token,
		folder:  folder,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Resolve returns the override for a model number, or nil when nothing
// matches or the store is unreachable.
func (r *FileStoreImages) Resolve(ctx context.Context, modelNumber string) *ImageOverride {
	if modelNumber == "" {
		return nil
	}
	entry := r.search(ctx, modelNumber)
	if entry == nil {
		return nil
	}
	contentType, payload := r.download(ctx, entry.Path)
	if payload == nil {
		return nil
	}
	return &ImageOverride{
		ContentType: contentType,
		Attachment:  base64.StdEncoding.EncodeToString(payload),
	}
}

type fileEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (r *FileStoreImages) search(ctx context.Context, modelNumber string) *fileEntry {
	u := r.baseURL + "/files?" + url.Values{
		"query": {modelNumber},
		"path":  {r.folder},
	}.Encode()
	body, ok := r.get(ctx, u)
	if !ok {
		return nil
	}
	var entries []fileEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		r.logger.Warn("image override search decode failed", slog.Any("error", err))
		return nil
	}
	for i := range entries {
		if strings.Contains(entries[i].Name, modelNumber) {
			return &entries[i]
		}
	}
	return nil
}

func (r *FileStoreImages) download(ctx context.Context, path string) (string, []byte) {
	u := r.baseURL + "/files/content?" + url.Values{"path": {path}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("image override download failed", slog.String("path", path), slog.Any("error", err))
		return "", nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("image override download status", slog.String("path", path), slog.Int("status", resp.StatusCode))
		return "", nil
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(payload)
	}
	return contentType, payload
}

func (r *FileStoreImages) get(ctx context.Context, u string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("image override lookup failed", slog.Any("error", err))
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// DisabledImages is the permanent no-override responder used when the file
// store is not configured.
type DisabledImages struct{}

// NewDisabledImages logs the degradation once and returns the responder.
func NewDisabledImages(logger *slog.Logger) DisabledImages {
	logger.Warn("file store not configured, image overrides disabled")
	return DisabledImages{}
}

// Resolve always reports no override.
func (DisabledImages) Resolve(ctx context.Context, modelNumber string) *ImageOverride {
	return nil
}
