package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseOptions configures the Supabase object storage client.
type SupabaseOptions struct {
	ProjectURL string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

// SupabaseStore uploads assets to a Supabase storage bucket and resolves the
// bucket's public object URLs.
type SupabaseStore struct {
	httpClient *http.Client
	projectURL string
	serviceKey string
	bucket     string
}

// NewSupabaseStore builds a store for the given project and bucket.
func NewSupabaseStore(opts SupabaseOptions) (*SupabaseStore, error) {
	projectURL := strings.TrimRight(strings.TrimSpace(opts.ProjectURL), "/")
	if projectURL == "" {
		return nil, errors.New("storage: supabase project url is required")
	}
	if strings.TrimSpace(opts.ServiceKey) == "" {
		return nil, errors.New("storage: supabase service key is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("storage: supabase bucket is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &SupabaseStore{
		httpClient: client,
		projectURL: projectURL,
		serviceKey: strings.TrimSpace(opts.ServiceKey),
		bucket:     bucket,
	}, nil
}

// Upload stores the object without overwriting: the request carries
// x-upsert=false, so a duplicate key is rejected by the service.
func (s *SupabaseStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.projectURL, url.PathEscape(s.bucket), escapeObjectKey(cleanKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage: upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(body) > 0 {
			return fmt.Errorf("storage: upload failed: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("storage: upload failed: http %d", resp.StatusCode)
	}
	return nil
}

// PublicURL returns the bucket's public URL for a key.
func (s *SupabaseStore) PublicURL(key string) string {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.projectURL, url.PathEscape(s.bucket), escapeObjectKey(cleanKey))
}

// escapeObjectKey escapes each path segment while keeping the separators.
func escapeObjectKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

var _ BlobStore = (*SupabaseStore)(nil)
