package storage

import "context"

// BlobStore persists binary image payloads and resolves durable public URLs.
// Uploads never overwrite: orchestrators compute a collision-resistant key per
// item, so a key conflict always signals a bug rather than contention.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}
