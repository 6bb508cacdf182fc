package restyle

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rinova/internal/domain"
	"rinova/internal/imagegen"
	"rinova/internal/storage"
)

// Seeds are drawn from [0, seedRange); one seed is shared by every non-first
// angle of a batch so the model styles all angles consistently.
const seedRange = 10_000_000

const maxParallelOperations = 4

// Options wires the collaborators the orchestration service depends on.
type Options struct {
	Store     storage.BlobStore
	Generator imagegen.Generator
	Records   domain.GenerationRepository
	Quota     *Guard
	Logger    zerolog.Logger

	// HTTPClient fetches generated output bytes from the provider CDN
	// before re-uploading them to the blob store.
	HTTPClient *http.Client

	// Overridable for deterministic tests.
	Now   func() time.Time
	SeedF func() int
	NewID func() string
}

// Service drives single and batch restyle generations. Every request is
// fully resolved before returning; no work outlives the call.
type Service struct {
	store      storage.BlobStore
	generator  imagegen.Generator
	records    domain.GenerationRepository
	quota      *Guard
	logger     zerolog.Logger
	httpClient *http.Client
	now        func() time.Time
	seedFn     func() int
	newID      func() string
}

// NewService constructs the orchestration service.
func NewService(opts Options) *Service {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	seedFn := opts.SeedF
	if seedFn == nil {
		seedFn = func() int { return rand.Intn(seedRange) }
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		store:      opts.Store,
		generator:  opts.Generator,
		records:    opts.Records,
		quota:      opts.Quota,
		logger:     opts.Logger,
		httpClient: httpClient,
		now:        now,
		seedFn:     seedFn,
		newID:      newID,
	}
}

// sourceImage is a decoded client-supplied image: either inline bytes from a
// data URI, or a plain remote URL passed through untouched.
type sourceImage struct {
	raw         string
	data        []byte
	contentType string
	ext         string
}

var dataURIRegexp = regexp.MustCompile(`^data:([^;,]+);base64,(.+)$`)

// parseSourceImage accepts a data URI or a remote URL. Remote URLs carry no
// bytes; the orchestrators skip the original upload for them and reference
// the URL directly.
func parseSourceImage(image string) (*sourceImage, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, errors.New("image is required")
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return &sourceImage{raw: image}, nil
	}
	match := dataURIRegexp.FindStringSubmatch(image)
	if match == nil {
		return nil, errors.New("image must be a data URI or URL")
	}
	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	contentType := match[1]
	ext := "png"
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}
	return &sourceImage{raw: image, data: data, contentType: contentType, ext: ext}, nil
}

func (s *sourceImage) inline() bool {
	return len(s.data) > 0
}

var storageTokenRegexp = regexp.MustCompile(`[^a-zA-Z0-9]`)

// storageFolder builds a collision-resistant folder key: cleaned style and
// room tokens, timestamp, and a unique id, so concurrent requests never
// contend on a path.
func storageFolder(style, roomType, tag string, at time.Time, id string) string {
	cleanStyle := storageTokenRegexp.ReplaceAllString(style, "_")
	cleanRoom := storageTokenRegexp.ReplaceAllString(roomType, "_")
	if cleanRoom == "" {
		cleanRoom = "room"
	}
	timestamp := strings.NewReplacer(":", "-", ".", "-").Replace(at.UTC().Format("2006-01-02T15-04-05Z"))
	if tag != "" {
		return fmt.Sprintf("%s_%s_%s_%s_%s", cleanStyle, cleanRoom, tag, timestamp, id)
	}
	return fmt.Sprintf("%s_%s_%s_%s", cleanStyle, cleanRoom, timestamp, id)
}

// uploadOriginal stores the source image and returns its public URL. Failures
// degrade to the inline image reference rather than aborting: generation does
// not depend on the original upload outcome.
func (s *Service) uploadOriginal(ctx context.Context, src *sourceImage, key string) string {
	if !src.inline() {
		return src.raw
	}
	if err := s.store.Upload(ctx, key, src.data, src.contentType); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("restyle: original upload failed, falling back to inline image")
		return src.raw
	}
	return s.store.PublicURL(key)
}

// persistOutput downloads one generated image and re-uploads it to the blob
// store. On any failure the provider URL is kept, so the result list always
// reflects a real image.
func (s *Service) persistOutput(ctx context.Context, image imagegen.Image, key string) string {
	data, contentType, err := s.fetchImage(ctx, image.URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", image.URL).Msg("restyle: fetch generated image failed, keeping provider url")
		return image.URL
	}
	if contentType == "" {
		contentType = image.ContentType
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if err := s.store.Upload(ctx, key, data, contentType); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("restyle: generated upload failed, keeping provider url")
		return image.URL
	}
	return s.store.PublicURL(key)
}

func (s *Service) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("fetch image: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// persistRecord writes the generation record. A failure here is non-fatal:
// the caller still gets the generated URLs, the generation just will not
// appear in history.
func (s *Service) persistRecord(ctx context.Context, record *domain.GenerationRecord) bool {
	if err := s.records.Insert(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("record_id", record.ID).Msg("restyle: failed to persist generation record")
		return false
	}
	return true
}

// commitQuota charges consumed units. The units were genuinely spent on the
// external capability, so a bookkeeping failure is logged, not surfaced.
func (s *Service) commitQuota(ctx context.Context, userID string, units int) {
	if err := s.quota.Commit(ctx, userID, units); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Int("units", units).Msg("restyle: quota commit failed")
	}
}
