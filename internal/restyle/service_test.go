package restyle

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rinova/internal/domain"
	"rinova/internal/imagegen"
)

func TestParseSourceImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))

	t.Run("data uri", func(t *testing.T) {
		src, err := parseSourceImage("data:image/png;base64," + payload)
		if err != nil {
			t.Fatalf("parseSourceImage: %v", err)
		}
		if !src.inline() {
			t.Fatalf("data uri should carry inline bytes")
		}
		if string(src.data) != "pixels" {
			t.Fatalf("data = %q", src.data)
		}
		if src.contentType != "image/png" || src.ext != "png" {
			t.Fatalf("contentType=%q ext=%q", src.contentType, src.ext)
		}
	})

	t.Run("remote url passes through", func(t *testing.T) {
		src, err := parseSourceImage("https://example.com/room.jpg")
		if err != nil {
			t.Fatalf("parseSourceImage: %v", err)
		}
		if src.inline() {
			t.Fatalf("remote url should not carry bytes")
		}
		if src.raw != "https://example.com/room.jpg" {
			t.Fatalf("raw = %q", src.raw)
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		if _, err := parseSourceImage("  "); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if _, err := parseSourceImage("not-an-image"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("rejects bad base64", func(t *testing.T) {
		if _, err := parseSourceImage("data:image/png;base64,%%%"); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestStorageFolder(t *testing.T) {
	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	got := storageFolder("Modern", "living_room", "", at, "abc123")
	want := "Modern_living_room_2025-01-02T15-04-05Z_abc123"
	if got != want {
		t.Fatalf("storageFolder = %q, want %q", got, want)
	}

	got = storageFolder("Mid Century!", "", "batch", at, "abc123")
	want = "Mid_Century__room_batch_2025-01-02T15-04-05Z_abc123"
	if got != want {
		t.Fatalf("storageFolder = %q, want %q", got, want)
	}
}

// imageServer serves predictable jpeg bytes so persistOutput can fetch and
// re-upload generated images during tests.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprintf(w, "jpeg:%s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type stubGenerator struct {
	mu      sync.Mutex
	reqs    []imagegen.GenerateRequest
	baseURL string
	failOn  string // substring of the input image that makes the call fail
	err     error
	produce int // overrides the returned image count; -1 means none
}

func (g *stubGenerator) Generate(ctx context.Context, req imagegen.GenerateRequest) ([]imagegen.Image, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	call := len(g.reqs)
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	if g.failOn != "" && len(req.ImageURLs) > 0 && strings.Contains(req.ImageURLs[0], g.failOn) {
		return nil, fmt.Errorf("upstream rejected input")
	}
	count := req.NumImages
	if g.produce != 0 {
		count = g.produce
		if count < 0 {
			count = 0
		}
	}
	images := make([]imagegen.Image, count)
	for n := range images {
		images[n] = imagegen.Image{
			URL:         fmt.Sprintf("%s/call_%d/out_%d", g.baseURL, call, n),
			ContentType: "image/jpeg",
		}
	}
	return images, nil
}

func (g *stubGenerator) requests() []imagegen.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]imagegen.GenerateRequest(nil), g.reqs...)
}

// requestFor returns the captured generation request whose input image
// contains marker. Batch angles run concurrently, so capture order is not
// the input order.
func (g *stubGenerator) requestFor(t *testing.T, marker string) imagegen.GenerateRequest {
	t.Helper()
	for _, req := range g.requests() {
		if len(req.ImageURLs) > 0 && strings.Contains(req.ImageURLs[0], marker) {
			return req
		}
	}
	t.Fatalf("no captured request for marker %q", marker)
	return imagegen.GenerateRequest{}
}

type stubStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *stubStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

func (s *stubStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (s *stubStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

type stubGenerationRepo struct {
	mu      sync.Mutex
	records []*domain.GenerationRecord
	err     error
}

func (r *stubGenerationRepo) Insert(ctx context.Context, record *domain.GenerationRecord) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record.CreatedAt = time.Now()
	r.records = append(r.records, record)
	return nil
}

func (r *stubGenerationRepo) ListByUser(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.GenerationRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubGenerationRepo) GetByIDAndOwner(ctx context.Context, id, userID string) (*domain.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id && rec.UserID == userID {
			copy := *rec
			return &copy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubGenerationRepo) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.ID == id && rec.UserID == userID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type testRig struct {
	svc       *Service
	users     *stubUserRepo
	store     *stubStore
	generator *stubGenerator
	records   *stubGenerationRepo
}

func newTestRig(t *testing.T, user *domain.User) *testRig {
	t.Helper()
	srv := imageServer(t)
	users := &stubUserRepo{user: user}
	store := newStubStore()
	generator := &stubGenerator{baseURL: srv.URL}
	records := &stubGenerationRepo{}

	ids := 0
	svc := NewService(Options{
		Store:     store,
		Generator: generator,
		Records:   records,
		Quota:     NewGuard(users),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) },
		SeedF:     func() int { return 424242 },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
	return &testRig{svc: svc, users: users, store: store, generator: generator, records: records}
}

func dataURI(body string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(body))
}
