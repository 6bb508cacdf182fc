package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rinova/internal/domain"
	"rinova/internal/imagegen"
	"rinova/internal/middleware"
	"rinova/internal/restyle"
)

type memUsers struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int
	updates int
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*domain.User{}}
}

func (m *memUsers) add(user *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	created := *user
	created.ID = fmt.Sprintf("user-%d", m.nextID)
	if created.Role == "" {
		created.Role = domain.UserRoleGeneral
	}
	created.CreatedAt = time.Now()
	m.users[created.ID] = &created
	return &created, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) IncrementGenerationCount(ctx context.Context, userID string, units int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	user.GenerationCount += units
	m.updates++
	return nil
}

type memRecords struct {
	mu      sync.Mutex
	records []*domain.GenerationRecord
}

func (m *memRecords) Insert(ctx context.Context, record *domain.GenerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.CreatedAt = time.Now()
	m.records = append(m.records, record)
	return nil
}

func (m *memRecords) ListByUser(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GenerationRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, *m.records[i])
		}
	}
	return out, nil
}

func (m *memRecords) GetByIDAndOwner(ctx context.Context, id, userID string) (*domain.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id && rec.UserID == userID {
			copy := *rec
			return &copy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRecords) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.records {
		if rec.ID == id && rec.UserID == userID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type memUsage struct {
	mu     sync.Mutex
	events []domain.UsageEvent
}

func (m *memUsage) RecordUsage(ctx context.Context, event domain.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type fakeGenerator struct {
	baseURL string
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, req imagegen.GenerateRequest) ([]imagegen.Image, error) {
	if g.err != nil {
		return nil, g.err
	}
	images := make([]imagegen.Image, req.NumImages)
	for n := range images {
		images[n] = imagegen.Image{URL: fmt.Sprintf("%s/out_%d", g.baseURL, n), ContentType: "image/jpeg"}
	}
	return images, nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type testApp struct {
	app       *App
	users     *memUsers
	records   *memRecords
	usage     *memUsage
	generator *fakeGenerator
	assetsURL string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprintf(w, "jpeg:%s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	users := newMemUsers()
	records := &memRecords{}
	usage := &memUsage{}
	generator := &fakeGenerator{baseURL: srv.URL}

	restyler := restyle.NewService(restyle.Options{
		Store:     &fakeStore{},
		Generator: generator,
		Records:   records,
		Quota:     restyle.NewGuard(users),
		Logger:    zerolog.Nop(),
	})

	app := &App{
		Logger:            zerolog.Nop(),
		Users:             users,
		Records:           records,
		Usage:             usage,
		Restyler:          restyler,
		JWTSecret:         "test-secret",
		GenerationTimeout: 30 * time.Second,
	}
	return &testApp{app: app, users: users, records: records, usage: usage, generator: generator, assetsURL: srv.URL}
}

// authed attaches the auth context values the JWT middleware would set.
func authed(r *http.Request, user *domain.User) *http.Request {
	ctx := middleware.ContextWithUser(r.Context(), user.ID, string(user.Role))
	return r.WithContext(ctx)
}
