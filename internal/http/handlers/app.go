package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"rinova/internal/domain"
	"rinova/internal/middleware"
	"rinova/internal/restyle"
)

// App bundles the collaborators the HTTP handlers need.
type App struct {
	Logger   zerolog.Logger
	Users    domain.UserRepository
	Records  domain.GenerationRepository
	Usage    domain.UsageRecorder
	Restyler *restyle.Service

	JWTSecret string

	// GenerationTimeout caps one orchestration end to end; a stalled
	// upstream call fails the request instead of pinning it forever.
	GenerationTimeout time.Duration

	// HTTPClient fetches stored assets when assembling download archives.
	HTTPClient *http.Client
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: message, Code: code})
}

func (a *App) errorDetails(w http.ResponseWriter, status int, code, message, details string) {
	a.json(w, status, errorResponse{Error: message, Details: details, Code: code})
}

// currentUser loads the authenticated user's row. A missing context entry or
// a deleted user both read as unauthenticated.
func (a *App) currentUser(r *http.Request) *domain.User {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return nil
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("user_id", userID).Msg("authenticated user not found")
		return nil
	}
	return user
}

// recordUsage captures one analytics event after the response is decided.
// Best effort: it runs on a detached context so client disconnects do not
// lose the sample, and failures are only logged.
func (a *App) recordUsage(r *http.Request, userID, eventType string, success bool, started time.Time, units int) {
	if a.Usage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	event := domain.UsageEvent{
		UserID:    userID,
		EventType: eventType,
		Success:   success,
		LatencyMS: int(time.Since(started).Milliseconds()),
		Country:   middleware.CountryFromContext(r.Context()),
		Units:     units,
	}
	if err := a.Usage.RecordUsage(ctx, event); err != nil {
		a.Logger.Warn().Err(err).Str("event_type", eventType).Msg("usage event not recorded")
	}
}
