package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// IncrementGenerationCount adds units to the user's consumption counter
	// as a single atomic update.
	IncrementGenerationCount(ctx context.Context, userID string, units int) error
}

// GenerationRepository handles persistence for generation records.
type GenerationRepository interface {
	Insert(ctx context.Context, record *GenerationRecord) error
	ListByUser(ctx context.Context, userID string) ([]GenerationRecord, error)
	GetByIDAndOwner(ctx context.Context, id, userID string) (*GenerationRecord, error)
	// DeleteByIDAndOwner removes a record only when it belongs to userID.
	// Returns ErrNotFound for unknown or non-owned ids.
	DeleteByIDAndOwner(ctx context.Context, id, userID string) error
}

// UsageRecorder captures best-effort analytics events; failures are logged,
// never surfaced.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, event UsageEvent) error
}

// UsageEvent is one analytics sample for a generation request.
type UsageEvent struct {
	UserID    string
	EventType string
	Success   bool
	LatencyMS int
	Country   string
	Units     int
}
