package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleGeneral UserRole = "general"
)

// User represents an authenticated account within the platform. The
// GenerationCount field is the consumption counter the quota guard reads and
// increments; it never decreases outside administrative resets.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	Role            UserRole
	GenerationCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
