package restyle

import (
	"context"
	"fmt"

	"rinova/internal/domain"
)

// Role allowances for total generation units. The admin allowance is a large
// fixed number rather than a special case, so the same arithmetic applies to
// every role; unrecognized or missing roles get the general allowance.
const (
	GeneralLimit = 3
	AdminLimit   = 100
)

// LimitForRole returns the total unit allowance for a role.
func LimitForRole(role domain.UserRole) int {
	if role == domain.UserRoleAdmin {
		return AdminLimit
	}
	return GeneralLimit
}

// QuotaError reports a rejected request together with the allowance data the
// caller needs to render a precise message.
type QuotaError struct {
	Cost      int
	Remaining int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("generation limit reached: request needs %d credits, %d left", e.Cost, e.Remaining)
}

func (e *QuotaError) Unwrap() error {
	return domain.ErrQuotaExceeded
}

// Guard enforces per-user generation allowances.
//
// Check and Commit are deliberately not atomic with respect to each other:
// two concurrent requests from the same user can both pass Check before
// either commits, allowing transient over-consumption. This mirrors the
// product's accepted behavior; the commit itself is a single atomic counter
// increment, so the stored count is never corrupted, merely allowed to
// overshoot under a concurrent race.
type Guard struct {
	users domain.UserRepository
}

// NewGuard builds a Guard over the user repository.
func NewGuard(users domain.UserRepository) *Guard {
	return &Guard{users: users}
}

// Check verifies the user may consume cost units. It returns a *QuotaError
// (wrapping domain.ErrQuotaExceeded) when the allowance would be exceeded.
// No state is modified.
func (g *Guard) Check(ctx context.Context, userID string, cost int) error {
	if cost <= 0 {
		return fmt.Errorf("quota: cost must be positive, got %d", cost)
	}
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("quota: load user: %w", err)
	}
	limit := LimitForRole(user.Role)
	remaining := limit - user.GenerationCount
	if remaining < 0 {
		remaining = 0
	}
	if user.GenerationCount+cost > limit {
		return &QuotaError{Cost: cost, Remaining: remaining}
	}
	return nil
}

// Commit charges the consumed units after a successful generation. It is
// called exactly once per request, only when the external capability actually
// produced output.
func (g *Guard) Commit(ctx context.Context, userID string, units int) error {
	if units <= 0 {
		return nil
	}
	if err := g.users.IncrementGenerationCount(ctx, userID, units); err != nil {
		return fmt.Errorf("quota: commit %d units: %w", units, err)
	}
	return nil
}
