package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"rinova/internal/domain"
	"rinova/internal/infra"
	"rinova/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Create inserts a new general-role account with a zero consumption counter.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser, user.Email, user.PasswordHash)
	return scanUser(row)
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id)
	return scanUser(row)
}

// GetByEmail fetches a user by email address.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email)
	return scanUser(row)
}

// IncrementGenerationCount adds units to the consumption counter in a single
// atomic update. The counter only moves forward here; there is no conditional
// guard, the quota check happens before the work is started (see
// restyle.Guard for the documented non-atomicity between the two).
func (r *UserRepositoryPG) IncrementGenerationCount(ctx context.Context, userID string, units int) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QIncrementGenerationCount, userID, units)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.GenerationCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
