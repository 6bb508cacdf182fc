package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"rinova/internal/domain"
	"rinova/internal/infra"
	"rinova/internal/sqlinline"
)

// GenerationRepositoryPG implements domain.GenerationRepository backed by PostgreSQL.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewGenerationRepository creates a new GenerationRepositoryPG.
func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

// Insert persists a fully assembled generation record. The payload is stored
// as JSONB in one of its two canonical shapes.
func (r *GenerationRepositoryPG) Insert(ctx context.Context, record *domain.GenerationRecord) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("marshal generated payload: %w", err)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertGeneration,
		record.ID,
		record.UserID,
		record.Style,
		record.RoomType,
		record.Prompt,
		record.OriginalImageURL,
		payload,
	)
	return row.Scan(&record.CreatedAt)
}

// ListByUser returns the user's records, newest first.
func (r *GenerationRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectGenerationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.GenerationRecord
	for rows.Next() {
		record, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// GetByIDAndOwner fetches one record, enforcing ownership.
func (r *GenerationRepositoryPG) GetByIDAndOwner(ctx context.Context, id, userID string) (*domain.GenerationRecord, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectGenerationByIDAndOwner, id, userID)
	record, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// DeleteByIDAndOwner removes the record only when userID owns it.
func (r *GenerationRepositoryPG) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteGenerationByIDAndOwner, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanGeneration(row pgx.Row) (*domain.GenerationRecord, error) {
	var record domain.GenerationRecord
	var payload []byte
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Style,
		&record.RoomType,
		&record.Prompt,
		&record.OriginalImageURL,
		&payload,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &record.Payload); err != nil {
		return nil, fmt.Errorf("decode generated payload: %w", err)
	}
	return &record, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
