package repo

import (
	"context"

	"rinova/internal/domain"
	"rinova/internal/infra"
	"rinova/internal/sqlinline"
)

// UsageRepositoryPG records analytics events for generation requests.
type UsageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUsageRepository creates a new UsageRepositoryPG.
func NewUsageRepository(sql infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{sql: sql}
}

// RecordUsage inserts one usage event. Callers treat failures as non-fatal.
func (r *UsageRepositoryPG) RecordUsage(ctx context.Context, event domain.UsageEvent) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageEvent,
		event.UserID,
		event.EventType,
		event.Success,
		event.LatencyMS,
		event.Country,
		event.Units,
	)
	return err
}

var _ domain.UsageRecorder = (*UsageRepositoryPG)(nil)
