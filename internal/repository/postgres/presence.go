package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
)

type presenceRepository struct {
	BaseRepository
}

func NewPresenceRepository(base BaseRepository) repository.PresenceRepository {
	return &presenceRepository{base}
}

func (r *presenceRepository) Get(ctx context.Context, userID uuid.UUID) (*model.PresenceRecord, error) {
	query := `
		SELECT user_id, status, last_seen_at, away_since, busy_until, updated_at
		FROM presence_records
		WHERE user_id = $1
	`
	var rec model.PresenceRecord
	if err := r.db.GetContext(ctx, &rec, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get presence record: %w", err)
	}
	return &rec, nil
}

func (r *presenceRepository) Upsert(ctx context.Context, rec *model.PresenceRecord) error {
	if rec == nil {
		return fmt.Errorf("presence record cannot be nil")
	}
	query := `
		INSERT INTO presence_records (user_id, status, last_seen_at, away_since, busy_until, updated_at)
		VALUES (:user_id, :status, :last_seen_at, :away_since, :busy_until, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			status = EXCLUDED.status,
			last_seen_at = EXCLUDED.last_seen_at,
			away_since = EXCLUDED.away_since,
			busy_until = EXCLUDED.busy_until,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		return fmt.Errorf("failed to upsert presence record: %w", err)
	}
	return nil
}
