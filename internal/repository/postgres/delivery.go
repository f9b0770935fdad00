package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
)

type deliveryRepository struct {
	BaseRepository
}

func NewDeliveryRepository(base BaseRepository) repository.DeliveryRepository {
	return &deliveryRepository{base}
}

func (r *deliveryRepository) Enqueue(ctx context.Context, items []*model.DeliveryItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO delivery_items (
			id, notification_id, channel, priority, status, scheduled_for,
			attempt_count, max_attempts, created_at, updated_at
		) VALUES (
			:id, :notification_id, :channel, :priority, :status, :scheduled_for,
			:attempt_count, :max_attempts, :created_at, :updated_at
		)
	`
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, item := range items {
			if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
				return fmt.Errorf("failed to enqueue delivery item: %w", err)
			}
		}
		return nil
	})
}

func (r *deliveryRepository) Due(ctx context.Context, now time.Time, limit int) ([]*model.DeliveryItem, error) {
	query := `
		SELECT id, notification_id, channel, priority, status, scheduled_for,
			started_at, completed_at, attempt_count, max_attempts,
			next_attempt_at, error_message, created_at, updated_at
		FROM delivery_items
		WHERE (status = 'pending' AND scheduled_for <= $1)
		   OR (status = 'failed' AND attempt_count < max_attempts AND next_attempt_at <= $1)
		ORDER BY CASE priority
				WHEN 'urgent' THEN 4
				WHEN 'high' THEN 3
				WHEN 'medium' THEN 2
				ELSE 1
			END DESC,
			scheduled_for ASC
		LIMIT $2
	`
	var items []*model.DeliveryItem
	err := r.db.SelectContext(ctx, &items, query, now, limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return items, err
}

// Claim is the single-writer transition that guards against overlapping
// poll cycles double-sending an item: the status check and the mutation
// happen in one conditional UPDATE, so only one caller sees a row.
func (r *deliveryRepository) Claim(ctx context.Context, id uuid.UUID, now time.Time) (*model.DeliveryItem, bool, error) {
	query := `
		UPDATE delivery_items
		SET status = 'processing',
			attempt_count = attempt_count + 1,
			started_at = $2,
			updated_at = $2
		WHERE id = $1
		AND ((status = 'pending' AND scheduled_for <= $2)
			OR (status = 'failed' AND attempt_count < max_attempts AND next_attempt_at <= $2))
		RETURNING id, notification_id, channel, priority, status, scheduled_for,
			started_at, completed_at, attempt_count, max_attempts,
			next_attempt_at, error_message, created_at, updated_at
	`
	var item model.DeliveryItem
	if err := r.db.GetContext(ctx, &item, query, id, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to claim delivery item: %w", err)
	}
	return &item, true, nil
}

func (r *deliveryRepository) Complete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE delivery_items
		SET status = 'completed', completed_at = $2, error_message = NULL, updated_at = $2
		WHERE id = $1 AND status = 'processing'
	`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

func (r *deliveryRepository) Reschedule(ctx context.Context, id uuid.UUID, errMsg string, nextAttemptAt time.Time) error {
	query := `
		UPDATE delivery_items
		SET status = 'failed', error_message = $2, next_attempt_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	_, err := r.db.ExecContext(ctx, query, id, errMsg, nextAttemptAt)
	return err
}

func (r *deliveryRepository) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	// Pinning attempt_count to max_attempts keeps the item out of the due
	// query permanently.
	query := `
		UPDATE delivery_items
		SET status = 'failed', error_message = $2, next_attempt_at = NULL,
			attempt_count = GREATEST(attempt_count, max_attempts), updated_at = NOW()
		WHERE id = $1 AND status = 'processing'
	`
	_, err := r.db.ExecContext(ctx, query, id, errMsg)
	return err
}
