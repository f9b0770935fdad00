package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	query := `
		INSERT INTO notifications (
			id, recipient_id, organization_id, team_id, type, title, message,
			action_url, action_text, priority, channels, status,
			retry_count, max_retries, metadata, created_at, updated_at
		) VALUES (
			:id, :recipient_id, :organization_id, :team_id, :type, :title, :message,
			:action_url, :action_text, :priority, :channels, :status,
			:retry_count, :max_retries, :metadata, :created_at, :updated_at
		)
	`
	_, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `
		SELECT id, recipient_id, organization_id, team_id, type, title, message,
			action_url, action_text, priority, channels, status,
			retry_count, max_retries, next_retry_at, error_message, metadata,
			created_at, sent_at, delivered_at, read_at, updated_at
		FROM notifications
		WHERE id = $1
	`
	var n model.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	// Status only advances forward: a completed sibling item must not
	// regress delivered/read, and sent_at is set at most once.
	query := `
		UPDATE notifications
		SET status = CASE WHEN status IN ('pending', 'failed') THEN 'sent' ELSE status END,
			sent_at = COALESCE(sent_at, $2),
			error_message = NULL,
			updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	// A notification with any successful channel stays sent.
	query := `
		UPDATE notifications
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	_, err := r.db.ExecContext(ctx, query, id, reason)
	return err
}

func (r *notificationRepository) ListDigestCandidates(ctx context.Context, cutoff time.Time) ([]*model.Notification, error) {
	query := `
		SELECT id, recipient_id, organization_id, team_id, type, title, message,
			action_url, action_text, priority, channels, status,
			retry_count, max_retries, next_retry_at, error_message, metadata,
			created_at, sent_at, delivered_at, read_at, updated_at
		FROM notifications
		WHERE created_at >= $1
		AND read_at IS NULL
		AND 'email' = ANY(channels)
		AND COALESCE((metadata->>'digest_sent')::boolean, false) = false
		ORDER BY recipient_id, created_at ASC
	`
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, query, cutoff)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return notifications, err
}

func (r *notificationRepository) MarkDigestSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE notifications
		SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), '{digest_sent}', 'true'),
			updated_at = NOW()
		WHERE id = ANY($1)
	`
	_, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark digest sent: %w", err)
	}
	return nil
}
