package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
)

type pushSubscriptionRepository struct {
	BaseRepository
}

func NewPushSubscriptionRepository(base BaseRepository) repository.PushSubscriptionRepository {
	return &pushSubscriptionRepository{base}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	if sub == nil {
		return fmt.Errorf("subscription cannot be nil")
	}
	// The endpoint is globally unique; the same browser re-subscribing
	// refreshes keys and metadata rather than duplicating rows.
	query := `
		INSERT INTO push_subscriptions (
			id, user_id, endpoint, p256dh_key, auth_key,
			user_agent, browser, device_type, last_used_at, is_active,
			created_at, updated_at
		) VALUES (
			:id, :user_id, :endpoint, :p256dh_key, :auth_key,
			:user_agent, :browser, :device_type, :last_used_at, :is_active,
			:created_at, :updated_at
		)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			p256dh_key = EXCLUDED.p256dh_key,
			auth_key = EXCLUDED.auth_key,
			user_agent = EXCLUDED.user_agent,
			browser = EXCLUDED.browser,
			device_type = EXCLUDED.device_type,
			last_used_at = EXCLUDED.last_used_at,
			is_active = true,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

func (r *pushSubscriptionRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]*model.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh_key, auth_key,
			user_agent, browser, device_type, last_used_at, is_active,
			created_at, updated_at
		FROM push_subscriptions
		WHERE user_id = $1 AND is_active = true
	`
	var subs []*model.PushSubscription
	err := r.db.SelectContext(ctx, &subs, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return subs, err
}

func (r *pushSubscriptionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE push_subscriptions
		SET is_active = false, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *pushSubscriptionRepository) DeactivateByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error {
	query := `
		UPDATE push_subscriptions
		SET is_active = false, updated_at = NOW()
		WHERE user_id = $1 AND endpoint = $2
	`
	_, err := r.db.ExecContext(ctx, query, userID, endpoint)
	return err
}

func (r *pushSubscriptionRepository) DeactivateUnusedSince(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE push_subscriptions
		SET is_active = false, updated_at = NOW()
		WHERE is_active = true AND last_used_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale subscriptions: %w", err)
	}
	return result.RowsAffected()
}

func (r *pushSubscriptionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE push_subscriptions
		SET last_used_at = $2, updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}
