package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	// MarkSent sets status=sent and sent_at once; completed siblings of an
	// already-sent notification leave it untouched.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkFailed records a permanent failure unless some channel already
	// succeeded for this notification.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// ListDigestCandidates returns unread notifications created at or
	// after cutoff that include the email channel and have not been
	// included in a previous digest.
	ListDigestCandidates(ctx context.Context, cutoff time.Time) ([]*model.Notification, error)
	MarkDigestSent(ctx context.Context, ids []uuid.UUID) error
}

type DeliveryRepository interface {
	Enqueue(ctx context.Context, items []*model.DeliveryItem) error
	// Due selects up to limit items that are pending and scheduled, or
	// failed with a due retry, ordered priority desc then scheduled asc.
	Due(ctx context.Context, now time.Time, limit int) ([]*model.DeliveryItem, error)
	// Claim transitions one item to processing and increments its attempt
	// count. The update is conditional on the item still being claimable,
	// so overlapping poll cycles cannot both win; ok=false means another
	// cycle got there first.
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (item *model.DeliveryItem, ok bool, err error)
	Complete(ctx context.Context, id uuid.UUID, at time.Time) error
	// Reschedule records a transient failure and the next attempt time.
	Reschedule(ctx context.Context, id uuid.UUID, errMsg string, nextAttemptAt time.Time) error
	// Fail records a permanent failure; the item is never selected again.
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error
}

type PresenceRepository interface {
	// Get returns nil without error when the user has no presence record.
	Get(ctx context.Context, userID uuid.UUID) (*model.PresenceRecord, error)
	Upsert(ctx context.Context, rec *model.PresenceRecord) error
}

type PushSubscriptionRepository interface {
	// Upsert inserts or, when the endpoint already exists, refreshes keys
	// and metadata and reactivates the subscription.
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	ListActive(ctx context.Context, userID uuid.UUID) ([]*model.PushSubscription, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error
	// DeactivateUnusedSince sweeps subscriptions idle since before cutoff.
	DeactivateUnusedSince(ctx context.Context, cutoff time.Time) (int64, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
