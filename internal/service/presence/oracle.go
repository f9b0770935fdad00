package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
)

const defaultOfflineThreshold = 15 * time.Minute

// Oracle answers whether a user is currently reachable in-app. Email and
// push senders consult it to suppress redundant delivery for users who
// would see the in-app notification anyway.
type Oracle interface {
	IsOffline(ctx context.Context, userID uuid.UUID) (bool, error)
	Heartbeat(ctx context.Context, userID uuid.UUID, status model.PresenceStatus) error
}

type oracle struct {
	repo      repository.PresenceRepository
	threshold time.Duration
	now       func() time.Time
}

func NewOracle(repo repository.PresenceRepository, threshold time.Duration) Oracle {
	if threshold <= 0 {
		threshold = defaultOfflineThreshold
	}
	return &oracle{
		repo:      repo,
		threshold: threshold,
		now:       time.Now,
	}
}

// IsOffline treats a user as offline for notification purposes when there
// is no record, the record says offline, or the record is stale beyond
// the threshold. A stale away/busy status counts as offline too: the
// status tells us nothing once the user stopped heartbeating.
func (o *oracle) IsOffline(ctx context.Context, userID uuid.UUID) (bool, error) {
	rec, err := o.repo.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to look up presence: %w", err)
	}
	if rec == nil {
		return true, nil
	}
	if rec.Status == model.PresenceOffline {
		return true, nil
	}
	if o.now().Sub(rec.LastSeenAt) > o.threshold {
		return true, nil
	}
	return false, nil
}

func (o *oracle) Heartbeat(ctx context.Context, userID uuid.UUID, status model.PresenceStatus) error {
	now := o.now()
	rec := &model.PresenceRecord{
		UserID:     userID,
		Status:     status,
		LastSeenAt: now,
		UpdatedAt:  now,
	}
	if status == model.PresenceAway {
		rec.AwaySince = &now
	}
	return o.repo.Upsert(ctx, rec)
}
