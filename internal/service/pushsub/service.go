package pushsub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
	"github.com/teamhub/notification-service/pkg/logger"
)

const defaultMaxAge = 30 * 24 * time.Hour

// SubscribeRequest registers or refreshes one browser push endpoint.
type SubscribeRequest struct {
	UserID    uuid.UUID
	Endpoint  string
	P256dhKey string
	AuthKey   string
	UserAgent string
}

// Service manages the push subscription lifecycle: upsert on subscribe,
// soft deactivation on unsubscribe, and a periodic staleness sweep.
type Service interface {
	Subscribe(ctx context.Context, req *SubscribeRequest) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
	CleanupStale(ctx context.Context) (int64, error)
}

type service struct {
	repo   repository.PushSubscriptionRepository
	maxAge time.Duration
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.PushSubscriptionRepository, maxAge time.Duration, logger *logger.Logger) Service {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &service{
		repo:   repo,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

func (s *service) Subscribe(ctx context.Context, req *SubscribeRequest) (*model.PushSubscription, error) {
	if req.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if req.P256dhKey == "" || req.AuthKey == "" {
		return nil, fmt.Errorf("subscription keys are required")
	}

	now := s.now()
	sub := &model.PushSubscription{
		ID:         uuid.New(),
		UserID:     req.UserID,
		Endpoint:   req.Endpoint,
		P256dhKey:  req.P256dhKey,
		AuthKey:    req.AuthKey,
		UserAgent:  req.UserAgent,
		LastUsedAt: now,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Browser/device metadata is parsed for diagnostics only; it has no
	// effect on delivery.
	if req.UserAgent != "" {
		ua := useragent.Parse(req.UserAgent)
		sub.Browser = ua.Name
		sub.DeviceType = deviceType(ua)
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to register subscription: %w", err)
	}
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if err := s.repo.DeactivateByEndpoint(ctx, userID, endpoint); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

// CleanupStale deactivates subscriptions unused past the staleness window.
func (s *service) CleanupStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxAge)
	swept, err := s.repo.DeactivateUnusedSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("subscription sweep failed: %w", err)
	}
	if swept > 0 {
		s.logger.Info("swept stale push subscriptions", "count", swept)
	}
	return swept, nil
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}
