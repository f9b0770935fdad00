package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
	"github.com/teamhub/notification-service/internal/service/presence"
	"github.com/teamhub/notification-service/pkg/logger"
	"github.com/teamhub/notification-service/pkg/metrics"
)

const (
	defaultPushTTL     = 24 * time.Hour
	defaultFanoutLimit = 8
)

// pushPayload is the JSON delivered to the service worker.
type pushPayload struct {
	Title     string                 `json:"title"`
	Message   string                 `json:"body"`
	Tag       string                 `json:"tag"`
	Priority  model.Priority         `json:"priority"`
	ActionURL *string                `json:"url,omitempty"`
	Type      model.NotificationType `json:"type"`
}

// PushSender fans a notification out to every active subscription the
// recipient has registered. Sends are best-effort and bounded: one dead
// endpoint neither blocks nor fails the rest.
type PushSender struct {
	oracle      presence.Oracle
	subs        repository.PushSubscriptionRepository
	pusher      WebPusher
	logger      *logger.Logger
	metrics     *metrics.Metrics
	ttl         time.Duration
	fanoutLimit int
	now         func() time.Time
}

type PushSenderConfig struct {
	TTL         time.Duration
	FanoutLimit int
}

func NewPushSender(oracle presence.Oracle, subs repository.PushSubscriptionRepository, pusher WebPusher, logger *logger.Logger, m *metrics.Metrics, cfg PushSenderConfig) *PushSender {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultPushTTL
	}
	limit := cfg.FanoutLimit
	if limit <= 0 {
		limit = defaultFanoutLimit
	}
	return &PushSender{
		oracle:      oracle,
		subs:        subs,
		pusher:      pusher,
		logger:      logger,
		metrics:     m,
		ttl:         ttl,
		fanoutLimit: limit,
		now:         time.Now,
	}
}

func (s *PushSender) Kind() model.Channel {
	return model.ChannelPush
}

func (s *PushSender) Send(ctx context.Context, n *model.Notification) (Result, error) {
	offline, err := s.oracle.IsOffline(ctx, n.RecipientID)
	if err != nil {
		return Result{}, fmt.Errorf("presence check failed: %w", err)
	}
	if !offline {
		return Result{Suppressed: true}, nil
	}

	subs, err := s.subs.ListActive(ctx, n.RecipientID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		// Absence of subscriptions is not an error.
		return Result{Suppressed: true}, nil
	}

	payload, err := json.Marshal(pushPayload{
		Title:     n.Title,
		Message:   n.Message,
		Tag:       n.Tag(),
		Priority:  n.Priority,
		ActionURL: n.ActionURL,
		Type:      n.Type,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal push payload: %w", err)
	}

	opts := PushOptions{
		TTL:     int(s.ttl.Seconds()),
		Urgency: urgencyFor(n.Priority),
		Topic:   n.Tag(),
	}

	var mu sync.Mutex
	result := Result{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutLimit)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			err := s.pusher.Send(gctx, sub, payload, opts)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				result.Sent++
				if touchErr := s.subs.Touch(ctx, sub.ID, s.now()); touchErr != nil {
					s.logger.Warn("failed to touch subscription", "subscription_id", sub.ID.String())
				}
				return nil
			}

			result.Failed++
			if EndpointGone(err) {
				// The endpoint is permanently gone; retire it and carry on
				// with the rest of the fan-out.
				if deErr := s.subs.Deactivate(ctx, sub.ID); deErr != nil {
					s.logger.Error(deErr, "failed to deactivate dead subscription", "subscription_id", sub.ID.String())
				} else {
					s.metrics.ObserveSubscriptionDeactivated()
				}
			} else {
				s.logger.Warn("push send failed", "subscription_id", sub.ID.String(), "error", err.Error())
			}
			return nil
		})
	}
	g.Wait()

	// Partial success counts as success; only a full miss is retryable.
	if result.Sent == 0 && result.Failed > 0 {
		return result, fmt.Errorf("push dispatch failed for all %d subscriptions", result.Failed)
	}
	return result, nil
}

func urgencyFor(p model.Priority) string {
	switch p {
	case model.PriorityUrgent, model.PriorityHigh:
		return "high"
	case model.PriorityLow:
		return "low"
	default:
		return "normal"
	}
}
