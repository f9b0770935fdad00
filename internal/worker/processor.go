package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
	"github.com/teamhub/notification-service/internal/service/channel"
	apperrors "github.com/teamhub/notification-service/pkg/errors"
	"github.com/teamhub/notification-service/pkg/logger"
	"github.com/teamhub/notification-service/pkg/metrics"
)

type ProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// Processor drains due delivery items on a fixed interval, dispatches
// each to its channel sender and records the outcome. Item failures are
// isolated; nothing that happens during dispatch crashes the loop.
type Processor struct {
	deliveries    repository.DeliveryRepository
	notifications repository.NotificationRepository
	registry      *channel.Registry
	backoff       BackoffPolicy
	config        ProcessorConfig
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewProcessor(
	deliveries repository.DeliveryRepository,
	notifications repository.NotificationRepository,
	registry *channel.Registry,
	backoff BackoffPolicy,
	config ProcessorConfig,
	logger *logger.Logger,
	m *metrics.Metrics,
) *Processor {
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	return &Processor{
		deliveries:    deliveries,
		notifications: notifications,
		registry:      registry,
		backoff:       backoff,
		config:        config,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
	}
}

// Start runs the consumer loop until the context is canceled.
func (p *Processor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting delivery processor",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down delivery processor")
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.logger.Error(err, "delivery cycle failed")
			}
		}
	}
}

// Tick runs one poll cycle: select due items, claim and dispatch each
// concurrently. Claiming is a conditional update per item, so an
// overlapping cycle that selected the same batch simply loses the claim
// and skips the item.
func (p *Processor) Tick(ctx context.Context) error {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.DeliveryLatency)
		defer timer.ObserveDuration()
	}

	items, err := p.deliveries.Due(ctx, p.now(), p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to select due items: %w", err)
	}
	p.metrics.ObserveBatch(len(items))
	if len(items) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, item := range items {
		item := item
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.processItem(ctx, item)
		}()
	}
	wg.Wait()
	return nil
}

func (p *Processor) processItem(ctx context.Context, due *model.DeliveryItem) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Errorf("panic: %v", r), "recovered during dispatch",
				"item_id", due.ID.String())
		}
	}()

	item, ok, err := p.deliveries.Claim(ctx, due.ID, p.now())
	if err != nil {
		p.logger.Error(err, "failed to claim delivery item", "item_id", due.ID.String())
		return
	}
	if !ok {
		// Another cycle won the claim.
		return
	}

	n, err := p.notifications.Get(ctx, item.NotificationID)
	if err != nil {
		p.recordFailure(ctx, item, nil, fmt.Errorf("failed to load notification: %w", err))
		return
	}
	if n == nil {
		p.recordFailure(ctx, item, nil, apperrors.Permanentf("orphan delivery item: notification %s not found", item.NotificationID))
		return
	}

	sender, ok := p.registry.Lookup(item.Channel)
	if !ok {
		p.recordFailure(ctx, item, n, apperrors.Permanentf("no sender registered for channel %q", item.Channel))
		return
	}

	result, err := sender.Send(ctx, n)
	if err != nil {
		p.recordFailure(ctx, item, n, err)
		return
	}

	if result.Suppressed {
		p.metrics.ObserveSuppressed(string(item.Channel))
	}

	now := p.now()
	if err := p.deliveries.Complete(ctx, item.ID, now); err != nil {
		p.logger.Error(err, "failed to mark item completed", "item_id", item.ID.String())
		return
	}
	if err := p.notifications.MarkSent(ctx, n.ID, now); err != nil {
		p.logger.Error(err, "failed to mark notification sent", "notification_id", n.ID.String())
	}
	p.metrics.ObserveProcessed(string(item.Channel))
	p.logger.Debug("delivery completed",
		"item_id", item.ID.String(),
		"channel", string(item.Channel),
		"suppressed", result.Suppressed)
}

func (p *Processor) recordFailure(ctx context.Context, item *model.DeliveryItem, n *model.Notification, sendErr error) {
	permanent := apperrors.IsPermanent(sendErr) || item.Exhausted()

	if permanent {
		if err := p.deliveries.Fail(ctx, item.ID, sendErr.Error()); err != nil {
			p.logger.Error(err, "failed to mark item failed", "item_id", item.ID.String())
			return
		}
		if n != nil {
			if err := p.notifications.MarkFailed(ctx, n.ID, sendErr.Error()); err != nil {
				p.logger.Error(err, "failed to mark notification failed", "notification_id", n.ID.String())
			}
		} else if err := p.notifications.MarkFailed(ctx, item.NotificationID, sendErr.Error()); err != nil {
			p.logger.Error(err, "failed to mark notification failed", "notification_id", item.NotificationID.String())
		}
		p.metrics.ObserveFailed(string(item.Channel))
		p.logger.Warn("delivery permanently failed",
			"item_id", item.ID.String(),
			"channel", string(item.Channel),
			"attempts", item.AttemptCount,
			"error", sendErr.Error())
		return
	}

	nextAttempt := p.backoff.NextAttemptAt(p.now(), item.AttemptCount)
	if err := p.deliveries.Reschedule(ctx, item.ID, sendErr.Error(), nextAttempt); err != nil {
		p.logger.Error(err, "failed to reschedule item", "item_id", item.ID.String())
		return
	}
	p.metrics.ObserveRetried(string(item.Channel))
	p.logger.Debug("delivery rescheduled",
		"item_id", item.ID.String(),
		"channel", string(item.Channel),
		"attempt", item.AttemptCount,
		"next_attempt_at", nextAttempt.Format(time.RFC3339))
}
