package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
	"github.com/teamhub/notification-service/pkg/logger"
)

const (
	defaultMaxAttempts = 3
	urgentMaxAttempts  = 5
)

// CreateRequest describes one logical notification to deliver. Channels
// are chosen by the calling feature; medical alerts, for example, force
// email and push.
type CreateRequest struct {
	RecipientID    uuid.UUID
	OrganizationID *uuid.UUID
	TeamID         *uuid.UUID
	Type           model.NotificationType
	Title          string
	Message        string
	ActionURL      *string
	ActionText     *string
	Priority       model.Priority
	Channels       model.Channels
	Metadata       model.Metadata
}

type Service interface {
	// Create persists the notification and enqueues one delivery item per
	// configured channel.
	Create(ctx context.Context, req *CreateRequest) (*model.Notification, error)
}

type Config struct {
	DefaultMaxAttempts int
	UrgentMaxAttempts  int
}

type service struct {
	notifications repository.NotificationRepository
	deliveries    repository.DeliveryRepository
	config        Config
	logger        *logger.Logger
	now           func() time.Time
}

func NewService(notifications repository.NotificationRepository, deliveries repository.DeliveryRepository, config Config, logger *logger.Logger) Service {
	if config.DefaultMaxAttempts <= 0 {
		config.DefaultMaxAttempts = defaultMaxAttempts
	}
	if config.UrgentMaxAttempts <= 0 {
		config.UrgentMaxAttempts = urgentMaxAttempts
	}
	return &service{
		notifications: notifications,
		deliveries:    deliveries,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *service) Create(ctx context.Context, req *CreateRequest) (*model.Notification, error) {
	if err := s.validate(req); err != nil {
		return nil, fmt.Errorf("invalid notification: %w", err)
	}

	now := s.now()
	maxAttempts := s.maxAttemptsFor(req.Priority)

	metadata := req.Metadata
	if metadata == nil {
		metadata = model.Metadata{}
	}

	n := &model.Notification{
		ID:             uuid.New(),
		RecipientID:    req.RecipientID,
		OrganizationID: req.OrganizationID,
		TeamID:         req.TeamID,
		Type:           req.Type,
		Title:          req.Title,
		Message:        req.Message,
		ActionURL:      req.ActionURL,
		ActionText:     req.ActionText,
		Priority:       req.Priority,
		Channels:       req.Channels,
		Status:         model.NotificationStatusPending,
		MaxRetries:     maxAttempts,
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	items := make([]*model.DeliveryItem, 0, len(req.Channels))
	for _, ch := range req.Channels {
		items = append(items, &model.DeliveryItem{
			ID:             uuid.New(),
			NotificationID: n.ID,
			Channel:        ch,
			Priority:       n.Priority,
			Status:         model.DeliveryStatusPending,
			ScheduledFor:   now,
			MaxAttempts:    maxAttempts,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if err := s.deliveries.Enqueue(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to enqueue delivery items: %w", err)
	}

	s.logger.Debug("notification enqueued",
		"notification_id", n.ID.String(),
		"type", string(n.Type),
		"channels", len(items))
	return n, nil
}

func (s *service) maxAttemptsFor(p model.Priority) int {
	if p == model.PriorityUrgent {
		return s.config.UrgentMaxAttempts
	}
	return s.config.DefaultMaxAttempts
}

func (s *service) validate(req *CreateRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}
	if req.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient ID is required")
	}
	if req.Type == "" {
		return fmt.Errorf("type is required")
	}
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if req.Message == "" {
		return fmt.Errorf("message is required")
	}
	if len(req.Channels) == 0 {
		return fmt.Errorf("at least one channel is required")
	}
	for _, ch := range req.Channels {
		switch ch {
		case model.ChannelInApp, model.ChannelEmail, model.ChannelSMS, model.ChannelPush:
		default:
			return fmt.Errorf("unsupported channel: %s", ch)
		}
	}
	switch req.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
	default:
		return fmt.Errorf("unsupported priority: %s", req.Priority)
	}
	return nil
}
