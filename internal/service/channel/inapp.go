package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamhub/notification-service/internal/model"
	apperrors "github.com/teamhub/notification-service/pkg/errors"
	"github.com/teamhub/notification-service/pkg/messaging"
)

// InAppEnvelope is the payload published to the recipient's private
// channel. Delivery is fire-and-forget; the transport's at-most-once
// semantics apply.
type InAppEnvelope struct {
	ID         uuid.UUID              `json:"id"`
	Type       model.NotificationType `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Priority   model.Priority         `json:"priority"`
	ActionURL  *string                `json:"action_url,omitempty"`
	ActionText *string                `json:"action_text,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	Metadata   model.Metadata         `json:"metadata,omitempty"`
}

type InAppSender struct {
	broker messaging.Broker
}

func NewInAppSender(broker messaging.Broker) *InAppSender {
	return &InAppSender{broker: broker}
}

func (s *InAppSender) Kind() model.Channel {
	return model.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, n *model.Notification) (Result, error) {
	if s.broker == nil {
		// Setup error, not a transient failure; fail the item outright
		// instead of burning the retry budget.
		return Result{}, apperrors.Permanentf("real-time channel not available")
	}

	envelope := InAppEnvelope{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		Priority:   n.Priority,
		ActionURL:  n.ActionURL,
		ActionText: n.ActionText,
		CreatedAt:  n.CreatedAt,
		Metadata:   n.Metadata,
	}

	room := messaging.UserChannel(n.RecipientID.String())
	if err := s.broker.Publish(ctx, room, envelope); err != nil {
		return Result{}, fmt.Errorf("failed to publish in-app notification: %w", err)
	}
	return Result{Sent: 1}, nil
}
