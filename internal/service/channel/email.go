package channel

import (
	"context"
	"fmt"

	"github.com/teamhub/notification-service/internal/email"
	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/service/directory"
	"github.com/teamhub/notification-service/internal/service/presence"
	apperrors "github.com/teamhub/notification-service/pkg/errors"
	"github.com/teamhub/notification-service/pkg/logger"
)

// EmailSender delivers a notification by email, but only to recipients
// who would otherwise miss it: a user who is reachable in-app is skipped
// as a successful no-op.
type EmailSender struct {
	oracle    presence.Oracle
	directory directory.Directory
	mailer    email.Mailer
	logger    *logger.Logger
}

func NewEmailSender(oracle presence.Oracle, dir directory.Directory, mailer email.Mailer, logger *logger.Logger) *EmailSender {
	return &EmailSender{
		oracle:    oracle,
		directory: dir,
		mailer:    mailer,
		logger:    logger,
	}
}

func (s *EmailSender) Kind() model.Channel {
	return model.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, n *model.Notification) (Result, error) {
	offline, err := s.oracle.IsOffline(ctx, n.RecipientID)
	if err != nil {
		return Result{}, fmt.Errorf("presence check failed: %w", err)
	}
	if !offline {
		return Result{Suppressed: true}, nil
	}

	info, err := s.directory.GetUserInfo(ctx, n.RecipientID)
	if err != nil || info == nil || info.Email == "" {
		// Nothing to retry toward: with no resolvable address the item is
		// done, not failed.
		s.logger.Warn("no email address for recipient, skipping",
			"recipient_id", n.RecipientID.String(),
			"notification_id", n.ID.String())
		return Result{Suppressed: true}, nil
	}

	subject, htmlBody, textBody, err := email.Render(n)
	if err != nil {
		return Result{}, apperrors.Permanent(err)
	}

	msg := &email.Message{
		To:       info.Email,
		ToName:   info.FullName(),
		Subject:  subject,
		HTML:     htmlBody,
		Text:     textBody,
		Priority: n.Priority,
	}
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		return Result{Failed: 1}, fmt.Errorf("email dispatch failed: %w", err)
	}
	return Result{Sent: 1}, nil
}
