package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "pending"
	DeliveryStatusProcessing DeliveryStatus = "processing"
	DeliveryStatusCompleted  DeliveryStatus = "completed"
	DeliveryStatusFailed     DeliveryStatus = "failed"
)

// DeliveryItem is the unit the queue consumer operates on: one delivery
// attempt record per (notification, channel) pair.
type DeliveryItem struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	NotificationID uuid.UUID      `db:"notification_id" json:"notification_id"`
	Channel        Channel        `db:"channel" json:"channel"`
	Priority       Priority       `db:"priority" json:"priority"`
	Status         DeliveryStatus `db:"status" json:"status"`
	ScheduledFor   time.Time      `db:"scheduled_for" json:"scheduled_for"`
	StartedAt      *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	AttemptCount   int            `db:"attempt_count" json:"attempt_count"`
	MaxAttempts    int            `db:"max_attempts" json:"max_attempts"`
	NextAttemptAt  *time.Time     `db:"next_attempt_at" json:"next_attempt_at,omitempty"`
	ErrorMessage   *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Exhausted reports whether the item has spent its attempt budget.
func (d *DeliveryItem) Exhausted() bool {
	return d.AttemptCount >= d.MaxAttempts
}
