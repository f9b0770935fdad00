package model

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is one registered browser push endpoint for a user.
// Endpoints are globally unique; re-subscribing the same endpoint updates
// keys and metadata in place. Subscriptions are soft-deleted: unsubscribe
// and dead-endpoint handling flip IsActive instead of removing rows.
type PushSubscription struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Endpoint   string    `db:"endpoint" json:"endpoint"`
	P256dhKey  string    `db:"p256dh_key" json:"p256dh_key"`
	AuthKey    string    `db:"auth_key" json:"auth_key"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	Browser    string    `db:"browser" json:"browser"`
	DeviceType string    `db:"device_type" json:"device_type"`
	LastUsedAt time.Time `db:"last_used_at" json:"last_used_at"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
