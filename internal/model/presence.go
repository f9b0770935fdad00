package model

import (
	"time"

	"github.com/google/uuid"
)

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)

// PresenceRecord tracks a user's live reachability. A stale record counts
// as offline for delivery purposes regardless of its nominal status.
type PresenceRecord struct {
	UserID     uuid.UUID      `db:"user_id" json:"user_id"`
	Status     PresenceStatus `db:"status" json:"status"`
	LastSeenAt time.Time      `db:"last_seen_at" json:"last_seen_at"`
	AwaySince  *time.Time     `db:"away_since" json:"away_since,omitempty"`
	BusyUntil  *time.Time     `db:"busy_until" json:"busy_until,omitempty"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}
