package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusRead      NotificationStatus = "read"
	NotificationStatusFailed    NotificationStatus = "failed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for queue selection; higher dispatches first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Channels is the set of delivery channels chosen at creation time.
type Channels []Channel

func (c Channels) Contains(ch Channel) bool {
	for _, v := range c {
		if v == ch {
			return true
		}
	}
	return false
}

func (c Channels) Value() (driver.Value, error) {
	strs := make([]string, len(c))
	for i, ch := range c {
		strs[i] = string(ch)
	}
	return pq.StringArray(strs).Value()
}

func (c *Channels) Scan(src interface{}) error {
	var strs pq.StringArray
	if err := strs.Scan(src); err != nil {
		return err
	}
	out := make(Channels, len(strs))
	for i, s := range strs {
		out[i] = Channel(s)
	}
	*c = out
	return nil
}

type NotificationType string

const (
	TypeMessageReceived    NotificationType = "message_received"
	TypeMention            NotificationType = "mention"
	TypeTrainingScheduled  NotificationType = "training_scheduled"
	TypeTrainingUpdated    NotificationType = "training_updated"
	TypeTrainingCancelled  NotificationType = "training_cancelled"
	TypeMedicalAppointment NotificationType = "medical_appointment"
	TypeInjuryUpdate       NotificationType = "injury_update"
	TypePaymentDue         NotificationType = "payment_due"
	TypePaymentReceived    NotificationType = "payment_received"
	TypeTeamAnnouncement   NotificationType = "team_announcement"
	TypeScheduleChange     NotificationType = "schedule_change"
	TypeWellnessReminder   NotificationType = "wellness_reminder"
	TypePerformanceReport  NotificationType = "performance_report"
	TypeCalendarReminder   NotificationType = "calendar_reminder"
	TypeSystemAlert        NotificationType = "system_alert"
	TypeReactionAdded      NotificationType = "reaction_added"
	TypeTaskAssigned       NotificationType = "task_assigned"
	TypeDocumentShared     NotificationType = "document_shared"
	TypeFeedbackReceived   NotificationType = "feedback_received"
)

const metadataDigestSentKey = "digest_sent"

// Metadata is an opaque key/value bag stored as JSONB.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, m)
}

func (m Metadata) DigestSent() bool {
	v, ok := m[metadataDigestSentKey].(bool)
	return ok && v
}

func (m Metadata) SetDigestSent() {
	m[metadataDigestSentKey] = true
}

// Notification is one logical event to deliver, independent of channel.
// Delivery per channel is tracked on DeliveryItem.
type Notification struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	RecipientID    uuid.UUID          `db:"recipient_id" json:"recipient_id"`
	OrganizationID *uuid.UUID         `db:"organization_id" json:"organization_id,omitempty"`
	TeamID         *uuid.UUID         `db:"team_id" json:"team_id,omitempty"`
	Type           NotificationType   `db:"type" json:"type"`
	Title          string             `db:"title" json:"title"`
	Message        string             `db:"message" json:"message"`
	ActionURL      *string            `db:"action_url" json:"action_url,omitempty"`
	ActionText     *string            `db:"action_text" json:"action_text,omitempty"`
	Priority       Priority           `db:"priority" json:"priority"`
	Channels       Channels           `db:"channels" json:"channels"`
	Status         NotificationStatus `db:"status" json:"status"`
	RetryCount     int                `db:"retry_count" json:"retry_count"`
	MaxRetries     int                `db:"max_retries" json:"max_retries"`
	NextRetryAt    *time.Time         `db:"next_retry_at" json:"next_retry_at,omitempty"`
	ErrorMessage   *string            `db:"error_message" json:"error_message,omitempty"`
	Metadata       Metadata           `db:"metadata" json:"metadata"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	SentAt         *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt    *time.Time         `db:"delivered_at" json:"delivered_at,omitempty"`
	ReadAt         *time.Time         `db:"read_at" json:"read_at,omitempty"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// Tag is the collapse key used by push providers to replace an older
// notification of the same type for the same recipient.
func (n *Notification) Tag() string {
	return fmt.Sprintf("%s:%s", n.Type, n.RecipientID)
}
