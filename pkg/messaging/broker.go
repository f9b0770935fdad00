package messaging

import (
	"context"
)

// Broker defines the interface for the real-time transport. In-app
// notifications are published fire-and-forget to a per-user channel; the
// transport's own at-most-once semantics apply and there is no
// acknowledgement step.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// UserChannel is the private room a recipient's live sessions listen on.
func UserChannel(userID string) string {
	return "user:" + userID
}
