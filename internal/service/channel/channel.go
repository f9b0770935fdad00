package channel

import (
	"context"

	"github.com/teamhub/notification-service/internal/model"
)

// Result describes the outcome of one channel dispatch. Suppressed marks
// an intentional no-op (recipient reachable in-app, or nothing to send);
// the consumer treats it identically to success.
type Result struct {
	Sent       int
	Failed     int
	Suppressed bool
}

// Sender is one delivery strategy. Implementations return a nil error for
// success and suppressed no-ops; a non-nil error is a dispatch failure,
// retryable unless wrapped as permanent.
type Sender interface {
	Kind() model.Channel
	Send(ctx context.Context, n *model.Notification) (Result, error)
}

// Registry maps channel kinds to senders, replacing per-call-site channel
// string switches.
type Registry struct {
	senders map[model.Channel]Sender
}

func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[model.Channel]Sender, len(senders))}
	for _, s := range senders {
		if s == nil {
			continue
		}
		r.senders[s.Kind()] = s
	}
	return r
}

func (r *Registry) Lookup(ch model.Channel) (Sender, bool) {
	s, ok := r.senders[ch]
	return s, ok
}
