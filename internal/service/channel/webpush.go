package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/teamhub/notification-service/internal/model"
)

// PushOptions carry per-send Web Push parameters.
type PushOptions struct {
	TTL     int
	Urgency string
	Topic   string
}

// PushStatusError is a Web Push rejection carrying the provider's HTTP
// status. 404 and 410 mean the endpoint is permanently gone.
type PushStatusError struct {
	StatusCode int
}

func (e *PushStatusError) Error() string {
	return fmt.Sprintf("push endpoint returned status %d", e.StatusCode)
}

// EndpointGone reports whether err says the subscription endpoint no
// longer exists.
func EndpointGone(err error) bool {
	var se *PushStatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
}

// WebPusher abstracts the Web Push provider call so the fan-out logic is
// testable without real HTTPS endpoints.
type WebPusher interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload []byte, opts PushOptions) error
}

type VAPIDConfig struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

type vapidPusher struct {
	cfg VAPIDConfig
}

func NewVAPIDPusher(cfg VAPIDConfig) (WebPusher, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("VAPID keys are required")
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("VAPID subject is required")
	}
	return &vapidPusher{cfg: cfg}, nil
}

func (p *vapidPusher) Send(ctx context.Context, sub *model.PushSubscription, payload []byte, opts PushOptions) error {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      p.cfg.Subject,
		VAPIDPublicKey:  p.cfg.PublicKey,
		VAPIDPrivateKey: p.cfg.PrivateKey,
		TTL:             opts.TTL,
		Urgency:         webpush.Urgency(opts.Urgency),
		Topic:           opts.Topic,
	})
	if err != nil {
		return fmt.Errorf("web push send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &PushStatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
