package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamhub/notification-service/internal/model"
)

type stubSubRepo struct {
	mu          sync.Mutex
	subs        []*model.PushSubscription
	deactivated []uuid.UUID
	touched     []uuid.UUID
}

func (s *stubSubRepo) Upsert(context.Context, *model.PushSubscription) error { return nil }

func (s *stubSubRepo) ListActive(context.Context, uuid.UUID) ([]*model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs, nil
}

func (s *stubSubRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivated = append(s.deactivated, id)
	return nil
}

func (s *stubSubRepo) DeactivateByEndpoint(context.Context, uuid.UUID, string) error { return nil }

func (s *stubSubRepo) DeactivateUnusedSince(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *stubSubRepo) Touch(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, id)
	return nil
}

// stubPusher fails the endpoints listed in errs and records every payload.
type stubPusher struct {
	mu       sync.Mutex
	errs     map[string]error
	payloads map[string][]byte
	opts     []PushOptions
}

func newStubPusher() *stubPusher {
	return &stubPusher{errs: make(map[string]error), payloads: make(map[string][]byte)}
}

func (p *stubPusher) Send(_ context.Context, sub *model.PushSubscription, payload []byte, opts PushOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.errs[sub.Endpoint]; ok {
		return err
	}
	p.payloads[sub.Endpoint] = payload
	p.opts = append(p.opts, opts)
	return nil
}

func subscription(endpoint string) *model.PushSubscription {
	return &model.PushSubscription{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Endpoint:  endpoint,
		P256dhKey: "p256dh",
		AuthKey:   "auth",
		IsActive:  true,
	}
}

func pushNotification() *model.Notification {
	url := "https://app.test/messages/42"
	return &model.Notification{
		ID:          uuid.New(),
		RecipientID: uuid.New(),
		Type:        model.TypeMention,
		Title:       "You were mentioned",
		Message:     "Coach tagged you in the match thread",
		ActionURL:   &url,
		Priority:    model.PriorityHigh,
		Channels:    model.Channels{model.ChannelPush},
		Status:      model.NotificationStatusPending,
	}
}

func newTestPushSender(repo *stubSubRepo, pusher WebPusher) *PushSender {
	s := NewPushSender(&stubOracle{offline: true}, repo, pusher, testLogger(), nil, PushSenderConfig{})
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestPushSkipsReachableRecipient(t *testing.T) {
	repo := &stubSubRepo{subs: []*model.PushSubscription{subscription("https://push.test/a")}}
	pusher := newStubPusher()
	s := NewPushSender(&stubOracle{offline: false}, repo, pusher, testLogger(), nil, PushSenderConfig{})

	result, err := s.Send(context.Background(), pushNotification())
	require.NoError(t, err)
	assert.True(t, result.Suppressed)
	assert.Empty(t, pusher.payloads)
}

func TestPushNoSubscriptionsIsNoOp(t *testing.T) {
	s := newTestPushSender(&stubSubRepo{}, newStubPusher())

	result, err := s.Send(context.Background(), pushNotification())
	require.NoError(t, err)
	assert.True(t, result.Suppressed)
	assert.Equal(t, 0, result.Sent)
}

func TestPushFansOutToAllSubscriptions(t *testing.T) {
	repo := &stubSubRepo{subs: []*model.PushSubscription{
		subscription("https://push.test/a"),
		subscription("https://push.test/b"),
		subscription("https://push.test/c"),
	}}
	pusher := newStubPusher()
	s := newTestPushSender(repo, pusher)

	n := pushNotification()
	result, err := s.Send(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, repo.touched, 3)
	assert.Empty(t, repo.deactivated)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(pusher.payloads["https://push.test/a"], &payload))
	assert.Equal(t, "You were mentioned", payload["title"])
	assert.Equal(t, n.Tag(), payload["tag"])
	assert.Equal(t, "https://app.test/messages/42", payload["url"])

	require.NotEmpty(t, pusher.opts)
	opts := pusher.opts[0]
	assert.Equal(t, int((24 * time.Hour).Seconds()), opts.TTL)
	assert.Equal(t, "high", opts.Urgency)
	assert.Equal(t, n.Tag(), opts.Topic)
}

func TestPushDeadEndpointDeactivatedOthersDelivered(t *testing.T) {
	dead := subscription("https://push.test/dead")
	live1 := subscription("https://push.test/live1")
	live2 := subscription("https://push.test/live2")
	repo := &stubSubRepo{subs: []*model.PushSubscription{dead, live1, live2}}

	pusher := newStubPusher()
	pusher.errs[dead.Endpoint] = &PushStatusError{StatusCode: http.StatusGone}
	s := newTestPushSender(repo, pusher)

	result, err := s.Send(context.Background(), pushNotification())
	require.NoError(t, err, "partial success counts as success")
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	// Only the dead endpoint is retired.
	require.Len(t, repo.deactivated, 1)
	assert.Equal(t, dead.ID, repo.deactivated[0])
	assert.Len(t, repo.touched, 2)
}

func TestPushTransientErrorKeepsSubscription(t *testing.T) {
	flaky := subscription("https://push.test/flaky")
	live := subscription("https://push.test/live")
	repo := &stubSubRepo{subs: []*model.PushSubscription{flaky, live}}

	pusher := newStubPusher()
	pusher.errs[flaky.Endpoint] = &PushStatusError{StatusCode: http.StatusTooManyRequests}
	s := newTestPushSender(repo, pusher)

	result, err := s.Send(context.Background(), pushNotification())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, repo.deactivated, "a 429 is not a dead endpoint")
}

func TestPushAllEndpointsFailingIsRetryable(t *testing.T) {
	a := subscription("https://push.test/a")
	b := subscription("https://push.test/b")
	repo := &stubSubRepo{subs: []*model.PushSubscription{a, b}}

	pusher := newStubPusher()
	pusher.errs[a.Endpoint] = fmt.Errorf("network unreachable")
	pusher.errs[b.Endpoint] = fmt.Errorf("network unreachable")
	s := newTestPushSender(repo, pusher)

	result, err := s.Send(context.Background(), pushNotification())
	require.Error(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 2, result.Failed)
}

func TestEndpointGone(t *testing.T) {
	assert.True(t, EndpointGone(&PushStatusError{StatusCode: http.StatusNotFound}))
	assert.True(t, EndpointGone(&PushStatusError{StatusCode: http.StatusGone}))
	assert.True(t, EndpointGone(fmt.Errorf("wrapped: %w", &PushStatusError{StatusCode: http.StatusGone})))
	assert.False(t, EndpointGone(&PushStatusError{StatusCode: http.StatusBadGateway}))
	assert.False(t, EndpointGone(fmt.Errorf("plain error")))
}

func TestUrgencyForPriority(t *testing.T) {
	assert.Equal(t, "high", urgencyFor(model.PriorityUrgent))
	assert.Equal(t, "high", urgencyFor(model.PriorityHigh))
	assert.Equal(t, "normal", urgencyFor(model.PriorityMedium))
	assert.Equal(t, "low", urgencyFor(model.PriorityLow))
}
