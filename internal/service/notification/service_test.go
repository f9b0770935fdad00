package notification

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
}

type stubNotificationRepo struct {
	created *model.Notification
}

func (s *stubNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	s.created = n
	return nil
}

func (s *stubNotificationRepo) Get(context.Context, uuid.UUID) (*model.Notification, error) {
	return nil, nil
}

func (s *stubNotificationRepo) MarkSent(context.Context, uuid.UUID, time.Time) error { return nil }

func (s *stubNotificationRepo) MarkFailed(context.Context, uuid.UUID, string) error { return nil }

func (s *stubNotificationRepo) ListDigestCandidates(context.Context, time.Time) ([]*model.Notification, error) {
	return nil, nil
}

func (s *stubNotificationRepo) MarkDigestSent(context.Context, []uuid.UUID) error { return nil }

type stubDeliveryRepo struct {
	enqueued []*model.DeliveryItem
}

func (s *stubDeliveryRepo) Enqueue(_ context.Context, items []*model.DeliveryItem) error {
	s.enqueued = append(s.enqueued, items...)
	return nil
}

func (s *stubDeliveryRepo) Due(context.Context, time.Time, int) ([]*model.DeliveryItem, error) {
	return nil, nil
}

func (s *stubDeliveryRepo) Claim(context.Context, uuid.UUID, time.Time) (*model.DeliveryItem, bool, error) {
	return nil, false, nil
}

func (s *stubDeliveryRepo) Complete(context.Context, uuid.UUID, time.Time) error { return nil }

func (s *stubDeliveryRepo) Reschedule(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}

func (s *stubDeliveryRepo) Fail(context.Context, uuid.UUID, string) error { return nil }

func newTestService(notifications *stubNotificationRepo, deliveries *stubDeliveryRepo) *service {
	svc := NewService(notifications, deliveries, Config{}, testLogger()).(*service)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validRequest() *CreateRequest {
	return &CreateRequest{
		RecipientID: uuid.New(),
		Type:        model.TypeTeamAnnouncement,
		Title:       "Season kickoff",
		Message:     "First practice is Saturday",
		Priority:    model.PriorityMedium,
		Channels:    model.Channels{model.ChannelInApp, model.ChannelEmail},
	}
}

func TestCreateEnqueuesOneItemPerChannel(t *testing.T) {
	notifications := &stubNotificationRepo{}
	deliveries := &stubDeliveryRepo{}
	svc := newTestService(notifications, deliveries)

	n, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, notifications.created)

	assert.Equal(t, model.NotificationStatusPending, n.Status)
	assert.Equal(t, 3, n.MaxRetries)

	require.Len(t, deliveries.enqueued, 2)
	channels := map[model.Channel]bool{}
	for _, item := range deliveries.enqueued {
		channels[item.Channel] = true
		assert.Equal(t, n.ID, item.NotificationID)
		assert.Equal(t, n.Priority, item.Priority)
		assert.Equal(t, model.DeliveryStatusPending, item.Status)
		assert.Equal(t, 3, item.MaxAttempts)
		assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), item.ScheduledFor)
	}
	assert.True(t, channels[model.ChannelInApp])
	assert.True(t, channels[model.ChannelEmail])
}

func TestCreateUrgentGetsLargerBudget(t *testing.T) {
	deliveries := &stubDeliveryRepo{}
	svc := newTestService(&stubNotificationRepo{}, deliveries)

	req := validRequest()
	req.Priority = model.PriorityUrgent
	n, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 5, n.MaxRetries)
	for _, item := range deliveries.enqueued {
		assert.Equal(t, 5, item.MaxAttempts)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(&stubNotificationRepo{}, &stubDeliveryRepo{})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing recipient", func(r *CreateRequest) { r.RecipientID = uuid.Nil }},
		{"missing type", func(r *CreateRequest) { r.Type = "" }},
		{"missing title", func(r *CreateRequest) { r.Title = "" }},
		{"missing message", func(r *CreateRequest) { r.Message = "" }},
		{"no channels", func(r *CreateRequest) { r.Channels = nil }},
		{"bad channel", func(r *CreateRequest) { r.Channels = model.Channels{"pager"} }},
		{"bad priority", func(r *CreateRequest) { r.Priority = "extreme" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			_, err := svc.Create(ctx, req)
			assert.Error(t, err)
		})
	}
}

func TestCreateDefaultsMetadata(t *testing.T) {
	notifications := &stubNotificationRepo{}
	svc := newTestService(notifications, &stubDeliveryRepo{})

	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, notifications.created.Metadata)
	assert.False(t, notifications.created.Metadata.DigestSent())
}
