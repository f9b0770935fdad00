package pushsub

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

type stubSubRepo struct {
	upserted        *model.PushSubscription
	deactivatedUser uuid.UUID
	deactivatedEP   string
	sweepCutoff     time.Time
	sweepCount      int64
}

func (s *stubSubRepo) Upsert(_ context.Context, sub *model.PushSubscription) error {
	s.upserted = sub
	return nil
}

func (s *stubSubRepo) ListActive(context.Context, uuid.UUID) ([]*model.PushSubscription, error) {
	return nil, nil
}

func (s *stubSubRepo) Deactivate(context.Context, uuid.UUID) error { return nil }

func (s *stubSubRepo) DeactivateByEndpoint(_ context.Context, userID uuid.UUID, endpoint string) error {
	s.deactivatedUser = userID
	s.deactivatedEP = endpoint
	return nil
}

func (s *stubSubRepo) DeactivateUnusedSince(_ context.Context, cutoff time.Time) (int64, error) {
	s.sweepCutoff = cutoff
	return s.sweepCount, nil
}

func (s *stubSubRepo) Touch(context.Context, uuid.UUID, time.Time) error { return nil }

func newTestService(repo *stubSubRepo) *service {
	svc := NewService(repo, 30*24*time.Hour, testLogger()).(*service)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSubscribeRegistersEndpoint(t *testing.T) {
	repo := &stubSubRepo{}
	svc := newTestService(repo)

	userID := uuid.New()
	sub, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		UserID:    userID,
		Endpoint:  "https://push.test/endpoint-1",
		P256dhKey: "p256dh",
		AuthKey:   "auth",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.upserted)

	assert.Equal(t, userID, sub.UserID)
	assert.Equal(t, "https://push.test/endpoint-1", sub.Endpoint)
	assert.True(t, sub.IsActive)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), sub.LastUsedAt)
}

func TestSubscribeParsesUserAgent(t *testing.T) {
	repo := &stubSubRepo{}
	svc := newTestService(repo)

	sub, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		UserID:    uuid.New(),
		Endpoint:  "https://push.test/endpoint-2",
		P256dhKey: "p256dh",
		AuthKey:   "auth",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	})
	require.NoError(t, err)
	assert.Equal(t, "Chrome", sub.Browser)
	assert.Equal(t, "desktop", sub.DeviceType)
}

func TestSubscribeValidation(t *testing.T) {
	svc := newTestService(&stubSubRepo{})

	_, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		UserID:    uuid.New(),
		P256dhKey: "p256dh",
		AuthKey:   "auth",
	})
	require.Error(t, err, "endpoint is required")

	_, err = svc.Subscribe(context.Background(), &SubscribeRequest{
		UserID:   uuid.New(),
		Endpoint: "https://push.test/endpoint-3",
	})
	require.Error(t, err, "keys are required")
}

func TestUnsubscribe(t *testing.T) {
	repo := &stubSubRepo{}
	svc := newTestService(repo)

	userID := uuid.New()
	require.NoError(t, svc.Unsubscribe(context.Background(), userID, "https://push.test/endpoint-4"))
	assert.Equal(t, userID, repo.deactivatedUser)
	assert.Equal(t, "https://push.test/endpoint-4", repo.deactivatedEP)

	require.Error(t, svc.Unsubscribe(context.Background(), userID, ""))
}

func TestCleanupStaleUsesMaxAgeCutoff(t *testing.T) {
	repo := &stubSubRepo{sweepCount: 7}
	svc := newTestService(repo)

	swept, err := svc.CleanupStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), swept)

	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(-30 * 24 * time.Hour)
	assert.Equal(t, want, repo.sweepCutoff)
}
