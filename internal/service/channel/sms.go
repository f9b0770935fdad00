package channel

import (
	"context"

	"github.com/teamhub/notification-service/internal/model"
	apperrors "github.com/teamhub/notification-service/pkg/errors"
)

// SMSSender keeps the channel slot so the work-item model stays uniform;
// there is no SMS backend. The failure is permanent so the consumer fails
// the item on first attempt instead of spending the retry budget on a
// deterministic outcome.
type SMSSender struct{}

func NewSMSSender() *SMSSender {
	return &SMSSender{}
}

func (s *SMSSender) Kind() model.Channel {
	return model.ChannelSMS
}

func (s *SMSSender) Send(_ context.Context, _ *model.Notification) (Result, error) {
	return Result{}, apperrors.Permanentf("sms channel not implemented")
}
