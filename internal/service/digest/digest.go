package digest

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/teamhub/notification-service/internal/email"
	"github.com/teamhub/notification-service/internal/model"
	"github.com/teamhub/notification-service/internal/repository"
	"github.com/teamhub/notification-service/internal/service/directory"
	"github.com/teamhub/notification-service/pkg/logger"
	"github.com/teamhub/notification-service/pkg/metrics"
)

// Period selects the trailing window a digest covers.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

func (p Period) Cutoff(now time.Time) time.Time {
	if p == PeriodWeekly {
		return now.AddDate(0, 0, -7)
	}
	return now.AddDate(0, 0, -1)
}

const (
	defaultMinNotifications = 3
	maxItemsPerType         = 5
	defaultSendInterval     = 100 * time.Millisecond
)

type Config struct {
	MinNotifications int
	SendInterval     time.Duration
}

// Aggregator batches a user's unread, not-yet-digested notifications over
// a trailing window into one email. It runs independently of the per-item
// queue and deliberately bypasses the presence check: a digest summarizes
// a past window regardless of whether the user is online right now.
type Aggregator struct {
	notifications repository.NotificationRepository
	directory     directory.Directory
	mailer        email.Mailer
	limiter       *rate.Limiter
	minCount      int
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewAggregator(
	notifications repository.NotificationRepository,
	dir directory.Directory,
	mailer email.Mailer,
	logger *logger.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Aggregator {
	minCount := cfg.MinNotifications
	if minCount <= 0 {
		minCount = defaultMinNotifications
	}
	interval := cfg.SendInterval
	if interval <= 0 {
		interval = defaultSendInterval
	}
	return &Aggregator{
		notifications: notifications,
		directory:     dir,
		mailer:        mailer,
		limiter:       rate.NewLimiter(rate.Every(interval), 1),
		minCount:      minCount,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
	}
}

// Report summarizes one digest run.
type Report struct {
	Recipients int
	EmailsSent int
	Skipped    int
	Failures   int
}

// ProcessPendingDigests aggregates and sends digests for one period. A
// recipient below the minimum-count threshold is skipped; their
// notifications stay eligible for individual delivery. One recipient's
// failure never aborts the batch.
func (a *Aggregator) ProcessPendingDigests(ctx context.Context, period Period) (*Report, error) {
	cutoff := period.Cutoff(a.now())
	candidates, err := a.notifications.ListDigestCandidates(ctx, cutoff)
	if err != nil {
		a.metrics.ObserveDigestRun(string(period), "error")
		return nil, fmt.Errorf("failed to list digest candidates: %w", err)
	}

	byRecipient := make(map[uuid.UUID][]*model.Notification)
	for _, n := range candidates {
		byRecipient[n.RecipientID] = append(byRecipient[n.RecipientID], n)
	}

	report := &Report{Recipients: len(byRecipient)}
	for recipientID, batch := range byRecipient {
		if len(batch) < a.minCount {
			report.Skipped++
			continue
		}

		// Provider rate limits: pace sequential sends instead of bursting.
		if err := a.limiter.Wait(ctx); err != nil {
			return report, err
		}

		if err := a.sendDigest(ctx, period, recipientID, batch); err != nil {
			report.Failures++
			a.logger.Error(err, "digest send failed",
				"recipient_id", recipientID.String(),
				"period", string(period))
			continue
		}
		report.EmailsSent++
		a.metrics.ObserveDigestEmail()
	}

	a.metrics.ObserveDigestRun(string(period), "success")
	a.logger.Info("digest run complete",
		"period", string(period),
		"recipients", report.Recipients,
		"emails_sent", report.EmailsSent,
		"skipped", report.Skipped,
		"failures", report.Failures)
	return report, nil
}

func (a *Aggregator) sendDigest(ctx context.Context, period Period, recipientID uuid.UUID, batch []*model.Notification) error {
	info, err := a.directory.GetUserInfo(ctx, recipientID)
	if err != nil || info == nil || info.Email == "" {
		return fmt.Errorf("no email address resolvable for recipient %s", recipientID)
	}

	subject, htmlBody, textBody := renderDigest(period, batch)

	msg := &email.Message{
		To:      info.Email,
		ToName:  info.FullName(),
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	}
	if _, err := a.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("digest email failed: %w", err)
	}

	// Mark every included notification so it is neither re-aggregated
	// nor separately emailed later.
	ids := make([]uuid.UUID, len(batch))
	for i, n := range batch {
		ids[i] = n.ID
	}
	if err := a.notifications.MarkDigestSent(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark digest sent: %w", err)
	}
	return nil
}

func renderDigest(period Period, batch []*model.Notification) (subject, htmlBody, textBody string) {
	label := "daily"
	if period == PeriodWeekly {
		label = "weekly"
	}
	subject = fmt.Sprintf("Your %s summary: %d notifications", label, len(batch))

	byType := make(map[model.NotificationType][]*model.Notification)
	var order []model.NotificationType
	for _, n := range batch {
		if _, seen := byType[n.Type]; !seen {
			order = append(order, n.Type)
		}
		byType[n.Type] = append(byType[n.Type], n)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var htmlB, textB strings.Builder
	htmlB.WriteString(fmt.Sprintf("<h2>Your %s summary</h2>", label))
	textB.WriteString(fmt.Sprintf("Your %s summary\n", label))

	for _, t := range order {
		group := byType[t]
		heading := typeHeading(t, len(group))
		htmlB.WriteString(fmt.Sprintf("<h3>%s</h3><ul>", html.EscapeString(heading)))
		textB.WriteString("\n" + heading + "\n")

		shown := group
		if len(shown) > maxItemsPerType {
			shown = shown[:maxItemsPerType]
		}
		for _, n := range shown {
			htmlB.WriteString(fmt.Sprintf("<li><strong>%s</strong>: %s</li>",
				html.EscapeString(n.Title), html.EscapeString(n.Message)))
			textB.WriteString(fmt.Sprintf("  - %s: %s\n", n.Title, n.Message))
		}
		if extra := len(group) - maxItemsPerType; extra > 0 {
			htmlB.WriteString(fmt.Sprintf("<li>+%d more</li>", extra))
			textB.WriteString(fmt.Sprintf("  +%d more\n", extra))
		}
		htmlB.WriteString("</ul>")
	}
	return subject, htmlB.String(), textB.String()
}

func typeHeading(t model.NotificationType, count int) string {
	name := strings.ReplaceAll(string(t), "_", " ")
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s (%d)", name, count)
}
