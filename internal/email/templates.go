package email

import (
	"fmt"
	"html"

	"github.com/teamhub/notification-service/internal/model"
)

// template renders one notification type into a subject and body pair.
// One rendered message per type; an unknown type is a programming error,
// not a data error, and fails loudly at render time.
type template struct {
	subject func(n *model.Notification) string
	heading string
}

var templates = map[model.NotificationType]template{
	model.TypeMessageReceived: {
		subject: func(n *model.Notification) string { return "New message: " + n.Title },
		heading: "You have a new message",
	},
	model.TypeMention: {
		subject: func(n *model.Notification) string { return "You were mentioned: " + n.Title },
		heading: "Someone mentioned you",
	},
	model.TypeTrainingScheduled: {
		subject: func(n *model.Notification) string { return "Training scheduled: " + n.Title },
		heading: "A training session was scheduled",
	},
	model.TypeTrainingUpdated: {
		subject: func(n *model.Notification) string { return "Training updated: " + n.Title },
		heading: "A training session was updated",
	},
	model.TypeTrainingCancelled: {
		subject: func(n *model.Notification) string { return "Training cancelled: " + n.Title },
		heading: "A training session was cancelled",
	},
	model.TypeMedicalAppointment: {
		subject: func(n *model.Notification) string { return "Medical appointment: " + n.Title },
		heading: "Medical appointment",
	},
	model.TypeInjuryUpdate: {
		subject: func(n *model.Notification) string { return "Injury update: " + n.Title },
		heading: "Injury status update",
	},
	model.TypePaymentDue: {
		subject: func(n *model.Notification) string { return "Payment due: " + n.Title },
		heading: "You have a payment due",
	},
	model.TypePaymentReceived: {
		subject: func(n *model.Notification) string { return "Payment received: " + n.Title },
		heading: "Payment received",
	},
	model.TypeTeamAnnouncement: {
		subject: func(n *model.Notification) string { return "Team announcement: " + n.Title },
		heading: "Team announcement",
	},
	model.TypeScheduleChange: {
		subject: func(n *model.Notification) string { return "Schedule change: " + n.Title },
		heading: "Your schedule changed",
	},
	model.TypeWellnessReminder: {
		subject: func(n *model.Notification) string { return "Wellness reminder: " + n.Title },
		heading: "Wellness check-in",
	},
	model.TypePerformanceReport: {
		subject: func(n *model.Notification) string { return "Performance report: " + n.Title },
		heading: "A performance report is ready",
	},
	model.TypeCalendarReminder: {
		subject: func(n *model.Notification) string { return "Reminder: " + n.Title },
		heading: "Calendar reminder",
	},
	model.TypeSystemAlert: {
		subject: func(n *model.Notification) string { return "Alert: " + n.Title },
		heading: "System alert",
	},
	model.TypeReactionAdded: {
		subject: func(n *model.Notification) string { return "New reaction: " + n.Title },
		heading: "Someone reacted to your post",
	},
	model.TypeTaskAssigned: {
		subject: func(n *model.Notification) string { return "Task assigned: " + n.Title },
		heading: "A task was assigned to you",
	},
	model.TypeDocumentShared: {
		subject: func(n *model.Notification) string { return "Document shared: " + n.Title },
		heading: "A document was shared with you",
	},
	model.TypeFeedbackReceived: {
		subject: func(n *model.Notification) string { return "New feedback: " + n.Title },
		heading: "You received feedback",
	},
}

// Render produces subject, HTML body and text body for a notification.
func Render(n *model.Notification) (subject, htmlBody, textBody string, err error) {
	tpl, ok := templates[n.Type]
	if !ok {
		return "", "", "", fmt.Errorf("no email template for notification type %q", n.Type)
	}

	subject = tpl.subject(n)

	action := ""
	textAction := ""
	if n.ActionURL != nil {
		label := "View"
		if n.ActionText != nil && *n.ActionText != "" {
			label = *n.ActionText
		}
		action = fmt.Sprintf(`<p><a href="%s">%s</a></p>`, html.EscapeString(*n.ActionURL), html.EscapeString(label))
		textAction = fmt.Sprintf("\n\n%s: %s", label, *n.ActionURL)
	}

	htmlBody = fmt.Sprintf(
		`<h2>%s</h2><p><strong>%s</strong></p><p>%s</p>%s`,
		html.EscapeString(tpl.heading),
		html.EscapeString(n.Title),
		html.EscapeString(n.Message),
		action,
	)
	textBody = fmt.Sprintf("%s\n\n%s\n%s%s", tpl.heading, n.Title, n.Message, textAction)
	return subject, htmlBody, textBody, nil
}
