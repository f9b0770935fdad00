package email

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamhub/notification-service/internal/model"
)

func TestRenderCoversAllTypes(t *testing.T) {
	for typ := range templates {
		n := &model.Notification{
			ID:          uuid.New(),
			RecipientID: uuid.New(),
			Type:        typ,
			Title:       "Title",
			Message:     "Body",
		}
		subject, htmlBody, textBody, err := Render(n)
		require.NoError(t, err, "type %s", typ)
		assert.NotEmpty(t, subject, "type %s", typ)
		assert.Contains(t, htmlBody, "Title")
		assert.Contains(t, textBody, "Body")
	}
}

func TestRenderUnknownTypeFails(t *testing.T) {
	n := &model.Notification{Type: model.NotificationType("mystery"), Title: "x", Message: "y"}

	_, _, _, err := Render(n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestRenderIncludesActionLink(t *testing.T) {
	url := "https://app.test/payments/9"
	label := "Pay now"
	n := &model.Notification{
		Type:       model.TypePaymentDue,
		Title:      "June fees",
		Message:    "Your June payment is due",
		ActionURL:  &url,
		ActionText: &label,
	}

	_, htmlBody, textBody, err := Render(n)
	require.NoError(t, err)
	assert.Contains(t, htmlBody, `href="https://app.test/payments/9"`)
	assert.Contains(t, htmlBody, "Pay now")
	assert.Contains(t, textBody, "Pay now: https://app.test/payments/9")
}

func TestRenderEscapesHTML(t *testing.T) {
	n := &model.Notification{
		Type:    model.TypeSystemAlert,
		Title:   "<script>alert(1)</script>",
		Message: "a & b",
	}

	_, htmlBody, _, err := Render(n)
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "<script>")
	assert.Contains(t, htmlBody, "&lt;script&gt;")
	assert.Contains(t, htmlBody, "a &amp; b")
}
