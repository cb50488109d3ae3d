package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderVerification(t *testing.T) {
	html, err := render("verification", struct{ ConfirmURL, Code string }{
		ConfirmURL: "https://news.example.com/confirm?token=abc123",
		Code:       "042187",
	})
	require.NoError(t, err)
	require.Contains(t, html, "https://news.example.com/confirm?token=abc123")
	require.Contains(t, html, "042187")
}

func TestRenderVerificationEscapesData(t *testing.T) {
	html, err := render("verification", struct{ ConfirmURL, Code string }{
		ConfirmURL: "https://example.com/confirm",
		Code:       `<script>alert(1)</script>`,
	})
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}

func TestRenderUnsubscribeCode(t *testing.T) {
	html, err := render("unsubscribe_code", struct{ Code string }{"733100"})
	require.NoError(t, err)
	require.Contains(t, html, "733100")
}

func TestSendDisabledIsNoop(t *testing.T) {
	s := New(Config{Enable: false})
	require.NoError(t, s.SendVerification("a@x.com", "https://example.com", "123456"))
	require.NoError(t, s.SendNewsletter("a@x.com", "Issue #1", "<p>hi</p>"))
}

func TestSanitizeHeader(t *testing.T) {
	require.Equal(t, "Issue #5", sanitizeHeader("Issue #5"))
	require.Equal(t, "Issue #5Bcc: evil@x.com", sanitizeHeader("Issue #5\r\nBcc: evil@x.com"))
	require.Equal(t, "ab", sanitizeHeader("a\rb\n"))
}

func TestFrom(t *testing.T) {
	require.Equal(t, "news@example.com", New(Config{From: "news@example.com", User: "smtp-user"}).From())
	require.Equal(t, "smtp-user", New(Config{User: "smtp-user"}).From())
}
