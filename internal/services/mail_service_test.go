package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beatplayr/backend/internal/config"
)

func TestMailServiceNotConfigured(t *testing.T) {
	s := NewMailService(config.SMTPConfig{})
	assert.False(t, s.IsConfigured())
	assert.ErrorIs(t, s.SendEmail("a@b.c", "subject", "<p>hi</p>"), ErrNotConfigured)
	assert.ErrorIs(t, s.VerifyConnection(), ErrNotConfigured)
}

func TestBuildEmailHeaders(t *testing.T) {
	s := NewMailService(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "noreply@beatplayr.online",
		FromName: "BeatPlayr",
	})

	msg := string(s.buildEmail("sam@example.com", "Hello", "<p>body</p>"))
	assert.Contains(t, msg, `From: "BeatPlayr" <noreply@beatplayr.online>`)
	assert.Contains(t, msg, "To: sam@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, msg, "\r\n\r\n<p>body</p>")
}
