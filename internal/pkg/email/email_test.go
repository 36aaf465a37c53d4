package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAccountApprovedEmailUnconfigured(t *testing.T) {
	s := NewEmailService(SMTPConfig{}, zerolog.Nop())
	called := false
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	require.NoError(t, s.SendAccountApprovedEmail("jdc@school.edu", "Juan"))
	assert.False(t, called)
}

func TestSendAccountApprovedEmail(t *testing.T) {
	cfg := SMTPConfig{
		Host: "smtp.school.edu", Port: 587, Username: "crms", Password: "secret",
		FromName: "CRMS", FromEmail: "noreply@school.edu", LoginURL: "https://crms.school.edu/login",
	}
	s := NewEmailService(cfg, zerolog.Nop())

	var gotAddr string
	var gotTo []string
	var gotMsg string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "noreply@school.edu", from)
		return nil
	}

	require.NoError(t, s.SendAccountApprovedEmail("jdc@school.edu", "Juan <Admin>"))
	assert.Equal(t, "smtp.school.edu:587", gotAddr)
	assert.Equal(t, []string{"jdc@school.edu"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: CRMS <noreply@school.edu>\r\nTo: jdc@school.edu\r\n"))
	assert.Contains(t, gotMsg, "Subject: Your CRMS account has been approved")
	assert.Contains(t, gotMsg, "Juan &lt;Admin&gt;")
	assert.Contains(t, gotMsg, "https://crms.school.edu/login")
}

func TestSendAccountApprovedEmailFailure(t *testing.T) {
	s := NewEmailService(SMTPConfig{Host: "h", Port: 25, Username: "u", Password: "p"}, zerolog.Nop())
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	err := s.SendAccountApprovedEmail("a@b.c", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}
