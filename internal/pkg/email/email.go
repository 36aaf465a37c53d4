package email

import (
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendAccountApprovedEmail(toEmail, toName string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	LoginURL  string // Shown in the approval email
}

// Configured reports whether mail can actually be sent
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	s := &EmailServiceImpl{
		config: config,
		logger: logger,
	}
	s.send = s.deliver
	return s
}

// SendAccountApprovedEmail tells a user that an administrator approved the account
func (s *EmailServiceImpl) SendAccountApprovedEmail(toEmail, toName string) error {
	if !s.config.Configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("toName", toName).
			Msg("SMTP not configured - account approval email not sent")
		return nil
	}

	subject := "Your CRMS account has been approved"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Account approved</h2>
				<p>Hello %s,</p>
				<p>An administrator approved your Class Record Management System account. You can now sign in:</p>
				<p><a href="%s">%s</a></p>
				<p>Best regards,<br>The CRMS Team</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(toName), s.config.LoginURL, html.EscapeString(s.config.LoginURL))

	return s.sendHTMLEmail(toEmail, subject, body)
}

// buildMessage renders headers and body in a stable order
func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if err := s.send(serverAddress, auth, s.config.FromEmail, []string{toEmail}, s.buildMessage(toEmail, subject, htmlBody)); err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}

// deliver uses implicit TLS when configured, otherwise smtp.SendMail (STARTTLS when offered)
func (s *EmailServiceImpl) deliver(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if !s.config.UseTLS {
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	return w.Close()
}
