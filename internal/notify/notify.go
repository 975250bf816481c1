// Package notify delivers email alerts when freshly ingested grants are
// relevant to stored SME profiles.
package notify

import (
	"fmt"
	"log/slog"
	"time"

	gomail "gopkg.in/mail.v2"
)

// EmailConfig holds SMTP settings. Disabled senders accept messages and
// drop them, so callers never need to branch on configuration.
type EmailConfig struct {
	Enabled   bool
	Server    string
	Port      int
	User      string
	Pass      string
	FromEmail string
}

// RenderedMessage is a ready-to-send email body pair.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers rendered messages over SMTP.
type EmailSender struct {
	cfg    EmailConfig
	logger *slog.Logger
}

// NewEmailSender creates a sender with the given SMTP configuration.
func NewEmailSender(cfg EmailConfig, logger *slog.Logger) *EmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailSender{cfg: cfg, logger: logger}
}

// Send delivers msg to one recipient. Returns nil without sending when the
// sender is disabled.
func (s *EmailSender) Send(to string, msg *RenderedMessage) error {
	if !s.cfg.Enabled {
		return nil
	}
	if to == "" {
		return fmt.Errorf("no recipient address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	dialer := gomail.NewDialer(s.cfg.Server, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	dialer.Timeout = 10 * time.Second

	if err := dialer.DialAndSend(m); err != nil {
		s.logger.Error("email send failed", "to", to, "subject", msg.Subject, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", "to", to, "subject", msg.Subject)
	return nil
}
