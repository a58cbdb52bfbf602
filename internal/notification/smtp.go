package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/config"
	"github.com/Ahmed-Emad-EL-Din/webwatcher/internal/models"
)

// SMTPProvider emails change notifications to the monitor's owner
type SMTPProvider struct {
	cfg config.SMTPConfig
}

// NewSMTPProvider creates an email notification provider
func NewSMTPProvider(cfg config.SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (s *SMTPProvider) Name() string {
	return "email"
}

func (s *SMTPProvider) Enabled(monitor *models.Monitor) bool {
	return monitor.EmailNotificationsEnabled
}

func (s *SMTPProvider) Send(ctx context.Context, monitor *models.Monitor, summary string) error {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return fmt.Errorf("missing required SMTP configuration")
	}

	subject := fmt.Sprintf("🚨 Change Detected: %s", monitor.URL)
	body := fmt.Sprintf(
		"Web Watcher has detected significant changes on the page: %s\n\nSummary:\n%s\n\nCheck your dashboard for details.",
		monitor.URL, summary,
	)

	msg := fmt.Sprintf("From: \"Web Watcher Service\" <%s>\r\n", s.cfg.From)
	msg += fmt.Sprintf("To: %s\r\n", monitor.UserEmail)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/plain; charset=UTF-8\r\n"
	msg += "\r\n"
	msg += body

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{monitor.UserEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
