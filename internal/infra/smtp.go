package infra

import (
	"fmt"
	"net/smtp"

	"github.com/bildin8/postergram-juice-sub001/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends operational alert emails (variance reports, failed syncs).
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	to       string
}

// NewMailer returns nil when SMTP or the alert recipient is not configured.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.SMTPHost == "" || cfg.AlertEmail == "" {
		return nil
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		to:       cfg.AlertEmail,
	}
}

// SendAlert mails subject/body to the alert address, optionally attaching a file.
func (m *Mailer) SendAlert(subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{m.to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach file: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
