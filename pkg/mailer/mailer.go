// Package mailer delivers confirmation codes over SMTP. Delivery is
// best-effort: callers report failures to the client but never roll back
// the sign-up that triggered the mail.
package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Config holds SMTP connection details.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer sends plain-text mail through a single SMTP relay. When the
// config is incomplete the mailer runs disabled and logs instead of
// sending, which keeps local development working without a relay.
type Mailer struct {
	cfg     Config
	enabled bool
}

// New creates a Mailer. Missing config fields disable delivery.
func New(cfg Config) *Mailer {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.From != ""
	if !enabled {
		log.Println("Mailer disabled: incomplete SMTP configuration, codes will be logged only")
	}
	return &Mailer{
		cfg:     cfg,
		enabled: enabled,
	}
}

// SendConfirmationCode mails the one-time code to the address. Returns the
// delivery error so the caller can report it inline.
func (m *Mailer) SendConfirmationCode(to, username, code string) error {
	subject := "Your confirmation code"
	body := fmt.Sprintf(
		"Hello, %s.\r\n\r\nYour confirmation code: %s\r\n\r\n"+
			"Exchange it at POST /api/v1/auth/token for an access token.\r\n",
		username, code,
	)
	if !m.enabled {
		log.Printf("Mailer disabled, confirmation code for %s: %s", username, code)
		return nil
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s",
		to, m.cfg.From, subject, body,
	))
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send confirmation mail to %s: %w", to, err)
	}
	return nil
}
