package providers

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sony/gobreaker"

	"salon-notification-service/internal/config"
)

// Email sends notifications over SMTP.
type Email struct {
	cfg     config.EmailConfig
	breaker *gobreaker.CircuitBreaker
}

func NewEmail(cfg config.EmailConfig) *Email {
	return &Email{cfg: cfg, breaker: newBreaker("email")}
}

// SendEmail delivers one message. The body is expected to be pre-rendered
// HTML or plain text.
func (e *Email) SendEmail(ctx context.Context, to, subject, body string) error {
	if !strings.Contains(to, "@") {
		return fmt.Errorf("invalid email address: %s", to)
	}
	if e.cfg.SMTPServer == "" || e.cfg.SMTPPort == 0 || e.cfg.Username == "" || e.cfg.Password == "" {
		return fmt.Errorf("missing email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}

	from := e.cfg.Username
	if e.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", e.cfg.FromName, e.cfg.Username)
	}
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		from, to, subject, body,
	))

	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPServer)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPServer, e.cfg.SMTPPort)

	_, err := e.breaker.Execute(func() (interface{}, error) {
		return nil, smtp.SendMail(addr, auth, e.cfg.Username, []string{to}, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
