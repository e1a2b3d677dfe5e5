// Package mail delivers transactional email for the auth flows.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Config holds SMTP connection settings. An empty Host selects the log-only
// mailer, which is what local development runs with.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends OTP email through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTP creates an SMTPMailer from the given config.
func NewSMTP(cfg Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

// SendOTP emails a one-time code to the given address.
func (m *SMTPMailer) SendOTP(_ context.Context, email, code string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your Serene Leaf verification code\r\n\r\n"+
		"Your one-time code is %s. It expires in 10 minutes.\r\n", m.from, email, code)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(msg)); err != nil {
		return errors.Wrap(err, "send mail")
	}
	return nil
}

// LogMailer writes codes to the log instead of sending email.
type LogMailer struct{}

// SendOTP logs the code at info level.
func (LogMailer) SendOTP(ctx context.Context, email, code string) error {
	zctx.From(ctx).Info("OTP issued (log mailer)",
		zap.String("email", email), zap.String("code", code))
	return nil
}
