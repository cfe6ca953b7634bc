package adapter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"petal-pearl/internal/core/config"
	"petal-pearl/internal/features/notifications/domain"
	"petal-pearl/internal/features/notifications/ports"

	"gopkg.in/gomail.v2"
)

// ErrSMTPNotConfigured is returned by Send when no SMTP host is set.
var ErrSMTPNotConfigured = errors.New("smtp host not configured")

const senderName = "Petal & Pearl"

var _ ports.Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers HTML email through an SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	send   func(msgs ...*gomail.Message) error
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Secure
	if cfg.Host != "" {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}
	return &SMTPMailer{
		cfg:    cfg,
		dialer: d,
		send:   d.DialAndSend,
	}
}

// Send builds the message and hands it to the relay.
// gomail dials without a context, so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg domain.Email) error {
	if m.cfg.Host == "" {
		return ErrSMTPNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.send(m.build(msg)); err != nil {
		return fmt.Errorf("smtp send %q: %w", msg.Subject, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg domain.Email) *gomail.Message {
	gm := gomail.NewMessage()
	if m.cfg.From != "" {
		gm.SetHeader("From", m.cfg.From)
	} else {
		gm.SetAddressHeader("From", m.cfg.User, senderName)
	}
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)
	return gm
}
