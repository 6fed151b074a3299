package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"
)

type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
	Timeout            time.Duration
}

type SMTPNotifier struct {
	config SMTPConfig
	dialer *mail.Dialer
}

func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	d := mail.NewDialer(config.Host, config.Port, config.User, config.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         config.Host,
		InsecureSkipVerify: config.InsecureSkipVerify,
	}
	switch config.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	}
	if config.Timeout > 0 {
		d.Timeout = config.Timeout
	}
	return &SMTPNotifier{config: config, dialer: d}
}

func (n *SMTPNotifier) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", n.config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	// go-mail has no context support; the dial runs in the background and the
	// caller stops waiting when ctx ends.
	done := make(chan error, 1)
	go func() {
		done <- n.dialer.DialAndSend(m)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
