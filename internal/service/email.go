package service

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

type EmailService interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPConfig struct {
	Host, Port, From string
	// Timeout bounds one whole send when ctx carries no deadline.
	Timeout time.Duration
}

type smtpEmail struct{ cfg SMTPConfig }

type noopEmail struct{}

// NewEmailService returns a mailer that drops messages when no SMTP host is
// configured.
func NewEmailService(cfg SMTPConfig) EmailService {
	if cfg.Host == "" {
		return noopEmail{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &smtpEmail{cfg: cfg}
}

func (noopEmail) Send(context.Context, string, string, string) error { return nil }

func (s *smtpEmail) Send(ctx context.Context, to, subject, body string) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if err := s.send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (s *smtpEmail) send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	// the deadline covers the greeting and every later exchange
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	msg := "From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	// no auth: local relay / MailHog
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
