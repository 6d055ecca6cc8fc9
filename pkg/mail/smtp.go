// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/designo-group/secret-santa/pkg/config"
)

// ErrStartTLSUnavailable is returned when RequireTLS is set and the server
// does not offer STARTTLS.
var ErrStartTLSUnavailable = errors.New("smtp server does not support STARTTLS")

// SMTPTransport composes messages with gomail and delivers them over one SMTP
// session per message.
type SMTPTransport struct {
	cfg    config.SMTP
	log    *zap.SugaredLogger
	dialer net.Dialer
}

func NewSMTPTransport(cfg config.SMTP, log *zap.SugaredLogger) *SMTPTransport {
	if cfg.Port == 0 {
		cfg.Port = config.DefaultSMTPPort
	}
	log = log.Named("smtp")
	log.Infow("Initializing SMTP transport",
		"host", cfg.Host,
		"port", cfg.Port,
		"user", cfg.Username,
		"implicitTLS", cfg.Secure(),
		"ignoreTLS", cfg.IgnoreTLS,
		"requireTLS", cfg.RequireTLS)
	if !cfg.TLSRejectUnauthorized {
		log.Warnw("TLS certificate verification is disabled for the SMTP connection")
	}
	return &SMTPTransport{cfg: cfg, log: log}
}

func (t *SMTPTransport) Name() string {
	return config.TransportSMTP
}

// Host returns the configured relay host.
func (t *SMTPTransport) Host() string {
	return t.cfg.Host
}

// Port returns the configured relay port.
func (t *SMTPTransport) Port() int {
	return t.cfg.Port
}

func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	session, err := t.dial(ctx)
	if err != nil {
		return err
	}

	if err := gomail.Send(session, compose(msg)); err != nil {
		session.abort()
		return err
	}
	if err := session.Close(); err != nil {
		// the server already accepted the message at this point
		t.log.Debugw("SMTP QUIT failed after delivery", "id", msg.ID, "error", err)
	}
	return nil
}

func compose(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.ID != "" {
		m.SetHeader("Message-ID", msg.ID)
	}
	m.SetBody("text/html", msg.HTML)
	return m
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         t.cfg.Host,
		InsecureSkipVerify: !t.cfg.TLSRejectUnauthorized, //nolint:gosec // operator opt-in via SMTP_TLS_REJECT_UNAUTHORIZED
		MinVersion:         tls.VersionTLS12,
	}
}

func (t *SMTPTransport) dial(ctx context.Context) (*smtpSession, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// unblock any pending read or write once ctx is done
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})

	if t.cfg.Secure() {
		conn = tls.Client(conn, t.tlsConfig())
	}

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		stop()
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake with %s: %w", addr, err)
	}
	session := &smtpSession{client: c, stop: stop, log: t.log, debug: t.cfg.Debug}

	if !t.cfg.Secure() && !t.cfg.IgnoreTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(t.tlsConfig()); err != nil {
				session.abort()
				return nil, fmt.Errorf("STARTTLS with %s: %w", addr, err)
			}
			session.debugf("STARTTLS negotiated")
		} else if t.cfg.RequireTLS {
			session.abort()
			return nil, fmt.Errorf("%s: %w", addr, ErrStartTLSUnavailable)
		}
	}

	if t.cfg.HasAuth() {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
				session.abort()
				return nil, fmt.Errorf("smtp auth as %s: %w", t.cfg.Username, err)
			}
			session.debugf("authenticated")
		} else {
			t.log.Warnw("SMTP server does not advertise AUTH, sending without credentials", "host", t.cfg.Host)
		}
	}

	return session, nil
}

// smtpSession implements gomail.SendCloser on top of a net/smtp client.
type smtpSession struct {
	client *smtp.Client
	stop   func() bool
	log    *zap.SugaredLogger
	debug  bool
}

func (s *smtpSession) Send(from string, to []string, msg io.WriterTo) error {
	if err := s.client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM %s: %w", from, err)
	}
	for _, addr := range to {
		if err := s.client.Rcpt(addr); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", addr, err)
		}
	}
	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	s.debugf("message accepted for %d recipients", len(to))
	return nil
}

func (s *smtpSession) Close() error {
	defer s.stop()
	if err := s.client.Quit(); err != nil {
		_ = s.client.Close()
		return err
	}
	return nil
}

func (s *smtpSession) abort() {
	s.stop()
	_ = s.client.Close()
}

func (s *smtpSession) debugf(format string, args ...any) {
	if s.debug {
		s.log.Debugf(format, args...)
	}
}
