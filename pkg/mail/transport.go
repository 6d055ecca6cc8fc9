// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/config"
)

// Well-known SMTP relays.
const (
	HostSendgrid   = "smtp.sendgrid.net"
	HostMailgun    = "smtp.mailgun.org"
	HostSocketLabs = "smtp.socketlabs.com"
	HostZohomail   = "smtp.zoho.com"
	HostGmail      = "smtp.gmail.com"
	HostOffice365  = "smtp.office365.com"
)

// Message is a rendered mail ready for delivery.
type Message struct {
	ID          string
	FromAddress string
	FromName    string
	To          []string
	Subject     string
	HTML        string
}

// From renders the sender as `"Name" <address>`.
func (m *Message) From() string {
	if m.FromName == "" {
		return m.FromAddress
	}
	return (&mail.Address{Name: m.FromName, Address: m.FromAddress}).String()
}

// ToHeader joins the recipients the way they appear in the To header.
func (m *Message) ToHeader() string {
	return strings.Join(m.To, ", ")
}

// Transport delivers a rendered message. Implementations must honour ctx
// cancellation and deadlines and must not retry.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// NewTransport builds the transport selected by cfg. It returns a nil
// Transport and no error when SMTP is selected but no host is configured.
func NewTransport(ctx context.Context, cfg config.Mail, log *zap.SugaredLogger) (Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case "", config.TransportSMTP:
		if !cfg.SMTP.Configured() {
			log.Infow("SMTP is not configured, mail will be recorded locally")
			return nil, nil
		}
		return NewSMTPTransport(cfg.SMTP, log), nil
	case config.TransportSES:
		return NewSESTransport(ctx, cfg.SES, log)
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}
