// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/address"
	"github.com/designo-group/secret-santa/pkg/metrics"
)

// DefaultFromAddress is used when no sender address is configured.
const DefaultFromAddress = "noreply@localhost"

// Status is the outcome of a successful SendMail call.
type Status string

const (
	// StatusSent means a transport accepted the message.
	StatusSent Status = "sent"
	// StatusSkipped means no transport is configured and the message went to
	// the sink.
	StatusSkipped Status = "skipped"
)

// Request is a single templated mail.
type Request struct {
	Template      Template
	Recipients    []string
	Subject       string
	Substitutions map[string]any
}

type DispatcherConfig struct {
	FromAddress string
	FromName    string
	// Timeout bounds a whole SendMail call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Dispatcher renders templates and hands them to a transport. It holds no
// per-call state and is safe for concurrent use.
type Dispatcher struct {
	templates *TemplateStore
	transport Transport
	sink      Sink
	cfg       DispatcherConfig
	log       *zap.SugaredLogger
}

type Option func(*Dispatcher)

// WithSink replaces the default LogSink.
func WithSink(s Sink) Option {
	return func(d *Dispatcher) {
		d.sink = s
	}
}

// NewDispatcher returns a dispatcher. A nil transport means mail is rendered
// and recorded to the sink but never sent.
func NewDispatcher(templates *TemplateStore, transport Transport, cfg DispatcherConfig, log *zap.SugaredLogger, opts ...Option) *Dispatcher {
	log = log.Named("mail")
	if cfg.FromAddress == "" {
		cfg.FromAddress = DefaultFromAddress
	}
	if ascii, err := address.ToASCII(cfg.FromAddress); err == nil {
		cfg.FromAddress = ascii
	} else {
		log.Warnw("Sender address cannot be converted to ASCII, using it unchanged", "from", cfg.FromAddress, "error", err)
	}

	d := &Dispatcher{
		templates: templates,
		transport: transport,
		cfg:       cfg,
		log:       log,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sink == nil {
		d.sink = NewLogSink(log)
	}
	return d
}

// Enabled reports whether messages go over the network.
func (d *Dispatcher) Enabled() bool {
	return d.transport != nil
}

func (d *Dispatcher) transportName() string {
	if d.transport == nil {
		return "none"
	}
	return d.transport.Name()
}

// SendMail validates the recipients, renders req.Template and delivers it.
// Invalid recipients and missing templates fail before any network I/O.
// Delivery faults are returned as DELIVERY_FAILED and never retried.
func (d *Dispatcher) SendMail(ctx context.Context, req Request) (Status, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	status, err := d.send(ctx, req)
	if err != nil {
		metrics.MailFailed.WithLabelValues(d.transportName(), CodeOf(err)).Inc()
		d.log.Warnw("Mail not sent",
			"template", req.Template,
			"recipients", len(req.Recipients),
			"code", CodeOf(err),
			"error", err)
		return "", err
	}
	return status, nil
}

func (d *Dispatcher) send(ctx context.Context, req Request) (Status, error) {
	if len(req.Recipients) == 0 {
		return "", newError(CodeInvalidRecipient, "no recipients", nil)
	}
	recipients, err := address.ToASCIIAll(req.Recipients)
	if err != nil {
		return "", fromAddressError(err)
	}

	html, err := d.templates.Render(req.Template, req.Substitutions)
	if err != nil {
		return "", err
	}

	msg := &Message{
		ID:          d.messageID(),
		FromAddress: d.cfg.FromAddress,
		FromName:    d.cfg.FromName,
		To:          recipients,
		Subject:     req.Subject,
		HTML:        html,
	}

	if d.transport == nil {
		d.sink.Record(ctx, msg)
		metrics.MailSkipped.WithLabelValues(req.Template.String()).Inc()
		return StatusSkipped, nil
	}

	if err := ctx.Err(); err != nil {
		return "", newError(CodeDeliveryFailed, "mail not sent", err)
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		return "", newError(CodeDeliveryFailed, fmt.Sprintf("delivery via %s failed", d.transport.Name()), err)
	}

	metrics.MailSent.WithLabelValues(d.transport.Name()).Inc()
	d.log.Infow("Mail sent",
		"id", msg.ID,
		"transport", d.transport.Name(),
		"template", req.Template,
		"recipients", len(recipients),
		"subject", req.Subject)
	return StatusSent, nil
}

func (d *Dispatcher) messageID() string {
	domain := "localhost"
	if i := strings.LastIndexByte(d.cfg.FromAddress, '@'); i >= 0 && i < len(d.cfg.FromAddress)-1 {
		domain = d.cfg.FromAddress[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
