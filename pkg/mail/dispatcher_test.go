// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/designo-group/secret-santa/pkg/metrics"
)

type fakeTransport struct {
	mu       sync.Mutex
	calls    atomic.Int32
	err      error
	messages []*Message
	deadline time.Time
	hasDL    bool
	block    bool
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(ctx context.Context, msg *Message) error {
	f.calls.Add(1)
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.deadline, f.hasDL = ctx.Deadline()
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func testTemplates() *TemplateStore {
	return NewTemplateStore(fstest.MapFS{
		"code.liquid":  {Data: []byte("<p>Your code is {{ code }}</p>")},
		"email.liquid": {Data: []byte("<p>Hi {{ giver | escape }}, you give to {{ receiver | escape }}</p>")},
	})
}

func newTestDispatcher(t *testing.T, transport Transport, opts ...Option) *Dispatcher {
	t.Helper()
	cfg := DispatcherConfig{FromAddress: "santa@designø.com", FromName: "Secret Santa"}
	return NewDispatcher(testTemplates(), transport, cfg, zaptest.NewLogger(t).Sugar(), opts...)
}

func TestDispatcher_Unconfigured(t *testing.T) {
	sink := &RecorderSink{}
	d := NewDispatcher(testTemplates(), nil, DispatcherConfig{}, zaptest.NewLogger(t).Sugar(), WithSink(sink))
	assert.False(t, d.Enabled())

	before := testutil.ToFloat64(metrics.MailSkipped.WithLabelValues(MessagingCode.String()))

	status, err := d.SendMail(context.Background(), Request{
		Template:      MessagingCode,
		Recipients:    []string{"ada@münchen.de"},
		Subject:       "Code",
		Substitutions: map[string]any{"code": "123456"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, status)

	require.Equal(t, 1, sink.Len())
	msg := sink.Messages()[0]
	assert.Equal(t, []string{"ada@xn--mnchen-3ya.de"}, msg.To)
	assert.Equal(t, DefaultFromAddress, msg.FromAddress)
	assert.Equal(t, "<p>Your code is 123456</p>", msg.HTML)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSkipped.WithLabelValues(MessagingCode.String())))
}

func TestDispatcher_UnconfiguredStillValidates(t *testing.T) {
	sink := &RecorderSink{}
	d := NewDispatcher(testTemplates(), nil, DispatcherConfig{}, zaptest.NewLogger(t).Sugar(), WithSink(sink))

	_, err := d.SendMail(context.Background(), Request{Template: EmailForSS, Recipients: []string{"a@b.com"}})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = d.SendMail(context.Background(), Request{Template: MessagingCode, Recipients: []string{"nope"}})
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Zero(t, sink.Len())
}

func TestDispatcher_Sent(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)
	assert.True(t, d.Enabled())

	before := testutil.ToFloat64(metrics.MailSent.WithLabelValues("fake"))

	status, err := d.SendMail(context.Background(), Request{
		Template:      SecretSanta,
		Recipients:    []string{"ada@example.com", "grace@designø.com"},
		Subject:       "Your match",
		Substitutions: map[string]any{"giver": "Ada", "receiver": "<Grace>"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, status)
	require.EqualValues(t, 1, transport.calls.Load())

	msg := transport.messages[0]
	assert.Equal(t, []string{"ada@example.com", "grace@xn--design-gya.com"}, msg.To)
	assert.Equal(t, "santa@xn--design-gya.com", msg.FromAddress)
	assert.Equal(t, "Secret Santa", msg.FromName)
	assert.Equal(t, "Your match", msg.Subject)
	assert.Equal(t, "<p>Hi Ada, you give to &lt;Grace&gt;</p>", msg.HTML)
	assert.Regexp(t, `^<[0-9a-f-]{36}@xn--design-gya\.com>$`, msg.ID)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSent.WithLabelValues("fake")))
}

func TestDispatcher_ValidationFailsBeforeIO(t *testing.T) {
	tests := []struct {
		name       string
		recipients []string
		template   Template
		expected   error
	}{
		{name: "no recipients", recipients: nil, template: MessagingCode, expected: ErrInvalidRecipient},
		{name: "missing at sign", recipients: []string{"ada.example.com"}, template: MessagingCode, expected: ErrInvalidFormat},
		{name: "two at signs", recipients: []string{"a@b@c.com"}, template: MessagingCode, expected: ErrInvalidFormat},
		{name: "non-ascii local part", recipients: []string{"ok@example.com", "désigné@example.com"}, template: MessagingCode, expected: ErrInvalidRecipient},
		{name: "template not found", recipients: []string{"ada@example.com"}, template: EmailForTarget, expected: ErrTemplateNotFound},
		{name: "unknown template", recipients: []string{"ada@example.com"}, template: Template("nope"), expected: ErrTemplateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &fakeTransport{}
			d := newTestDispatcher(t, transport)

			status, err := d.SendMail(context.Background(), Request{Template: tt.template, Recipients: tt.recipients})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			assert.Empty(t, status)
			assert.Zero(t, transport.calls.Load(), "transport must not be called")
		})
	}
}

func TestDispatcher_DeliveryFailed(t *testing.T) {
	cause := errors.New("421 service not available")
	transport := &fakeTransport{err: cause}
	d := newTestDispatcher(t, transport)

	before := testutil.ToFloat64(metrics.MailFailed.WithLabelValues("fake", CodeDeliveryFailed))

	_, err := d.SendMail(context.Background(), Request{
		Template:   MessagingCode,
		Recipients: []string{"ada@example.com"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
	assert.EqualValues(t, 1, transport.calls.Load(), "failed deliveries are not retried")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailFailed.WithLabelValues("fake", CodeDeliveryFailed)))
}

func TestDispatcher_Timeout(t *testing.T) {
	transport := &fakeTransport{block: true}
	cfg := DispatcherConfig{Timeout: 50 * time.Millisecond}
	d := NewDispatcher(testTemplates(), transport, cfg, zaptest.NewLogger(t).Sugar())

	start := time.Now()
	_, err := d.SendMail(context.Background(), Request{Template: MessagingCode, Recipients: []string{"ada@example.com"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, transport.hasDL, "transport must see the deadline")
}

func TestDispatcher_CancelledContext(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.SendMail(ctx, Request{Template: MessagingCode, Recipients: []string{"ada@example.com"}})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, transport.calls.Load())
}

func TestDispatcher_Concurrent(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.SendMail(context.Background(), Request{
				Template:      MessagingCode,
				Recipients:    []string{"ada@example.com"},
				Substitutions: map[string]any{"code": "000000"},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 20, transport.calls.Load())
}

func TestDispatcher_SMTPEndToEnd(t *testing.T) {
	server := startTestSMTPServer(t, false)
	transport := NewSMTPTransport(testSMTPConfig(server), zaptest.NewLogger(t).Sugar())
	d := newTestDispatcher(t, transport)

	status, err := d.SendMail(context.Background(), Request{
		Template:      MessagingCode,
		Recipients:    []string{"ada@designø.com"},
		Subject:       "Your code",
		Substitutions: map[string]any{"code": "424242"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, status)

	sessions, mailFrom, rcptTo, data := server.snapshot()
	assert.Equal(t, 1, sessions)
	require.Len(t, mailFrom, 1)
	assert.Contains(t, mailFrom[0], "<santa@xn--design-gya.com>")
	require.Len(t, rcptTo, 1)
	assert.Contains(t, rcptTo[0], "<ada@xn--design-gya.com>")
	require.Len(t, data, 1)
	assert.Contains(t, data[0], "Your code is 424242")
}

func TestDispatcher_SMTPRejected(t *testing.T) {
	server := startTestSMTPServer(t, true)
	transport := NewSMTPTransport(testSMTPConfig(server), zaptest.NewLogger(t).Sugar())
	d := newTestDispatcher(t, transport)

	_, err := d.SendMail(context.Background(), Request{Template: MessagingCode, Recipients: []string{"ada@example.com"}})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}
