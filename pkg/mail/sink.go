// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sink receives rendered messages that were not delivered because no
// transport is configured.
type Sink interface {
	Record(ctx context.Context, msg *Message)
}

// LogSink writes skipped messages to the log. The HTML body is only logged
// at debug level.
type LogSink struct {
	log *zap.SugaredLogger
}

func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, msg *Message) {
	s.log.Infow("SMTP is not configured, mail recorded instead of sent",
		"id", msg.ID,
		"from", msg.From(),
		"to", msg.ToHeader(),
		"subject", msg.Subject)
	s.log.Debugw("Recorded mail body", "id", msg.ID, "html", msg.HTML)
}

// RecorderSink keeps skipped messages in memory.
type RecorderSink struct {
	mu       sync.Mutex
	messages []*Message
}

func (s *RecorderSink) Record(_ context.Context, msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of everything recorded so far.
func (s *RecorderSink) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of recorded messages.
func (s *RecorderSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
