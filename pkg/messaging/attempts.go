// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"sync"
	"time"
)

type attemptEntry struct {
	failures int
	expires  time.Time
}

// attemptTracker keeps the wrong-guess count of every issued code on the
// server, keyed by the nonce stored next to the code in the session. A nonce
// the tracker does not know is never accepted, so replaying an older cookie
// cannot reset the count or reuse a consumed code.
type attemptTracker struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
	max     int
}

func newAttemptTracker(limit int) *attemptTracker {
	return &attemptTracker{
		entries: make(map[string]*attemptEntry),
		max:     limit,
	}
}

// issue registers a fresh nonce and drops entries that expired before now.
func (t *attemptTracker) issue(nonce string, now, expires time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, e := range t.entries {
		if now.After(e.expires) {
			delete(t.entries, key)
		}
	}
	t.entries[nonce] = &attemptEntry{expires: expires}
}

// guess records one verification attempt. A match or the last allowed
// failure removes the nonce.
func (t *attemptTracker) guess(nonce string, match bool, now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[nonce]
	if !ok {
		return resultMissing
	}
	if now.After(e.expires) {
		delete(t.entries, nonce)
		return resultExpired
	}
	if match {
		delete(t.entries, nonce)
		return resultOK
	}
	e.failures++
	if e.failures >= t.max {
		delete(t.entries, nonce)
		return resultLocked
	}
	return resultMismatch
}

func (t *attemptTracker) forget(nonce string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, nonce)
}

// Len returns the number of outstanding codes.
func (t *attemptTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
