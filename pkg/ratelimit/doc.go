// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package ratelimit provides keyed token-bucket limiters for the messaging
// endpoints: one keyed by client IP (as gin middleware) and one keyed by
// recipient address.
package ratelimit
