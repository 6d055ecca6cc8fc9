// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package mail renders named Liquid templates and delivers them over SMTP or
// AWS SES. When no transport is configured, rendered mail goes to a Sink.
package mail
