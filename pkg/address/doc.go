// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package address converts internationalized email addresses to an
// ASCII-compatible form that SMTP relays accept.
package address
