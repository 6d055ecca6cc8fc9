// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package messaging implements the email verification endpoints: a one-time
// code is mailed to an address and later confirmed against the session.
package messaging
