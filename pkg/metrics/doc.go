// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines Prometheus metrics for mail delivery, messaging
// codes and HTTP rate limiting.
package metrics
