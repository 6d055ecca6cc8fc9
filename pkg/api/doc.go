// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package api implements the public HTTP server: security headers, the
// session cookie, views, static files, health and robots endpoints, the 404
// and 500 handlers, and the mount point for API controllers.
package api
