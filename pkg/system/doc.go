// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package system holds process-wide logging helpers shared by the HTTP server
// and the CLI.
package system
