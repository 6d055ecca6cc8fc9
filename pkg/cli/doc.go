// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package cli defines the flags of the server binary. Each flag has an
// environment variable fallback.
package cli
