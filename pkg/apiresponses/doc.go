// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package apiresponses holds the JSON response helpers shared by the server
// and its controllers.
package apiresponses
