// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads the server configuration from an optional YAML file,
// a .env file and the process environment, in increasing precedence.
package config
