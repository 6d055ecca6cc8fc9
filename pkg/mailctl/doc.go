// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

// Package mailctl implements the mailctl command line tool: address
// normalization, template inspection and one-off sends through the same
// dispatcher the server uses.
package mailctl
