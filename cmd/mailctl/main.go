// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/designo-group/secret-santa/pkg/mailctl"
)

func main() {
	root := mailctl.NewRootCommand(mailctl.DefaultConfig())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
