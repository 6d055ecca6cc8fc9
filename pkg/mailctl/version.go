// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mailctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/designo-group/secret-santa/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show mailctl version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			writer := cmd.OutOrStdout()
			if rt, _ := getRuntime(cmd); rt != nil {
				writer = rt.Writer()
			}

			format, err := parseFormat(outputFormat)
			if err != nil {
				return err
			}
			if format == FormatTable {
				_, err := fmt.Fprintln(writer, info.String())
				return err
			}
			return writeObject(writer, format, info)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, yaml")
	return cmd
}
