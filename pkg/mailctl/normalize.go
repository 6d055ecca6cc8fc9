// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mailctl

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/designo-group/secret-santa/pkg/address"
)

type normalizeResult struct {
	Input string `json:"input" yaml:"input"`
	ASCII string `json:"ascii,omitempty" yaml:"ascii,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrInvalidAddresses is returned when at least one argument was rejected.
var ErrInvalidAddresses = errors.New("some addresses are invalid")

func NewNormalizeCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "normalize EMAIL...",
		Short: "Convert email addresses to their ASCII (punycode) form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := parseFormat(outputFormat)
			if err != nil {
				return err
			}

			results := make([]normalizeResult, 0, len(args))
			failed := false
			for _, in := range args {
				res := normalizeResult{Input: in}
				if ascii, err := address.ToASCII(in); err != nil {
					res.Error = err.Error()
					failed = true
				} else {
					res.ASCII = ascii
				}
				results = append(results, res)
			}

			if format == FormatTable {
				tw := tabwriter.NewWriter(rt.Writer(), 2, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "INPUT\tASCII\tERROR")
				for _, r := range results {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Input, dash(r.ASCII), dash(r.Error))
				}
				_ = tw.Flush()
			} else if err := writeObject(rt.Writer(), format, results); err != nil {
				return err
			}

			if failed {
				return ErrInvalidAddresses
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: table, json, yaml")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
