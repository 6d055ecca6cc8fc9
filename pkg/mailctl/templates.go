// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mailctl

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/designo-group/secret-santa/pkg/mail"
)

type templateInfo struct {
	Name    string `json:"name" yaml:"name"`
	File    string `json:"file" yaml:"file"`
	Present bool   `json:"present" yaml:"present"`
}

func NewTemplatesCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the mail templates and whether they exist on disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := parseFormat(outputFormat)
			if err != nil {
				return err
			}

			root := os.DirFS(rt.cfg.Paths.Templates)
			var infos []templateInfo
			for _, t := range mail.Templates() {
				_, statErr := fs.Stat(root, t.File())
				infos = append(infos, templateInfo{Name: t.String(), File: t.File(), Present: statErr == nil})
			}

			if format != FormatTable {
				return writeObject(rt.Writer(), format, infos)
			}
			tw := tabwriter.NewWriter(rt.Writer(), 2, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tFILE\tPRESENT")
			for _, i := range infos {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\n", i.Name, i.File, i.Present)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: table, json, yaml")

	cmd.AddCommand(newTemplatesRenderCommand())
	return cmd
}

func newTemplatesRenderCommand() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a template to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			t, err := mail.ParseTemplate(args[0])
			if err != nil {
				return err
			}
			subs, err := parseSubstitutions(set)
			if err != nil {
				return err
			}
			out, err := mail.NewTemplateStore(os.DirFS(rt.cfg.Paths.Templates)).Render(t, subs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(rt.Writer(), out)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "Substitution as key=value (repeatable)")
	return cmd
}

func parseSubstitutions(pairs []string) (map[string]any, error) {
	subs := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid substitution %q, expected key=value", p)
		}
		subs[k] = v
	}
	return subs, nil
}
