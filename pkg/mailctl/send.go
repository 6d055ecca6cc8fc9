// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mailctl

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/designo-group/secret-santa/pkg/mail"
)

func NewSendCommand() *cobra.Command {
	var (
		templateName string
		to           []string
		subject      string
		set          []string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Render a template and send it",
		Example: `  mailctl send --template messaging-code --to ada@designø.com --subject "Your code" --set code=123456
  mailctl send --template secret-santa --to ada@example.com --set giver=Ada --set receiver=Grace --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if templateName == "" {
				return errors.New("--template is required")
			}
			t, err := mail.ParseTemplate(templateName)
			if err != nil {
				return err
			}
			subs, err := parseSubstitutions(set)
			if err != nil {
				return err
			}

			log := rt.Log()
			var transport mail.Transport
			opts := []mail.Option{}
			recorder := &mail.RecorderSink{}
			if dryRun {
				opts = append(opts, mail.WithSink(recorder))
			} else {
				transport, err = mail.NewTransport(cmd.Context(), rt.cfg.Mail, log)
				if err != nil {
					return err
				}
			}

			smtp := rt.cfg.Mail.SMTP
			dispatcher := mail.NewDispatcher(
				mail.NewTemplateStore(os.DirFS(rt.cfg.Paths.Templates)),
				transport,
				mail.DispatcherConfig{FromAddress: smtp.FromAddress, FromName: smtp.FromName, Timeout: smtp.Timeout},
				log,
				opts...,
			)

			status, err := dispatcher.SendMail(cmd.Context(), mail.Request{
				Template:      t,
				Recipients:    to,
				Subject:       subject,
				Substitutions: subs,
			})
			if err != nil {
				return err
			}

			w := rt.Writer()
			for _, msg := range recorder.Messages() {
				_, _ = fmt.Fprintf(w, "From: %s\nTo: %s\nSubject: %s\n\n%s\n", msg.From(), msg.ToHeader(), msg.Subject, msg.HTML)
			}
			_, err = fmt.Fprintf(w, "%s: %s to %d recipient(s)\n", status, t, len(to))
			return err
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name, see `mailctl templates`")
	cmd.Flags().StringSliceVar(&to, "to", nil, "Recipient address (repeatable or comma separated)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Mail subject")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Substitution as key=value (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render and print the mail instead of sending it")
	return cmd
}
