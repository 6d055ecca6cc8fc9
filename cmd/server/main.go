// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/designo-group/secret-santa/pkg/api"
	"github.com/designo-group/secret-santa/pkg/cli"
	"github.com/designo-group/secret-santa/pkg/config"
	"github.com/designo-group/secret-santa/pkg/mail"
	"github.com/designo-group/secret-santa/pkg/messaging"
	"github.com/designo-group/secret-santa/pkg/system"
	"github.com/designo-group/secret-santa/pkg/version"
)

func main() {
	flags := cli.Parse()

	if err := config.LoadDotEnv(flags.EnvFile); err != nil {
		stdlog.Fatalf("Error loading env file: %v", err)
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		stdlog.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	flags.Apply(&cfg)

	zl, err := system.NewLogger(cfg.Debug)
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	log.Infow("Starting secret-santa server", version.GetBuildInfo().LogFields()...)
	flags.Print(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := mail.NewTransport(ctx, cfg.Mail, log)
	if err != nil {
		log.Fatalf("Error creating mail transport: %v", err)
	}
	smtp := cfg.Mail.SMTP
	dispatcher := mail.NewDispatcher(
		mail.NewTemplateStore(os.DirFS(cfg.Paths.Templates)),
		transport,
		mail.DispatcherConfig{
			FromAddress: smtp.FromAddress,
			FromName:    smtp.FromName,
			Timeout:     smtp.Timeout,
		},
		log,
	)

	server, err := api.NewServer(zl, cfg, cfg.Debug)
	if err != nil {
		log.Fatalf("Error creating HTTP server: %v", err)
	}

	messagingController := messaging.NewController(dispatcher, log)
	defer messagingController.Stop()

	if err := server.RegisterAll([]api.APIController{messagingController}); err != nil {
		log.Fatalf("Error registering controllers: %v", err)
	}

	if err := server.Run(ctx); err != nil {
		log.Errorw("HTTP server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Infow("Stopped")
}
