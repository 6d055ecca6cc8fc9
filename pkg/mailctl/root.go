// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package mailctl

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/config"
	"github.com/designo-group/secret-santa/pkg/system"
)

type Config struct {
	OutputWriter io.Writer
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv config.LookupFunc
	// Logger replaces the logger built from --debug.
	Logger *zap.Logger
}

type runtimeState struct {
	configPath   string
	envFile      string
	templatesDir string
	debug        bool

	lookup config.LookupFunc
	cfg    config.Config
	logger *zap.Logger
	writer io.Writer
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		LookupEnv:    os.LookupEnv,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{writer: cfg.OutputWriter, lookup: cfg.LookupEnv, logger: cfg.Logger}

	root := &cobra.Command{
		Use:           "mailctl",
		Short:         "Secret Santa mail tool",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = cmd.OutOrStdout()
			}
			if rt.lookup == nil {
				rt.lookup = os.LookupEnv
			}
			if cmd.Name() == "version" || cmd.Name() == "normalize" {
				return nil
			}
			return rt.load()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "Path to an optional YAML configuration file")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "Path to a .env file; missing files are ignored")
	root.PersistentFlags().StringVar(&rt.templatesDir, "templates-dir", "", "Mail template directory override")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewNormalizeCommand(),
		NewTemplatesCommand(),
		NewSendCommand(),
		NewVersionCommand(),
	)
	return root
}

func (rt *runtimeState) load() error {
	if err := config.LoadDotEnv(rt.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(rt.lookup); err != nil {
		return err
	}
	if rt.templatesDir != "" {
		cfg.Paths.Templates = rt.templatesDir
	}
	if rt.debug {
		cfg.Debug = true
	}
	rt.cfg = cfg

	if rt.logger == nil {
		logger, err := system.NewLogger(cfg.Debug)
		if err != nil {
			return err
		}
		rt.logger = logger
	}
	return nil
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Log() *zap.SugaredLogger {
	if rt.logger == nil {
		return zap.NewNop().Sugar()
	}
	return rt.logger.Sugar()
}
