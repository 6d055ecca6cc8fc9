// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/config"
)

type Config struct {
	Debug bool

	// ConfigPath is an optional YAML file; environment variables override it.
	ConfigPath string
	// EnvFile is loaded into the environment before configuration is read.
	EnvFile string

	TemplatesDir  string
	ViewsDir      string
	EnableMetrics bool
}

// Parse reads the process flags.
func Parse() *Config {
	config, err := ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		// flag.ExitOnError has already reported the problem
		os.Exit(2)
	}
	return config
}

// ParseArgs defines the server flags on fs and parses args. Every flag falls
// back to an environment variable.
func ParseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	config := &Config{}
	fs.BoolVar(&config.Debug, "debug", getEnvBool("DEBUG", false), "Enable debug level logging")
	fs.StringVar(&config.ConfigPath, "config-path", getEnvString("SECRET_SANTA_CONFIG_PATH", ""),
		"Path to an optional YAML configuration file")
	fs.StringVar(&config.EnvFile, "env-file", getEnvString("SECRET_SANTA_ENV_FILE", ".env"),
		"Path to a .env file; missing files are ignored")
	fs.StringVar(&config.TemplatesDir, "templates-dir", getEnvString("TEMPLATES_DIR", ""),
		"Directory with the mail templates (overrides the configuration file)")
	fs.StringVar(&config.ViewsDir, "views-dir", getEnvString("VIEWS_DIR", ""),
		"Directory with the HTML views (overrides the configuration file)")
	fs.BoolVar(&config.EnableMetrics, "enable-metrics", getEnvBool("ENABLE_METRICS", false),
		"Expose Prometheus metrics on /metrics")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config, nil
}

// Apply copies flag values that override the loaded configuration.
func (c *Config) Apply(cfg *config.Config) {
	if c.Debug {
		cfg.Debug = true
	}
	if c.TemplatesDir != "" {
		cfg.Paths.Templates = c.TemplatesDir
	}
	if c.ViewsDir != "" {
		cfg.Paths.Views = c.ViewsDir
	}
	if c.EnableMetrics {
		cfg.Server.MetricsEnabled = true
	}
}

func (c *Config) Print(log *zap.SugaredLogger) {
	log.Infow("CLI Configuration",
		"debug", c.Debug,
		"config_path", c.ConfigPath,
		"env_file", c.EnvFile,
		"templates_dir", c.TemplatesDir,
		"views_dir", c.ViewsDir,
		"enable_metrics", c.EnableMetrics,
	)
}

// getEnvString returns the value of an environment variable, or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}
