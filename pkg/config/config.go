// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultSMTPPort is used when SMTP_PORT is unset.
	DefaultSMTPPort = 587
	// ImplicitTLSPort is the SMTPS port on which TLS starts before the greeting.
	ImplicitTLSPort = 465
	// DefaultSMTPTimeout bounds a single send when nothing else is configured.
	DefaultSMTPTimeout = 30 * time.Second

	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

type Server struct {
	ListenAddress string `yaml:"listenAddress"`
	// TrustedProxies lists IPs/CIDRs whose X-Forwarded-* headers are honoured.
	TrustedProxies []string `yaml:"trustedProxies"`
	// EnableHTTPS redirects plain HTTP requests to https.
	EnableHTTPS bool `yaml:"enableHTTPS"`
	// Hostname is the public host name; views receive https://<Hostname> as origin.
	Hostname       string `yaml:"hostname"`
	MetricsEnabled bool   `yaml:"metricsEnabled"`
}

type Session struct {
	Name   string        `yaml:"name"`
	Secret string        `yaml:"secret"`
	MaxAge time.Duration `yaml:"maxAge"`
}

type Paths struct {
	Views     string `yaml:"views"`
	Static    string `yaml:"static"`
	Images    string `yaml:"images"`
	Templates string `yaml:"templates"`
}

// SMTP is the SMTP transport configuration. An empty Host means mail is not
// delivered and only recorded locally.
type SMTP struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	FromName    string `yaml:"fromName"`
	FromAddress string `yaml:"fromAddress"`
	// IgnoreTLS disables STARTTLS even when the server offers it.
	IgnoreTLS bool `yaml:"ignoreTLS"`
	// RequireTLS fails the send when the server does not offer STARTTLS.
	RequireTLS            bool          `yaml:"requireTLS"`
	TLSRejectUnauthorized bool          `yaml:"tlsRejectUnauthorized"`
	Timeout               time.Duration `yaml:"timeout"`
	Debug                 bool          `yaml:"debug"`
}

// Configured reports whether mail should go over the network.
func (s SMTP) Configured() bool {
	return s.Host != ""
}

// Secure reports whether the connection uses implicit TLS.
func (s SMTP) Secure() bool {
	return s.Port == ImplicitTLSPort
}

// HasAuth reports whether both credentials are present.
func (s SMTP) HasAuth() bool {
	return s.Username != "" && s.Password != ""
}

type SES struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

type Mail struct {
	// Transport selects the delivery backend: "smtp" (default) or "ses".
	Transport string `yaml:"transport"`
	SMTP      SMTP   `yaml:"smtp"`
	SES       SES    `yaml:"ses"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Session Session `yaml:"session"`
	Paths   Paths   `yaml:"paths"`
	Mail    Mail    `yaml:"mail"`
	Debug   bool    `yaml:"debug"`
}

// Default returns the configuration used when neither file nor environment
// say otherwise.
func Default() Config {
	return Config{
		Server: Server{
			ListenAddress: "0.0.0.0:8080",
		},
		Session: Session{
			Name:   "myacinfo",
			Secret: "secret",
			MaxAge: 24 * time.Hour,
		},
		Paths: Paths{
			Views:     "./src/views",
			Static:    "./dist",
			Images:    "./images",
			Templates: "./templates",
		},
		Mail: Mail{
			Transport: TransportSMTP,
			SMTP: SMTP{
				Port:                  DefaultSMTPPort,
				TLSRejectUnauthorized: true,
				Timeout:               DefaultSMTPTimeout,
			},
		},
	}
}

// Load reads the YAML file at path on top of Default. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}
	return config, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables on c. Unset variables leave the
// current value alone.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := envReader{lookup: lookup}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.ListenAddress = "0.0.0.0:" + port
	}
	env.boolVar(&c.Server.EnableHTTPS, "ENABLE_HTTPS")
	env.stringVar(&c.Server.Hostname, "HOSTNAME")
	env.stringVar(&c.Session.Secret, "SESSION_SECRET")
	env.boolVar(&c.Debug, "DEBUG")

	env.stringVar(&c.Mail.Transport, "MAIL_TRANSPORT")
	s := &c.Mail.SMTP
	env.stringVar(&s.Host, "SMTP_HOST")
	env.intVar(&s.Port, "SMTP_PORT")
	env.stringVar(&s.Username, "SMTP_USERNAME")
	env.stringVar(&s.Password, "SMTP_PASSWORD")
	env.stringVar(&s.FromName, "SMTP_FROM_NAME")
	env.stringVar(&s.FromAddress, "SMTP_FROM_ADDRESS")
	env.boolVar(&s.IgnoreTLS, "SMTP_IGNORE_TLS")
	env.boolVar(&s.RequireTLS, "SMTP_REQUIRE_TLS")
	env.boolVar(&s.TLSRejectUnauthorized, "SMTP_TLS_REJECT_UNAUTHORIZED")
	env.durationVar(&s.Timeout, "SMTP_TIMEOUT")
	env.boolVar(&s.Debug, "DEBUG")

	env.stringVar(&c.Mail.SES.Region, "SES_REGION")
	if c.Mail.SES.Region == "" {
		env.stringVar(&c.Mail.SES.Region, "AWS_REGION")
	}
	env.stringVar(&c.Mail.SES.AccessKeyID, "SES_ACCESS_KEY_ID")
	env.stringVar(&c.Mail.SES.SecretAccessKey, "SES_SECRET_ACCESS_KEY")

	if err := env.err(); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks values that would otherwise fail late at send time.
func (c Config) Validate() error {
	switch strings.ToLower(c.Mail.Transport) {
	case "", TransportSMTP:
	case TransportSES:
		if c.Mail.SES.Region == "" {
			return fmt.Errorf("mail transport %q requires a region (SES_REGION or AWS_REGION)", TransportSES)
		}
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	if c.Mail.SMTP.Port < 0 || c.Mail.SMTP.Port > 65535 {
		return fmt.Errorf("invalid SMTP port %d", c.Mail.SMTP.Port)
	}
	if c.Mail.SMTP.IgnoreTLS && c.Mail.SMTP.RequireTLS {
		return errors.New("SMTP_IGNORE_TLS and SMTP_REQUIRE_TLS are mutually exclusive")
	}
	return nil
}

// Origin is the public https origin derived from the hostname.
func (c Config) Origin() string {
	if c.Server.Hostname == "" {
		return ""
	}
	return "https://" + c.Server.Hostname
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (r *envReader) stringVar(dst *string, key string) {
	if v, ok := r.lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) intVar(dst *int, key string) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return
	}
	*dst = i
}

// boolVar accepts true/1/yes and false/0/no, case-insensitive. Empty values
// are ignored.
func (r *envReader) boolVar(dst *bool, key string) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: expected a boolean", key, v))
	}
}

func (r *envReader) durationVar(dst *time.Duration, key string) {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare numbers are milliseconds, like the nodemailer timeouts
		ms, convErr := strconv.Atoi(v)
		if convErr != nil {
			r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
			return
		}
		d = time.Duration(ms) * time.Millisecond
	}
	*dst = d
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}
