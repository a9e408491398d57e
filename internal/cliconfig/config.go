package cliconfig

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/codeshake/internal/app"
	"github.com/bft-labs/codeshake/internal/ingress"
)

// DefaultRemoteURL is the endpoint the handshake talks to.
const DefaultRemoteURL = "https://test.icorp.uz/interview.php"

// DefaultGreeting is the phase-1 message.
const DefaultGreeting = "Hello iCorp!"

// Config holds CLI configuration for codeshake.
type Config struct {
	RemoteURL    string
	WebhookURL   string
	Greeting     string
	ListenAddr   string
	CallbackPath string

	CallbackTimeout time.Duration
	HTTPTimeout     time.Duration

	LogLevel string
	Once     bool
}

// DefaultConfig returns a Config with default values.
// WebhookURL has no default; it must come from a file, env or flag.
func DefaultConfig() Config {
	return Config{
		RemoteURL:       DefaultRemoteURL,
		Greeting:        DefaultGreeting,
		ListenAddr:      "127.0.0.1:8000",
		CallbackPath:    ingress.DefaultCallbackPath,
		CallbackTimeout: app.DefaultCallbackTimeout,
		HTTPTimeout:     30 * time.Second,
		LogLevel:        zerolog.InfoLevel.String(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook-url is required (set WEBHOOK_URL in .env or the environment)")
	}
	if err := checkURL("webhook-url", c.WebhookURL); err != nil {
		return err
	}
	if c.RemoteURL == "" {
		c.RemoteURL = DefaultRemoteURL
	}
	if err := checkURL("remote-url", c.RemoteURL); err != nil {
		return err
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.CallbackPath == "" || c.CallbackPath[0] != '/' {
		return fmt.Errorf("callback-path must start with /")
	}
	if c.CallbackTimeout <= 0 {
		return fmt.Errorf("callback timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}

// ServiceConfig converts c into the service configuration.
func (c Config) ServiceConfig() app.Config {
	return app.Config{
		RemoteURL:       c.RemoteURL,
		CallbackURL:     c.WebhookURL,
		Greeting:        c.Greeting,
		ListenAddr:      c.ListenAddr,
		CallbackPath:    c.CallbackPath,
		CallbackTimeout: c.CallbackTimeout,
		HTTPTimeout:     c.HTTPTimeout,
	}
}

func checkURL(flag, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", flag)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", flag)
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
