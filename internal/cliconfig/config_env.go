package cliconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultDotEnvPath is the dotenv file loaded from the working directory.
const DefaultDotEnvPath = ".env"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (CODESHAKE_*).
// The bare WEBHOOK_URL is honoured when CODESHAKE_WEBHOOK_URL is unset.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	webhook := os.Getenv("CODESHAKE_WEBHOOK_URL")
	if webhook == "" {
		webhook = os.Getenv("WEBHOOK_URL")
	}

	s.setString("remote-url", os.Getenv("CODESHAKE_REMOTE_URL"), &cfg.RemoteURL)
	s.setString("webhook-url", webhook, &cfg.WebhookURL)
	s.setString("greeting", os.Getenv("CODESHAKE_GREETING"), &cfg.Greeting)
	s.setString("listen", os.Getenv("CODESHAKE_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("callback-path", os.Getenv("CODESHAKE_CALLBACK_PATH"), &cfg.CallbackPath)
	s.setString("log-level", os.Getenv("CODESHAKE_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("callback-timeout", os.Getenv("CODESHAKE_CALLBACK_TIMEOUT"), &cfg.CallbackTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("CODESHAKE_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBoolFromString("once", os.Getenv("CODESHAKE_ONCE"), &cfg.Once)
	return nil
}
