package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	RemoteURL       string `toml:"remote_url"`
	WebhookURL      string `toml:"webhook_url"`
	Greeting        string `toml:"greeting"`
	ListenAddr      string `toml:"listen_addr"`
	CallbackPath    string `toml:"callback_path"`
	CallbackTimeout string `toml:"callback_timeout"`
	HTTPTimeout     string `toml:"http_timeout"`
	LogLevel        string `toml:"log_level"`
	Once            *bool  `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.codeshake/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".codeshake", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("remote-url", fc.RemoteURL, &cfg.RemoteURL)
	s.setString("webhook-url", fc.WebhookURL, &cfg.WebhookURL)
	s.setString("greeting", fc.Greeting, &cfg.Greeting)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("callback-path", fc.CallbackPath, &cfg.CallbackPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("callback-timeout", fc.CallbackTimeout, &cfg.CallbackTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("once", fc.Once, &cfg.Once)
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
