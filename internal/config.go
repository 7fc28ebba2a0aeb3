package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// tokenFileName is the fixed key under which the bearer token is
	// persisted; it is the only durable client-side state.
	tokenFileName = "token"

	configFileName = "config.yaml"

	envServerURL = "HERMES_SERVER_URL"
	envToken     = "HERMES_TOKEN"

	defaultServerURL = "http://localhost:8000"
)

// ClientConfig is the console's local configuration.
type ClientConfig struct {
	ServerURL      string `yaml:"server_url"`
	TimeoutSeconds int    `yaml:"request_timeout_seconds,omitempty"`
}

// RequestTimeout returns the configured REST timeout, falling back to the
// client default when unset. Never zero: callers feed it straight into
// context.WithTimeout.
func (c *ClientConfig) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfigDir returns ~/.config/hermesctl, creating it if needed.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "hermesctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// LoadClientConfig loads configuration with the precedence: explicit flag
// value > environment > config file > default. A .env file in the working
// directory is honored before the environment is consulted. serverFlag may
// be empty.
func LoadClientConfig(dir, serverFlag string) (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{ServerURL: defaultServerURL}

	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	case errors.Is(err, os.ErrNotExist):
		// First run; defaults apply.
	default:
		return nil, &ConfigError{Path: path, Err: err}
	}

	if env := os.Getenv(envServerURL); env != "" {
		cfg.ServerURL = env
	}
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	return cfg, nil
}

// SaveClientConfig writes the config file.
func SaveClientConfig(dir string, cfg *ClientConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &ConfigError{Path: configFileName, Err: err}
	}
	path := filepath.Join(dir, configFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// LoadToken returns the stored bearer token. The HERMES_TOKEN environment
// variable overrides the token file. Returns "" when not logged in.
func LoadToken(dir string) string {
	if env := os.Getenv(envToken); env != "" {
		return env
	}
	data, err := os.ReadFile(filepath.Join(dir, tokenFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveToken persists the bearer token.
func SaveToken(dir, token string) error {
	path := filepath.Join(dir, tokenFileName)
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// ClearToken removes the stored token. Called when the backend rejects it.
func ClearToken(dir string) error {
	path := filepath.Join(dir, tokenFileName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}
