package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Known Mistral model identifiers.
const (
	ModelTiny   = "mistral-tiny"
	ModelSmall  = "mistral-small"
	ModelMedium = "mistral-medium"
)

// DefaultModel is used when no model is configured.
const DefaultModel = ModelSmall

// EnvAPIKey is the environment variable consulted for the API key.
const EnvAPIKey = "MISTRAL_API_KEY"

// ModelList is the fixed set of models accepted by /model and -model.
var ModelList = []string{ModelTiny, ModelSmall, ModelMedium}

// KnownModel reports whether name is in the fixed model list.
func KnownModel(name string) bool {
	for _, m := range ModelList {
		if m == name {
			return true
		}
	}
	return false
}

// Config holds application configuration.
type Config struct {
	API  APIConfig  `toml:"api"`
	Chat ChatConfig `toml:"chat"`

	// Runtime-only settings (flags, never read from the config file).
	SessionID string `toml:"-"`
	Debug     bool   `toml:"-"`
}

// APIConfig contains credentials and endpoint settings.
type APIConfig struct {
	// Key is the Mistral API key. Flag and environment take precedence.
	Key string `toml:"key"`
	// BaseURL overrides the API endpoint, mainly for testing.
	BaseURL string `toml:"base_url"`
}

// ChatConfig contains chat behavior settings.
type ChatConfig struct {
	// Model is the active model identifier.
	Model string `toml:"model"`
	// SystemMessage is prepended to every fresh session when set.
	SystemMessage string `toml:"system_message"`
	// Streamed prints tokens as they arrive instead of rendering the
	// finished reply as a markdown panel.
	Streamed bool `toml:"streamed"`
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mistral-chat"), nil
}

// EnsureConfigDir creates the configuration directory if it does not exist.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// Load builds the configuration from defaults, the optional TOML config file,
// and the environment, in that order of precedence (lowest first). Flags are
// applied by the caller on top of the result.
func Load() (*Config, error) {
	// A .env file in the working directory is picked up before reading the
	// environment, so MISTRAL_API_KEY can live there during development.
	_ = godotenv.Load()

	cfg := &Config{
		Chat: ChatConfig{Model: DefaultModel},
	}

	if dir, err := ConfigDir(); err == nil {
		path := filepath.Join(dir, "config.toml")
		if _, err := os.Stat(path); err == nil {
			if err := LoadFile(path, cfg); err != nil {
				return nil, err
			}
		}
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.API.Key = key
	}

	if cfg.Chat.Model == "" {
		cfg.Chat.Model = DefaultModel
	}

	return cfg, nil
}

// LoadFile merges the TOML file at path into cfg.
func LoadFile(path string, cfg *Config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is usable before the loop starts.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("no API key provided: set %s, pass -api-key, or add it to the config file", EnvAPIKey)
	}
	if !KnownModel(c.Chat.Model) {
		return fmt.Errorf("unknown model %q (available: %v)", c.Chat.Model, ModelList)
	}
	return nil
}
