// Package config loads and saves application configuration from a TOML
// file, falling back to defaults when the file does not exist.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Scryfall ScryfallConfig `toml:"scryfall"`
	App      AppConfig      `toml:"app"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	JournalMode  string `toml:"journal_mode"`
	Synchronous  string `toml:"synchronous"`
}

// ScryfallConfig configures the card resolver client.
type ScryfallConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Debug bool `toml:"debug"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "refinedmtg.db",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
			JournalMode:  "WAL",
			Synchronous:  "NORMAL",
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			UserAgent: "RefinedMTG/1.0",
		},
	}
}

// Load reads configuration from path. A missing file yields defaults
// without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
