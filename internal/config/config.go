package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	BackendTelegram = "telegram"
	BackendWhatsApp = "whatsapp"
)

// Config represents the global ~/.chatterm/config.toml.
type Config struct {
	DefaultSession string   `toml:"default_session"`
	Backend        string   `toml:"backend"`
	Telegram       Telegram `toml:"telegram"`
	Log            Log      `toml:"log"`
}

// Telegram holds the MTProto application credentials.
type Telegram struct {
	APIID   int    `toml:"api_id"`
	APIHash string `toml:"api_hash"`
	Phone   string `toml:"phone"`
}

// Log controls the session log file.
type Log struct {
	Level    string `toml:"level"`
	Disabled bool   `toml:"disabled"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault is Load that treats a missing file as an empty config.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays TELEGRAM_API_ID and TELEGRAM_API_HASH.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("TELEGRAM_API_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_API_ID: %w", err)
		}
		c.Telegram.APIID = id
	}
	if v := getenv("TELEGRAM_API_HASH"); v != "" {
		c.Telegram.APIHash = v
	}
	return nil
}

// BackendName picks the flag value, then the config value, then telegram.
func (c *Config) BackendName(flag string) (string, error) {
	name := flag
	if name == "" {
		name = c.Backend
	}
	if name == "" {
		name = BackendTelegram
	}
	switch name {
	case BackendTelegram, BackendWhatsApp:
		return name, nil
	}
	return "", fmt.Errorf("unknown backend %q (want %s or %s)", name, BackendTelegram, BackendWhatsApp)
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
