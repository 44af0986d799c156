package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Service     ServiceConfig     `toml:"service"`
	Cache       CacheConfig       `toml:"cache"`
	Prefetch    PrefetchConfig    `toml:"prefetch"`
	Playback    PlaybackConfig    `toml:"playback"`
}

// CredentialsConfig contains the listener's saved login.
type CredentialsConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// ServiceConfig contains remote service settings.
type ServiceConfig struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CacheConfig contains track cache settings.
type CacheConfig struct {
	Path     string `toml:"path"`
	MaxBytes int64  `toml:"max_bytes"`
}

// PrefetchConfig contains download pipeline settings.
type PrefetchConfig struct {
	Lookahead int `toml:"lookahead"`
	Workers   int `toml:"workers"`
	Retries   int `toml:"retries"`
}

// PlaybackConfig contains audio output settings.
type PlaybackConfig struct {
	Volume     float64 `toml:"volume"`
	VolumeStep float64 `toml:"volume_step"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// Config holds credentials, so keep it private to the user
	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CacheDir resolves the cache directory, preferring the configured path over
// the platform cache dir.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user cache directory: %w", err)
	}
	return filepath.Join(dir, "aria"), nil
}
