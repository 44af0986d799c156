package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Service.BaseURL != "https://radio.example.com/api/v1" {
			t.Errorf("expected default base URL, got %s", config.Service.BaseURL)
		}

		if config.Cache.MaxBytes != 268435456 {
			t.Errorf("expected 256 MiB cache budget, got %d", config.Cache.MaxBytes)
		}

		if config.Prefetch.Lookahead != 2 {
			t.Errorf("expected lookahead 2, got %d", config.Prefetch.Lookahead)
		}

		if config.Playback.Volume != 0.8 {
			t.Errorf("expected volume 0.8, got %f", config.Playback.Volume)
		}

		if config.Playback.VolumeStep != 0.1 {
			t.Errorf("expected volume step 0.1, got %f", config.Playback.VolumeStep)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		info, err := os.Stat(configPath)
		if err != nil {
			t.Fatalf("config file should exist: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("config file should be private, got mode %v", info.Mode().Perm())
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Service.BaseURL != defaultConfig.Service.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials]
username = "listener@example.com"
password = "hunter2"

[service]
base_url = "https://radio.test/api"
requests_per_second = 2.5

[cache]
path = "/custom/cache"
max_bytes = 1048576

[prefetch]
lookahead = 4
workers = 2
retries = 5

[playback]
volume = 0.5
volume_step = 0.05
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Username != "listener@example.com" {
			t.Errorf("expected username listener@example.com, got %s", config.Credentials.Username)
		}
		if config.Service.RequestsPerSecond != 2.5 {
			t.Errorf("expected 2.5 requests per second, got %f", config.Service.RequestsPerSecond)
		}
		if config.Cache.Path != "/custom/cache" {
			t.Errorf("expected cache path /custom/cache, got %s", config.Cache.Path)
		}
		if config.Prefetch.Lookahead != 4 {
			t.Errorf("expected lookahead 4, got %d", config.Prefetch.Lookahead)
		}
		if config.Playback.VolumeStep != 0.05 {
			t.Errorf("expected volume step 0.05, got %f", config.Playback.VolumeStep)
		}
	})

	t.Run("LoadConfigMissing", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("loading a missing config should fail")
		}
	})

	t.Run("CacheDir", func(t *testing.T) {
		config := DefaultConfig()
		config.Cache.Path = "/tmp/aria-test-cache"

		dir, err := config.CacheDir()
		if err != nil {
			t.Fatalf("failed to resolve cache dir: %v", err)
		}
		if dir != "/tmp/aria-test-cache" {
			t.Errorf("configured path should win, got %s", dir)
		}

		config.Cache.Path = ""
		dir, err = config.CacheDir()
		if err != nil {
			t.Fatalf("failed to resolve platform cache dir: %v", err)
		}
		if filepath.Base(dir) != "aria" {
			t.Errorf("platform cache dir should end in aria, got %s", dir)
		}
	})
}
