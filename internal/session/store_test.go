package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/aria/internal/models"
)

func TestFileStore(t *testing.T) {
	t.Run("MissingFileIsNotAnError", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "credentials.toml"))
		creds, err := store.Load()
		if err != nil {
			t.Fatalf("load of missing file failed: %v", err)
		}
		if creds != nil {
			t.Errorf("expected nil credentials, got %+v", creds)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets", "credentials.toml")
		store := NewFileStore(path)

		saved := models.Credentials{Username: "listener@example.com", Password: "hunter2"}
		if err := store.Save(saved); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("credentials file should exist: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("credentials must be private, got mode %v", info.Mode().Perm())
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded == nil || *loaded != saved {
			t.Errorf("expected %+v, got %+v", saved, loaded)
		}
	})

	t.Run("EmptyCredentialsLoadAsNil", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.toml")
		if err := os.WriteFile(path, []byte("username = \"\"\npassword = \"\"\n"), 0600); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		creds, err := NewFileStore(path).Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if creds != nil {
			t.Errorf("blank credentials should load as nil, got %+v", creds)
		}
	})
}
