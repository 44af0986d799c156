package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/aria/internal/models"
)

// CredentialStore supplies and persists saved login secrets.
type CredentialStore interface {
	// Load returns the saved credentials, or (nil, nil) when none exist.
	Load() (*models.Credentials, error)
	Save(creds models.Credentials) error
}

// FileStore keeps credentials in a TOML file readable only by the user.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads credentials from disk. A missing file is not an error.
func (f *FileStore) Load() (*models.Credentials, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds models.Credentials
	if err := toml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.Empty() {
		return nil, nil
	}
	return &creds, nil
}

// Save writes credentials to disk with 0600 permissions.
func (f *FileStore) Save(creds models.Credentials) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	var buf []byte
	var err error
	if buf, err = toml.Marshal(creds); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(f.path, buf, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// StaticStore serves fixed credentials, used when they come from the main
// config file instead of a separate secrets file.
type StaticStore struct {
	creds models.Credentials
}

// NewStaticStore wraps already-loaded credentials in a [CredentialStore].
func NewStaticStore(creds models.Credentials) *StaticStore {
	return &StaticStore{creds: creds}
}

func (s *StaticStore) Load() (*models.Credentials, error) {
	if s.creds.Empty() {
		return nil, nil
	}
	c := s.creds
	return &c, nil
}

func (s *StaticStore) Save(creds models.Credentials) error {
	s.creds = creds
	return nil
}
