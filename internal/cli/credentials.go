package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/whiteboard/internal/config"
)

// credentialsFile is the file name inside the config directory.
const credentialsFile = "credentials.json"

// credential is the stored relay login.
type credential struct {
	Token     string    `json:"token"`
	Server    string    `json:"server,omitempty"`
	API       string    `json:"api,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// credentialStore keeps the bearer token as a JSON file readable only by the
// current user.
type credentialStore struct {
	mu   sync.RWMutex
	path string
}

// newCredentialStore opens the store in dir. If dir is empty, defaults to
// the whiteboard config directory.
func newCredentialStore(dir string) (*credentialStore, error) {
	if dir == "" {
		d, err := config.Dir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &credentialStore{path: filepath.Join(dir, credentialsFile)}, nil
}

// Get returns the stored credential, or nil if there is none.
func (s *credentialStore) Get() (*credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var cred credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if cred.Token == "" {
		return nil, nil
	}
	return &cred, nil
}

// Set replaces the stored credential.
func (s *credentialStore) Set(cred *credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Delete removes the stored credential. A missing file is not an error.
func (s *credentialStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Path returns the credentials file.
func (s *credentialStore) Path() string {
	return s.path
}
