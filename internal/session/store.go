package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/timedrop/tdadmin/internal/crypto"
	"github.com/timedrop/tdadmin/internal/domain"
)

// FileStore persists the session as a small JSON document keyed by
// domain.TokenKey and domain.RoleKey. When a passphrase is set the document
// is sealed with crypto.Seal before it touches disk.
type FileStore struct {
	path       string
	passphrase string
	mu         sync.Mutex
}

// NewFileStore returns a store backed by path. An empty passphrase stores
// the document in clear text.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

// Load implements domain.SessionStore. A missing file is an empty session.
func (s *FileStore) Load(_ context.Context) (string, domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("session: read %s: %w", s.path, err)
	}

	if s.passphrase != "" {
		data, err = crypto.Open(data, s.passphrase)
		if err != nil {
			return "", "", fmt.Errorf("session: open %s: %w", s.path, err)
		}
	}

	doc := map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", "", fmt.Errorf("session: parse %s: %w", s.path, err)
	}
	return doc[domain.TokenKey], domain.Role(doc[domain.RoleKey]), nil
}

// Save implements domain.SessionStore. The file is replaced atomically and
// is readable by the owner only.
func (s *FileStore) Save(_ context.Context, token string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(map[string]string{
		domain.TokenKey: token,
		domain.RoleKey:  string(role),
	})
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if s.passphrase != "" {
		data, err = crypto.Seal(data, s.passphrase)
		if err != nil {
			return fmt.Errorf("session: seal: %w", err)
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write temp: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// Clear implements domain.SessionStore.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore is an in-process domain.SessionStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	role  domain.Role
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(_ context.Context) (string, domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.role, nil
}

func (m *MemoryStore) Save(_ context.Context, token string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role = token, role
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.role = "", ""
	return nil
}
