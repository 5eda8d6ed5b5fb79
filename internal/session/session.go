// Package session persists the auth token and current user id between
// runs. The semantics are pure key-value: absence is the only
// invalidity signal, interpreted by callers as "unauthenticated".
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Store is the session store contract. Implementations are safe for
// concurrent use.
type Store interface {
	// Token returns the auth token, or false if none is stored.
	Token() (string, bool)
	// UserID returns the current user id, or false if none is stored.
	UserID() (string, bool)
	// Set stores a token/user pair, replacing any previous session.
	Set(token, userID string) error
	// Clear removes the stored session.
	Clear() error
}

type sessionFile struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// FileStore persists the session as a plaintext JSON file, the
// terminal analogue of the browser's durable key-value storage.
type FileStore struct {
	mu   sync.Mutex
	path string
	cur  sessionFile
}

// NewFileStore loads any existing session from path. A missing or
// unreadable file is treated as an empty session, not an error.
func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &s.cur)
	}
	return s
}

func (s *FileStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Token, s.cur.Token != ""
}

func (s *FileStore) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.UserID, s.cur.UserID != ""
}

func (s *FileStore) Set(token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = sessionFile{Token: token, UserID: userID}
	return s.write()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = sessionFile{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.cur, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.Mutex
	token  string
	userID string
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *MemStore) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != ""
}

func (s *MemStore) Set(token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.userID = token, userID
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.userID = "", ""
	return nil
}
