package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileFormat is the on-disk representation of a session. The token is stored
// under a fixed key so that other tooling can locate it.
type fileFormat struct {
	Token   string          `json:"authToken"`
	Profile json.RawMessage `json:"cachedUser,omitempty"`
}

// File persists the session to a JSON file, created with owner-only
// permissions. The file is read once on open; writes are flushed immediately
// so a crashed process never loses an established session.
type File struct {
	path string

	mu      sync.RWMutex
	token   string
	profile []byte
}

// OpenFile opens (or creates) a file-backed session store at path. A missing
// file yields an empty session rather than an error.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var stored fileFormat
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt session file is recoverable: the user signs in again.
		return f, nil
	}

	f.token = stored.Token
	f.profile = stored.Profile
	return f, nil
}

func (f *File) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token
}

func (f *File) SetToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	return f.flushLocked()
}

func (f *File) Profile() ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.profile == nil {
		return nil, false
	}
	return f.profile, true
}

func (f *File) SetProfile(profile []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = profile
	return f.flushLocked()
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.profile = nil

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func (f *File) flushLocked() error {
	data, err := json.Marshal(fileFormat{
		Token:   f.token,
		Profile: f.profile,
	})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
