package session

import "sync"

// Memory is an in-memory session store. It is the store of choice for tests
// and for short-lived processes that should not persist credentials.
type Memory struct {
	mu      sync.RWMutex
	token   string
	profile []byte
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Memory) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Profile() ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil, false
	}
	return m.profile, true
}

func (m *Memory) SetProfile(profile []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profile
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.profile = nil
	return nil
}
