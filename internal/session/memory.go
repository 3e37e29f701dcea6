package session

import (
	"maps"
	"sync"
)

// MemoryStore is a Store and Prefs that forgets everything on exit.
type MemoryStore struct {
	mu    sync.Mutex
	sess  *Session
	prefs map[string][]byte
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Prefs = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: map[string][]byte{}}
}

func (m *MemoryStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return Session{}, ErrNoSession
	}
	return *m.sess, nil
}

func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *MemoryStore) ViewState(view string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs[view], nil
}

func (m *MemoryStore) SaveViewState(view string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[view] = append([]byte(nil), state...)
	return nil
}

// Views returns a copy of every saved view state.
func (m *MemoryStore) Views() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.prefs)
}
