package state

import (
	"encoding/json"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests that exercise lifecycle
// logic without touching the filesystem. It deep-copies on Load and Save
// so callers cannot alias the stored registry, matching the isolation the
// file-backed store provides for free.
type MemStore struct {
	mu  sync.Mutex
	reg *Registry

	// SaveErr, when set, is returned by Save. Lets tests exercise the
	// save-fails-loud contract.
	SaveErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{reg: NewRegistry()}
}

// Load returns a deep copy of the stored registry.
func (m *MemStore) Load() *Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRegistry(m.reg)
}

// Save replaces the stored registry with a deep copy of r.
func (m *MemStore) Save(r *Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.reg = copyRegistry(r)
	return nil
}

// CleanupOldSessions applies the retention sweep to the stored registry.
func (m *MemStore) CleanupOldSessions() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sweepOldSessions(m.reg, time.Now()), nil
}

// copyRegistry deep-copies via the JSON round trip the file store performs
// anyway. Marshal of these types cannot fail.
func copyRegistry(r *Registry) *Registry {
	data, _ := json.Marshal(r)
	var out Registry
	_ = json.Unmarshal(data, &out)
	if out.Sessions == nil {
		out.Sessions = make(map[string]*Session)
	}
	return &out
}
