package secrets

import (
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Every write advances the store's
// modification time, even when two writes land in the same clock tick.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]VersionedSecret
	mtime   time.Time
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		secrets: make(map[string]VersionedSecret),
		now:     time.Now,
	}
}

// Set replaces the secret at path.
func (s *MemoryStore) Set(path string, secret VersionedSecret) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[path] = secret
	s.touch()
}

// Put replaces a single slot of the secret at path.
func (s *MemoryStore) Put(path string, slot Slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[path] = s.secrets[path].With(slot, value)
	s.touch()
	return nil
}

// Delete removes the secret at path.
func (s *MemoryStore) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, path)
	s.touch()
}

func (s *MemoryStore) touch() {
	now := s.now()
	if !now.After(s.mtime) {
		now = s.mtime.Add(time.Nanosecond)
	}
	s.mtime = now
}

// GetVersionedAndMtime returns the secret at path and the time of the last write.
func (s *MemoryStore) GetVersionedAndMtime(path string) (VersionedSecret, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[path]
	if !ok {
		return VersionedSecret{}, s.mtime, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return secret, s.mtime, nil
}
