package repository

import (
	"context"
	"sync"
)

// MemoryStore is a process-local KVStore. Watch delivers every Put and Delete to the
// registered callbacks, which makes it a stand-in for a shared store in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	writes   int
	watchers map[int]func(key string)
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[int]func(key string)),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.data[key] = stored
	s.writes++
	watchers := s.snapshotWatchers()
	s.mu.Unlock()

	notify(watchers, key)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	if _, ok := s.data[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.data, key)
	s.writes++
	watchers := s.snapshotWatchers()
	s.mu.Unlock()

	notify(watchers, key)
	return nil
}

// Writes returns the number of mutations applied so far.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *MemoryStore) Watch(ctx context.Context, onChange func(key string)) error {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = onChange
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	delete(s.watchers, id)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *MemoryStore) snapshotWatchers() []func(key string) {
	out := make([]func(key string), 0, len(s.watchers))
	for _, fn := range s.watchers {
		out = append(out, fn)
	}
	return out
}

func notify(watchers []func(key string), key string) {
	for _, fn := range watchers {
		fn(key)
	}
}
