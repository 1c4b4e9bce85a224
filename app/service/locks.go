package service

import (
	"strings"
	"sync"
)

// payerLocks hands out one mutex per payer id. Entries are dropped once no
// goroutine holds or waits for them.
type payerLocks struct {
	mu    sync.Mutex
	locks map[string]*payerLock
}

type payerLock struct {
	mu   sync.Mutex
	refs int
}

func newPayerLocks() *payerLocks {
	return &payerLocks{locks: make(map[string]*payerLock)}
}

func (l *payerLocks) lock(payerID string) func() {
	key := strings.ToLower(strings.TrimSpace(payerID))

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &payerLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
