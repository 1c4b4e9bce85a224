package view

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vibast-solutions/ms-go-entitlements/app/service"
)

// Manager keeps one View per login session.
type Manager struct {
	reconciler reconciler
	bus        subscriber
	opts       Options

	mu    sync.Mutex
	views map[string]*View
}

func NewManager(r reconciler, b subscriber, opts Options) *Manager {
	return &Manager{
		reconciler: r,
		bus:        b,
		opts:       opts.withDefaults(),
		views:      make(map[string]*View),
	}
}

// Open replaces any view already registered for sessionID.
func (m *Manager) Open(ctx context.Context, sessionID, payerID string) (*service.Result, error) {
	v, err := Open(ctx, sessionID, payerID, m.reconciler, m.bus, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	previous := m.views[sessionID]
	m.views[sessionID] = v
	m.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return v.Result(), nil
}

func (m *Manager) Get(sessionID string) (*View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[sessionID]
	return v, ok
}

// Sessions lists the open sessions of payerID.
func (m *Manager) Sessions(payerID string) []string {
	payerID = strings.TrimSpace(payerID)

	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, v := range m.views {
		if strings.EqualFold(v.PayerID(), payerID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	v := m.views[sessionID]
	delete(m.views, sessionID)
	m.mu.Unlock()

	if v != nil {
		v.Close()
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	views := make([]*View, 0, len(m.views))
	for id, v := range m.views {
		views = append(views, v)
		delete(m.views, id)
	}
	m.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}
