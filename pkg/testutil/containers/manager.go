//go:build integration

// Package containers manages shared test containers so integration suites in
// different packages reuse one Postgres instance instead of starting their own.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out shared containers. Suites call GetManager().GetPostgres
// in SetupSuite; the first caller pays the startup cost.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns the shared Postgres container, starting it on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}
