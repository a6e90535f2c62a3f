package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/questmap/pkg/scenario"
)

// MockStorage is an in-memory Content for tests.
type MockStorage struct {
	mu        sync.RWMutex
	scenarios map[string]*scenario.Scenario
	pingError error
}

var _ Content = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{scenarios: make(map[string]*scenario.Scenario)}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// AddScenario adds a scenario under filename.
func (m *MockStorage) AddScenario(filename string, s *scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[filename] = s
}

func (m *MockStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.scenarios))
	for filename, s := range m.scenarios {
		out[s.Name] = filename
	}
	return out, nil
}

func (m *MockStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.scenarios[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}
	return s, nil
}
