package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

// MemoryStorage keeps snapshots in process. It backs the API when no Redis
// URL is configured, and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]game.Snapshot
	added     map[string]*scenario.Scenario
	scenarios *scenarioDir
	pingError error
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an in-memory store. With a non-empty dataDir,
// scenarios are also read from dataDir/scenarios.
func NewMemoryStorage(dataDir string, logger *slog.Logger) *MemoryStorage {
	if logger == nil {
		logger = applog.Discard()
	}
	m := &MemoryStorage{
		snapshots: make(map[uuid.UUID]game.Snapshot),
		added:     make(map[string]*scenario.Scenario),
	}
	if dataDir != "" {
		m.scenarios = &scenarioDir{dir: filepath.Join(dataDir, "scenarios"), logger: logger}
	}
	return m
}

// SetPingError configures Ping to fail with err; nil restores success.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) SaveSnapshot(ctx context.Context, snap game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.ID] = snap
	return nil
}

func (m *MemoryStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*game.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return &snap, nil
}

func (m *MemoryStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}

// AddScenario registers a scenario under filename without touching disk
func (m *MemoryStorage) AddScenario(filename string, s *scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added[filename] = s
}

func (m *MemoryStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	if m.scenarios != nil {
		found, err := m.scenarios.list()
		if err != nil {
			return nil, err
		}
		for name, file := range found {
			out[name] = file
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for file, s := range m.added {
		out[s.Name] = file
	}
	return out, nil
}

func (m *MemoryStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	m.mu.RLock()
	s, ok := m.added[filename]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}
	if m.scenarios == nil {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}
	return m.scenarios.get(filename)
}
