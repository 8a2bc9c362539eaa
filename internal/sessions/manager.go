package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/internal/storage"
	"github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

var ErrNotFound = errors.New("game not found")

// Attacher hooks extra handlers onto a new session's channel, e.g. the Redis
// broadcaster.
type Attacher interface {
	Attach(gameID uuid.UUID, ch *events.Channel) events.Handler
}

type entry struct {
	mu      sync.Mutex
	session *game.Session
	touched time.Time
}

// Manager owns every live session. Each session has its own mutex, so calls
// into one game are serialized while different games run in parallel.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*entry
	store     storage.Storage
	attachers []Attacher
	options   game.Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewManager(store storage.Storage, opts game.Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{
		sessions: make(map[uuid.UUID]*entry),
		store:    store,
		options:  opts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithAttacher registers an attacher for sessions created from now on.
// Returns the Manager for method chaining
func (m *Manager) WithAttacher(a Attacher) *Manager {
	if a != nil {
		m.attachers = append(m.attachers, a)
	}
	return m
}

// Create builds and starts a new session from sc.
func (m *Manager) Create(ctx context.Context, sc *scenario.Scenario) (game.Snapshot, error) {
	s, err := game.NewSession(sc, m.options, m.logger)
	if err != nil {
		return game.Snapshot{}, err
	}
	for _, a := range m.attachers {
		a.Attach(s.ID, s.Events())
	}
	s.Start()

	e := &entry{session: s, touched: m.now()}
	m.mu.Lock()
	m.sessions[s.ID] = e
	m.mu.Unlock()

	snap := s.Snapshot()
	m.persist(ctx, snap)
	return snap, nil
}

// Do runs fn with exclusive access to the session, then persists its
// snapshot.
func (m *Manager) Do(ctx context.Context, id uuid.UUID, fn func(s *game.Session) error) (game.Snapshot, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return game.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.session)
	e.touched = m.now()
	snap := e.session.Snapshot()
	m.persist(ctx, snap)
	return snap, err
}

// Snapshot returns the live state of a session, or the last stored snapshot
// when the session is no longer in memory.
func (m *Manager) Snapshot(ctx context.Context, id uuid.UUID) (game.Snapshot, bool, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.session.Snapshot(), true, nil
	}

	if m.store == nil {
		return game.Snapshot{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	snap, err := m.store.LoadSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			return game.Snapshot{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return game.Snapshot{}, false, err
	}
	return *snap, false, nil
}

// Remove ends a session and deletes its stored snapshot.
func (m *Manager) Remove(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if m.store != nil {
		if err := m.store.DeleteSnapshot(ctx, id); err != nil {
			m.logger.Warn("Failed to delete snapshot", "game_id", id, "error", err)
		}
	}
	m.logger.Info("Game session removed", "game_id", id)
	return nil
}

// Expire removes sessions idle for longer than ttl and returns how many went.
// Their snapshots stay in storage.
func (m *Manager) Expire(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	var expired []uuid.UUID

	m.mu.RLock()
	for id, e := range m.sessions {
		e.mu.Lock()
		if e.touched.Before(cutoff) {
			expired = append(expired, id)
		}
		e.mu.Unlock()
	}
	m.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}
	m.mu.Lock()
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	m.logger.Info("Expired idle game sessions", "count", len(expired))
	return len(expired)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) persist(ctx context.Context, snap game.Snapshot) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveSnapshot(ctx, snap); err != nil {
		m.logger.Warn("Failed to persist snapshot", "game_id", snap.ID, "error", err)
	}
}
