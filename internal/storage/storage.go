package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwebster45206/deadtown/pkg/game"
	"github.com/jwebster45206/deadtown/pkg/scenario"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrScenarioNotFound = errors.New("scenario not found")
)

// Storage persists session snapshots and serves scenario files.
type Storage interface {
	// Ping tests the backing connection
	Ping(ctx context.Context) error
	Close() error

	// SaveSnapshot stores the latest observable state of a session
	SaveSnapshot(ctx context.Context, snap game.Snapshot) error

	// LoadSnapshot returns ErrSnapshotNotFound when nothing is stored for id
	LoadSnapshot(ctx context.Context, id uuid.UUID) (*game.Snapshot, error)

	DeleteSnapshot(ctx context.Context, id uuid.UUID) error

	// ListScenarios maps scenario names to their file names
	ListScenarios(ctx context.Context) (map[string]string, error)

	// GetScenario loads and validates a scenario file by name
	GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error)
}
