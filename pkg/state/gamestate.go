package state

import (
	"log/slog"
	"sort"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/events"
)

const (
	MinHealth = 0
	MaxHealth = 100
)

// GameState owns the player's health and narrative flags. It is the only
// writer of either; everything else goes through its methods.
type GameState struct {
	health int
	flags  map[string]bool

	events *events.Channel
	logger *slog.Logger
}

// Snapshot is the serializable view of a GameState
type Snapshot struct {
	Health int      `json:"health"`
	Flags  []string `json:"flags,omitempty"` // sorted
}

// NewGameState creates a game state at the given starting health (clamped).
func NewGameState(startHealth int, ch *events.Channel, logger *slog.Logger) *GameState {
	if logger == nil {
		logger = applog.Discard()
	}
	return &GameState{
		health: clamp(startHealth),
		flags:  make(map[string]bool),
		events: ch,
		logger: logger,
	}
}

func (gs *GameState) Health() int {
	return gs.health
}

// AdjustHealth applies delta, clamped to [MinHealth, MaxHealth], and returns
// the new value. updateHealth is published only when the value changed.
func (gs *GameState) AdjustHealth(delta int) int {
	next := clamp(gs.health + delta)
	if next == gs.health {
		return gs.health
	}

	gs.logger.Debug("Health changed", "from", gs.health, "to", next, "delta", delta)
	gs.health = next
	gs.publish(events.TopicUpdateHealth, events.HealthUpdate{Health: next})
	return next
}

// SetFlag latches a narrative flag. Setting a flag twice is a no-op and
// returns false.
func (gs *GameState) SetFlag(name string) bool {
	if name == "" || gs.flags[name] {
		return false
	}
	gs.flags[name] = true
	gs.logger.Info("Narrative flag set", "flag", name)
	gs.publish(events.TopicFlagSet, events.FlagSet{Name: name})
	return true
}

func (gs *GameState) HasFlag(name string) bool {
	return gs.flags[name]
}

// Flags returns every set flag in sorted order.
func (gs *GameState) Flags() []string {
	out := make([]string, 0, len(gs.flags))
	for k := range gs.flags {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (gs *GameState) Snapshot() Snapshot {
	return Snapshot{
		Health: gs.health,
		Flags:  gs.Flags(),
	}
}

func (gs *GameState) publish(topic events.Topic, payload any) {
	if gs.events != nil {
		gs.events.Publish(topic, payload)
	}
}

func clamp(h int) int {
	if h < MinHealth {
		return MinHealth
	}
	if h > MaxHealth {
		return MaxHealth
	}
	return h
}
