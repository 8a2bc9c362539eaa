package game

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/dialog"
	"github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/jwebster45206/deadtown/pkg/proximity"
	"github.com/jwebster45206/deadtown/pkg/scenario"
	"github.com/jwebster45206/deadtown/pkg/state"
	"github.com/jwebster45206/deadtown/pkg/world"
)

// CustomCheckInventory is the custom outcome that lists the player's items.
const CustomCheckInventory = "check_inventory"

var ErrNotStarted = errors.New("game not started")

// Input is the player's intent for one tick.
type Input struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Interact bool    `json:"interact"`
}

// Options tune a session beyond what the scenario says.
type Options struct {
	ItemRange float64 // overrides the scenario item range when > 0
}

// Session is one running game: the world, the player's state and the dialog
// engine, all talking over one event channel. A Session is not safe for
// concurrent use; callers serialize access.
type Session struct {
	ID       uuid.UUID
	Scenario string

	events    *events.Channel
	logger    *slog.Logger
	registry  *world.Registry
	state     *state.GameState
	inventory *inventory.Manager
	detector  *proximity.Detector
	dialog    *dialog.Engine

	bounds  world.Bounds
	spawn   world.Vec2
	avatar  *world.Vec2 // nil until Start
	tick    uint64
	pending bool // interaction queued for the next tick
}

// NewSession builds a fresh world from sc.
func NewSession(sc *scenario.Scenario, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = applog.Discard()
	}

	w, err := sc.Build()
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	logger = logger.With("game_id", id.String())

	ch := events.NewChannel(logger)
	gs := state.NewGameState(sc.StartHealth, ch, logger)
	inv := inventory.NewManager(gs, ch, logger)
	for name, e := range w.Effects {
		inv.SetEffect(name, e)
	}

	itemRange := sc.ItemRange
	if opts.ItemRange > 0 {
		itemRange = opts.ItemRange
	}
	det := proximity.NewDetector(w.Registry, ch, logger).WithItemRange(itemRange)
	eng := dialog.NewEngine(w.Library, w.Registry, inv, gs, ch, logger)

	s := &Session{
		ID:        id,
		Scenario:  sc.Name,
		events:    ch,
		logger:    logger,
		registry:  w.Registry,
		state:     gs,
		inventory: inv,
		detector:  det,
		dialog:    eng,
		bounds:    sc.Bounds,
		spawn:     sc.Spawn,
	}
	eng.RegisterCustom(CustomCheckInventory, s.checkInventory)

	logger.Info("Game session created", "scenario", sc.Name, "objects", w.Registry.Len())
	return s, nil
}

// Events is the channel presentation layers subscribe to.
func (s *Session) Events() *events.Channel {
	return s.events
}

func (s *Session) Started() bool {
	return s.avatar != nil
}

// Start spawns the avatar and publishes the initial snapshot. Starting twice
// is a no-op.
func (s *Session) Start() {
	if s.avatar != nil {
		return
	}
	spawn := s.spawn
	s.avatar = &spawn
	s.events.Publish(events.TopicGameStarted, events.GameStarted{Health: s.state.Health()})
	s.events.Publish(events.TopicPlayerMove, events.PlayerMove{X: spawn.X, Y: spawn.Y})
	s.detector.Tick(s.avatar)
}

// Interact queues an interaction with the current candidate for the next tick.
func (s *Session) Interact() {
	s.pending = true
}

// Tick runs one simulation step: movement, the proximity scan, then at most
// one interaction. Movement is ignored while a dialog is open.
func (s *Session) Tick(in Input) error {
	if s.avatar == nil {
		return ErrNotStarted
	}
	s.tick++

	if !s.dialog.IsOpen() && (in.DX != 0 || in.DY != 0) {
		s.move(in.DX, in.DY)
	}

	s.detector.Tick(s.avatar)

	if in.Interact || s.pending {
		s.pending = false
		s.interact()
	}
	return nil
}

func (s *Session) move(dx, dy float64) {
	next := s.bounds.Clamp(s.avatar.Add(world.Vec2{X: dx, Y: dy}))
	if next == *s.avatar {
		return
	}
	*s.avatar = next
	s.events.Publish(events.TopicPlayerMove, events.PlayerMove{X: next.X, Y: next.Y})
}

func (s *Session) interact() {
	cand, ok := s.detector.Current()
	if !ok {
		s.logger.Debug("Interact with nothing in range")
		return
	}
	if err := s.dialog.Interact(cand.ID); err != nil {
		s.logger.Warn("Interaction failed", "object", cand.ID, "error", err)
	}
}

// Choose relays a dialog choice through the event channel, the same path a
// presentation layer uses.
func (s *Session) Choose(actionID string) {
	s.events.Publish(events.TopicDialogChoice, events.ChoiceRelay{ActionID: actionID})
}

// InspectItem opens the use/drop dialog for an inventory slot.
func (s *Session) InspectItem(index int) error {
	return s.dialog.InspectItem(index)
}

func (s *Session) checkInventory(string) (*dialog.Node, error) {
	return &dialog.Node{
		ID:   CustomCheckInventory,
		Body: s.inventory.Describe(),
		Choices: []dialog.Choice{
			{Text: "OK", Action: dialog.ActionOK, Outcome: dialog.Close()},
		},
	}, nil
}

// Snapshot is the full observable state of a session.
type Snapshot struct {
	ID        uuid.UUID          `json:"id"`
	Scenario  string             `json:"scenario"`
	Tick      uint64             `json:"tick"`
	Avatar    *world.Vec2        `json:"avatar,omitempty"`
	Health    int                `json:"health"`
	Flags     []string           `json:"flags"`
	Inventory []events.ItemView  `json:"inventory"`
	Prompt    string             `json:"prompt,omitempty"`
	Dialog    *events.ShowDialog `json:"dialog,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	st := s.state.Snapshot()
	snap := Snapshot{
		ID:        s.ID,
		Scenario:  s.Scenario,
		Tick:      s.tick,
		Health:    st.Health,
		Flags:     st.Flags,
		Inventory: s.inventory.Views(),
	}
	if s.avatar != nil {
		pos := *s.avatar
		snap.Avatar = &pos
	}
	if cand, ok := s.detector.Current(); ok {
		snap.Prompt = cand.Name
	}
	if node, ok := s.dialog.Current(); ok {
		payload := node.Payload()
		snap.Dialog = &payload
	}
	return snap
}
