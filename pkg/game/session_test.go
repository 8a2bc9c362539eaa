package game

import (
	"errors"
	"testing"

	"github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/scenario"
	"github.com/jwebster45206/deadtown/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*Session, *events.Recorder) {
	t.Helper()
	sc, err := scenario.Default()
	require.NoError(t, err)
	s, err := NewSession(sc, Options{}, nil)
	require.NoError(t, err)
	rec := events.NewRecorder().Attach(s.Events())
	return s, rec
}

// walkTo moves the avatar to an absolute position in one tick.
func walkTo(t *testing.T, s *Session, x, y float64) {
	t.Helper()
	cur := s.Snapshot().Avatar
	require.NotNil(t, cur)
	require.NoError(t, s.Tick(Input{DX: x - cur.X, DY: y - cur.Y}))
}

func TestSession_TickBeforeStart(t *testing.T) {
	s, rec := newSession(t)

	err := s.Tick(Input{DX: 5})
	assert.True(t, errors.Is(err, ErrNotStarted))
	assert.Empty(t, rec.Events)
}

func TestSession_Start(t *testing.T) {
	s, rec := newSession(t)

	s.Start()
	s.Start()

	require.GreaterOrEqual(t, len(rec.Events), 2)
	assert.Equal(t, events.TopicGameStarted, rec.Events[0].Topic)
	assert.Equal(t, events.GameStarted{Health: 100}, rec.Events[0].Payload)
	assert.Equal(t, 1, rec.Count(events.TopicGameStarted))

	snap := s.Snapshot()
	assert.Equal(t, &world.Vec2{X: 400, Y: 300}, snap.Avatar)
	assert.Equal(t, "Outbreak", snap.Scenario)
}

func TestSession_MovementClampsToBounds(t *testing.T) {
	s, rec := newSession(t)
	s.Start()
	rec.Reset()

	require.NoError(t, s.Tick(Input{DX: -1000, DY: 0}))
	assert.Equal(t, &world.Vec2{X: 0, Y: 300}, s.Snapshot().Avatar)

	ev, ok := rec.Last(events.TopicPlayerMove)
	require.True(t, ok)
	assert.Equal(t, events.PlayerMove{X: 0, Y: 300}, ev.Payload)

	// Pushing against the edge does not publish again
	rec.Reset()
	require.NoError(t, s.Tick(Input{DX: -10}))
	assert.Equal(t, 0, rec.Count(events.TopicPlayerMove))
}

func TestSession_PickUpKey(t *testing.T) {
	s, rec := newSession(t)
	s.Start()

	walkTo(t, s, 300, 350)
	ev, ok := rec.Last(events.TopicShowInteractPrompt)
	require.True(t, ok)
	assert.Equal(t, events.InteractPrompt{Name: "Key"}, ev.Payload)

	require.NoError(t, s.Tick(Input{Interact: true}))
	snap := s.Snapshot()
	require.NotNil(t, snap.Dialog)
	assert.Equal(t, "A small key... looks like it might open a locker or small cabinet. Could be useful.", snap.Dialog.Body)

	rec.Reset()
	s.Choose("pickup")

	snap = s.Snapshot()
	assert.Nil(t, snap.Dialog)
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, "Key", snap.Inventory[0].Name)
	assert.Contains(t, snap.Flags, "has_key")
	assert.Equal(t, 1, rec.Count(events.TopicInventoryChanged))
	assert.Equal(t, 1, rec.Count(events.TopicHideDialog))

	// The key is gone, so the next tick hides the prompt
	rec.Reset()
	require.NoError(t, s.Tick(Input{}))
	assert.Equal(t, []events.Topic{events.TopicHideInteractPrompt}, rec.Topics())
	assert.Empty(t, s.Snapshot().Prompt)
}

func TestSession_MovementFrozenDuringDialog(t *testing.T) {
	s, _ := newSession(t)
	s.Start()
	walkTo(t, s, 300, 350)
	s.Interact()
	require.NoError(t, s.Tick(Input{}))
	require.NotNil(t, s.Snapshot().Dialog)

	require.NoError(t, s.Tick(Input{DX: 50}))
	assert.Equal(t, &world.Vec2{X: 300, Y: 350}, s.Snapshot().Avatar)

	s.Choose("cancel")
	require.NoError(t, s.Tick(Input{DX: 50}))
	assert.Equal(t, &world.Vec2{X: 350, Y: 350}, s.Snapshot().Avatar)
}

func TestSession_InteractWithNothingInRange(t *testing.T) {
	s, rec := newSession(t)
	s.Start()
	rec.Reset()

	require.NoError(t, s.Tick(Input{Interact: true}))
	assert.Equal(t, 0, rec.Count(events.TopicShowDialog))
}

func TestSession_PharmacyBackRoomNeedsBoltCutters(t *testing.T) {
	s, _ := newSession(t)
	s.Start()

	// Pharmacy door sits on the bottom edge at (250, 300)
	walkTo(t, s, 250, 300)
	require.NoError(t, s.Tick(Input{Interact: true}))
	assert.Equal(t, "Pharmacy", s.Snapshot().Prompt)
	s.Choose("enter")
	assert.Equal(t, []events.DialogChoice{
		{Text: "Search the shelves", ActionID: "search_shelves"},
		{Text: "Leave", ActionID: "exit_building"},
	}, s.Snapshot().Dialog.Choices)

	s.Choose("search_shelves")
	snap := s.Snapshot()
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, "Antibiotics", snap.Inventory[0].Name)
	s.Choose("exit_building")
	assert.Nil(t, s.Snapshot().Dialog)

	walkTo(t, s, 600, 350)
	require.NoError(t, s.Tick(Input{Interact: true}))
	assert.Equal(t, "Bolt Cutters", s.Snapshot().Prompt)
	s.Choose("pickup")
	assert.Contains(t, s.Snapshot().Flags, "has_bolt_cutters")

	walkTo(t, s, 250, 300)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("enter")
	assert.Equal(t, []events.DialogChoice{
		{Text: "Cut the chain", ActionID: "search_back_room"},
		{Text: "Leave", ActionID: "exit_building"},
	}, s.Snapshot().Dialog.Choices)

	s.Choose("search_back_room")
	assert.Contains(t, s.Snapshot().Flags, "learned_about_charlie")
	assert.Contains(t, s.Snapshot().Dialog.Body, "we went to the pier")
}

func TestSession_DroppedBoltCuttersHideBackRoom(t *testing.T) {
	s, _ := newSession(t)
	s.Start()

	walkTo(t, s, 600, 350)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("pickup")
	require.Len(t, s.Snapshot().Inventory, 1)

	require.NoError(t, s.InspectItem(0))
	s.Choose("drop")
	snap := s.Snapshot()
	assert.Empty(t, snap.Inventory)
	assert.Contains(t, snap.Flags, "has_bolt_cutters")

	walkTo(t, s, 250, 300)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("enter")
	assert.Equal(t, []events.DialogChoice{
		{Text: "Search the shelves", ActionID: "search_shelves"},
		{Text: "Leave", ActionID: "exit_building"},
	}, s.Snapshot().Dialog.Choices)
}

func TestSession_InspectClosesWorldDialog(t *testing.T) {
	s, rec := newSession(t)
	s.Start()

	walkTo(t, s, 800, 550)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("pickup")

	walkTo(t, s, 300, 350)
	require.NoError(t, s.Tick(Input{Interact: true}))
	require.NotNil(t, s.Snapshot().Dialog)
	rec.Reset()

	require.NoError(t, s.InspectItem(0))
	assert.Equal(t, 1, rec.Count(events.TopicHideDialog))
	assert.Equal(t, []events.DialogChoice{
		{Text: "Use", ActionID: "use"},
		{Text: "Drop", ActionID: "drop"},
		{Text: "Cancel", ActionID: "cancel"},
	}, s.Snapshot().Dialog.Choices)

	// The key was never picked up
	s.Choose("cancel")
	require.Len(t, s.Snapshot().Inventory, 1)
	require.NoError(t, s.Tick(Input{}))
	assert.Equal(t, "Key", s.Snapshot().Prompt)
}

func TestSession_AmbushThenMedkit(t *testing.T) {
	s, rec := newSession(t)
	s.Start()

	walkTo(t, s, 800, 550)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("pickup")
	require.Len(t, s.Snapshot().Inventory, 1)

	// Shopping Center door sits on the top edge at (775, 450)
	walkTo(t, s, 775, 450)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("enter")
	s.Choose("push_further")
	assert.Equal(t, 85, s.Snapshot().Health)
	ev, ok := rec.Last(events.TopicUpdateHealth)
	require.True(t, ok)
	assert.Equal(t, events.HealthUpdate{Health: 85}, ev.Payload)
	s.Choose("ok")

	require.NoError(t, s.InspectItem(0))
	s.Choose("use")
	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Health)
	assert.Empty(t, snap.Inventory)
	assert.Equal(t, "I've used the medkit. I feel better now.", snap.Dialog.Body)
}

func TestSession_CheckInventory(t *testing.T) {
	s, _ := newSession(t)
	s.Start()

	walkTo(t, s, 300, 350)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("pickup")

	// Hardware Store door sits on the bottom edge at (675, 350)
	walkTo(t, s, 675, 350)
	require.NoError(t, s.Tick(Input{Interact: true}))
	s.Choose("enter")
	s.Choose("check_bag")

	snap := s.Snapshot()
	require.NotNil(t, snap.Dialog)
	assert.Equal(t, "I'm carrying (1/10):\n- Key", snap.Dialog.Body)
	assert.Equal(t, "Jamie", snap.Dialog.Speaker)
}

func TestSession_ItemRangeOverride(t *testing.T) {
	sc, err := scenario.Default()
	require.NoError(t, err)
	s, err := NewSession(sc, Options{ItemRange: 200}, nil)
	require.NoError(t, err)
	s.Start()

	// 100 units from the key, out of the default range
	walkTo(t, s, 400, 350)
	assert.Equal(t, "Key", s.Snapshot().Prompt)
}

func TestSession_IsolatedWorlds(t *testing.T) {
	a, _ := newSession(t)
	b, _ := newSession(t)
	assert.NotEqual(t, a.ID, b.ID)

	a.Start()
	b.Start()
	walkTo(t, a, 300, 350)
	require.NoError(t, a.Tick(Input{Interact: true}))
	a.Choose("pickup")

	walkTo(t, b, 300, 350)
	assert.Equal(t, "Key", b.Snapshot().Prompt)
}
