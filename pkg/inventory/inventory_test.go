package inventory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var medkit = Item{Name: "Medkit", Description: "A first aid kit that can restore health.", Image: "medkit"}

func setup(t *testing.T, health int) (*Manager, *state.GameState, *events.Recorder) {
	t.Helper()
	ch := events.NewChannel(nil)
	rec := events.NewRecorder().Attach(ch)
	gs := state.NewGameState(health, ch, nil)
	m := NewManager(gs, ch, nil)
	m.SetEffect("Medkit", Effect{Health: 50, Consumes: true, Message: "I've used the medkit. I feel better now."})
	return m, gs, rec
}

func fill(t *testing.T, m *Manager, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := m.Add(Item{Name: fmt.Sprintf("Item %d", i)})
		require.NoError(t, err)
	}
}

func TestManager_AddPreservesOrder(t *testing.T) {
	m, _, rec := setup(t, 100)

	idx, err := m.Add(Item{Name: "Key"})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = m.Add(Item{Name: "Bolt Cutters"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	assert.Equal(t, []Item{{Name: "Key"}, {Name: "Bolt Cutters"}}, m.Items())
	assert.Equal(t, 2, rec.Count(events.TopicInventoryChanged))

	ev, ok := rec.Last(events.TopicInventoryChanged)
	require.True(t, ok)
	payload := ev.Payload.(events.InventoryChanged)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "Bolt Cutters", payload.Items[1].Name)
}

func TestManager_Has(t *testing.T) {
	m, _, _ := setup(t, 100)
	assert.False(t, m.Has("Bolt Cutters"))

	_, err := m.Add(Item{Name: "Bolt Cutters"})
	require.NoError(t, err)
	assert.True(t, m.Has("Bolt Cutters"))
	assert.False(t, m.Has("bolt cutters"))

	_, err = m.RemoveAt(0)
	require.NoError(t, err)
	assert.False(t, m.Has("Bolt Cutters"))
}

func TestManager_CapacityIsNeverExceeded(t *testing.T) {
	m, _, rec := setup(t, 100)
	fill(t, m, MaxCapacity)
	before := m.Items()
	rec.Reset()

	idx, err := m.Add(Item{Name: "Baseball Bat"})
	assert.ErrorIs(t, err, ErrInventoryFull)
	assert.Equal(t, -1, idx)
	assert.Equal(t, MaxCapacity, m.Size())
	assert.Equal(t, before, m.Items())
	assert.Zero(t, rec.Count(events.TopicInventoryChanged), "rejected add must not publish")
}

func TestManager_RemoveAtTwice(t *testing.T) {
	m, _, _ := setup(t, 100)
	fill(t, m, 3)

	first, err := m.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "Item 1", first.Name)

	second, err := m.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "Item 2", second.Name)

	assert.Equal(t, []Item{{Name: "Item 0"}}, m.Items())
}

func TestManager_RemoveAtUntilEmpty(t *testing.T) {
	m, _, _ := setup(t, 100)
	fill(t, m, 1)

	_, err := m.RemoveAt(0)
	require.NoError(t, err)

	_, err = m.RemoveAt(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestManager_RemoveAtOutOfRange(t *testing.T) {
	m, _, rec := setup(t, 100)
	fill(t, m, 2)
	rec.Reset()

	for _, idx := range []int{-1, 2, 99} {
		_, err := m.RemoveAt(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}
	assert.Equal(t, 2, m.Size())
	assert.Empty(t, rec.Events)
}

func TestManager_UseMedkit(t *testing.T) {
	m, gs, rec := setup(t, 60)
	_, err := m.Add(medkit)
	require.NoError(t, err)
	rec.Reset()

	result, err := m.Use(0)
	require.NoError(t, err)
	assert.True(t, result.Consumed)
	assert.Equal(t, 100, result.Health)
	assert.Equal(t, 100, gs.Health())
	assert.Zero(t, m.Size())

	assert.Equal(t, 1, rec.Count(events.TopicUpdateHealth))
	assert.Equal(t, 1, rec.Count(events.TopicInventoryChanged))

	_, err = m.Use(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 100, gs.Health(), "health applied exactly once")
}

func TestManager_UseAtFullHealthStillConsumes(t *testing.T) {
	m, gs, rec := setup(t, 100)
	_, err := m.Add(medkit)
	require.NoError(t, err)
	rec.Reset()

	result, err := m.Use(0)
	require.NoError(t, err)
	assert.True(t, result.Consumed)
	assert.Equal(t, 100, gs.Health())
	assert.Zero(t, rec.Count(events.TopicUpdateHealth), "unchanged health is not republished")
	assert.Equal(t, 1, rec.Count(events.TopicInventoryChanged))
}

func TestManager_UseWithoutEffect(t *testing.T) {
	m, _, rec := setup(t, 50)
	_, err := m.Add(Item{Name: "Key"})
	require.NoError(t, err)
	rec.Reset()

	_, err = m.Use(0)
	assert.True(t, errors.Is(err, ErrNoEffect))
	assert.Equal(t, 1, m.Size(), "item without effect is kept")
	assert.Empty(t, rec.Events)
}

func TestManager_UseNonConsumingEffect(t *testing.T) {
	m, gs, _ := setup(t, 50)
	m.SetEffect("Canteen", Effect{Health: 5})
	_, err := m.Add(Item{Name: "Canteen"})
	require.NoError(t, err)

	result, err := m.Use(0)
	require.NoError(t, err)
	assert.False(t, result.Consumed)
	assert.Equal(t, 55, gs.Health())
	assert.Equal(t, 1, m.Size())
}

func TestManager_Describe(t *testing.T) {
	m, _, _ := setup(t, 100)
	assert.Equal(t, "My pockets are empty.", m.Describe())

	_, _ = m.Add(Item{Name: "Key"})
	_, _ = m.Add(medkit)
	assert.Equal(t, "I'm carrying (2/10):\n- Key\n- Medkit", m.Describe())
}
