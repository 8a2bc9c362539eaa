package world

import (
	"testing"

	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Add(Object{ID: "key", Kind: KindItem, Name: "Key", Description: "A small key.", Position: Vec2{300, 350}}))
	require.NoError(t, r.Add(Object{ID: "pharmacy", Kind: KindDoorway, Name: "Pharmacy", Position: Vec2{250, 300}, Radius: 40}))
	require.NoError(t, r.Add(Object{ID: "medkit", Kind: KindItem, Name: "Medkit", Position: Vec2{800, 550},
		Item: &inventory.Item{Name: "Medkit", Image: "medkit"}}))
	return r
}

func TestVec2_Distance(t *testing.T) {
	assert.InDelta(t, 5.0, Vec2{0, 0}.Distance(Vec2{3, 4}), 1e-9)
	assert.InDelta(t, 0.0, Vec2{7, 7}.Distance(Vec2{7, 7}), 1e-9)
}

func TestBounds_Clamp(t *testing.T) {
	b := Bounds{Width: 100, Height: 50}
	assert.Equal(t, Vec2{0, 50}, b.Clamp(Vec2{-10, 80}))
	assert.Equal(t, Vec2{20, 20}, b.Clamp(Vec2{20, 20}))
	assert.Equal(t, Vec2{-5, 999}, Bounds{}.Clamp(Vec2{-5, 999}))
}

func TestRegistry_AddAndGet(t *testing.T) {
	r := testRegistry(t)

	key, ok := r.Get("key")
	require.True(t, ok)
	require.NotNil(t, key.Item, "items get a default payload")
	assert.Equal(t, "Key", key.Item.Name)
	assert.Equal(t, "A small key.", key.Item.Description)

	err := r.Add(Object{ID: "key", Kind: KindItem, Name: "Another"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	assert.Error(t, r.Add(Object{Kind: KindItem, Name: "No ID"}))
}

func TestRegistry_KindsKeepRegistrationOrder(t *testing.T) {
	r := testRegistry(t)

	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "key", items[0].ID)
	assert.Equal(t, "medkit", items[1].ID)

	doors := r.Doorways()
	require.Len(t, doors, 1)
	assert.Equal(t, "pharmacy", doors[0].ID)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_DestroyOnce(t *testing.T) {
	r := testRegistry(t)

	require.NoError(t, r.Destroy("key"))
	assert.False(t, r.Alive("key"))
	assert.ErrorIs(t, r.Destroy("key"), ErrNotFound)
	assert.Len(t, r.Items(), 1)
}

func TestRegistry_DoorwaysAreNotDestroyable(t *testing.T) {
	r := testRegistry(t)

	assert.ErrorIs(t, r.Destroy("pharmacy"), ErrNotDestroyable)
	assert.True(t, r.Alive("pharmacy"))
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := testRegistry(t)

	obj, _ := r.Get("key")
	obj.Position = Vec2{0, 0}

	again, _ := r.Get("key")
	assert.Equal(t, Vec2{300, 350}, again.Position)
}
