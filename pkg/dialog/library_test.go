package dialog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeKind_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    OutcomeKind
		wantErr bool
	}{
		{in: "close", want: OutcomeClose},
		{in: "cancel", want: OutcomeClose},
		{in: "enter-location", want: OutcomeEnterLocation},
		{in: "enter", want: OutcomeEnterLocation},
		{in: " Pickup ", want: OutcomePickup},
		{in: "use_item", want: OutcomeUseItem},
		{in: "drop", want: OutcomeDropItem},
		{in: "teleport", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var k OutcomeKind
			err := k.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
		})
	}
}

func TestNode_DecodeFromJSON(t *testing.T) {
	raw := `{
		"id": "pharmacy_inside",
		"text": "Shelves everywhere.",
		"choices": [
			{"text": "Search", "action": "search_shelves",
			 "outcome": {"kind": "search", "grant": {"name": "Antibiotics"}, "flag": "searched"},
			 "excludes": ["searched"]},
			{"text": "Leave", "action": "exit_building", "outcome": {"kind": "close"}}
		]
	}`
	var n Node
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	require.NoError(t, n.Validate())

	c, ok := n.Choice("search_shelves")
	require.True(t, ok)
	assert.Equal(t, OutcomeSearch, c.Outcome.Kind)
	require.NotNil(t, c.Outcome.Grant)
	assert.Equal(t, "Antibiotics", c.Outcome.Grant.Name)
	assert.Equal(t, []string{"searched"}, c.Excludes)
}

func TestNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr error
	}{
		{
			name:    "no choices",
			node:    Node{ID: "a"},
			wantErr: ErrNoChoices,
		},
		{
			name: "duplicate action",
			node: Node{ID: "a", Choices: []Choice{
				{Text: "x", Action: "go", Outcome: Close()},
				{Text: "y", Action: "go", Outcome: Close()},
			}},
			wantErr: ErrDuplicateChoice,
		},
		{
			name: "ok",
			node: Node{ID: "a", Choices: []Choice{{Text: "x", Action: "go", Outcome: Close()}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLibrary_AddAndBind(t *testing.T) {
	lib := NewLibrary("")
	assert.Equal(t, DefaultSpeaker, lib.Speaker())

	n := Node{ID: "inside", Body: "Dark.", Choices: []Choice{{Text: "Leave", Action: "exit_building", Outcome: Close()}}}
	require.NoError(t, lib.Add(n))
	assert.True(t, errors.Is(lib.Add(n), ErrDuplicateNode))

	got, ok := lib.Node("inside")
	require.True(t, ok)
	assert.Equal(t, DefaultSpeaker, got.Speaker)

	assert.True(t, errors.Is(lib.BindLocation("Pharmacy", "nope"), ErrUnknownNode))
	require.NoError(t, lib.BindLocation("Pharmacy", "inside"))
	assert.Equal(t, "inside", lib.LocationNode("Pharmacy").ID)
	assert.Equal(t, "location:Zoo", lib.LocationNode("Zoo").ID)
}

func TestLibrary_ValidateChains(t *testing.T) {
	lib := NewLibrary("Jamie")
	require.NoError(t, lib.Add(Node{ID: "a", Body: "A", Choices: []Choice{{Text: "on", Action: "on", Outcome: Continue("b")}}}))
	assert.True(t, errors.Is(lib.Validate(), ErrUnknownNode))

	require.NoError(t, lib.Add(Node{ID: "b", Body: "B", Choices: []Choice{{Text: "ok", Action: "ok", Outcome: Close()}}}))
	assert.NoError(t, lib.Validate())
	assert.Equal(t, []string{"a", "b"}, lib.NodeIDs())
}

func TestLibrary_NoticeOverride(t *testing.T) {
	lib := NewLibrary("")
	assert.Equal(t, "My inventory is full. I need to drop something first.", lib.InventoryFullNode().Body)

	require.NoError(t, lib.Add(Node{
		ID:      "inventory_full",
		Body:    "No room. Drop something.",
		Choices: []Choice{{Text: "Fine", Action: "ok", Outcome: Close()}},
	}))
	assert.Equal(t, "No room. Drop something.", lib.InventoryFullNode().Body)
}
