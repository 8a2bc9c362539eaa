package dialog

import (
	"fmt"
	"sort"

	"github.com/jwebster45206/deadtown/pkg/inventory"
)

// DefaultSpeaker voices every node that does not name its own speaker.
const DefaultSpeaker = "Jamie"

// Action ids used by the built-in nodes.
const (
	ActionEnter    = "enter"
	ActionCancel   = "cancel"
	ActionPickup   = "pickup"
	ActionContinue = "continue"
	ActionUse      = "use"
	ActionDrop     = "drop"
	ActionOK       = "ok"
)

// Library is the authored dialog content: nodes by id plus the maps that pick
// a root node for a doorway, an item, or a location.
type Library struct {
	speaker   string
	nodes     map[string]Node
	doorways  map[string]string // doorway name -> node id
	items     map[string]string // item name -> node id
	locations map[string]string // doorway name -> location node id
}

func NewLibrary(speaker string) *Library {
	if speaker == "" {
		speaker = DefaultSpeaker
	}
	return &Library{
		speaker:   speaker,
		nodes:     make(map[string]Node),
		doorways:  make(map[string]string),
		items:     make(map[string]string),
		locations: make(map[string]string),
	}
}

func (l *Library) Speaker() string {
	return l.speaker
}

// Add registers a node. Nodes without a speaker get the library speaker.
func (l *Library) Add(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("dialog node has no id")
	}
	if _, exists := l.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if n.Speaker == "" {
		n.Speaker = l.speaker
	}
	l.nodes[n.ID] = n
	return nil
}

// Node returns the node with id.
func (l *Library) Node(id string) (Node, bool) {
	n, ok := l.nodes[id]
	return n, ok
}

// NodeIDs returns every node id, sorted.
func (l *Library) NodeIDs() []string {
	ids := make([]string, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (l *Library) BindDoorway(name, nodeID string) error {
	return l.bind(l.doorways, name, nodeID)
}

func (l *Library) BindItem(name, nodeID string) error {
	return l.bind(l.items, name, nodeID)
}

func (l *Library) BindLocation(name, nodeID string) error {
	return l.bind(l.locations, name, nodeID)
}

func (l *Library) bind(m map[string]string, name, nodeID string) error {
	if _, ok := l.nodes[nodeID]; !ok {
		return fmt.Errorf("%w: %q (bound to %q)", ErrUnknownNode, nodeID, name)
	}
	m[name] = nodeID
	return nil
}

// Validate checks that every chained node exists.
func (l *Library) Validate() error {
	for _, id := range l.NodeIDs() {
		n := l.nodes[id]
		for _, c := range n.Choices {
			if c.Outcome.Next == "" {
				continue
			}
			if _, ok := l.nodes[c.Outcome.Next]; !ok {
				return fmt.Errorf("%w: node %q choice %q chains to %q", ErrUnknownNode, id, c.Action, c.Outcome.Next)
			}
		}
	}
	return nil
}

// DoorwayRoot returns the node shown when approaching a doorway, or the
// generic entrance node when the doorway has none.
func (l *Library) DoorwayRoot(name string) Node {
	if n, ok := l.bound(l.doorways, name); ok {
		return n
	}
	return Node{
		ID:      "doorway:" + name,
		Speaker: l.speaker,
		Body:    fmt.Sprintf("Entering %s...", name),
		Choices: []Choice{
			{Text: "Go inside", Action: ActionEnter, Outcome: EnterLocation()},
			{Text: "Not now", Action: ActionCancel, Outcome: Close()},
		},
	}
}

// ItemRoot returns the node shown for an item lying in the world, or the
// generic "Found X" node.
func (l *Library) ItemRoot(name, description string) Node {
	if n, ok := l.bound(l.items, name); ok {
		return n
	}
	return Node{
		ID:      "item:" + name,
		Speaker: l.speaker,
		Body:    fmt.Sprintf("Found %s: %s", name, description),
		Choices: []Choice{
			{Text: "Take it", Action: ActionPickup, Outcome: Pickup()},
			{Text: "Leave it", Action: ActionCancel, Outcome: Close()},
		},
	}
}

// LocationNode returns the node shown after entering a doorway.
func (l *Library) LocationNode(name string) Node {
	if n, ok := l.bound(l.locations, name); ok {
		return n
	}
	return Node{
		ID:      "location:" + name,
		Speaker: l.speaker,
		Body:    fmt.Sprintf("You enter the %s. The inside is dark and eerie.", name),
		Choices: []Choice{
			{Text: "Continue exploring", Action: ActionContinue, Outcome: Close()},
		},
	}
}

// InventoryFullNode is shown when a pickup or search grant is rejected.
func (l *Library) InventoryFullNode() Node {
	return l.notice("inventory_full", "My inventory is full. I need to drop something first.")
}

// InspectNode offers the actions for an inventory slot.
func (l *Library) InspectNode(item inventory.Item) Node {
	return Node{
		ID:      "inspect:" + item.Name,
		Speaker: "Item",
		Body:    fmt.Sprintf("%s: %s", item.Name, item.Description),
		Choices: []Choice{
			{Text: "Use", Action: ActionUse, Outcome: Outcome{Kind: OutcomeUseItem}},
			{Text: "Drop", Action: ActionDrop, Outcome: Outcome{Kind: OutcomeDropItem}},
			{Text: "Cancel", Action: ActionCancel, Outcome: Close()},
		},
	}
}

// UsedNode confirms a successful item use.
func (l *Library) UsedNode(res inventory.UseResult) Node {
	msg := res.Effect.Message
	if msg == "" {
		msg = fmt.Sprintf("I've used the %s.", res.Item.Name)
	}
	return l.notice("used:"+res.Item.Name, msg)
}

// NoEffectNode is shown when an item has no use.
func (l *Library) NoEffectNode(item inventory.Item) Node {
	return l.notice("no_effect:"+item.Name, fmt.Sprintf("I can't think of a way to use the %s right now.", item.Name))
}

// UnknownNode stands in for objects of a kind the engine does not handle.
func (l *Library) UnknownNode(name string) Node {
	return l.notice("unknown:"+name, fmt.Sprintf("There's nothing I can do with the %s.", name))
}

func (l *Library) notice(id, body string) Node {
	if n, ok := l.nodes[id]; ok {
		return n
	}
	return Node{
		ID:      id,
		Speaker: l.speaker,
		Body:    body,
		Choices: []Choice{{Text: "OK", Action: ActionContinue, Outcome: Close()}},
	}
}

func (l *Library) bound(m map[string]string, name string) (Node, bool) {
	id, ok := m[name]
	if !ok {
		return Node{}, false
	}
	n, ok := l.nodes[id]
	return n, ok
}
