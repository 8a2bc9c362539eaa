package dialog

import (
	"errors"
	"fmt"
	"log/slog"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/events"
	"github.com/jwebster45206/deadtown/pkg/inventory"
	"github.com/jwebster45206/deadtown/pkg/world"
)

// Objects is the world registry as the engine sees it.
type Objects interface {
	Get(id string) (world.Object, bool)
	Destroy(id string) error
}

// Inventory is the slice of the inventory manager that outcomes use.
type Inventory interface {
	Carried
	Add(item inventory.Item) (int, error)
	RemoveAt(index int) (inventory.Item, error)
	Use(index int) (inventory.UseResult, error)
	Item(index int) (inventory.Item, error)
}

// GameState is the slice of the game state that outcomes use.
type GameState interface {
	FlagView
	AdjustHealth(delta int) int
	SetFlag(name string) bool
}

// CustomFunc resolves a custom outcome. It returns the node to show next, or
// nil to close the dialog.
type CustomFunc func(boundID string) (*Node, error)

// Engine is the dialog state machine. It is either Closed, or Open with one
// visible node and optionally a bound world object.
type Engine struct {
	library *Library
	objects Objects
	inv     Inventory
	gs      GameState
	events  *events.Channel
	logger  *slog.Logger
	custom  map[string]CustomFunc

	open     bool
	current  Node
	bound    string // world object id, empty for inventory dialogs
	selected int    // inventory slot for inspect dialogs, -1 when none
}

// NewEngine wires the engine to its collaborators and subscribes it to
// dialogChoice relays on ch.
func NewEngine(lib *Library, objects Objects, inv Inventory, gs GameState, ch *events.Channel, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = applog.Discard()
	}
	e := &Engine{
		library:  lib,
		objects:  objects,
		inv:      inv,
		gs:       gs,
		events:   ch,
		logger:   logger,
		custom:   make(map[string]CustomFunc),
		selected: -1,
	}
	if ch != nil {
		ch.Subscribe(events.TopicDialogChoice, e)
	}
	return e
}

// RegisterCustom binds a handler to a custom outcome name.
func (e *Engine) RegisterCustom(name string, fn CustomFunc) {
	e.custom[name] = fn
}

// HandleEvent is the single entry point for choices relayed by the
// presentation layer.
func (e *Engine) HandleEvent(ev events.Event) {
	var actionID string
	switch p := ev.Payload.(type) {
	case events.ChoiceRelay:
		actionID = p.ActionID
	case *events.ChoiceRelay:
		if p == nil {
			return
		}
		actionID = p.ActionID
	default:
		e.logger.Warn("Ignoring malformed dialog choice", "payload", ev.Payload)
		return
	}
	if err := e.Choose(actionID); err != nil {
		e.logger.Warn("Dialog choice not applied", "action", actionID, "error", err)
	}
}

func (e *Engine) IsOpen() bool {
	return e.open
}

// Current returns the visible node.
func (e *Engine) Current() (Node, bool) {
	if !e.open {
		return Node{}, false
	}
	return e.current, true
}

// Bound returns the id of the object the open dialog is about.
func (e *Engine) Bound() string {
	return e.bound
}

// Interact opens the root dialog for a world object. Interacting with the
// object that is already bound is a no-op.
func (e *Engine) Interact(id string) error {
	if e.open && e.bound == id {
		return nil
	}
	obj, ok := e.objects.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", world.ErrNotFound, id)
	}

	var root Node
	switch obj.Kind {
	case world.KindDoorway:
		root = e.library.DoorwayRoot(obj.Name)
	case world.KindItem:
		root = e.library.ItemRoot(obj.Name, obj.Description)
	default:
		e.logger.Warn("Falling back to generic dialog",
			"error", fmt.Errorf("%w: %q", ErrUnknownKind, obj.Kind),
			"object", obj.ID)
		root = e.library.UnknownNode(obj.Name)
	}

	e.logger.Debug("Dialog opened", "object", obj.ID, "node", root.ID)
	e.bound = obj.ID
	e.selected = -1
	e.show(root)
	return nil
}

// InspectItem opens the use/drop dialog for an inventory slot. An open
// dialog is closed first.
func (e *Engine) InspectItem(index int) error {
	item, err := e.inv.Item(index)
	if err != nil {
		return err
	}
	e.Close()
	e.bound = ""
	e.selected = index
	e.show(e.library.InspectNode(item))
	return nil
}

// Choose resolves the choice with actionID on the visible node. It is a no-op
// while Closed; unknown ids change nothing and return ErrUnknownChoice.
func (e *Engine) Choose(actionID string) error {
	if !e.open {
		e.logger.Debug("Choice ignored, no dialog open", "action", actionID)
		return nil
	}
	choice, ok := e.current.Choice(actionID)
	if !ok {
		return fmt.Errorf("%w: %q on node %q", ErrUnknownChoice, actionID, e.current.ID)
	}

	e.logger.Debug("Dialog choice", "node", e.current.ID, "action", actionID, "outcome", choice.Outcome.Kind)
	e.resolve(choice.Outcome)
	return nil
}

// Close hides the dialog if one is open.
func (e *Engine) Close() {
	if !e.open {
		return
	}
	e.open = false
	e.current = Node{}
	e.bound = ""
	e.selected = -1
	e.publish(events.TopicHideDialog, events.Empty{})
}

func (e *Engine) resolve(o Outcome) {
	switch o.Kind {
	case OutcomeClose:
		e.applyState(o)
		e.Close()

	case OutcomeContinue:
		e.applyState(o)
		e.next(o)

	case OutcomePickup:
		e.pickup(o)

	case OutcomeEnterLocation:
		e.enterLocation(o)

	case OutcomeSearch:
		e.search(o)

	case OutcomeCustom:
		e.runCustom(o)

	case OutcomeUseItem:
		e.useSelected()

	case OutcomeDropItem:
		e.dropSelected()

	default:
		e.logger.Warn("Unhandled outcome kind, closing dialog", "kind", o.Kind)
		e.Close()
	}
}

func (e *Engine) pickup(o Outcome) {
	obj, ok := e.objects.Get(e.bound)
	if !ok || obj.Kind != world.KindItem || obj.Item == nil {
		e.logger.Warn("Pickup without a live item", "object", e.bound)
		e.Close()
		return
	}

	if _, err := e.inv.Add(*obj.Item); err != nil {
		e.logger.Info("Pickup rejected", "item", obj.Name, "error", err)
		e.show(e.library.InventoryFullNode())
		return
	}
	if err := e.objects.Destroy(obj.ID); err != nil {
		e.logger.Error("Failed to remove picked up item from world", "object", obj.ID, "error", err)
	}

	e.applyState(o)
	e.next(o)
}

func (e *Engine) enterLocation(o Outcome) {
	obj, ok := e.objects.Get(e.bound)
	if !ok {
		e.logger.Warn("Enter without a bound doorway", "object", e.bound)
		e.Close()
		return
	}
	e.applyState(o)
	if o.Next != "" {
		e.goTo(o.Next)
		return
	}
	e.show(e.library.LocationNode(obj.Name))
}

func (e *Engine) search(o Outcome) {
	if o.Grant != nil {
		if _, err := e.inv.Add(*o.Grant); err != nil {
			e.logger.Info("Search grant rejected", "item", o.Grant.Name, "error", err)
			e.show(e.library.InventoryFullNode())
			return
		}
	}
	e.applyState(o)
	e.next(o)
}

func (e *Engine) runCustom(o Outcome) {
	fn, ok := e.custom[o.Custom]
	if !ok {
		e.logger.Warn("No handler for custom outcome", "custom", o.Custom)
		e.Close()
		return
	}
	node, err := fn(e.bound)
	if err != nil {
		e.logger.Warn("Custom outcome failed", "custom", o.Custom, "error", err)
		e.Close()
		return
	}
	e.applyState(o)
	if node == nil {
		e.next(o)
		return
	}
	if node.Speaker == "" {
		node.Speaker = e.library.Speaker()
	}
	e.show(*node)
}

func (e *Engine) useSelected() {
	if e.selected < 0 {
		e.Close()
		return
	}
	idx := e.selected
	item, _ := e.inv.Item(idx)

	res, err := e.inv.Use(idx)
	switch {
	case errors.Is(err, inventory.ErrNoEffect):
		e.show(e.library.NoEffectNode(item))
	case err != nil:
		e.logger.Warn("Item use failed", "index", idx, "error", err)
		e.Close()
	default:
		e.selected = -1
		e.show(e.library.UsedNode(res))
	}
}

func (e *Engine) dropSelected() {
	if e.selected >= 0 {
		if _, err := e.inv.RemoveAt(e.selected); err != nil {
			e.logger.Warn("Item drop failed", "index", e.selected, "error", err)
		}
	}
	e.Close()
}

func (e *Engine) applyState(o Outcome) {
	if e.gs == nil {
		return
	}
	if o.Flag != "" {
		e.gs.SetFlag(o.Flag)
	}
	if o.Health != 0 {
		e.gs.AdjustHealth(o.Health)
	}
}

// next chains to o.Next or closes.
func (e *Engine) next(o Outcome) {
	if o.Next == "" {
		e.Close()
		return
	}
	e.goTo(o.Next)
}

func (e *Engine) goTo(id string) {
	n, ok := e.library.Node(id)
	if !ok {
		e.logger.Warn("Chained to missing node, closing dialog", "error", fmt.Errorf("%w: %q", ErrUnknownNode, id))
		e.Close()
		return
	}
	e.show(n)
}

func (e *Engine) show(n Node) {
	var flags FlagView
	if e.gs != nil {
		flags = e.gs
	}
	var items Carried
	if e.inv != nil {
		items = e.inv
	}
	e.current = n.Gated(flags, items)
	e.open = true
	e.publish(events.TopicShowDialog, e.current.Payload())
}

func (e *Engine) publish(topic events.Topic, payload any) {
	if e.events != nil {
		e.events.Publish(topic, payload)
	}
}
