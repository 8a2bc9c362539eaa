package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	applog "github.com/jwebster45206/deadtown/internal/logger"
	"github.com/jwebster45206/deadtown/pkg/events"
)

// MaxCapacity is the number of slots in the player's inventory.
const MaxCapacity = 10

var (
	ErrInventoryFull   = errors.New("inventory full")
	ErrIndexOutOfRange = errors.New("inventory index out of range")
	ErrNoEffect        = errors.New("item has no use effect")
)

// Item is one inventory slot.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"` // texture key
}

// Effect describes what using an item does.
type Effect struct {
	Health   int    `json:"health,omitempty"`   // health delta
	Consumes bool   `json:"consumes,omitempty"` // removed after use
	Message  string `json:"message,omitempty"`  // shown after a successful use
}

// HealthAdjuster is the slice of the game state that item effects touch.
type HealthAdjuster interface {
	AdjustHealth(delta int) int
}

// UseResult reports what a successful Use did.
type UseResult struct {
	Item     Item
	Effect   Effect
	Consumed bool
	Health   int // health after the effect
}

// Manager owns the ordered, capacity-bounded item list.
type Manager struct {
	items    []Item
	capacity int
	effects  map[string]Effect // item name -> effect

	health HealthAdjuster
	events *events.Channel
	logger *slog.Logger
}

// NewManager creates an empty inventory with MaxCapacity slots.
func NewManager(health HealthAdjuster, ch *events.Channel, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{
		items:    make([]Item, 0, MaxCapacity),
		capacity: MaxCapacity,
		effects:  make(map[string]Effect),
		health:   health,
		events:   ch,
		logger:   logger,
	}
}

// SetEffect registers the use effect for items named name.
func (m *Manager) SetEffect(name string, e Effect) {
	m.effects[name] = e
}

// EffectFor returns the effect registered for an item name.
func (m *Manager) EffectFor(name string) (Effect, bool) {
	e, ok := m.effects[name]
	return e, ok
}

func (m *Manager) Size() int {
	return len(m.items)
}

func (m *Manager) Capacity() int {
	return m.capacity
}

// Items returns a copy of the inventory in insertion order.
func (m *Manager) Items() []Item {
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Has reports whether an item called name is carried.
func (m *Manager) Has(name string) bool {
	for _, it := range m.items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// Item returns the item at index.
func (m *Manager) Item(index int) (Item, error) {
	if index < 0 || index >= len(m.items) {
		return Item{}, fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, len(m.items))
	}
	return m.items[index], nil
}

// Add appends item and returns its index. A full inventory rejects the item
// with ErrInventoryFull and leaves the contents untouched.
func (m *Manager) Add(item Item) (int, error) {
	if len(m.items) >= m.capacity {
		m.logger.Debug("Inventory full, item rejected", "item", item.Name, "size", len(m.items))
		return -1, ErrInventoryFull
	}
	m.items = append(m.items, item)
	m.logger.Info("Item added to inventory", "item", item.Name, "index", len(m.items)-1)
	m.publishChanged()
	return len(m.items) - 1, nil
}

// RemoveAt removes and returns the item at index. Later items shift down by
// one, so indexes are not stable across removals.
func (m *Manager) RemoveAt(index int) (Item, error) {
	item, err := m.Item(index)
	if err != nil {
		return Item{}, err
	}
	m.items = removeAt(m.items, index)
	m.logger.Info("Item removed from inventory", "item", item.Name, "index", index)
	m.publishChanged()
	return item, nil
}

// Use applies the effect of the item at index. Items without a registered
// effect fail with ErrNoEffect and stay in the inventory.
func (m *Manager) Use(index int) (UseResult, error) {
	item, err := m.Item(index)
	if err != nil {
		return UseResult{}, err
	}
	effect, ok := m.effects[item.Name]
	if !ok {
		return UseResult{}, fmt.Errorf("%w: %s", ErrNoEffect, item.Name)
	}

	result := UseResult{Item: item, Effect: effect}
	if effect.Health != 0 && m.health != nil {
		result.Health = m.health.AdjustHealth(effect.Health)
	}
	if effect.Consumes {
		m.items = removeAt(m.items, index)
		result.Consumed = true
	}

	m.logger.Info("Item used", "item", item.Name, "consumed", result.Consumed, "health", result.Health)
	m.publishChanged()
	return result, nil
}

// Describe returns a short in-world listing of the inventory.
func (m *Manager) Describe() string {
	if len(m.items) == 0 {
		return "My pockets are empty."
	}
	names := make([]string, len(m.items))
	for i, item := range m.items {
		names[i] = item.Name
	}
	return fmt.Sprintf("I'm carrying (%d/%d):\n- %s", len(m.items), m.capacity, strings.Join(names, "\n- "))
}

// Views converts the inventory into presentation payload items.
func (m *Manager) Views() []events.ItemView {
	out := make([]events.ItemView, len(m.items))
	for i, item := range m.items {
		out[i] = events.ItemView{Name: item.Name, Description: item.Description, Image: item.Image}
	}
	return out
}

func (m *Manager) publishChanged() {
	if m.events != nil {
		m.events.Publish(events.TopicInventoryChanged, events.InventoryChanged{Items: m.Views()})
	}
}

func removeAt(items []Item, i int) []Item {
	return append(items[:i], items[i+1:]...)
}
